package host

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/pkg/types"
)

// MainTabID is the id of the single mail tab a View exposes
const MainTabID = "main"

// View keeps the state of the main mail tab in memory. It starts with no
// folder displayed, in which case Current reports no active view.
type View struct {
	mu      sync.RWMutex
	folder  *types.FolderRef
	message *types.Message
	logger  *logrus.Logger
}

// NewView creates an empty mail view
func NewView(logger *logrus.Logger) *View {
	return &View{logger: logger}
}

// Current returns the main tab, or nil while nothing is displayed
func (v *View) Current(_ context.Context) (*types.MailTab, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.folder == nil {
		return nil, nil
	}
	folder := *v.folder
	tab := &types.MailTab{ID: MainTabID, DisplayedFolder: &folder}
	if v.message != nil {
		msg := *v.message
		tab.DisplayedMessage = &msg
	}
	return tab, nil
}

// Update displays a folder in the given tab
func (v *View) Update(_ context.Context, tabID string, ref types.FolderRef) error {
	if tabID != MainTabID {
		return &UnknownTabError{TabID: tabID}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.folder = &ref
	v.message = nil
	v.logger.WithFields(logrus.Fields{
		"account": ref.AccountID,
		"folder":  ref.Path,
	}).Info("Displaying folder")
	return nil
}

// ShowMessage displays a message and the folder holding it
func (v *View) ShowMessage(msg types.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	folder := msg.Folder()
	v.folder = &folder
	v.message = &msg
}

// UnknownTabError is returned when updating a tab that does not exist
type UnknownTabError struct {
	TabID string
}

func (e *UnknownTabError) Error() string {
	return "unknown mail tab: " + e.TabID
}
