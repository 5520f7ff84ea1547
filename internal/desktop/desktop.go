// Package desktop shows notifications through the operating system
// notification service and exposes the daemon as a single main window.
package desktop

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/pkg/types"
)

// AppName is the application name notifications are grouped under
const AppName = "mailnav"

// MainWindowID is the id of the only window
const MainWindowID = 1

// Desktop implements notifications and window attention on the local desktop
type Desktop struct {
	notify func(title, message string, icon any) error
	beep   func(freq float64, duration int) error
	logger *logrus.Logger
}

// New creates a desktop backed by beeep
func New(logger *logrus.Logger) *Desktop {
	beeep.AppName = AppName
	return &Desktop{
		notify: beeep.Notify,
		beep:   beeep.Beep,
		logger: logger,
	}
}

// Create shows a notification. The handle is only logged; activations come
// back through the notification_clicked tool.
func (d *Desktop) Create(_ context.Context, handle string, n types.Notification) error {
	if n.Kind != types.NotificationBasic {
		return fmt.Errorf("unsupported notification type: %q", n.Kind)
	}

	if err := d.notify(n.Title, n.Body, n.Icon); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"handle": handle,
		"title":  n.Title,
	}).Info("Notification shown")
	return nil
}

// List returns the main window for the normal type and nothing otherwise
func (d *Desktop) List(_ context.Context, windowType types.WindowType) ([]types.Window, error) {
	if windowType != types.WindowNormal {
		return nil, nil
	}
	return []types.Window{{ID: MainWindowID, Type: types.WindowNormal}}, nil
}

// DrawAttention beeps for the main window
func (d *Desktop) DrawAttention(_ context.Context, windowID int) error {
	if windowID != MainWindowID {
		return fmt.Errorf("unknown window: %d", windowID)
	}
	if err := d.beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		return fmt.Errorf("failed to draw attention: %w", err)
	}
	return nil
}
