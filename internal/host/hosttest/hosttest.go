// Package hosttest provides an in-memory host for handler tests.
package hosttest

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/pkg/types"
)

// Created records one notification creation
type Created struct {
	Handle       string
	Notification types.Notification
}

// Host implements every host interface except host.MessageOpener
type Host struct {
	mu sync.Mutex

	AccountList []types.Account
	Trees       map[string][]*types.Folder
	Unread      map[types.FolderRef]int
	Favorites   map[types.FolderRef]bool
	InfoErr     map[types.FolderRef]error
	InfoCalls   []types.FolderRef

	Tab     *types.MailTab
	Updated []types.FolderRef

	QueryResults map[string]*types.MessagePage
	Pages        map[string]*types.MessagePage
	Continued    []string

	Created   []Created
	CreateErr map[string]error

	WindowList []types.Window
	Attention  []int
}

var (
	_ host.Accounts      = (*Host)(nil)
	_ host.Folders       = (*Host)(nil)
	_ host.MailTabs      = (*Host)(nil)
	_ host.Messages      = (*Host)(nil)
	_ host.Notifications = (*Host)(nil)
	_ host.Windows       = (*Host)(nil)
)

// New creates an empty host
func New() *Host {
	return &Host{
		Trees:        make(map[string][]*types.Folder),
		Unread:       make(map[types.FolderRef]int),
		Favorites:    make(map[types.FolderRef]bool),
		InfoErr:      make(map[types.FolderRef]error),
		QueryResults: make(map[string]*types.MessagePage),
		Pages:        make(map[string]*types.MessagePage),
		CreateErr:    make(map[string]error),
	}
}

// Folder builds a folder node; the name is the last path element
func Folder(accountID, p string, folderType types.FolderType, children ...*types.Folder) *types.Folder {
	return &types.Folder{
		AccountID:  accountID,
		Name:       path.Base(p),
		Path:       p,
		Type:       folderType,
		Selectable: true,
		SubFolders: children,
	}
}

// AddAccount registers an account and its top-level folders
func (h *Host) AddAccount(id string, folders ...*types.Folder) {
	h.AccountList = append(h.AccountList, types.Account{ID: id, Name: id})
	h.Trees[id] = folders
}

// Display makes a folder the displayed folder of the main tab
func (h *Host) Display(accountID, p string) {
	h.Tab = &types.MailTab{
		ID:              host.MainTabID,
		DisplayedFolder: &types.FolderRef{AccountID: accountID, Path: p},
	}
}

func (h *Host) ListAccounts(_ context.Context) ([]types.Account, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]types.Account(nil), h.AccountList...), nil
}

func (h *Host) SubFolders(_ context.Context, accountID string) ([]*types.Folder, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Trees[accountID], nil
}

func (h *Host) FolderInfo(_ context.Context, ref types.FolderRef) (*types.FolderInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.InfoCalls = append(h.InfoCalls, ref)
	if err := h.InfoErr[ref]; err != nil {
		return nil, err
	}
	return &types.FolderInfo{
		Favorite:           h.Favorites[ref],
		UnreadMessageCount: h.Unread[ref],
	}, nil
}

func (h *Host) Current(_ context.Context) (*types.MailTab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Tab == nil {
		return nil, nil
	}
	tab := *h.Tab
	return &tab, nil
}

func (h *Host) Update(_ context.Context, tabID string, ref types.FolderRef) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Tab == nil || h.Tab.ID != tabID {
		return &host.UnknownTabError{TabID: tabID}
	}
	h.Updated = append(h.Updated, ref)
	h.Tab.DisplayedFolder = &ref
	return nil
}

func (h *Host) Query(_ context.Context, headerMessageID string) (*types.MessagePage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if page, ok := h.QueryResults[headerMessageID]; ok {
		return page, nil
	}
	return &types.MessagePage{}, nil
}

func (h *Host) ContinueList(_ context.Context, pageID string) (*types.MessagePage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Continued = append(h.Continued, pageID)
	page, ok := h.Pages[pageID]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", pageID)
	}
	return page, nil
}

func (h *Host) Create(_ context.Context, handle string, n types.Notification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.CreateErr[handle]; err != nil {
		return err
	}
	h.Created = append(h.Created, Created{Handle: handle, Notification: n})
	return nil
}

func (h *Host) List(_ context.Context, windowType types.WindowType) ([]types.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []types.Window
	for _, w := range h.WindowList {
		if w.Type == windowType {
			out = append(out, w)
		}
	}
	return out, nil
}

func (h *Host) DrawAttention(_ context.Context, windowID int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Attention = append(h.Attention, windowID)
	return nil
}

// OpeningHost adds host.MessageOpener to Host
type OpeningHost struct {
	*Host
	Opened  []types.Message
	OpenErr error
}

func (h *OpeningHost) OpenMessage(_ context.Context, msg types.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OpenErr != nil {
		return h.OpenErr
	}
	h.Opened = append(h.Opened, msg)
	return nil
}
