// Package host defines the capabilities the mail add-on needs from the mail
// client it runs on. Handlers only ever see these interfaces.
package host

import (
	"context"

	"github.com/brandon/mailnav/pkg/types"
)

// Accounts lists the configured accounts in host order
type Accounts interface {
	ListAccounts(ctx context.Context) ([]types.Account, error)
}

// Folders exposes the folder tree and per-folder metadata
type Folders interface {
	// SubFolders returns the top-level folders of an account with their
	// SubFolders populated recursively, siblings in host order.
	SubFolders(ctx context.Context, accountID string) ([]*types.Folder, error)
	FolderInfo(ctx context.Context, ref types.FolderRef) (*types.FolderInfo, error)
}

// MailTabs exposes the active mail view
type MailTabs interface {
	// Current returns nil when no mail view is active.
	Current(ctx context.Context) (*types.MailTab, error)
	Update(ctx context.Context, tabID string, ref types.FolderRef) error
}

// Messages queries messages by their stable header message id
type Messages interface {
	Query(ctx context.Context, headerMessageID string) (*types.MessagePage, error)
	ContinueList(ctx context.Context, pageID string) (*types.MessagePage, error)
}

// MessageOpener is optional; hosts that lack it get a logging fallback
type MessageOpener interface {
	OpenMessage(ctx context.Context, msg types.Message) error
}

// Notifications creates desktop notifications
type Notifications interface {
	Create(ctx context.Context, handle string, n types.Notification) error
}

// Windows lists host windows and flashes them
type Windows interface {
	List(ctx context.Context, windowType types.WindowType) ([]types.Window, error)
	DrawAttention(ctx context.Context, windowID int) error
}

// Command identifiers delivered with command events
const (
	CommandNextUnreadFolder     = "next-unread-folder"
	CommandPreviousUnreadFolder = "previous-unread-folder"
)
