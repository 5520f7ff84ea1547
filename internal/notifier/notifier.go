// Package notifier turns new mail deliveries into desktop notifications
// and opens the matching message when a notification is activated.
package notifier

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/internal/pager"
	"github.com/brandon/mailnav/pkg/types"
)

// Policy selects which folders produce notifications
type Policy string

const (
	// PolicyFavorites notifies for folders flagged favorite
	PolicyFavorites Policy = "favorites"
	// PolicyAllowList notifies for folders whose path is listed
	PolicyAllowList Policy = "allowlist"
)

// Options configures a Notifier
type Options struct {
	Policy      Policy
	AllowList   []string
	Icon        string
	RaiseWindow bool
}

// Notifier handles new mail and notification activation events
type Notifier struct {
	folders       host.Folders
	messages      host.Messages
	opener        host.MessageOpener
	notifications host.Notifications
	windows       host.Windows
	policy        Policy
	allowed       map[string]struct{}
	icon          string
	raiseWindow   bool
	logger        *logrus.Logger
}

// New creates a notifier. Opening messages is enabled when messages also
// implements host.MessageOpener.
func New(folders host.Folders, messages host.Messages, notifications host.Notifications, windows host.Windows, opts Options, logger *logrus.Logger) *Notifier {
	n := &Notifier{
		folders:       folders,
		messages:      messages,
		notifications: notifications,
		windows:       windows,
		policy:        opts.Policy,
		allowed:       make(map[string]struct{}, len(opts.AllowList)),
		icon:          opts.Icon,
		raiseWindow:   opts.RaiseWindow,
		logger:        logger,
	}
	if n.policy == "" {
		n.policy = PolicyFavorites
	}
	for _, path := range opts.AllowList {
		n.allowed[path] = struct{}{}
	}
	if opener, ok := messages.(host.MessageOpener); ok {
		n.opener = opener
	}
	return n
}

// OnNewMail creates one notification per unread message of a delivery and
// returns how many were created. Failures for one message are logged and
// do not stop the others.
func (n *Notifier) OnNewMail(ctx context.Context, folder types.FolderRef, page *types.MessagePage) (int, error) {
	ok, err := n.selected(ctx, folder)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	log := n.logger.WithFields(logrus.Fields{
		"account": folder.AccountID,
		"folder":  folder.Path,
	})

	created := 0
	it := pager.New(ctx, page, n.messages)
	for it.Next() {
		msg := it.Message()
		if msg.Read {
			continue
		}

		handle := BuildHandle(msg.HeaderMessageID)
		notification := types.Notification{
			Kind:  types.NotificationBasic,
			Title: fmt.Sprintf("%s, from %s", folder.DisplayPath(), msg.Author),
			Body:  msg.Subject,
			Icon:  n.icon,
		}
		if err := n.notifications.Create(ctx, handle, notification); err != nil {
			log.WithError(err).WithField("message_id", msg.HeaderMessageID).Warn("Failed to create notification")
			continue
		}
		created++
	}

	if created > 0 && n.raiseWindow {
		n.drawAttention(ctx)
	}

	if err := it.Err(); err != nil {
		return created, err
	}

	log.WithField("count", created).Debug("Processed new mail")
	return created, nil
}

// selected applies the folder selection policy
func (n *Notifier) selected(ctx context.Context, folder types.FolderRef) (bool, error) {
	switch n.policy {
	case PolicyAllowList:
		_, ok := n.allowed[folder.Path]
		return ok, nil
	default:
		info, err := n.folders.FolderInfo(ctx, folder)
		if err != nil {
			return false, fmt.Errorf("failed to get folder info: %w", err)
		}
		return info.Favorite, nil
	}
}

// drawAttention flashes the first normal window
func (n *Notifier) drawAttention(ctx context.Context) {
	if n.windows == nil {
		return
	}

	windows, err := n.windows.List(ctx, types.WindowNormal)
	if err != nil {
		n.logger.WithError(err).Warn("Failed to list windows")
		return
	}
	if len(windows) == 0 {
		return
	}
	if err := n.windows.DrawAttention(ctx, windows[0].ID); err != nil {
		n.logger.WithError(err).WithField("window", windows[0].ID).Warn("Failed to draw attention")
	}
}

// OnClicked opens every message matching an activated notification.
// Handles created elsewhere, or for a message without a Message-ID, are
// ignored.
func (n *Notifier) OnClicked(ctx context.Context, handle string) error {
	id, ok := ParseHandle(handle)
	if !ok || id == "" {
		return nil
	}

	page, err := n.messages.Query(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to query message %s: %w", id, err)
	}

	it := pager.New(ctx, page, n.messages)
	for it.Next() {
		msg := it.Message()
		log := n.logger.WithFields(logrus.Fields{
			"message_id": msg.HeaderMessageID,
			"author":     msg.Author,
			"subject":    msg.Subject,
		})

		if n.opener == nil {
			log.Info("Should have opened message")
			continue
		}
		if err := n.opener.OpenMessage(ctx, msg); err != nil {
			log.WithError(err).Warn("Failed to open message")
			continue
		}
		log.Info("Opened message")
	}

	return it.Err()
}
