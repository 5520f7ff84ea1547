// Package addon activates the new mail notifier and the unread folder
// navigation on a host event bus.
package addon

import (
	"context"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/internal/navigator"
	"github.com/brandon/mailnav/internal/notifier"
	"github.com/brandon/mailnav/pkg/types"
)

// Register subscribes the notifier and the ranker to host events. It is
// called once at startup; the bus owns the listeners afterwards.
func Register(bus *host.Bus, n *notifier.Notifier, r *navigator.Ranker) {
	bus.OnNewMailReceived(func(ctx context.Context, folder types.FolderRef, page *types.MessagePage) error {
		_, err := n.OnNewMail(ctx, folder, page)
		return err
	})
	bus.OnNotificationClicked(n.OnClicked)
	bus.OnCommand(r.HandleCommand)
}
