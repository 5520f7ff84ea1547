package host

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/pkg/types"
)

// NewMailListener handles one folder-level new mail delivery
type NewMailListener func(ctx context.Context, folder types.FolderRef, page *types.MessagePage) error

// ClickListener handles a notification activation
type ClickListener func(ctx context.Context, handle string) error

// CommandListener handles a named command
type CommandListener func(ctx context.Context, command string) error

// Bus delivers host events to registered listeners one at a time.
// Listener errors are logged and never reach the publisher.
type Bus struct {
	logger  *logrus.Logger
	timeout time.Duration

	mu       sync.Mutex // serializes dispatch
	regMu    sync.RWMutex
	newMail  []NewMailListener
	clicked  []ClickListener
	commands []CommandListener
}

// NewBus creates an event bus. A positive timeout bounds each event.
func NewBus(logger *logrus.Logger, timeout time.Duration) *Bus {
	return &Bus{
		logger:  logger,
		timeout: timeout,
	}
}

// OnNewMailReceived registers a new mail listener
func (b *Bus) OnNewMailReceived(l NewMailListener) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.newMail = append(b.newMail, l)
}

// OnNotificationClicked registers a notification activation listener
func (b *Bus) OnNotificationClicked(l ClickListener) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.clicked = append(b.clicked, l)
}

// OnCommand registers a command listener
func (b *Bus) OnCommand(l CommandListener) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.commands = append(b.commands, l)
}

// PublishNewMail runs every new mail listener to completion
func (b *Bus) PublishNewMail(ctx context.Context, folder types.FolderRef, page *types.MessagePage) {
	b.regMu.RLock()
	listeners := append([]NewMailListener(nil), b.newMail...)
	b.regMu.RUnlock()

	b.dispatch(ctx, logrus.Fields{"event": "new_mail", "account": folder.AccountID, "folder": folder.Path}, len(listeners), func(ctx context.Context, i int) error {
		return listeners[i](ctx, folder, page)
	})
}

// PublishNotificationClicked runs every activation listener to completion
func (b *Bus) PublishNotificationClicked(ctx context.Context, handle string) {
	b.regMu.RLock()
	listeners := append([]ClickListener(nil), b.clicked...)
	b.regMu.RUnlock()

	b.dispatch(ctx, logrus.Fields{"event": "notification_clicked", "handle": handle}, len(listeners), func(ctx context.Context, i int) error {
		return listeners[i](ctx, handle)
	})
}

// PublishCommand runs every command listener to completion
func (b *Bus) PublishCommand(ctx context.Context, command string) {
	b.regMu.RLock()
	listeners := append([]CommandListener(nil), b.commands...)
	b.regMu.RUnlock()

	b.dispatch(ctx, logrus.Fields{"event": "command", "command": command}, len(listeners), func(ctx context.Context, i int) error {
		return listeners[i](ctx, command)
	})
}

func (b *Bus) dispatch(ctx context.Context, fields logrus.Fields, n int, call func(context.Context, int) error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < n; i++ {
		evCtx, cancel := b.eventContext(ctx)
		err := call(evCtx, i)
		cancel()
		if err != nil {
			b.logger.WithFields(fields).WithError(err).Error("Event listener failed")
		}
	}
}

func (b *Bus) eventContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(ctx, b.timeout)
	}
	return context.WithCancel(ctx)
}
