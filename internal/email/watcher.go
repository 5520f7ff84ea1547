package email

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brandon/mailnav/internal/cache"
	"github.com/brandon/mailnav/pkg/types"
)

// Publisher receives new mail deliveries
type Publisher interface {
	PublishNewMail(ctx context.Context, folder types.FolderRef, page *types.MessagePage)
}

// Watcher polls every selectable folder for messages that arrived since the
// last poll. The first poll of a folder only records where it stands.
type Watcher struct {
	manager   *Manager
	store     *cache.Store
	publisher Publisher
	interval  time.Duration
	logger    *logrus.Logger
}

// NewWatcher creates a new mail watcher
func NewWatcher(manager *Manager, store *cache.Store, publisher Publisher, interval time.Duration, logger *logrus.Logger) *Watcher {
	return &Watcher{
		manager:   manager,
		store:     store,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls until ctx is canceled
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll checks all accounts once. Accounts are polled concurrently, each
// over its own connection.
func (w *Watcher) Poll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, account := range w.manager.accountManager.Accounts() {
		account := account
		g.Go(func() error {
			w.pollAccount(ctx, account)
			return nil
		})
	}
	g.Wait() //nolint:errcheck
}

func (w *Watcher) pollAccount(ctx context.Context, account *Account) {
	log := w.logger.WithField("account", account.Config.Name)

	if _, err := account.refresh(ctx, w.manager.config.ArchiveFolders); err != nil {
		log.WithError(err).Warn("Failed to list folders")
		return
	}

	for _, path := range account.selectable() {
		if ctx.Err() != nil {
			return
		}
		if err := w.pollFolder(ctx, account, path); err != nil {
			log.WithError(err).WithField("folder", path).Warn("Failed to poll folder")
		}
	}
}

func (w *Watcher) pollFolder(ctx context.Context, account *Account, path string) error {
	name := account.Config.Name
	mailbox := account.mailboxName(path)

	status, err := account.IMAP.Status(ctx, mailbox)
	if err != nil {
		return err
	}

	current := cache.Watermark{UIDValidity: status.UidValidity, UIDNext: status.UidNext}
	last, err := w.store.GetWatermark(ctx, name, path)
	if err != nil {
		return err
	}

	if last == nil || last.UIDValidity != current.UIDValidity {
		w.logger.WithFields(logrus.Fields{
			"account":      name,
			"folder":       path,
			"uid_validity": current.UIDValidity,
			"uid_next":     current.UIDNext,
		}).Debug("Recorded folder baseline")
		return w.store.SetWatermark(ctx, name, path, current)
	}

	if current.UIDNext > last.UIDNext {
		fetched, err := account.IMAP.FetchRange(ctx, mailbox, last.UIDNext, current.UIDNext-1)
		if err != nil {
			return err
		}

		if len(fetched) > 0 {
			msgs := make([]types.Message, 0, len(fetched))
			for _, msg := range fetched {
				msgs = append(msgs, toMessage(name, path, msg))
			}

			folder := types.FolderRef{AccountID: name, Path: path}
			w.logger.WithFields(logrus.Fields{
				"account": name,
				"folder":  path,
				"count":   len(msgs),
			}).Info("New mail received")
			w.publisher.PublishNewMail(ctx, folder, w.manager.Paginate(msgs))
		}
	}

	return w.store.SetWatermark(ctx, name, path, current)
}
