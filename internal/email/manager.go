package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradenaw/juniper/xslices"
	"github.com/emersion/go-imap"
	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/cache"
	"github.com/brandon/mailnav/internal/config"
	"github.com/brandon/mailnav/pkg/types"
)

var (
	// ErrNoSuchAccount is returned for an account id that is not configured
	ErrNoSuchAccount = errors.New("no such account")
	// ErrNoSuchFolder is returned for a path the server does not list
	ErrNoSuchFolder = errors.New("no such folder")
)

// openPages bounds how many partially consumed message lists are kept
const openPages = 64

// Viewer displays an opened message
type Viewer interface {
	ShowMessage(msg types.Message)
}

// Manager serves folders and messages of all configured accounts
type Manager struct {
	accountManager *AccountManager
	store          *cache.Store
	pages          *Pages
	viewer         Viewer
	config         *config.Config
	logger         *logrus.Logger
}

// NewManager creates a new email manager
func NewManager(cfg *config.Config, cacheStore *cache.Store, viewer Viewer, logger *logrus.Logger) (*Manager, error) {
	pages, err := NewPages(cfg.PageSize, openPages)
	if err != nil {
		return nil, fmt.Errorf("failed to create page registry: %w", err)
	}

	return &Manager{
		accountManager: NewAccountManager(cfg, logger),
		store:          cacheStore,
		pages:          pages,
		viewer:         viewer,
		config:         cfg,
		logger:         logger,
	}, nil
}

// ListAccounts returns the configured accounts in configuration order
func (m *Manager) ListAccounts(_ context.Context) ([]types.Account, error) {
	return xslices.Map(m.accountManager.Accounts(), func(a *Account) types.Account {
		return types.Account{ID: a.Config.Name, Name: a.Config.Name}
	}), nil
}

// GetAccount returns an account by name
func (m *Manager) GetAccount(name string) (*Account, error) {
	account := m.accountManager.GetAccount(name)
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchAccount, name)
	}
	return account, nil
}

// SubFolders lists the folder tree of an account
func (m *Manager) SubFolders(ctx context.Context, accountID string) ([]*types.Folder, error) {
	account, err := m.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	return account.refresh(ctx, m.config.ArchiveFolders)
}

// FolderInfo returns the favorite flag and message counts of a folder.
// Non-selectable folders hold no messages of their own.
func (m *Manager) FolderInfo(ctx context.Context, ref types.FolderRef) (*types.FolderInfo, error) {
	account, err := m.GetAccount(ref.AccountID)
	if err != nil {
		return nil, err
	}

	entry, ok, err := account.mailbox(ctx, ref.Path, m.config.ArchiveFolders)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", ErrNoSuchFolder, ref.AccountID, ref.Path)
	}

	favorite, err := m.store.IsFavorite(ctx, ref.AccountID, ref.Path)
	if err != nil {
		return nil, err
	}

	info := &types.FolderInfo{Favorite: favorite}
	if !entry.selectable {
		return info, nil
	}

	info.UnreadMessageCount, info.TotalMessageCount, err = account.IMAP.Unseen(ctx, entry.name)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// SetFavorite marks or unmarks a folder as favorite
func (m *Manager) SetFavorite(ctx context.Context, ref types.FolderRef, favorite bool) error {
	account, err := m.GetAccount(ref.AccountID)
	if err != nil {
		return err
	}
	if _, ok, err := account.mailbox(ctx, ref.Path, m.config.ArchiveFolders); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s%s", ErrNoSuchFolder, ref.AccountID, ref.Path)
	}
	return m.store.SetFavorite(ctx, ref.AccountID, ref.Path, favorite)
}

// ListFavorites returns the favorite folder paths of an account in path order
func (m *Manager) ListFavorites(ctx context.Context, accountID string) ([]string, error) {
	if _, err := m.GetAccount(accountID); err != nil {
		return nil, err
	}
	return m.store.ListFavorites(ctx, accountID)
}

// Query finds every message whose Message-ID header equals headerMessageID
// across all selectable folders of all accounts. An empty id matches
// nothing. Folder listings older than the poll interval are refreshed
// first. Folders that cannot be searched are logged and skipped.
func (m *Manager) Query(ctx context.Context, headerMessageID string) (*types.MessagePage, error) {
	if headerMessageID == "" {
		return &types.MessagePage{}, nil
	}

	var found []types.Message
	for _, account := range m.accountManager.Accounts() {
		if account.stale(m.config.PollInterval) {
			if _, err := account.refresh(ctx, m.config.ArchiveFolders); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.logger.WithError(err).WithField("account", account.Config.Name).Warn("Failed to list folders")
			}
		}

		for _, path := range account.selectable() {
			msgs, err := account.IMAP.SearchMessageID(ctx, account.mailboxName(path), headerMessageID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				m.logger.WithError(err).WithFields(logrus.Fields{
					"account": account.Config.Name,
					"folder":  path,
				}).Warn("Failed to search folder")
				continue
			}
			for _, msg := range msgs {
				found = append(found, toMessage(account.Config.Name, path, msg))
			}
		}
	}

	m.logger.WithFields(logrus.Fields{
		"message_id": headerMessageID,
		"matches":    len(found),
	}).Debug("Queried messages")
	return m.pages.Paginate(found), nil
}

// ContinueList returns the page following pageID
func (m *Manager) ContinueList(_ context.Context, pageID string) (*types.MessagePage, error) {
	return m.pages.Continue(pageID)
}

// Paginate registers a message list and returns its first page
func (m *Manager) Paginate(msgs []types.Message) *types.MessagePage {
	return m.pages.Paginate(msgs)
}

// GetEmail fetches the full content of a message
func (m *Manager) GetEmail(ctx context.Context, ref types.FolderRef, uid uint32) (*types.Email, error) {
	account, err := m.GetAccount(ref.AccountID)
	if err != nil {
		return nil, err
	}

	entry, ok, err := account.mailbox(ctx, ref.Path, m.config.ArchiveFolders)
	if err != nil {
		return nil, err
	}
	if !ok || !entry.selectable {
		return nil, fmt.Errorf("%w: %s%s", ErrNoSuchFolder, ref.AccountID, ref.Path)
	}

	msg, env, err := account.IMAP.FetchBody(ctx, entry.name, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}

	email := &types.Email{
		Message:    toMessage(ref.AccountID, ref.Path, msg),
		Recipients: []string{},
		BodyText:   env.Text,
		BodyHTML:   env.HTML,
	}
	if msg.Envelope != nil {
		if len(msg.Envelope.From) > 0 {
			email.SenderName = msg.Envelope.From[0].PersonalName
			email.SenderEmail = msg.Envelope.From[0].Address()
		}
		for _, list := range [][]*imap.Address{msg.Envelope.To, msg.Envelope.Cc} {
			email.Recipients = append(email.Recipients, xslices.Map(list, (*imap.Address).Address)...)
		}
	}
	return email, nil
}

// OpenMessage fetches a message and shows it in the mail view
func (m *Manager) OpenMessage(ctx context.Context, msg types.Message) error {
	email, err := m.GetEmail(ctx, msg.Folder(), msg.UID)
	if err != nil {
		return err
	}

	m.viewer.ShowMessage(email.Message)
	m.logger.WithFields(logrus.Fields{
		"account": msg.AccountID,
		"folder":  msg.FolderPath,
		"uid":     msg.UID,
	}).Info("Message displayed")
	return nil
}

// Close closes all connections
func (m *Manager) Close() error {
	return m.accountManager.Close()
}
