package email

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/config"
	"github.com/brandon/mailnav/pkg/types"
)

// AccountManager manages multiple email accounts in configuration order
type AccountManager struct {
	accounts []*Account
	byName   map[string]*Account
}

// Account represents an email account with its IMAP connection and the
// mailbox layout seen by the last listing
type Account struct {
	Config *config.AccountConfig
	IMAP   *IMAPClient

	mu        sync.RWMutex
	mailboxes map[string]mailboxEntry
	listedAt  time.Time
}

// NewAccountManager creates a new account manager
func NewAccountManager(cfg *config.Config, logger *logrus.Logger) *AccountManager {
	manager := &AccountManager{
		byName: make(map[string]*Account, len(cfg.Accounts)),
	}

	for i := range cfg.Accounts {
		accCfg := &cfg.Accounts[i]
		account := &Account{
			Config: accCfg,
			IMAP:   NewIMAPClient(accCfg, cfg.IMAPRateLimit, cfg.QueryTimeout, logger),
		}
		manager.accounts = append(manager.accounts, account)
		manager.byName[accCfg.Name] = account
	}

	return manager
}

// GetAccount returns an account by name, or nil when there is none
func (m *AccountManager) GetAccount(name string) *Account {
	return m.byName[name]
}

// Accounts returns all accounts in configuration order
func (m *AccountManager) Accounts() []*Account {
	return m.accounts
}

// Close closes all account connections
func (m *AccountManager) Close() error {
	for _, account := range m.accounts {
		account.IMAP.Close() //nolint:errcheck
	}
	return nil
}

// setMailboxes records the path to mailbox mapping of the latest listing
func (a *Account) setMailboxes(entries map[string]mailboxEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mailboxes = entries
	a.listedAt = time.Now()
}

// stale reports whether the server has not been listed within maxAge
func (a *Account) stale(maxAge time.Duration) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.listedAt.IsZero() || time.Since(a.listedAt) >= maxAge
}

// mailbox resolves a folder path, listing the server once when the path
// has not been seen yet
func (a *Account) mailbox(ctx context.Context, path string, archiveNames []string) (mailboxEntry, bool, error) {
	a.mu.RLock()
	entry, ok := a.mailboxes[path]
	a.mu.RUnlock()
	if ok {
		return entry, true, nil
	}

	if _, err := a.refresh(ctx, archiveNames); err != nil {
		return mailboxEntry{}, false, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	entry, ok = a.mailboxes[path]
	return entry, ok, nil
}

// refresh lists the server mailboxes and rebuilds the folder tree
func (a *Account) refresh(ctx context.Context, archiveNames []string) ([]*types.Folder, error) {
	infos, err := a.IMAP.ListMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	tree, entries := BuildTree(a.Config.Name, infos, archiveNames)
	a.setMailboxes(entries)
	return tree, nil
}

// selectable returns the folder paths of the latest listing that can be
// examined, in path order
func (a *Account) selectable() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var paths []string
	for path, entry := range a.mailboxes {
		if entry.selectable {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths
}

// mailboxName returns the server name of a known folder path
func (a *Account) mailboxName(path string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mailboxes[path].name
}
