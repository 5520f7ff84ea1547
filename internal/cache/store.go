package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/config"
)

// Watermark is the last observed mailbox state of a folder
type Watermark struct {
	UIDValidity uint32
	UIDNext     uint32
	LastPolled  time.Time
}

// Store provides methods for storing and retrieving folder metadata
type Store struct {
	cache  *Cache
	logger *logrus.Logger
}

// NewStore creates a new store instance
func NewStore(cache *Cache, logger *logrus.Logger) *Store {
	return &Store{
		cache:  cache,
		logger: logger,
	}
}

// UpsertAccount upserts an account in the cache
func (s *Store) UpsertAccount(ctx context.Context, acc *config.AccountConfig) (int, error) {
	query := `
		INSERT INTO accounts (name, imap_host, imap_port, imap_username, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			imap_host = excluded.imap_host,
			imap_port = excluded.imap_port,
			imap_username = excluded.imap_username,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.cache.DB().ExecContext(ctx, query, acc.Name, acc.IMAPHost, acc.IMAPPort, acc.IMAPUsername); err != nil {
		return 0, fmt.Errorf("failed to upsert account: %w", err)
	}

	// LastInsertId is unreliable on the update path, so always read it back
	return s.GetAccountID(ctx, acc.Name)
}

// GetAccountID returns the account ID by name
func (s *Store) GetAccountID(ctx context.Context, name string) (int, error) {
	var id int
	err := s.cache.DB().QueryRowContext(ctx, "SELECT id FROM accounts WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("account not found: %s", name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get account ID: %w", err)
	}
	return id, nil
}

// upsertFolder makes sure a folder row exists and returns its ID
func (s *Store) upsertFolder(ctx context.Context, account, path string) (int, error) {
	accountID, err := s.GetAccountID(ctx, account)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO folders (account_id, path)
		VALUES (?, ?)
		ON CONFLICT(account_id, path) DO NOTHING
	`
	if _, err := s.cache.DB().ExecContext(ctx, query, accountID, path); err != nil {
		return 0, fmt.Errorf("failed to upsert folder: %w", err)
	}

	var folderID int
	err = s.cache.DB().QueryRowContext(ctx, "SELECT id FROM folders WHERE account_id = ? AND path = ?", accountID, path).Scan(&folderID)
	if err != nil {
		return 0, fmt.Errorf("failed to get folder ID: %w", err)
	}
	return folderID, nil
}

// SetFavorite marks or unmarks a folder as favorite
func (s *Store) SetFavorite(ctx context.Context, account, path string, favorite bool) error {
	folderID, err := s.upsertFolder(ctx, account, path)
	if err != nil {
		return err
	}

	if _, err := s.cache.DB().ExecContext(ctx, "UPDATE folders SET favorite = ? WHERE id = ?", favorite, folderID); err != nil {
		return fmt.Errorf("failed to set favorite: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account":  account,
		"path":     path,
		"favorite": favorite,
	}).Debug("Folder favorite updated")
	return nil
}

// IsFavorite reports whether a folder is marked as favorite. Unknown folders are not.
func (s *Store) IsFavorite(ctx context.Context, account, path string) (bool, error) {
	query := `
		SELECT f.favorite
		FROM folders f
		JOIN accounts a ON f.account_id = a.id
		WHERE a.name = ? AND f.path = ?
	`
	var favorite bool
	err := s.cache.DB().QueryRowContext(ctx, query, account, path).Scan(&favorite)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get favorite: %w", err)
	}
	return favorite, nil
}

// ListFavorites lists favorite folder paths of an account in path order
func (s *Store) ListFavorites(ctx context.Context, account string) ([]string, error) {
	query := `
		SELECT f.path
		FROM folders f
		JOIN accounts a ON f.account_id = a.id
		WHERE a.name = ? AND f.favorite = 1
		ORDER BY f.path
	`
	rows, err := s.cache.DB().QueryContext(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// SeedFavorites marks configured favorites. An entry is either
// "<account>:<path>" or a bare "<path>" applied to every account.
func (s *Store) SeedFavorites(ctx context.Context, accounts []string, entries []string) error {
	for _, entry := range entries {
		targets := accounts
		path := entry
		if account, rest, ok := strings.Cut(entry, ":"); ok && strings.HasPrefix(rest, "/") {
			targets = []string{account}
			path = rest
		}
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("invalid favorite folder %q: path must start with /", entry)
		}
		for _, account := range targets {
			if err := s.SetFavorite(ctx, account, path, true); err != nil {
				return fmt.Errorf("failed to seed favorite %q: %w", entry, err)
			}
		}
	}
	return nil
}

// GetWatermark returns the stored watermark of a folder, or nil when the
// folder has never been polled
func (s *Store) GetWatermark(ctx context.Context, account, path string) (*Watermark, error) {
	query := `
		SELECT f.uid_validity, f.uid_next, f.last_polled
		FROM folders f
		JOIN accounts a ON f.account_id = a.id
		WHERE a.name = ? AND f.path = ?
	`
	var wm Watermark
	var lastPolled sql.NullTime
	err := s.cache.DB().QueryRowContext(ctx, query, account, path).Scan(&wm.UIDValidity, &wm.UIDNext, &lastPolled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}
	if !lastPolled.Valid {
		// Row created by a favorite flag only
		return nil, nil
	}
	wm.LastPolled = lastPolled.Time
	return &wm, nil
}

// SetWatermark records the observed mailbox state of a folder
func (s *Store) SetWatermark(ctx context.Context, account, path string, wm Watermark) error {
	folderID, err := s.upsertFolder(ctx, account, path)
	if err != nil {
		return err
	}

	if wm.LastPolled.IsZero() {
		wm.LastPolled = time.Now()
	}

	query := `
		UPDATE folders
		SET uid_validity = ?, uid_next = ?, last_polled = ?
		WHERE id = ?
	`
	if _, err := s.cache.DB().ExecContext(ctx, query, wm.UIDValidity, wm.UIDNext, wm.LastPolled.UTC(), folderID); err != nil {
		return fmt.Errorf("failed to set watermark: %w", err)
	}
	return nil
}
