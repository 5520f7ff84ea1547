// Package navigator moves the mail view to the next or previous folder
// holding unread messages.
package navigator

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/pkg/types"
)

// Direction of a navigation command
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Options configures a Ranker
type Options struct {
	// UnreadAware drops folders without unread mail while flattening,
	// so the neighbour of the current folder is the target.
	UnreadAware bool
	// CaseSensitive compares paths byte-wise when sorting.
	CaseSensitive bool
}

// Ranker computes the folder adjacent to the displayed one
type Ranker struct {
	accounts host.Accounts
	folders  host.Folders
	tabs     host.MailTabs
	opts     Options
	logger   *logrus.Logger
}

// NewRanker creates a folder ranker
func NewRanker(accounts host.Accounts, folders host.Folders, tabs host.MailTabs, opts Options, logger *logrus.Logger) *Ranker {
	return &Ranker{
		accounts: accounts,
		folders:  folders,
		tabs:     tabs,
		opts:     opts,
		logger:   logger,
	}
}

// HandleCommand runs the navigation bound to a command id. Other
// commands are ignored.
func (r *Ranker) HandleCommand(ctx context.Context, command string) error {
	switch command {
	case host.CommandNextUnreadFolder:
		_, err := r.Navigate(ctx, Forward)
		return err
	case host.CommandPreviousUnreadFolder:
		_, err := r.Navigate(ctx, Backward)
		return err
	default:
		return nil
	}
}

// Navigate displays the nearest folder with unread mail in the given
// direction and returns it. It returns nil when there is nothing to do.
func (r *Ranker) Navigate(ctx context.Context, dir Direction) (*types.Folder, error) {
	tab, err := r.tabs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current mail tab: %w", err)
	}
	if tab == nil || tab.DisplayedFolder == nil {
		return nil, nil
	}
	current := *tab.DisplayedFolder

	log := r.logger.WithFields(logrus.Fields{
		"account":   current.AccountID,
		"folder":    current.Path,
		"direction": dir.String(),
	})

	list, err := r.collect(ctx, current)
	if err != nil {
		return nil, err
	}
	if !r.opts.UnreadAware {
		SortFolders(list, r.opts.CaseSensitive)
	}
	if dir == Backward {
		slices.Reverse(list)
	}

	idx := indexOf(list, current)
	if idx < 0 {
		log.Debug("Displayed folder not found in folder list")
		return nil, nil
	}

	var target *types.Folder
	if r.opts.UnreadAware {
		target = list[(idx+1)%len(list)]
	} else {
		target = r.scan(ctx, list, idx)
	}
	if target == nil {
		log.Debug("No folder with unread messages")
		return nil, nil
	}

	if err := r.tabs.Update(ctx, tab.ID, target.Ref()); err != nil {
		return nil, fmt.Errorf("failed to display folder %s: %w", target.Path, err)
	}
	log.WithFields(logrus.Fields{
		"target_account": target.AccountID,
		"target_folder":  target.Path,
	}).Info("Navigated to folder")
	return target, nil
}

// scan walks the circle after idx, ending on idx itself, and returns the
// first folder with unread messages
func (r *Ranker) scan(ctx context.Context, list []*types.Folder, idx int) *types.Folder {
	for k := 1; k <= len(list); k++ {
		candidate := list[(idx+k)%len(list)]
		if r.unread(ctx, candidate) > 0 {
			return candidate
		}
	}
	return nil
}

// collect builds the navigable folder list of every account, in account
// order. Accounts are fetched concurrently.
func (r *Ranker) collect(ctx context.Context, current types.FolderRef) ([]*types.Folder, error) {
	accounts, err := r.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	perAccount := make([][]*types.Folder, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			tree, err := r.folders.SubFolders(gctx, account.ID)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.WithError(err).WithField("account", account.ID).Warn("Failed to list folders")
				return nil
			}
			if r.opts.UnreadAware {
				perAccount[i], _ = r.flattenUnread(gctx, tree, current)
			} else {
				perAccount[i] = Flatten(tree)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var list []*types.Folder
	for _, folders := range perAccount {
		list = append(list, folders...)
	}
	return list, nil
}

// flattenUnread flattens like Flatten but keeps only folders that hold
// unread mail, contain a folder that does, or are the current folder. The
// second result reports whether any folder of the level has unread mail.
func (r *Ranker) flattenUnread(ctx context.Context, level []*types.Folder, current types.FolderRef) ([]*types.Folder, bool) {
	var out []*types.Folder
	anyUnread := false
	for _, f := range level {
		if f.Type == types.FolderArchives {
			continue
		}
		unread := r.unread(ctx, f) > 0
		children, childUnread := r.flattenUnread(ctx, f.SubFolders, current)
		if unread || childUnread || f.Ref() == current {
			out = append(out, f)
		}
		out = append(out, children...)
		anyUnread = anyUnread || unread || childUnread
	}
	return out, anyUnread
}

// unread returns the unread count of a folder, zero when the query fails
func (r *Ranker) unread(ctx context.Context, f *types.Folder) int {
	info, err := r.folders.FolderInfo(ctx, f.Ref())
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"account": f.AccountID,
			"folder":  f.Path,
		}).Warn("Failed to get folder info")
		return 0
	}
	return info.UnreadMessageCount
}
