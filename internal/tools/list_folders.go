package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/pkg/types"
)

// ListFoldersTool lists available email folders
type ListFoldersTool struct {
	mailbox Mailbox
	logger  *logrus.Logger
}

// NewListFoldersTool creates a new list folders tool
func NewListFoldersTool(mailbox Mailbox, logger *logrus.Logger) *ListFoldersTool {
	return &ListFoldersTool{
		mailbox: mailbox,
		logger:  logger,
	}
}

// Name returns the tool name
func (t *ListFoldersTool) Name() string {
	return "list_folders"
}

// Description returns the tool description
func (t *ListFoldersTool) Description() string {
	return "List the folder tree of configured email accounts with favorite flags and message counts"
}

// InputSchema returns the JSON schema for tool inputs
func (t *ListFoldersTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"account_name": map[string]interface{}{
				"type":        "string",
				"description": "Optional: Specific account name, or all accounts if omitted",
			},
			"favorites_only": map[string]interface{}{
				"type":        "boolean",
				"description": "Optional: Only list folders marked favorite (default: false)",
			},
		},
	}
}

// Execute executes the tool
func (t *ListFoldersTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	accountName, err := stringParam(params, "account_name", false)
	if err != nil {
		return nil, err
	}

	favoritesOnly, _ := params["favorites_only"].(bool)

	accounts, err := t.mailbox.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	result := []map[string]interface{}{}
	found := false
	for _, account := range accounts {
		if accountName != "" && account.ID != accountName {
			continue
		}
		found = true

		folders, err := t.mailbox.SubFolders(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list folders: %w", err)
		}

		var keep map[string]bool
		if favoritesOnly {
			favorites, err := t.mailbox.ListFavorites(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list favorites: %w", err)
			}
			keep = make(map[string]bool, len(favorites))
			for _, path := range favorites {
				keep[path] = true
			}
		}

		rows := []map[string]interface{}{}
		t.walk(ctx, folders, keep, &rows)
		result = append(result, map[string]interface{}{
			"account_name": account.Name,
			"folders":      rows,
		})
	}

	if accountName != "" && !found {
		return nil, fmt.Errorf("account not found: %s", accountName)
	}

	return result, nil
}

// walk flattens the tree in display order, attaching folder info. A
// non-nil keep limits the rows to the paths it holds.
func (t *ListFoldersTool) walk(ctx context.Context, folders []*types.Folder, keep map[string]bool, rows *[]map[string]interface{}) {
	for _, folder := range folders {
		if keep != nil && !keep[folder.Path] {
			t.walk(ctx, folder.SubFolders, keep, rows)
			continue
		}

		row := map[string]interface{}{
			"name":       folder.Name,
			"path":       folder.Path,
			"type":       folder.Type,
			"selectable": folder.Selectable,
		}

		info, err := t.mailbox.FolderInfo(ctx, folder.Ref())
		if err != nil {
			t.logger.WithError(err).WithField("folder", folder.Path).Warn("Failed to get folder info")
		} else {
			row["favorite"] = info.Favorite
			row["unread_message_count"] = info.UnreadMessageCount
			row["total_message_count"] = info.TotalMessageCount
		}

		*rows = append(*rows, row)
		t.walk(ctx, folder.SubFolders, keep, rows)
	}
}
