package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetFavoriteTool marks folders whose new mail is announced
type SetFavoriteTool struct {
	mailbox Mailbox
	logger  *logrus.Logger
}

// NewSetFavoriteTool creates a new set favorite tool
func NewSetFavoriteTool(mailbox Mailbox, logger *logrus.Logger) *SetFavoriteTool {
	return &SetFavoriteTool{
		mailbox: mailbox,
		logger:  logger,
	}
}

// Name returns the tool name
func (t *SetFavoriteTool) Name() string {
	return "set_favorite"
}

// Description returns the tool description
func (t *SetFavoriteTool) Description() string {
	return "Mark or unmark a folder as favorite"
}

// InputSchema returns the JSON schema for tool inputs
func (t *SetFavoriteTool) InputSchema() map[string]interface{} {
	return folderSchema(map[string]interface{}{
		"favorite": map[string]interface{}{
			"type":        "boolean",
			"description": "True to mark the folder as favorite",
		},
	}, "favorite")
}

// Execute executes the tool
func (t *SetFavoriteTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	ref, err := folderParams(params)
	if err != nil {
		return nil, err
	}
	favorite, err := boolParam(params, "favorite")
	if err != nil {
		return nil, err
	}

	if err := t.mailbox.SetFavorite(ctx, ref, favorite); err != nil {
		return nil, fmt.Errorf("failed to set favorite: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"account":  ref.AccountID,
		"folder":   ref.Path,
		"favorite": favorite,
	}).Info("Favorite updated")

	return map[string]interface{}{
		"account_name": ref.AccountID,
		"path":         ref.Path,
		"favorite":     favorite,
	}, nil
}
