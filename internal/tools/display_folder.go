package tools

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/host"
)

// DisplayFolderTool selects the folder shown in the mail view
type DisplayFolderTool struct {
	mailbox Mailbox
	tabs    host.MailTabs
	logger  *logrus.Logger
}

// NewDisplayFolderTool creates a new display folder tool
func NewDisplayFolderTool(mailbox Mailbox, tabs host.MailTabs, logger *logrus.Logger) *DisplayFolderTool {
	return &DisplayFolderTool{
		mailbox: mailbox,
		tabs:    tabs,
		logger:  logger,
	}
}

// Name returns the tool name
func (t *DisplayFolderTool) Name() string {
	return "display_folder"
}

// Description returns the tool description
func (t *DisplayFolderTool) Description() string {
	return "Display a folder in the mail view; navigation commands start from it"
}

// InputSchema returns the JSON schema for tool inputs
func (t *DisplayFolderTool) InputSchema() map[string]interface{} {
	return folderSchema(nil)
}

// Execute executes the tool
func (t *DisplayFolderTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	ref, err := folderParams(params)
	if err != nil {
		return nil, err
	}

	// Reject folders the account does not have
	info, err := t.mailbox.FolderInfo(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	tabID := host.MainTabID
	if tab, err := t.tabs.Current(ctx); err == nil && tab != nil {
		tabID = tab.ID
	}
	if err := t.tabs.Update(ctx, tabID, ref); err != nil {
		return nil, fmt.Errorf("failed to display folder: %w", err)
	}

	return map[string]interface{}{
		"displayed_folder": ref,
		"info":             info,
	}, nil
}
