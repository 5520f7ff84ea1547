package tools

import (
	"context"

	"github.com/brandon/mailnav/internal/host"
)

// CurrentFolderTool reports what the mail view displays
type CurrentFolderTool struct {
	tabs host.MailTabs
}

// NewCurrentFolderTool creates a new current folder tool
func NewCurrentFolderTool(tabs host.MailTabs) *CurrentFolderTool {
	return &CurrentFolderTool{tabs: tabs}
}

// Name returns the tool name
func (t *CurrentFolderTool) Name() string {
	return "current_folder"
}

// Description returns the tool description
func (t *CurrentFolderTool) Description() string {
	return "Show the folder and message displayed in the mail view"
}

// InputSchema returns the JSON schema for tool inputs
func (t *CurrentFolderTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// Execute executes the tool
func (t *CurrentFolderTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	return viewState(ctx, t.tabs)
}
