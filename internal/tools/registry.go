package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/pkg/types"
)

// Mailbox is the folder and message source tools operate on
type Mailbox interface {
	host.Accounts
	host.Folders
	SetFavorite(ctx context.Context, ref types.FolderRef, favorite bool) error
	ListFavorites(ctx context.Context, accountID string) ([]string, error)
	GetEmail(ctx context.Context, ref types.FolderRef, uid uint32) (*types.Email, error)
}

// Publisher delivers tool-triggered events to the add-on
type Publisher interface {
	PublishCommand(ctx context.Context, command string)
	PublishNotificationClicked(ctx context.Context, handle string)
}

// Registry manages MCP tools
type Registry struct {
	mailbox   Mailbox
	publisher Publisher
	tabs      host.MailTabs
	logger    *logrus.Logger
	tools     map[string]Tool
}

// Tool represents an MCP tool
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]interface{}
	Execute(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

// NewRegistry creates a new tool registry
func NewRegistry(mailbox Mailbox, publisher Publisher, tabs host.MailTabs, logger *logrus.Logger) *Registry {
	reg := &Registry{
		mailbox:   mailbox,
		publisher: publisher,
		tabs:      tabs,
		logger:    logger,
		tools:     make(map[string]Tool),
	}

	reg.registerTools()

	return reg
}

// registerTools registers all available tools
func (r *Registry) registerTools() {
	toolList := []Tool{
		NewRunCommandTool(r.publisher, r.tabs, r.logger),
		NewNotificationClickedTool(r.publisher, r.tabs, r.logger),
		NewDisplayFolderTool(r.mailbox, r.tabs, r.logger),
		NewCurrentFolderTool(r.tabs),
		NewListFoldersTool(r.mailbox, r.logger),
		NewSetFavoriteTool(r.mailbox, r.logger),
		NewGetEmailTool(r.mailbox, r.logger),
	}

	for _, tool := range toolList {
		r.tools[tool.Name()] = tool
		r.logger.WithField("tool", tool.Name()).Debug("Registered tool")
	}

	r.logger.WithField("count", len(r.tools)).Info("Registered tools")
}

// GetTool returns a tool by name
func (r *Registry) GetTool(name string) (Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// ListTools returns all registered tools sorted by name
func (r *Registry) ListTools() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetToolDefinitions returns tool definitions for MCP
func (r *Registry) GetToolDefinitions() []map[string]interface{} {
	tools := r.ListTools()
	definitions := make([]map[string]interface{}, 0, len(tools))
	for _, tool := range tools {
		definitions = append(definitions, map[string]interface{}{
			"name":        tool.Name(),
			"description": tool.Description(),
			"inputSchema": tool.InputSchema(),
		})
	}
	return definitions
}

// stringParam reads a string argument
func stringParam(params map[string]interface{}, key string, required bool) (string, error) {
	value, ok := params[key].(string)
	if required && (!ok || value == "") {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

// boolParam reads a boolean argument
func boolParam(params map[string]interface{}, key string) (bool, error) {
	value, ok := params[key].(bool)
	if !ok {
		return false, fmt.Errorf("%s is required", key)
	}
	return value, nil
}

// folderParams reads the account_name and path arguments
func folderParams(params map[string]interface{}) (types.FolderRef, error) {
	account, err := stringParam(params, "account_name", true)
	if err != nil {
		return types.FolderRef{}, err
	}
	path, err := stringParam(params, "path", true)
	if err != nil {
		return types.FolderRef{}, err
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return types.FolderRef{AccountID: account, Path: path}, nil
}

// folderSchema is the input schema of tools addressing one folder
func folderSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	properties := map[string]interface{}{
		"account_name": map[string]interface{}{
			"type":        "string",
			"description": "Account name",
		},
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Folder path, e.g. /INBOX/Lists",
		},
	}
	for key, value := range extra {
		properties[key] = value
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   append([]string{"account_name", "path"}, required...),
	}
}

// viewState renders the current mail tab
func viewState(ctx context.Context, tabs host.MailTabs) (map[string]interface{}, error) {
	tab, err := tabs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current tab: %w", err)
	}

	result := map[string]interface{}{
		"displayed_folder":  nil,
		"displayed_message": nil,
	}
	if tab == nil {
		return result, nil
	}
	if tab.DisplayedFolder != nil {
		result["displayed_folder"] = tab.DisplayedFolder
	}
	if tab.DisplayedMessage != nil {
		result["displayed_message"] = tab.DisplayedMessage
	}
	return result, nil
}
