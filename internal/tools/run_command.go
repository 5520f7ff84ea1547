package tools

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/host"
)

var knownCommands = []string{host.CommandNextUnreadFolder, host.CommandPreviousUnreadFolder}

// RunCommandTool triggers a named command, as a keyboard shortcut would
type RunCommandTool struct {
	publisher Publisher
	tabs      host.MailTabs
	logger    *logrus.Logger
}

// NewRunCommandTool creates a new run command tool
func NewRunCommandTool(publisher Publisher, tabs host.MailTabs, logger *logrus.Logger) *RunCommandTool {
	return &RunCommandTool{
		publisher: publisher,
		tabs:      tabs,
		logger:    logger,
	}
}

// Name returns the tool name
func (t *RunCommandTool) Name() string {
	return "run_command"
}

// Description returns the tool description
func (t *RunCommandTool) Description() string {
	return "Run a command such as next-unread-folder or previous-unread-folder and report the displayed folder afterwards"
}

// InputSchema returns the JSON schema for tool inputs
func (t *RunCommandTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"enum":        knownCommands,
				"description": "Command identifier",
			},
		},
		"required": []string{"command"},
	}
}

// Execute executes the tool
func (t *RunCommandTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	command, err := stringParam(params, "command", true)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(knownCommands, command) {
		return nil, fmt.Errorf("unknown command: %s", command)
	}

	t.logger.WithField("command", command).Debug("Running command")
	t.publisher.PublishCommand(ctx, command)

	return viewState(ctx, t.tabs)
}
