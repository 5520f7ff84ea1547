package tools

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/host"
)

// NotificationClickedTool reports the activation of a desktop notification
type NotificationClickedTool struct {
	publisher Publisher
	tabs      host.MailTabs
	logger    *logrus.Logger
}

// NewNotificationClickedTool creates a new notification clicked tool
func NewNotificationClickedTool(publisher Publisher, tabs host.MailTabs, logger *logrus.Logger) *NotificationClickedTool {
	return &NotificationClickedTool{
		publisher: publisher,
		tabs:      tabs,
		logger:    logger,
	}
}

// Name returns the tool name
func (t *NotificationClickedTool) Name() string {
	return "notification_clicked"
}

// Description returns the tool description
func (t *NotificationClickedTool) Description() string {
	return "Activate a notification by its handle; new mail notifications open their message"
}

// InputSchema returns the JSON schema for tool inputs
func (t *NotificationClickedTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Notification handle as logged when the notification was shown",
			},
		},
		"required": []string{"id"},
	}
}

// Execute executes the tool
func (t *NotificationClickedTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	handle, err := stringParam(params, "id", true)
	if err != nil {
		return nil, err
	}

	t.logger.WithField("handle", handle).Debug("Notification clicked")
	t.publisher.PublishNotificationClicked(ctx, handle)

	return viewState(ctx, t.tabs)
}
