package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// GetEmailTool retrieves a full email from IMAP
type GetEmailTool struct {
	mailbox Mailbox
	logger  *logrus.Logger
}

// NewGetEmailTool creates a new get email tool
func NewGetEmailTool(mailbox Mailbox, logger *logrus.Logger) *GetEmailTool {
	return &GetEmailTool{
		mailbox: mailbox,
		logger:  logger,
	}
}

// Name returns the tool name
func (t *GetEmailTool) Name() string {
	return "get_email"
}

// Description returns the tool description
func (t *GetEmailTool) Description() string {
	return "Retrieve a full email by folder and UID"
}

// InputSchema returns the JSON schema for tool inputs
func (t *GetEmailTool) InputSchema() map[string]interface{} {
	return folderSchema(map[string]interface{}{
		"uid": map[string]interface{}{
			"type":        "integer",
			"description": "Message UID within the folder",
		},
	}, "uid")
}

// Execute executes the tool
func (t *GetEmailTool) Execute(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	ref, err := folderParams(params)
	if err != nil {
		return nil, err
	}

	var uid uint32
	switch v := params["uid"].(type) {
	case float64:
		uid = uint32(v)
	case string:
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid uid: %w", err)
		}
		uid = uint32(parsed)
	default:
		return nil, fmt.Errorf("uid is required")
	}

	email, err := t.mailbox.GetEmail(ctx, ref, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"account": ref.AccountID,
		"folder":  ref.Path,
		"uid":     uid,
	}).Debug("Fetched email")
	return email, nil
}
