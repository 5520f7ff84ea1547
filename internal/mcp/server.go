package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/brandon/mailnav/internal/tools"
)

// Server represents the MCP server
type Server struct {
	tools   *tools.Registry
	version string
	in      io.Reader
	out     io.Writer
	logger  *logrus.Logger
}

// NewServer creates a new MCP server reading requests from in and writing
// responses to out
func NewServer(registry *tools.Registry, version string, in io.Reader, out io.Writer, logger *logrus.Logger) *Server {
	return &Server{
		tools:   registry,
		version: version,
		in:      in,
		out:     out,
		logger:  logger,
	}
}

// Run serves requests until the input ends or ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server with stdio transport")

	decoder := json.NewDecoder(s.in)
	encoder := json.NewEncoder(s.out)

	for {
		if ctx.Err() != nil {
			return nil
		}

		var req map[string]interface{}
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode request: %w", err)
		}

		resp := s.handleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}
}

// handleRequest processes an MCP request. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, req map[string]interface{}) map[string]interface{} {
	method, _ := req["method"].(string)
	id, hasID := req["id"]
	if !hasID {
		s.logger.WithField("method", method).Debug("Received notification")
		return nil
	}

	switch method {
	case "initialize":
		return result(id, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "mailnav",
				"version": s.version,
			},
		})

	case "ping":
		return result(id, map[string]interface{}{})

	case "tools/list":
		return result(id, map[string]interface{}{
			"tools": s.tools.GetToolDefinitions(),
		})

	case "tools/call":
		params, _ := req["params"].(map[string]interface{})
		toolName, _ := params["name"].(string)
		arguments, _ := params["arguments"].(map[string]interface{})

		tool, exists := s.tools.GetTool(toolName)
		if !exists {
			return failure(id, -32601, fmt.Sprintf("Tool not found: %s", toolName))
		}

		out, err := tool.Execute(ctx, arguments)
		if err != nil {
			s.logger.WithError(err).WithField("tool", toolName).Warn("Tool failed")
			return failure(id, -32603, err.Error())
		}

		// Serialize result to JSON string for text content
		resultJSON, err := json.Marshal(out)
		if err != nil {
			resultJSON = []byte(fmt.Sprintf("%v", out))
		}

		return result(id, map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": string(resultJSON),
				},
			},
		})
	}

	return failure(id, -32601, fmt.Sprintf("Method not found: %s", method))
}

func result(id interface{}, body map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  body,
	}
}

func failure(id interface{}, code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
}
