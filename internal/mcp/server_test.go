package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/internal/host/hosttest"
	"github.com/brandon/mailnav/internal/tools"
	"github.com/brandon/mailnav/pkg/types"
)

type mailbox struct {
	*hosttest.Host
}

func (m mailbox) SetFavorite(context.Context, types.FolderRef, bool) error { return nil }

func (m mailbox) ListFavorites(context.Context, string) ([]string, error) { return nil, nil }

func (m mailbox) GetEmail(context.Context, types.FolderRef, uint32) (*types.Email, error) {
	return &types.Email{}, nil
}

func serve(t *testing.T, requests ...string) []map[string]interface{} {
	t.Helper()
	logger, _ := logtest.NewNullLogger()

	view := host.NewView(logger)
	registry := tools.NewRegistry(mailbox{hosttest.New()}, host.NewBus(logger, time.Second), view, logger)

	var out bytes.Buffer
	srv := NewServer(registry, "test", strings.NewReader(strings.Join(requests, "\n")), &out, logger)
	require.NoError(t, srv.Run(context.Background()))

	var responses []map[string]interface{}
	dec := json.NewDecoder(&out)
	for dec.More() {
		var resp map[string]interface{}
		require.NoError(t, dec.Decode(&resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestInitializeAndList(t *testing.T) {
	responses := serve(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	require.Len(t, responses, 2)

	info := responses[0]["result"].(map[string]interface{})["serverInfo"].(map[string]interface{})
	assert.Equal(t, "mailnav", info["name"])
	assert.Equal(t, "test", info["version"])

	list := responses[1]["result"].(map[string]interface{})["tools"].([]interface{})
	assert.Len(t, list, 7)
}

func TestToolsCall(t *testing.T) {
	responses := serve(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"current_folder","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"run_command","arguments":{"command":"bogus"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"bogus"}`,
	)
	require.Len(t, responses, 4)

	content := responses[0]["result"].(map[string]interface{})["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)
	assert.JSONEq(t, `{"displayed_folder":null,"displayed_message":null}`, text)

	for i, code := range []float64{-32601, -32603, -32601} {
		errObj := responses[i+1]["error"].(map[string]interface{})
		assert.Equal(t, code, errObj["code"])
	}
}

func TestRunRejectsMalformedInput(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	registry := tools.NewRegistry(mailbox{hosttest.New()}, host.NewBus(logger, time.Second), host.NewView(logger), logger)
	srv := NewServer(registry, "test", strings.NewReader("{not json"), &bytes.Buffer{}, logger)

	assert.Error(t, srv.Run(context.Background()))
}
