package addon

import (
	"context"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mailnav/internal/host"
	"github.com/brandon/mailnav/internal/host/hosttest"
	"github.com/brandon/mailnav/internal/navigator"
	"github.com/brandon/mailnav/internal/notifier"
	"github.com/brandon/mailnav/pkg/types"
)

func setup(t *testing.T) (*host.Bus, *hosttest.OpeningHost, *logtest.Hook) {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	h := &hosttest.OpeningHost{Host: hosttest.New()}
	bus := host.NewBus(logger, time.Second)

	n := notifier.New(h, h, h, h, notifier.Options{Policy: notifier.PolicyFavorites}, logger)
	r := navigator.NewRanker(h, h, h, navigator.Options{}, logger)
	Register(bus, n, r)
	return bus, h, hook
}

func TestNewMailEventCreatesNotifications(t *testing.T) {
	bus, h, _ := setup(t)
	work := types.FolderRef{AccountID: "A1", Path: "/Work"}
	h.Favorites[work] = true

	bus.PublishNewMail(context.Background(), work, &types.MessagePage{Messages: []types.Message{
		{HeaderMessageID: "1", Author: "Ann", Subject: "a"},
		{HeaderMessageID: "2", Author: "Ben", Subject: "b", Read: true},
		{HeaderMessageID: "3", Author: "Cat", Subject: "c"},
	}})

	require.Len(t, h.Created, 2)
	assert.Equal(t, "Work, from Ann", h.Created[0].Notification.Title)
	assert.Equal(t, "Work, from Cat", h.Created[1].Notification.Title)
}

func TestClickWithoutMatchesIsNoop(t *testing.T) {
	bus, h, hook := setup(t)

	bus.PublishNotificationClicked(context.Background(), "TBC-NewMail: abc123")
	assert.Empty(t, h.Opened)
	assert.Empty(t, hook.AllEntries())
}

func TestClickOpensMessage(t *testing.T) {
	bus, h, _ := setup(t)
	h.QueryResults["abc123"] = &types.MessagePage{Messages: []types.Message{{HeaderMessageID: "abc123", AccountID: "A1", FolderPath: "/INBOX"}}}

	bus.PublishNotificationClicked(context.Background(), "TBC-NewMail: abc123")
	require.Len(t, h.Opened, 1)
	assert.Equal(t, "abc123", h.Opened[0].HeaderMessageID)
}

func TestCommandNavigates(t *testing.T) {
	bus, h, _ := setup(t)
	h.AddAccount("A1", hosttest.Folder("A1", "/INBOX", types.FolderInbox))
	h.AddAccount("A2", hosttest.Folder("A2", "/INBOX", types.FolderInbox))
	h.Unread[types.FolderRef{AccountID: "A2", Path: "/INBOX"}] = 3
	h.Display("A1", "/INBOX")

	bus.PublishCommand(context.Background(), "unrelated-command")
	assert.Empty(t, h.Updated)

	bus.PublishCommand(context.Background(), host.CommandNextUnreadFolder)
	assert.Equal(t, []types.FolderRef{{AccountID: "A2", Path: "/INBOX"}}, h.Updated)
}

func TestListenerErrorsAreLogged(t *testing.T) {
	bus, h, hook := setup(t)
	work := types.FolderRef{AccountID: "A1", Path: "/Work"}
	h.Favorites[work] = true

	bus.PublishNewMail(context.Background(), work, &types.MessagePage{ID: "missing"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Event listener failed", entry.Message)
	assert.Equal(t, "new_mail", entry.Data["event"])
}
