package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mailnav/pkg/types"
)

func TestViewStartsEmpty(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	v := NewView(logger)

	tab, err := v.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tab)
}

func TestViewUpdateAndShowMessage(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	v := NewView(logger)
	ctx := context.Background()

	work := types.FolderRef{AccountID: "A1", Path: "/Work"}
	require.NoError(t, v.Update(ctx, MainTabID, work))

	var unknown *UnknownTabError
	assert.ErrorAs(t, v.Update(ctx, "other", work), &unknown)

	msg := types.Message{HeaderMessageID: "x", AccountID: "A2", FolderPath: "/INBOX"}
	v.ShowMessage(msg)

	tab, err := v.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, &types.FolderRef{AccountID: "A2", Path: "/INBOX"}, tab.DisplayedFolder)
	assert.Equal(t, &msg, tab.DisplayedMessage)

	// Displaying a folder closes the message
	require.NoError(t, v.Update(ctx, MainTabID, work))
	tab, err = v.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, &work, tab.DisplayedFolder)
	assert.Nil(t, tab.DisplayedMessage)
}

func TestBusSerializesDispatch(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	b := NewBus(logger, time.Second)

	var mu sync.Mutex
	running, maxRunning := 0, 0
	b.OnCommand(func(context.Context, string) error {
		mu.Lock()
		running++
		maxRunning = max(maxRunning, running)
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.PublishCommand(context.Background(), CommandNextUnreadFolder)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning)
}

func TestBusBoundsAndLogsListeners(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	b := NewBus(logger, 10*time.Millisecond)

	b.OnNotificationClicked(func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	called := false
	b.OnNotificationClicked(func(context.Context, string) error {
		called = true
		return errors.New("boom")
	})

	b.PublishNotificationClicked(context.Background(), "h")

	assert.True(t, called)
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.ErrorIs(t, entries[0].Data["error"].(error), context.DeadlineExceeded)
	assert.Equal(t, "notification_clicked", entries[1].Data["event"])
	assert.Equal(t, "h", entries[1].Data["handle"])
}
