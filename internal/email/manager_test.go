package email

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mailnav/internal/cache"
	"github.com/brandon/mailnav/internal/config"
	"github.com/brandon/mailnav/pkg/types"
)

// seededMessageID is the Message-ID of the read message memory.New puts in INBOX
const seededMessageID = "0000000@localhost/"

type recordingViewer struct {
	shown []types.Message
}

func (v *recordingViewer) ShowMessage(msg types.Message) {
	v.shown = append(v.shown, msg)
}

type recordingPublisher struct {
	mu        sync.Mutex
	delivered []types.FolderRef
	pages     []*types.MessagePage
}

func (p *recordingPublisher) PublishNewMail(_ context.Context, folder types.FolderRef, page *types.MessagePage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, folder)
	p.pages = append(p.pages, page)
}

type fixture struct {
	user    backend.User
	manager *Manager
	store   *cache.Store
	viewer  *recordingViewer
}

func newFixture(t *testing.T, pageSize int) *fixture {
	t.Helper()

	be := memory.New()
	user, err := be.Login(nil, "username", "password")
	require.NoError(t, err)

	srv := server.New(be)
	srv.AllowInsecureAuth = true
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(l) //nolint:errcheck
	t.Cleanup(func() { srv.Close() })

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &config.Config{
		ArchiveFolders: []string{"Archive"},
		QueryTimeout:   5 * time.Second,
		PageSize:       pageSize,
		IMAPRateLimit:  1000,
		Accounts: []config.AccountConfig{{
			Name:         "work",
			IMAPHost:     host,
			IMAPPort:     port,
			IMAPUsername: "username",
			IMAPPassword: "password",
		}},
	}

	logger, _ := logtest.NewNullLogger()
	c, err := cache.NewCache(cache.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	store := cache.NewStore(c, logger)
	_, err = store.UpsertAccount(context.Background(), &cfg.Accounts[0])
	require.NoError(t, err)

	viewer := &recordingViewer{}
	manager, err := NewManager(cfg, store, viewer, logger)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return &fixture{user: user, manager: manager, store: store, viewer: viewer}
}

func (f *fixture) mailbox(t *testing.T, name string) backend.Mailbox {
	t.Helper()
	mbox, err := f.user.GetMailbox(name)
	if err != nil {
		require.NoError(t, f.user.CreateMailbox(name))
		mbox, err = f.user.GetMailbox(name)
	}
	require.NoError(t, err)
	return mbox
}

func (f *fixture) deliver(t *testing.T, mailbox, messageID, subject string, flags ...string) {
	t.Helper()
	body := "From: Ann Example <ann@example.org>\r\n" +
		"To: me@example.org\r\n" +
		"Subject: " + subject + "\r\n" +
		"Date: Wed, 11 May 2016 14:31:59 +0000\r\n" +
		"Message-ID: <" + messageID + ">\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Body of " + subject
	require.NoError(t, f.mailbox(t, mailbox).CreateMessage(flags, time.Time{}, bytes.NewBufferString(body)))
}

func TestManagerSubFolders(t *testing.T) {
	f := newFixture(t, 10)
	f.mailbox(t, "Work")
	f.mailbox(t, "Archive")
	f.mailbox(t, "Projects/Alpha")
	ctx := context.Background()

	accounts, err := f.manager.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Account{{ID: "work", Name: "work"}}, accounts)

	tree, err := f.manager.SubFolders(ctx, "work")
	require.NoError(t, err)
	require.Equal(t, []string{"/INBOX", "/Archive", "/Projects", "/Work"}, paths(tree))
	assert.Equal(t, types.FolderArchives, tree[1].Type)
	assert.False(t, tree[2].Selectable)

	_, err = f.manager.SubFolders(ctx, "home")
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestManagerFolderInfo(t *testing.T) {
	f := newFixture(t, 10)
	f.deliver(t, "Work", "a@example.org", "first")
	f.deliver(t, "Work", "b@example.org", "second", imap.SeenFlag)
	f.mailbox(t, "Projects/Alpha")
	ctx := context.Background()

	require.NoError(t, f.manager.SetFavorite(ctx, types.FolderRef{AccountID: "work", Path: "/Work"}, true))

	info, err := f.manager.FolderInfo(ctx, types.FolderRef{AccountID: "work", Path: "/Work"})
	require.NoError(t, err)
	assert.Equal(t, &types.FolderInfo{Favorite: true, UnreadMessageCount: 1, TotalMessageCount: 2}, info)

	info, err = f.manager.FolderInfo(ctx, types.FolderRef{AccountID: "work", Path: "/INBOX"})
	require.NoError(t, err)
	assert.Equal(t, &types.FolderInfo{UnreadMessageCount: 0, TotalMessageCount: 1}, info)

	info, err = f.manager.FolderInfo(ctx, types.FolderRef{AccountID: "work", Path: "/Projects"})
	require.NoError(t, err)
	assert.Equal(t, &types.FolderInfo{}, info)

	_, err = f.manager.FolderInfo(ctx, types.FolderRef{AccountID: "work", Path: "/Nope"})
	assert.ErrorIs(t, err, ErrNoSuchFolder)

	_, err = f.manager.FolderInfo(ctx, types.FolderRef{AccountID: "home", Path: "/INBOX"})
	assert.ErrorIs(t, err, ErrNoSuchAccount)

	err = f.manager.SetFavorite(ctx, types.FolderRef{AccountID: "work", Path: "/Nope"}, true)
	assert.ErrorIs(t, err, ErrNoSuchFolder)

	favorites, err := f.manager.ListFavorites(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, []string{"/Work"}, favorites)

	_, err = f.manager.ListFavorites(ctx, "home")
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestManagerQueryPagesExactMatches(t *testing.T) {
	f := newFixture(t, 1)
	f.deliver(t, "Work", seededMessageID, "copy")
	// Contains the wanted id as a substring only
	f.deliver(t, "Work", "1"+seededMessageID, "lookalike")
	ctx := context.Background()

	page, err := f.manager.Query(ctx, seededMessageID)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.NotEmpty(t, page.ID)

	first := page.Messages[0]
	assert.Equal(t, seededMessageID, first.HeaderMessageID)
	assert.Equal(t, "/INBOX", first.FolderPath)
	assert.True(t, first.Read)
	assert.Equal(t, "contact@example.org", first.Author)

	page, err = f.manager.ContinueList(ctx, page.ID)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Empty(t, page.ID)

	second := page.Messages[0]
	assert.Equal(t, "/Work", second.FolderPath)
	assert.Equal(t, "copy", second.Subject)
	assert.Equal(t, "Ann Example <ann@example.org>", second.Author)
	assert.False(t, second.Read)

	page, err = f.manager.Query(ctx, "missing@example.org")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Empty(t, page.ID)

	_, err = f.manager.ContinueList(ctx, "stale")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestManagerQueryEmptyIDMatchesNothing(t *testing.T) {
	f := newFixture(t, 10)
	f.deliver(t, "Work", "", "empty-brackets")

	page, err := f.manager.Query(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)
	assert.Empty(t, page.ID)
}

func TestManagerQueryRefreshesStaleListing(t *testing.T) {
	f := newFixture(t, 10)
	f.manager.config.PollInterval = time.Hour
	ctx := context.Background()

	page, err := f.manager.Query(ctx, "late@example.org")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	f.deliver(t, "Late", "late@example.org", "created after listing")

	// Listing is still fresh
	page, err = f.manager.Query(ctx, "late@example.org")
	require.NoError(t, err)
	assert.Empty(t, page.Messages)

	account, err := f.manager.GetAccount("work")
	require.NoError(t, err)
	account.mu.Lock()
	account.listedAt = time.Now().Add(-2 * time.Hour)
	account.mu.Unlock()

	page, err = f.manager.Query(ctx, "late@example.org")
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, "/Late", page.Messages[0].FolderPath)
}

func TestManagerOpenMessage(t *testing.T) {
	f := newFixture(t, 10)
	f.deliver(t, "Work", "a@example.org", "hello")
	ctx := context.Background()

	page, err := f.manager.Query(ctx, "a@example.org")
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)

	require.NoError(t, f.manager.OpenMessage(ctx, page.Messages[0]))
	require.Len(t, f.viewer.shown, 1)
	assert.Equal(t, "a@example.org", f.viewer.shown[0].HeaderMessageID)

	email, err := f.manager.GetEmail(ctx, page.Messages[0].Folder(), page.Messages[0].UID)
	require.NoError(t, err)
	assert.Equal(t, "Body of hello", email.BodyText)
	assert.Equal(t, "Ann Example", email.SenderName)
	assert.Equal(t, "ann@example.org", email.SenderEmail)
	assert.Equal(t, []string{"me@example.org"}, email.Recipients)
}

func TestWatcherPublishesOnlyNewMail(t *testing.T) {
	f := newFixture(t, 10)
	f.mailbox(t, "Work")
	ctx := context.Background()
	pub := &recordingPublisher{}
	w := NewWatcher(f.manager, f.store, pub, time.Minute, f.manager.logger)

	// First sight records a baseline
	w.Poll(ctx)
	assert.Empty(t, pub.delivered)
	wm, err := f.store.GetWatermark(ctx, "work", "/INBOX")
	require.NoError(t, err)
	require.NotNil(t, wm)
	assert.Equal(t, uint32(7), wm.UIDNext)

	// Work was empty at baseline, so both deliveries are new
	f.deliver(t, "Work", "new1@example.org", "one")
	f.deliver(t, "Work", "new2@example.org", "two", imap.SeenFlag)
	w.Poll(ctx)

	require.Equal(t, []types.FolderRef{{AccountID: "work", Path: "/Work"}}, pub.delivered)
	msgs := pub.pages[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "new1@example.org", msgs[0].HeaderMessageID)
	assert.False(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)

	w.Poll(ctx)
	assert.Len(t, pub.delivered, 1)
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(f.manager, f.store, &recordingPublisher{}, time.Hour, f.manager.logger)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
