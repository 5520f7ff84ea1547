package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brandon/mailnav/internal/config"
	"github.com/brandon/mailnav/pkg/types"
)

// IMAPClient wraps a single IMAP connection. Commands are serialized and
// rate limited; the connection is (re)established lazily.
type IMAPClient struct {
	config  *config.AccountConfig
	client  *client.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logrus.Logger

	mu sync.Mutex
}

// NewIMAPClient creates a new IMAP client (does not connect immediately)
func NewIMAPClient(cfg *config.AccountConfig, rateLimit int, timeout time.Duration, logger *logrus.Logger) *IMAPClient {
	return &IMAPClient{
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit*5),
		timeout: timeout,
		logger:  logger,
	}
}

// connect establishes a connection to the IMAP server. Callers hold c.mu.
func (c *IMAPClient) connect() error {
	if c.client != nil && c.client.State() != imap.LogoutState {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", c.config.IMAPHost, c.config.IMAPPort)

	var (
		cl  *client.Client
		err error
	)
	if c.config.IMAPTLS {
		cl, err = client.DialTLS(addr, &tls.Config{
			ServerName: c.config.IMAPHost,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		cl, err = client.Dial(addr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	cl.Timeout = c.timeout

	if err := cl.Login(c.config.IMAPUsername, c.config.IMAPPassword); err != nil {
		c.logger.WithError(err).WithField("account", c.config.Name).Error("Failed to login to IMAP server")
		cl.Logout() //nolint:errcheck
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	c.client = cl
	c.logger.WithField("account", c.config.Name).Info("Connected to IMAP server")
	return nil
}

// do runs fn on a live connection once the rate limiter allows it
func (c *IMAPClient) do(ctx context.Context, fn func(cl *client.Client) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.connect(); err != nil {
		return err
	}
	return fn(c.client)
}

// Close closes the IMAP connection
func (c *IMAPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Logout()
	c.client = nil
	return err
}

// ListMailboxes lists every mailbox of the account
func (c *IMAPClient) ListMailboxes(ctx context.Context) ([]*imap.MailboxInfo, error) {
	var infos []*imap.MailboxInfo
	err := c.do(ctx, func(cl *client.Client) error {
		mailboxes := make(chan *imap.MailboxInfo, 10)
		done := make(chan error, 1)
		go func() {
			done <- cl.List("", "*", mailboxes)
		}()

		for m := range mailboxes {
			infos = append(infos, m)
		}
		return <-done
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	return infos, nil
}

// Unseen counts the unread and total messages of a mailbox. STATUS UNSEEN is
// not reliable across servers, so the mailbox is examined and searched.
func (c *IMAPClient) Unseen(ctx context.Context, mailbox string) (unseen, total int, err error) {
	err = c.do(ctx, func(cl *client.Client) error {
		status, err := cl.Select(mailbox, true)
		if err != nil {
			return fmt.Errorf("failed to examine mailbox: %w", err)
		}
		total = int(status.Messages)
		if total == 0 {
			return nil
		}

		criteria := imap.NewSearchCriteria()
		criteria.WithoutFlags = []string{imap.SeenFlag}
		uids, err := cl.UidSearch(criteria)
		if err != nil {
			return fmt.Errorf("failed to search unseen messages: %w", err)
		}
		unseen = len(uids)
		return nil
	})
	return unseen, total, err
}

// Status returns the UIDNEXT, UIDVALIDITY and message count of a mailbox
func (c *IMAPClient) Status(ctx context.Context, mailbox string) (*imap.MailboxStatus, error) {
	var status *imap.MailboxStatus
	err := c.do(ctx, func(cl *client.Client) error {
		var err error
		status, err = cl.Status(mailbox, []imap.StatusItem{
			imap.StatusMessages,
			imap.StatusUidNext,
			imap.StatusUidValidity,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mailbox status: %w", err)
	}
	return status, nil
}

// SearchMessageID returns the messages of a mailbox whose Message-ID header
// equals headerMessageID, compared without angle brackets
func (c *IMAPClient) SearchMessageID(ctx context.Context, mailbox, headerMessageID string) ([]*imap.Message, error) {
	var matches []*imap.Message
	err := c.do(ctx, func(cl *client.Client) error {
		if _, err := cl.Select(mailbox, true); err != nil {
			return fmt.Errorf("failed to examine mailbox: %w", err)
		}

		// HEADER search is a substring match on the server side
		criteria := imap.NewSearchCriteria()
		criteria.Header = textproto.MIMEHeader{}
		criteria.Header.Add("Message-Id", headerMessageID)
		uids, err := cl.UidSearch(criteria)
		if err != nil {
			return fmt.Errorf("failed to search messages: %w", err)
		}
		if len(uids) == 0 {
			return nil
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(uids...)
		msgs, err := fetch(cl, seqSet, headerItems)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if msg.Envelope != nil && trimMessageID(msg.Envelope.MessageId) == headerMessageID {
				matches = append(matches, msg)
			}
		}
		return nil
	})
	return matches, err
}

// FetchRange fetches the headers of messages with UIDs in [from, to]
func (c *IMAPClient) FetchRange(ctx context.Context, mailbox string, from, to uint32) ([]*imap.Message, error) {
	var msgs []*imap.Message
	err := c.do(ctx, func(cl *client.Client) error {
		if _, err := cl.Select(mailbox, true); err != nil {
			return fmt.Errorf("failed to examine mailbox: %w", err)
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddRange(from, to)
		var err error
		msgs, err = fetch(cl, seqSet, headerItems)
		return err
	})
	if err != nil {
		return nil, err
	}

	// "n:m" may still return the last message when nothing is in range
	kept := msgs[:0]
	for _, msg := range msgs {
		if msg.Uid >= from && msg.Uid <= to {
			kept = append(kept, msg)
		}
	}
	return kept, nil
}

// FetchBody fetches and parses the full content of one message
func (c *IMAPClient) FetchBody(ctx context.Context, mailbox string, uid uint32) (*imap.Message, *enmime.Envelope, error) {
	var (
		msg *imap.Message
		raw []byte
	)
	err := c.do(ctx, func(cl *client.Client) error {
		if _, err := cl.Select(mailbox, true); err != nil {
			return fmt.Errorf("failed to examine mailbox: %w", err)
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(uid)
		section := &imap.BodySectionName{Peek: true}
		msgs, err := fetch(cl, seqSet, append(headerItems, section.FetchItem()))
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("message %d not found", uid)
		}

		msg = msgs[0]
		if literal := msg.GetBody(section); literal != nil {
			raw, err = io.ReadAll(literal)
			if err != nil {
				return fmt.Errorf("failed to read message body: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		c.logger.WithError(err).WithField("uid", uid).Debug("Failed to parse with enmime, using raw body")
		return msg, &enmime.Envelope{Text: string(raw)}, nil
	}
	return msg, env, nil
}

var headerItems = []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}

// fetch runs a UID FETCH and drains the results
func fetch(cl *client.Client, seqSet *imap.SeqSet, items []imap.FetchItem) ([]*imap.Message, error) {
	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- cl.UidFetch(seqSet, items, messages)
	}()

	var msgs []*imap.Message
	for msg := range messages {
		msgs = append(msgs, msg)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return msgs, nil
}

// trimMessageID strips the angle brackets around a Message-ID
func trimMessageID(id string) string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(id), "<"), ">")
}

// toMessage converts fetched headers into a Message
func toMessage(accountID, folderPath string, msg *imap.Message) types.Message {
	m := types.Message{
		AccountID:  accountID,
		FolderPath: folderPath,
		UID:        msg.Uid,
	}
	for _, flag := range msg.Flags {
		if flag == imap.SeenFlag {
			m.Read = true
		}
	}
	if env := msg.Envelope; env != nil {
		m.HeaderMessageID = trimMessageID(env.MessageId)
		m.Subject = env.Subject
		m.Date = env.Date
		if len(env.From) > 0 {
			m.Author = formatAddress(env.From[0])
		}
	}
	return m
}

// formatAddress renders an address the way mail clients show an author
func formatAddress(addr *imap.Address) string {
	if addr.PersonalName == "" {
		return addr.Address()
	}
	return fmt.Sprintf("%s <%s>", addr.PersonalName, addr.Address())
}
