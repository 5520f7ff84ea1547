package email

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/mailnav/pkg/types"
)

func messages(n int) []types.Message {
	msgs := make([]types.Message, n)
	for i := range msgs {
		msgs[i] = types.Message{HeaderMessageID: fmt.Sprintf("m%d", i)}
	}
	return msgs
}

func TestPaginateWithinOnePage(t *testing.T) {
	p, err := NewPages(3, 10)
	require.NoError(t, err)

	page := p.Paginate(messages(3))
	assert.Len(t, page.Messages, 3)
	assert.Empty(t, page.ID)
}

func TestContinueWalksAllPages(t *testing.T) {
	p, err := NewPages(3, 10)
	require.NoError(t, err)

	page := p.Paginate(messages(7))
	var got []types.Message
	got = append(got, page.Messages...)
	continued := 0
	for page.ID != "" {
		page, err = p.Continue(page.ID)
		require.NoError(t, err)
		continued++
		got = append(got, page.Messages...)
	}

	assert.Equal(t, 2, continued)
	assert.Equal(t, messages(7), got)
}

func TestContinueUnknownPage(t *testing.T) {
	p, err := NewPages(1, 10)
	require.NoError(t, err)

	_, err = p.Continue("nope")
	assert.ErrorIs(t, err, ErrUnknownPage)

	page := p.Paginate(messages(2))
	_, err = p.Continue(page.ID)
	require.NoError(t, err)

	// ids are single use
	_, err = p.Continue(page.ID)
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestEvictedPagesAreUnknown(t *testing.T) {
	p, err := NewPages(1, 1)
	require.NoError(t, err)

	first := p.Paginate(messages(2))
	p.Paginate(messages(2))

	_, err = p.Continue(first.ID)
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestNewPagesRejectsZeroSize(t *testing.T) {
	_, err := NewPages(0, 1)
	assert.Error(t, err)
}
