// Package pager presents a paginated message result as one ordered sequence.
package pager

import (
	"context"
	"fmt"

	"github.com/brandon/mailnav/pkg/types"
)

// Continuer fetches the page following a continuation token
type Continuer interface {
	ContinueList(ctx context.Context, pageID string) (*types.MessagePage, error)
}

// Iterator walks every message of a paginated result exactly once, in
// delivery order. The next page is fetched only when the current one is
// exhausted. It is not restartable.
type Iterator struct {
	ctx  context.Context
	cont Continuer
	page *types.MessagePage
	pos  int
	cur  types.Message
	err  error
}

// New creates an iterator starting at the first page
func New(ctx context.Context, first *types.MessagePage, cont Continuer) *Iterator {
	return &Iterator{
		ctx:  ctx,
		cont: cont,
		page: first,
	}
}

// Next advances to the next message, fetching pages as needed. It returns
// false when the sequence is exhausted or a page fetch failed.
func (it *Iterator) Next() bool {
	if it.err != nil || it.page == nil {
		return false
	}

	for it.pos >= len(it.page.Messages) {
		if it.page.ID == "" {
			it.page = nil
			return false
		}

		next, err := it.cont.ContinueList(it.ctx, it.page.ID)
		if err != nil {
			it.err = fmt.Errorf("failed to continue message list: %w", err)
			it.page = nil
			return false
		}
		if next == nil {
			next = &types.MessagePage{}
		}
		it.page = next
		it.pos = 0
	}

	it.cur = it.page.Messages[it.pos]
	it.pos++
	return true
}

// Message returns the message Next advanced to
func (it *Iterator) Message() types.Message {
	return it.cur
}

// Err returns the page fetch error that stopped iteration, if any
func (it *Iterator) Err() error {
	return it.err
}

// Collect drains a paginated result into a slice
func Collect(ctx context.Context, first *types.MessagePage, cont Continuer) ([]types.Message, error) {
	it := New(ctx, first, cont)

	var messages []types.Message
	for it.Next() {
		messages = append(messages, it.Message())
	}
	return messages, it.Err()
}
