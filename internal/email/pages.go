package email

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brandon/mailnav/pkg/types"
)

// ErrUnknownPage is returned for a page id that was never issued, was
// already consumed, or has been evicted
var ErrUnknownPage = errors.New("unknown message page")

// Pages splits message lists into bounded pages. The unconsumed remainder of
// a list is kept under a random page id until it is continued.
type Pages struct {
	size      int
	remainder *lru.Cache[string, []types.Message]
}

// NewPages creates a page registry holding at most capacity open lists
func NewPages(size, capacity int) (*Pages, error) {
	if size < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", size)
	}
	remainder, err := lru.New[string, []types.Message](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &Pages{size: size, remainder: remainder}, nil
}

// Paginate returns the first page of msgs
func (p *Pages) Paginate(msgs []types.Message) *types.MessagePage {
	if len(msgs) <= p.size {
		return &types.MessagePage{Messages: msgs}
	}

	id := uuid.NewString()
	p.remainder.Add(id, msgs[p.size:])
	return &types.MessagePage{Messages: msgs[:p.size], ID: id}
}

// Continue returns the page following the one that carried id. Each id can
// be continued once.
func (p *Pages) Continue(id string) (*types.MessagePage, error) {
	rest, ok := p.remainder.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPage, id)
	}
	p.remainder.Remove(id)
	return p.Paginate(rest), nil
}
