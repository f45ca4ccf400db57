// Package upload moves binary items to the hosting service and exposes
// their resolutions as an ordered event stream.
package upload

import (
	"context"

	"github.com/dmitrijs2005/picdrop/internal/item"
)

// Backend performs one upload and returns the hosting service's record.
type Backend interface {
	Upload(ctx context.Context, b *item.Binary) (*item.Resolved, error)
}

// Event is one yielded value of a dispatch cycle.
// Exactly one of the three shapes applies:
//   - Item != nil: a successful resolution.
//   - Err != nil: one item failed; the cycle continues.
//   - Done: every item queued so far has settled.
type Event struct {
	Item *item.Resolved
	Err  error
	Done bool
}
