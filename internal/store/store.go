// Package store persists cart session state. Each session is stored as
// three JSON documents (items, address, coupon) so partial updates stay
// cheap and a missing document simply means "not set yet".
package store

import (
	"context"

	"github.com/forjalabs/forja/internal/cart"
)

// CartStore loads and saves per-session cart state. A session that has
// never been written loads as an empty cart, never as an error.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Save(ctx context.Context, sessionID string, c *cart.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
