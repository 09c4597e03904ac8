package session

import (
	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
)

// Auth is the authenticated part of a session state
type Auth struct {
	Token           string      `json:"token"`
	User            domain.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// State is the combined per-session state shape. It is what the persistence
// mirror serializes: auth, the cart line items, and the orders placed during
// the session.
type State struct {
	Auth  Auth           `json:"auth"`
	Cart  cart.State     `json:"cart"`
	Order []domain.Order `json:"order"`
}
