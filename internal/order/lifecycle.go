package order

import (
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
	"github.com/mallkit/mallkit/pkg/common"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrMissingAddress    = errors.New("shipping address is incomplete")
)

// transitions is the fixed forward-only graph. A backward move, such as
// delivered back to pending, is a validation error.
var transitions = map[string][]string{
	domain.OrderPending:    {domain.OrderProcessing, domain.OrderCancelled},
	domain.OrderProcessing: {domain.OrderShipped, domain.OrderCancelled},
	domain.OrderShipped:    {domain.OrderDelivered, domain.OrderCancelled},
	domain.OrderDelivered:  {},
	domain.OrderCancelled:  {},
}

// KnownStatus reports whether s belongs to the status label set
func KnownStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible
func Terminal(s string) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition advances an order's status, touching only status and updated_at
func Transition(o *domain.Order, to string, now time.Time) error {
	if !KnownStatus(to) {
		return errors.Wrap(ErrUnknownStatus, to)
	}
	if !CanTransition(o.Status, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Totals is the checkout amount breakdown
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Pricing holds the tunable checkout parameters
type Pricing struct {
	TaxRate       float64
	FreeShipAbove float64
	ShippingFee   float64
}

// ComputeTotals prices a cart: subtotal sums floor(price)*quantity per line,
// tax applies the configured rate, shipping is waived above the threshold.
func ComputeTotals(items []cart.Line, p Pricing) Totals {
	var subtotal float64
	for _, line := range items {
		subtotal += math.Floor(line.Price) * float64(line.Quantity)
	}
	tax := subtotal * p.TaxRate
	shipping := p.ShippingFee
	if subtotal > p.FreeShipAbove {
		shipping = 0
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	}
}

// Checkout assembles an order from the current cart snapshot plus the
// shipping form. Items are frozen copies of the cart lines; the order starts
// in the processing status. The caller clears the cart afterwards, inside
// the same storage transaction as the order insert.
func Checkout(state cart.State, addr domain.ShippingAddress, userID int64, p Pricing, now time.Time) (domain.Order, Totals, error) {
	if len(state.Items) == 0 {
		return domain.Order{}, Totals{}, ErrEmptyCart
	}
	if strings.TrimSpace(addr.FullName) == "" || strings.TrimSpace(addr.Address) == "" {
		return domain.Order{}, Totals{}, ErrMissingAddress
	}

	totals := ComputeTotals(state.Items, p)

	orderID := common.UUIDint64()
	items := make([]domain.OrderItem, 0, len(state.Items))
	for _, line := range state.Items {
		items = append(items, domain.OrderItem{
			ID:        common.UUIDint64(),
			OrderID:   orderID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Image:     line.Image,
		})
	}

	return domain.Order{
		ID:              orderID,
		UserID:          userID,
		Items:           items,
		TotalAmount:     totals.Subtotal,
		ShippingAddress: addr,
		Status:          domain.OrderProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, totals, nil
}
