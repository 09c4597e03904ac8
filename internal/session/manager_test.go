package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
)

func testUser() domain.User {
	return domain.User{ID: 42, Name: "Pat", Email: "pat@example.com", Role: domain.RoleUser}
}

func TestManagerBeginAndGet(t *testing.T) {
	m := NewManager(newTestStore(t))

	sess := m.Begin(testUser(), "tok")
	require.NotNil(t, sess)
	assert.Equal(t, int64(42), sess.UserID())
	assert.True(t, sess.Snapshot().Auth.IsAuthenticated)
	assert.Equal(t, "tok", sess.Snapshot().Auth.Token)

	got, found := m.Get(42)
	assert.True(t, found)
	assert.Same(t, sess, got)

	_, found = m.Get(999)
	assert.False(t, found)
}

func TestManagerDispatchMirrorsState(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	sess := m.Begin(testUser(), "tok")

	state := m.Dispatch(sess, cart.Add{
		Line:     cart.Line{ProductID: 1001, Name: "widget", Price: 9.99, Stock: 10},
		Quantity: 2,
	})
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)

	// the commit mirrored the state to the store
	persisted, found, err := store.Load(42)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, persisted.Cart.Items, 1)
	assert.Equal(t, int64(1001), persisted.Cart.Items[0].ProductID)
}

func TestManagerRestoresMirroredState(t *testing.T) {
	store := newTestStore(t)

	m := NewManager(store)
	sess := m.Begin(testUser(), "tok")
	m.Dispatch(sess, cart.Add{Line: cart.Line{ProductID: 1001, Name: "widget", Price: 9.99, Stock: 10}})

	// a fresh manager over the same store simulates a restart
	m2 := NewManager(store)
	resumed := m2.Begin(testUser(), "tok2")
	snap := resumed.Snapshot()
	require.Len(t, snap.Cart.Items, 1)
	assert.Equal(t, int64(1001), snap.Cart.Items[0].ProductID)
	assert.Equal(t, "tok2", snap.Auth.Token)
}

func TestManagerApply(t *testing.T) {
	m := NewManager(newTestStore(t))
	sess := m.Begin(testUser(), "tok")
	m.Dispatch(sess, cart.Add{Line: cart.Line{ProductID: 1001, Name: "widget", Price: 9.99, Stock: 10}})

	record := domain.Order{ID: 5005, UserID: 42, Status: domain.OrderProcessing}
	state := m.Apply(sess, func(s *State) {
		s.Order = append(s.Order, record)
		s.Cart = cart.Reduce(s.Cart, cart.Clear{})
	})

	require.Len(t, state.Order, 1)
	assert.Equal(t, int64(5005), state.Order[0].ID)
	assert.Equal(t, 0, state.Cart.Count())
}

func TestManagerLogoutClearsMirror(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store)
	sess := m.Begin(testUser(), "tok")
	m.Dispatch(sess, cart.Add{Line: cart.Line{ProductID: 1001, Name: "widget", Price: 9.99, Stock: 10}})

	m.Logout(sess)

	_, found := m.Get(42)
	assert.False(t, found)

	// nothing survives on disk for a logged-out user
	_, persisted, err := store.Load(42)
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestManagerSweep(t *testing.T) {
	m := NewManager(newTestStore(t))
	sess := m.Begin(testUser(), "tok")

	assert.Equal(t, 0, m.Sweep(time.Hour))

	sess.mu.Lock()
	sess.lastActive = time.Now().Add(-2 * time.Hour)
	sess.mu.Unlock()

	assert.Equal(t, 1, m.Sweep(time.Hour))
	_, found := m.Get(42)
	assert.False(t, found)
}
