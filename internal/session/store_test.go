package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBoltStoreRoundtrip(t *testing.T) {
	store := newTestStore(t)

	state := State{
		Auth: Auth{Token: "tok", User: domain.User{ID: 42, Email: "pat@example.com"}, IsAuthenticated: true},
		Cart: cart.State{Items: []cart.Line{
			{ProductID: 1001, Name: "widget", Price: 9.99, Stock: 10, Quantity: 2},
		}},
	}
	require.NoError(t, store.Save(42, state))

	loaded, found, err := store.Load(42)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state.Auth.Token, loaded.Auth.Token)
	assert.Equal(t, state.Auth.User.ID, loaded.Auth.User.ID)
	require.Len(t, loaded.Cart.Items, 1)
	assert.Equal(t, int64(1001), loaded.Cart.Items[0].ProductID)
	assert.Equal(t, 2, loaded.Cart.Items[0].Quantity)
}

func TestBoltStoreMissingRecord(t *testing.T) {
	store := newTestStore(t)

	_, found, err := store.Load(999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltStoreClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(42, State{Auth: Auth{IsAuthenticated: true}}))
	require.NoError(t, store.Clear(42))

	_, found, err := store.Load(42)
	require.NoError(t, err)
	assert.False(t, found)

	// clearing an absent record is not an error
	require.NoError(t, store.Clear(42))
}
