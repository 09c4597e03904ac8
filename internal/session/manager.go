package session

import (
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/mallkit/mallkit/internal/cart"
	"github.com/mallkit/mallkit/internal/domain"
)

// TopicCommit is published after a batch of transitions is committed
const TopicCommit = "session.commit"

// Session owns one user's state. All transitions run under its mutex, so
// cart and order reducers stay single-writer per session.
type Session struct {
	mu         sync.Mutex
	userID     int64
	state      State
	lastActive time.Time
}

func (s *Session) UserID() int64 {
	return s.userID
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Manager keeps the live sessions and drives the persistence mirror. The
// mirror never runs inside a reducer: handlers commit explicitly and the
// commit event carries the state to the store subscriber.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	bus      EventBus.Bus
	store    Store
}

func NewManager(store Store) *Manager {
	m := &Manager{
		sessions: make(map[int64]*Session),
		bus:      EventBus.New(),
		store:    store,
	}
	if err := m.bus.Subscribe(TopicCommit, m.mirror); err != nil {
		zap.L().Error("failed to subscribe session mirror", zap.Error(err))
	}
	return m
}

// Begin opens (or resumes) the session for a user after login. Previously
// mirrored state is restored so an authenticated user gets their cart back.
func (m *Manager) Begin(user domain.User, token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[user.ID]
	if !ok {
		sess = &Session{userID: user.ID}
		if m.store != nil {
			if persisted, found, err := m.store.Load(user.ID); err != nil {
				zap.L().Warn("failed to restore session state", zap.Int64("user_id", user.ID), zap.Error(err))
			} else if found {
				sess.state = persisted
			}
		}
		m.sessions[user.ID] = sess
	}

	sess.mu.Lock()
	sess.state.Auth = Auth{Token: token, User: user, IsAuthenticated: true}
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	m.Commit(sess)
	return sess
}

// Get returns the live session for a user id
func (m *Manager) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[userID]
	return sess, ok
}

// Dispatch applies one cart action under the session lock and commits
func (m *Manager) Dispatch(sess *Session, action cart.Action) cart.State {
	sess.mu.Lock()
	sess.state.Cart = cart.Reduce(sess.state.Cart, action)
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	m.Commit(sess)
	return sess.Snapshot().Cart
}

// Apply runs an arbitrary state mutation under the session lock and commits.
// Used by checkout to append the order and clear the cart as one commit.
func (m *Manager) Apply(sess *Session, fn func(*State)) State {
	sess.mu.Lock()
	fn(&sess.state)
	sess.lastActive = time.Now()
	sess.mu.Unlock()

	m.Commit(sess)
	return sess.Snapshot()
}

// Logout drops auth and cart state, the mirror clears its record
func (m *Manager) Logout(sess *Session) {
	sess.mu.Lock()
	sess.state = State{}
	sess.mu.Unlock()

	m.Commit(sess)

	m.mu.Lock()
	delete(m.sessions, sess.userID)
	m.mu.Unlock()
}

// Commit publishes the committed state on the bus
func (m *Manager) Commit(sess *Session) {
	m.bus.Publish(TopicCommit, sess.userID, sess.Snapshot())
}

// mirror is the bus subscriber: persist while authenticated, clear otherwise
func (m *Manager) mirror(userID int64, state State) {
	if m.store == nil {
		return
	}
	if state.Auth.IsAuthenticated {
		if err := m.store.Save(userID, state); err != nil {
			zap.L().Error("failed to mirror session state", zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}
	if err := m.store.Clear(userID); err != nil {
		zap.L().Error("failed to clear mirrored session state", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Sweep drops sessions idle longer than maxIdle, mirrored state stays so a
// returning user still restores their cart
func (m *Manager) Sweep(maxIdle time.Duration) int {
	deadline := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(deadline)
		sess.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
