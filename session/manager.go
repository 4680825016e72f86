// Package session owns the authentication state of a client: who is signed in, with which
// tokens, and whether a session operation is running. It keeps memory and the credential store
// in step and never lets a failure escape as a panic or an error.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/gateway"
	"github.com/okanassist/okanassist-auth/identity"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultRehydrateTimeout = 30 * time.Second
	// clearTimeout bounds the local store wipe, which outlives the caller's context.
	clearTimeout = 5 * time.Second
)

// Manager coordinates the credential store, the auth API and the identity provider.
type Manager struct {
	store            *credentials.Store
	gateway          gateway.Gateway
	provider         identity.Provider // optional
	policy           Policy
	nowFunc          func() time.Time
	rehydrateTimeout time.Duration

	// inFlight holds one token while a mutating operation runs.
	inFlight chan struct{}

	lock         sync.RWMutex
	state        State
	user         *users.Profile
	accessToken  string
	refreshToken string
	loading      bool
	updatedAt    time.Time

	subsLock    sync.Mutex
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// Option configures a Manager.
type Option func(*Manager)

func WithPolicy(policy Policy) Option {
	return func(m *Manager) {
		m.policy = policy
	}
}

// WithNowFunc sets the clock used for Snapshot.UpdatedAt (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithRehydrateTimeout bounds the profile check made by Rehydrate. Zero disables the bound.
func WithRehydrateTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.rehydrateTimeout = timeout
	}
}

// New builds a Manager in StateUnknown. provider may be nil when no sign-in provider is set up.
func New(store *credentials.Store, gw gateway.Gateway, provider identity.Provider, options ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[session.New] credential store is required")
	}
	if gw == nil {
		return nil, errors.New("[session.New] gateway is required")
	}

	m := &Manager{
		store:            store,
		gateway:          gw,
		provider:         provider,
		policy:           PolicyQueue,
		nowFunc:          time.Now,
		rehydrateTimeout: defaultRehydrateTimeout,
		inFlight:         make(chan struct{}, 1),
		state:            StateUnknown,
		subscribers:      make(map[int]chan Snapshot),
	}
	for _, opt := range options {
		opt(m)
	}
	m.updatedAt = m.nowFunc()
	return m, nil
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

// Subscribe returns a channel that always holds the most recent snapshot. Slow readers skip
// intermediate snapshots. The returned func unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	m.subsLock.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = ch
	ch <- m.Snapshot()
	m.subsLock.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subsLock.Lock()
			defer m.subsLock.Unlock()
			delete(m.subscribers, id)
			close(ch)
		})
	}
}

// acquire claims the operation slot and raises the loading flag. The returned release must be
// called exactly once. When the slot cannot be claimed, ok is false and res explains why.
func (m *Manager) acquire(ctx context.Context) (release func(), res Result, ok bool) {
	switch m.policy {
	case PolicyReject:
		select {
		case m.inFlight <- struct{}{}:
		default:
			return nil, Result{Message: MsgBusy, Busy: true}, false
		}
	default:
		select {
		case m.inFlight <- struct{}{}:
		default:
			select {
			case m.inFlight <- struct{}{}:
			case <-ctx.Done():
				return nil, failed(errorMessage(ctx.Err(), MsgRequestCancelled)), false
			}
		}
	}

	m.update(func() { m.loading = true })
	return func() {
		m.update(func() { m.loading = false })
		<-m.inFlight
	}, Result{}, true
}

// authenticate records a complete session in memory.
func (m *Manager) authenticate(profile users.Profile, tokens credentials.Tokens) {
	m.update(func() {
		m.state = StateAuthenticated
		m.user = &profile
		m.accessToken = tokens.AccessToken
		m.refreshToken = tokens.RefreshToken
	})
}

func (m *Manager) unauthenticate() {
	m.update(func() {
		m.state = StateUnauthenticated
		m.user = nil
		m.accessToken = ""
		m.refreshToken = ""
	})
}

// settle moves a manager that has not yet resolved its state to StateUnauthenticated. An
// existing session is left alone.
func (m *Manager) settle() {
	if m.State() != StateUnknown {
		return
	}
	m.update(func() {
		if m.state == StateUnknown {
			m.state = StateUnauthenticated
		}
	})
}

// clearStore wipes the credential store even when ctx is already done, so a cancelled or
// timed-out operation cannot leave credentials behind.
func (m *Manager) clearStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTimeout)
	defer cancel()
	return m.store.Clear(ctx)
}

// current returns copies of the in-memory session fields.
func (m *Manager) current() (*users.Profile, credentials.Tokens) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	var user *users.Profile
	if m.user != nil {
		profile := *m.user
		user = &profile
	}
	return user, credentials.Tokens{AccessToken: m.accessToken, RefreshToken: m.refreshToken}
}

// update applies change under the state lock and notifies subscribers.
func (m *Manager) update(change func()) {
	m.lock.Lock()
	change()
	m.updatedAt = m.nowFunc()
	snap := m.snapshotLocked()
	m.lock.Unlock()

	m.publish(snap)
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:        m.state,
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		Loading:      m.loading,
		UpdatedAt:    m.updatedAt,
	}
	if m.user != nil {
		profile := *m.user
		snap.User = &profile
	}
	return snap
}

func (m *Manager) publish(snap Snapshot) {
	m.subsLock.Lock()
	defer m.subsLock.Unlock()

	for id, ch := range m.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale snapshot so the reader sees the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
			log.Warn().Int("subscriber", id).Msg("session snapshot dropped")
		}
	}
}
