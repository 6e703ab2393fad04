// Package session owns the client-side authentication lifecycle: rehydrating
// a persisted credential at startup, exchanging credentials for a token on
// login or registration, and tearing the session down on logout.
//
// A Manager is created once per running application and handed to every
// consumer that needs the session. Consumers read Snapshot or register a
// listener with Subscribe; all mutation goes through the Manager's operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

var (
	// ErrBusy is returned when login or register is called while another
	// authentication operation is in flight.
	ErrBusy = errors.New("an authentication operation is already in progress")
	// ErrInvalidResponse is returned when the server reports success but the
	// payload lacks a user record or an access token.
	ErrInvalidResponse = errors.New("invalid authentication response")
	// ErrNotAuthenticated is returned by UpdateUser when no session is held.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidUser is returned by UpdateUser for a nil user record.
	ErrInvalidUser = errors.New("user record is required")
)

// TokenStore persists the bearer token across process restarts.
// LoadToken returns an empty string and a nil error when no token is stored.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	DeleteToken() error
}

// API is the remote collaborator consumed by the Manager. Me authenticates
// with whatever token the transport attaches (see Manager.Token).
type API interface {
	Me(ctx context.Context) (*api.User, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*api.AuthPayload, error)
	Register(ctx context.Context, input api.UserInput) (*api.AuthPayload, error)
	ClearCache()
}

// Listener is called with the new snapshot after every state change
type Listener func(State)

// Manager owns the session state for the lifetime of the application
type Manager struct {
	store  TokenStore
	api    API
	logger zerolog.Logger

	mu          sync.Mutex
	state       State
	initStarted bool
	listeners   map[int]Listener
	nextID      int
}

// New creates a Manager with its token seeded from the store and loading set.
// Call Initialize to settle the session.
func New(store TokenStore, client API, logger zerolog.Logger) *Manager {
	token, err := store.LoadToken()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read persisted token")
		token = ""
	}

	return &Manager{
		store:     store,
		api:       client,
		logger:    logger.With().Str("component", "session").Logger(),
		state:     initialState(token),
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the currently held bearer token, or "" when none is held
func (m *Manager) Token() string {
	return m.Snapshot().Token
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners run synchronously on the goroutine that caused the change.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// dispatch applies an action and notifies listeners outside the lock
func (m *Manager) dispatch(action Action) State {
	m.mu.Lock()
	next, listeners := m.applyLocked(action)
	m.mu.Unlock()

	m.notify(action, next, listeners)
	return next
}

// applyLocked reduces the action into the state. m.mu must be held.
func (m *Manager) applyLocked(action Action) (State, []Listener) {
	m.state = Reduce(m.state, action)
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	return m.state, listeners
}

func (m *Manager) notify(action Action, next State, listeners []Listener) {
	m.logger.Debug().
		Str("action", fmt.Sprintf("%T", action)).
		Str("phase", next.Phase().String()).
		Bool("loading", next.IsLoading).
		Msg("Session state changed")

	for _, fn := range listeners {
		fn(next)
	}
}

// beginAuth marks an authentication operation in flight, or fails with
// ErrBusy if one already is. Startup rehydration counts as in flight.
func (m *Manager) beginAuth() error {
	m.mu.Lock()
	if m.state.IsLoading {
		m.mu.Unlock()
		return ErrBusy
	}
	action := SetLoading{Loading: true}
	next, listeners := m.applyLocked(action)
	m.mu.Unlock()

	m.notify(action, next, listeners)
	return nil
}

// Initialize rehydrates the session from the token New seeded from the store;
// the store is not read again. It runs once and later calls return the
// current snapshot. It never fails: any problem with the stored credential
// resolves to the unauthenticated resting state.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	if m.initStarted {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.initStarted = true
	token := m.state.Token
	m.mu.Unlock()

	if token == "" {
		return m.dispatch(SetLoading{Loading: false})
	}

	// The transport reads the seeded token from the snapshot
	user, err := m.api.Me(ctx)
	if err != nil || !validUser(user) {
		if err != nil {
			m.logger.Info().Err(err).Msg("Session rehydration failed, clearing stored token")
		} else {
			m.logger.Info().Msg("Stored token did not resolve to a user, clearing it")
		}
		if delErr := m.store.DeleteToken(); delErr != nil {
			m.logger.Warn().Err(delErr).Msg("Failed to delete stale token")
		}
		return m.dispatch(LoggedOut{})
	}

	m.logger.Debug().Int("user_id", user.ID).Msg("Session rehydrated")
	return m.dispatch(SignedIn{User: user, Token: token})
}

// Login exchanges credentials for a token. On failure the error is returned
// and the state is left as it was before the call, apart from loading.
func (m *Manager) Login(ctx context.Context, usernameOrEmail, password string) error {
	if err := m.beginAuth(); err != nil {
		return err
	}

	payload, err := m.api.Login(ctx, usernameOrEmail, password)
	if err != nil {
		m.dispatch(SetLoading{Loading: false})
		return fmt.Errorf("login failed: %w", err)
	}

	return m.completeAuth(payload, "login")
}

// Register creates an account and signs in with the returned token.
// Field validation of input is the caller's job.
func (m *Manager) Register(ctx context.Context, input api.UserInput) error {
	if err := m.beginAuth(); err != nil {
		return err
	}

	payload, err := m.api.Register(ctx, input)
	if err != nil {
		m.dispatch(SetLoading{Loading: false})
		return fmt.Errorf("registration failed: %w", err)
	}

	return m.completeAuth(payload, "registration")
}

// completeAuth persists the token and then publishes user and token together
func (m *Manager) completeAuth(payload *api.AuthPayload, op string) error {
	if payload == nil || !validUser(payload.User) || payload.AccessToken == "" {
		m.dispatch(SetLoading{Loading: false})
		return fmt.Errorf("%s failed: %w", op, ErrInvalidResponse)
	}

	if err := m.store.SaveToken(payload.AccessToken); err != nil {
		m.dispatch(SetLoading{Loading: false})
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	m.dispatch(SignedIn{User: payload.User, Token: payload.AccessToken})
	m.logger.Debug().Int("user_id", payload.User.ID).Str("op", op).Msg("Signed in")
	return nil
}

// Logout clears the persisted token and cached API data and resets the
// session. It takes effect locally without a network round-trip and is safe
// to call when already logged out.
func (m *Manager) Logout() {
	if err := m.store.DeleteToken(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete persisted token")
	}
	m.api.ClearCache()
	m.dispatch(LoggedOut{})
}

// UpdateUser replaces the held user record after a profile edit.
// Token and authentication flag are untouched.
func (m *Manager) UpdateUser(user *api.User) error {
	if user == nil {
		return ErrInvalidUser
	}

	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	action := UserUpdated{User: user}
	next, listeners := m.applyLocked(action)
	m.mu.Unlock()

	m.notify(action, next, listeners)
	return nil
}

func validUser(u *api.User) bool {
	return u != nil && u.ID != 0
}
