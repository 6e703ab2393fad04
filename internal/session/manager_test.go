package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

// memoryTokenStore is an in-memory TokenStore for testing
type memoryTokenStore struct {
	mu        sync.Mutex
	token     string
	loadErr   error
	saveErr   error
	deleteErr error
	loads     int
	saves     int
	deletes   int
}

func (s *memoryTokenStore) LoadToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return "", s.loadErr
	}
	return s.token, nil
}

func (s *memoryTokenStore) SaveToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.token = token
	return nil
}

func (s *memoryTokenStore) DeleteToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.token = ""
	return nil
}

func (s *memoryTokenStore) stored() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// stubAPI lets each test script the remote responses
type stubAPI struct {
	me       func(ctx context.Context) (*api.User, error)
	login    func(ctx context.Context, usernameOrEmail, password string) (*api.AuthPayload, error)
	register func(ctx context.Context, input api.UserInput) (*api.AuthPayload, error)
	cleared  int
}

func (a *stubAPI) Me(ctx context.Context) (*api.User, error) {
	if a.me == nil {
		return nil, errors.New("me not scripted")
	}
	return a.me(ctx)
}

func (a *stubAPI) Login(ctx context.Context, usernameOrEmail, password string) (*api.AuthPayload, error) {
	if a.login == nil {
		return nil, errors.New("login not scripted")
	}
	return a.login(ctx, usernameOrEmail, password)
}

func (a *stubAPI) Register(ctx context.Context, input api.UserInput) (*api.AuthPayload, error) {
	if a.register == nil {
		return nil, errors.New("register not scripted")
	}
	return a.register(ctx, input)
}

func (a *stubAPI) ClearCache() { a.cleared++ }

var alice = &api.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: api.RoleDeveloper, IsActive: true}

func acceptCredentials(username, password, token string) func(context.Context, string, string) (*api.AuthPayload, error) {
	return func(_ context.Context, u, p string) (*api.AuthPayload, error) {
		if u != username || p != password {
			return nil, errors.New("Incorrect email/username or password")
		}
		return &api.AuthPayload{User: alice, AccessToken: token, TokenType: "bearer"}, nil
	}
}

func newTestManager(store *memoryTokenStore, client *stubAPI) *Manager {
	return New(store, client, zerolog.Nop())
}

func assertLoggedOut(t *testing.T, s State) {
	t.Helper()
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, PhaseUnauthenticated, s.Phase())
}

func TestNew_SeedsTokenAndLoading(t *testing.T) {
	m := newTestManager(&memoryTokenStore{token: "abc"}, &stubAPI{})

	s := m.Snapshot()
	assert.Equal(t, "abc", s.Token)
	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, PhaseInitializing, s.Phase())
}

func TestInitialize_ValidToken(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	var seenToken string
	var m *Manager
	client := &stubAPI{me: func(context.Context) (*api.User, error) {
		seenToken = m.Token()
		return &api.User{ID: 1, Username: "alice"}, nil
	}}
	m = newTestManager(store, client)

	s := m.Initialize(context.Background())

	assert.Equal(t, "abc", seenToken, "transport should see the persisted token during rehydration")
	assert.True(t, s.IsAuthenticated)
	require.NotNil(t, s.User)
	assert.Equal(t, "alice", s.User.Username)
	assert.Equal(t, "abc", s.Token)
	assert.False(t, s.IsLoading)
	assert.Equal(t, PhaseAuthenticated, s.Phase())
	assert.Equal(t, "abc", store.stored())
}

func TestInitialize_ExpiredToken(t *testing.T) {
	store := &memoryTokenStore{token: "expired"}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return nil, nil }}
	m := newTestManager(store, client)

	s := m.Initialize(context.Background())

	assertLoggedOut(t, s)
	assert.Empty(t, store.stored(), "stale token should be removed from the store")
	assert.Equal(t, 1, store.deletes)
}

func TestInitialize_NoToken(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{me: func(context.Context) (*api.User, error) {
		t.Error("identity query should not be issued without a token")
		return nil, nil
	}}
	m := newTestManager(store, client)

	s := m.Initialize(context.Background())

	assertLoggedOut(t, s)
	assert.Zero(t, store.deletes)
}

func TestInitialize_AlwaysSettles(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		loadErr    error
		me         func(context.Context) (*api.User, error)
		wantAuthed bool
	}{
		{name: "no token", token: ""},
		{name: "load error", token: "abc", loadErr: errors.New("keyring locked")},
		{name: "transport error", token: "abc", me: func(context.Context) (*api.User, error) {
			return nil, errors.New("connection refused")
		}},
		{name: "empty identity", token: "abc", me: func(context.Context) (*api.User, error) { return nil, nil }},
		{name: "record without id", token: "abc", me: func(context.Context) (*api.User, error) {
			return &api.User{Username: "ghost"}, nil
		}},
		{name: "cancelled context", token: "abc", me: func(ctx context.Context) (*api.User, error) {
			return nil, ctx.Err()
		}},
		{name: "valid", token: "abc", me: func(context.Context) (*api.User, error) { return alice, nil }, wantAuthed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryTokenStore{token: tt.token, loadErr: tt.loadErr}
			m := newTestManager(store, &stubAPI{me: tt.me})

			ctx, cancel := context.WithCancel(context.Background())
			if tt.name == "cancelled context" {
				cancel()
			} else {
				defer cancel()
			}

			s := m.Initialize(ctx)

			assert.False(t, s.IsLoading)
			assert.Equal(t, tt.wantAuthed, s.IsAuthenticated)
			assert.NotEqual(t, PhaseInitializing, s.Phase())
			if s.IsAuthenticated {
				assert.NotNil(t, s.User)
			} else {
				assert.Nil(t, s.User)
				assert.Empty(t, s.Token)
			}
		})
	}
}

func TestInitialize_ReadsStoreOnce(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
	m := newTestManager(store, client)

	// A token written after construction is not picked up by rehydration
	store.token = "written-later"

	s := m.Initialize(context.Background())

	assert.Equal(t, 1, store.loads)
	assert.Equal(t, "abc", s.Token)
	assert.True(t, s.IsAuthenticated)
}

func TestInitialize_RunsOnce(t *testing.T) {
	calls := 0
	client := &stubAPI{me: func(context.Context) (*api.User, error) {
		calls++
		return alice, nil
	}}
	m := newTestManager(&memoryTokenStore{token: "abc"}, client)

	first := m.Initialize(context.Background())
	second := m.Initialize(context.Background())

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestLogin_Success(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{login: acceptCredentials("alice", "secret", "tok-1")}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	err := m.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.NotNil(t, s.User)
	assert.Equal(t, "tok-1", s.Token)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "tok-1", store.stored())
}

func TestLogin_WrongPassword(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{login: acceptCredentials("alice", "secret", "tok-1")}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	err := m.Login(context.Background(), "alice", "wrongpass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect email/username or password")

	assertLoggedOut(t, m.Snapshot())
	assert.Zero(t, store.saves)
}

func TestLogin_FailureKeepsPriorSession(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	client := &stubAPI{
		me:    func(context.Context) (*api.User, error) { return alice, nil },
		login: acceptCredentials("bob", "secret", "tok-bob"),
	}
	m := newTestManager(store, client)
	before := m.Initialize(context.Background())
	require.True(t, before.IsAuthenticated)

	err := m.Login(context.Background(), "bob", "nope")
	require.Error(t, err)

	after := m.Snapshot()
	assert.Equal(t, before.User, after.User)
	assert.Equal(t, before.Token, after.Token)
	assert.Equal(t, before.IsAuthenticated, after.IsAuthenticated)
	assert.False(t, after.IsLoading)
	assert.Equal(t, "abc", store.stored())
}

func TestLogin_MalformedResponse(t *testing.T) {
	tests := []struct {
		name    string
		payload *api.AuthPayload
	}{
		{name: "nil payload", payload: nil},
		{name: "missing user", payload: &api.AuthPayload{AccessToken: "tok"}},
		{name: "missing token", payload: &api.AuthPayload{User: alice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryTokenStore{}
			client := &stubAPI{login: func(context.Context, string, string) (*api.AuthPayload, error) {
				return tt.payload, nil
			}}
			m := newTestManager(store, client)
			m.Initialize(context.Background())

			err := m.Login(context.Background(), "alice", "secret")
			require.ErrorIs(t, err, ErrInvalidResponse)
			assertLoggedOut(t, m.Snapshot())
			assert.Zero(t, store.saves)
		})
	}
}

func TestLogin_PersistFailureLeavesStateUnchanged(t *testing.T) {
	saveErr := errors.New("keychain unavailable")
	store := &memoryTokenStore{saveErr: saveErr}
	client := &stubAPI{login: acceptCredentials("alice", "secret", "tok-1")}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	err := m.Login(context.Background(), "alice", "secret")
	require.ErrorIs(t, err, saveErr)
	assertLoggedOut(t, m.Snapshot())
}

func TestLogin_RejectedWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	client := &stubAPI{login: func(context.Context, string, string) (*api.AuthPayload, error) {
		close(entered)
		<-release
		return &api.AuthPayload{User: alice, AccessToken: "tok-1"}, nil
	}}
	m := newTestManager(&memoryTokenStore{}, client)
	m.Initialize(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Login(context.Background(), "alice", "secret") }()
	<-entered

	assert.True(t, m.Snapshot().IsLoading)
	assert.ErrorIs(t, m.Login(context.Background(), "alice", "secret"), ErrBusy)
	assert.ErrorIs(t, m.Register(context.Background(), api.UserInput{}), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, m.Snapshot().IsAuthenticated)
}

func TestLogin_RejectedBeforeInitialize(t *testing.T) {
	m := newTestManager(&memoryTokenStore{}, &stubAPI{login: acceptCredentials("alice", "secret", "tok")})

	err := m.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, ErrBusy)
}

func TestRegister_Success(t *testing.T) {
	store := &memoryTokenStore{}
	var got api.UserInput
	client := &stubAPI{register: func(_ context.Context, in api.UserInput) (*api.AuthPayload, error) {
		got = in
		return &api.AuthPayload{
			User:        &api.User{ID: 7, Username: in.Username, Email: in.Email, Role: in.Role},
			AccessToken: "tok-new",
			TokenType:   "bearer",
		}, nil
	}}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	input := api.UserInput{
		Email:      "carol@example.com",
		Username:   "carol",
		FullName:   "Carol C",
		Password:   "hunter22",
		Role:       api.RoleManager,
		Phone:      "555-0100",
		Department: "Eng",
		Position:   "Lead",
	}
	require.NoError(t, m.Register(context.Background(), input))

	assert.Equal(t, input, got)
	s := m.Snapshot()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "carol", s.User.Username)
	assert.Equal(t, "tok-new", s.Token)
	assert.Equal(t, "tok-new", store.stored())
}

func TestRegister_Failure(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{register: func(context.Context, api.UserInput) (*api.AuthPayload, error) {
		return nil, errors.New("Email already registered")
	}}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	err := m.Register(context.Background(), api.UserInput{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
	assertLoggedOut(t, m.Snapshot())
}

func TestLogout(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
	m := newTestManager(store, client)
	require.True(t, m.Initialize(context.Background()).IsAuthenticated)

	m.Logout()

	assertLoggedOut(t, m.Snapshot())
	assert.Empty(t, store.stored())
	assert.Equal(t, 1, client.cleared)
}

func TestLogout_Idempotent(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	m.Logout()
	first := m.Snapshot()
	m.Logout()
	second := m.Snapshot()

	assertLoggedOut(t, first)
	assert.Equal(t, first, second)
}

func TestLogout_StoreFailureIsSwallowed(t *testing.T) {
	store := &memoryTokenStore{token: "abc", deleteErr: errors.New("keychain locked")}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	m.Logout()

	assertLoggedOut(t, m.Snapshot())
	assert.Equal(t, 1, client.cleared)
}

func TestUpdateUser(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	edited := *alice
	edited.FullName = "Alice Liddell"
	require.NoError(t, m.UpdateUser(&edited))

	s := m.Snapshot()
	assert.Equal(t, "Alice Liddell", s.User.FullName)
	assert.Equal(t, "abc", s.Token)
	assert.True(t, s.IsAuthenticated)
}

func TestUpdateUser_Rejected(t *testing.T) {
	m := newTestManager(&memoryTokenStore{}, &stubAPI{})
	m.Initialize(context.Background())

	assert.ErrorIs(t, m.UpdateUser(alice), ErrNotAuthenticated)
	assert.ErrorIs(t, m.UpdateUser(nil), ErrInvalidUser)
	assertLoggedOut(t, m.Snapshot())
}

func TestUpdateUser_RacingLogout(t *testing.T) {
	edited := *alice
	edited.FullName = "Alice Liddell"

	for i := 0; i < 200; i++ {
		store := &memoryTokenStore{token: "abc"}
		client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
		m := newTestManager(store, client)
		require.True(t, m.Initialize(context.Background()).IsAuthenticated)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := m.UpdateUser(&edited)
			if err != nil {
				assert.ErrorIs(t, err, ErrNotAuthenticated)
			}
		}()
		go func() {
			defer wg.Done()
			m.Logout()
		}()
		wg.Wait()

		// Whatever the interleaving, logout wins and no user record survives it
		assertLoggedOut(t, m.Snapshot())
	}
}

func TestUpdateUser_ListenersSeeConsistentState(t *testing.T) {
	store := &memoryTokenStore{token: "abc"}
	client := &stubAPI{me: func(context.Context) (*api.User, error) { return alice, nil }}
	m := newTestManager(store, client)
	m.Initialize(context.Background())

	var seen []State
	m.Subscribe(func(s State) { seen = append(seen, s) })

	edited := *alice
	edited.Position = "Lead"
	require.NoError(t, m.UpdateUser(&edited))
	m.Logout()
	assert.ErrorIs(t, m.UpdateUser(&edited), ErrNotAuthenticated)

	require.Len(t, seen, 2)
	assert.Equal(t, "Lead", seen[0].User.Position)
	assert.True(t, seen[0].IsAuthenticated)
	assertLoggedOut(t, seen[1])
}

func TestSubscribe(t *testing.T) {
	store := &memoryTokenStore{}
	client := &stubAPI{login: acceptCredentials("alice", "secret", "tok-1")}
	m := newTestManager(store, client)

	var seen []State
	unsubscribe := m.Subscribe(func(s State) { seen = append(seen, s) })

	m.Initialize(context.Background())
	require.NoError(t, m.Login(context.Background(), "alice", "secret"))

	require.NotEmpty(t, seen)
	last := seen[len(seen)-1]
	assert.True(t, last.IsAuthenticated)
	assert.Equal(t, m.Snapshot(), last)

	// One of the notifications must show the login in flight
	sawLoading := false
	for _, s := range seen {
		if s.IsLoading && s.Phase() == PhaseUnauthenticated {
			sawLoading = true
		}
	}
	assert.True(t, sawLoading)

	unsubscribe()
	count := len(seen)
	m.Logout()
	assert.Len(t, seen, count)
}
