package session

import "github.com/taskdesk-dev/taskdesk/internal/api"

// Phase is the coarse lifecycle position of a session
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAuthenticated
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the session snapshot handed to consumers.
// An empty Token means no credential is held.
type State struct {
	User            *api.User
	Token           string
	IsAuthenticated bool
	IsLoading       bool

	// initialized is set once startup rehydration has settled
	initialized bool
}

// Phase derives the lifecycle phase from the snapshot
func (s State) Phase() Phase {
	switch {
	case s.IsAuthenticated:
		return PhaseAuthenticated
	case !s.initialized:
		return PhaseInitializing
	default:
		return PhaseUnauthenticated
	}
}

// Action is a tagged state transition consumed by Reduce
type Action interface {
	isAction()
}

// SetLoading toggles the in-flight flag
type SetLoading struct{ Loading bool }

// SetToken replaces the held credential. Clearing it ends any authentication.
type SetToken struct{ Token string }

// SignedIn stores user and token together
type SignedIn struct {
	User  *api.User
	Token string
}

// UserUpdated replaces the user record of an authenticated session
type UserUpdated struct{ User *api.User }

// LoggedOut resets to the unauthenticated resting state
type LoggedOut struct{}

func (SetLoading) isAction()  {}
func (SetToken) isAction()    {}
func (SignedIn) isAction()    {}
func (UserUpdated) isAction() {}
func (LoggedOut) isAction()   {}

// initialState is the state at application start, before rehydration
func initialState(token string) State {
	return State{Token: token, IsLoading: true}
}

// Reduce applies an action to a state and returns the next state.
// It is pure; unknown actions return the state unchanged. Every result holds
// a user exactly when authenticated, and a token whenever authenticated.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetLoading:
		state.IsLoading = a.Loading
		if !a.Loading {
			state.initialized = true
		}
	case SetToken:
		state.Token = a.Token
		if a.Token == "" {
			state.User = nil
			state.IsAuthenticated = false
		}
	case SignedIn:
		if a.User == nil || a.Token == "" {
			return state
		}
		state.User = a.User
		state.Token = a.Token
		state.IsAuthenticated = true
		state.IsLoading = false
		state.initialized = true
	case UserUpdated:
		if a.User == nil || !state.IsAuthenticated {
			return state
		}
		state.User = a.User
	case LoggedOut:
		return State{initialized: true}
	}
	return state
}
