package auth

import "time"

// Navigation targets handed to Redirect callbacks.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
)

type State int

const (
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Session identifies the signed-in user. It exists only while the manager
// is Authenticated.
type Session struct {
	UserID      string
	DisplayName string
	ExpiresAt   time.Time
}

// Snapshot is a consistent view of state and session. Session is nil
// unless State is StateAuthenticated.
type Snapshot struct {
	State   State
	Session *Session
}

func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Session != nil
}

// Transition is delivered to observers once a state change has completed.
type Transition struct {
	From    State
	To      State
	Session *Session
}

// Observer is notified synchronously after each transition.
type Observer func(Transition)

// Redirect performs the navigation that follows login and logout. A nil
// Redirect navigates nowhere.
type Redirect func(route string)
