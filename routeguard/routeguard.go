// Package routeguard decides what a protected view shows for a given
// authentication state.
package routeguard

import (
	"sync"

	"github.com/jrsteele09/go-todo-client/auth"
)

type Outcome int

const (
	// OutcomeLoading shows a placeholder and navigates nowhere.
	OutcomeLoading Outcome = iota
	// OutcomeRedirectLogin replaces the current location with the login route.
	OutcomeRedirectLogin
	// OutcomeRender shows the protected content.
	OutcomeRender
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRedirectLogin:
		return "redirect-login"
	case OutcomeRender:
		return "render"
	}
	return "unknown"
}

// Decide maps a state to an outcome. Unknown states are treated as
// unauthenticated.
func Decide(state auth.State) Outcome {
	switch state {
	case auth.StateInitializing:
		return OutcomeLoading
	case auth.StateAuthenticated:
		return OutcomeRender
	}
	return OutcomeRedirectLogin
}

// Source is anything the guard can watch, normally *auth.Manager.
type Source interface {
	State() auth.State
	Subscribe(auth.Observer) (unsubscribe func())
}

type Listener func(Outcome)

// Guard keeps the outcome for the current state up to date and tells its
// listeners whenever it changes.
type Guard struct {
	outcome   Outcome
	listeners []Listener
	lock      sync.RWMutex
}

func New() *Guard {
	return &Guard{outcome: OutcomeLoading}
}

// Watch evaluates the source's current state and follows its transitions
// until the returned function is called.
func (g *Guard) Watch(source Source) (stop func()) {
	stop = source.Subscribe(func(t auth.Transition) {
		g.evaluate(t.To)
	})
	g.evaluate(source.State())
	return stop
}

// OnChange registers a listener for outcome changes.
func (g *Guard) OnChange(listener Listener) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.listeners = append(g.listeners, listener)
}

func (g *Guard) Current() Outcome {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.outcome
}

func (g *Guard) evaluate(state auth.State) {
	outcome := Decide(state)

	g.lock.Lock()
	if outcome == g.outcome {
		g.lock.Unlock()
		return
	}
	g.outcome = outcome
	listeners := append([]Listener(nil), g.listeners...)
	g.lock.Unlock()

	for _, l := range listeners {
		l(outcome)
	}
}
