package auth

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-todo-client/apimodel"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/jrsteele09/go-todo-client/token/jwt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AuthAPI is the part of the remote API the manager needs.
type AuthAPI interface {
	ObtainToken(ctx context.Context, username, password string) (*apimodel.TokenResponse, error)
}

type subscription struct {
	id       int
	observer Observer
}

// Manager owns the authentication state of the client. It is the only
// writer of the token store.
type Manager struct {
	store     token.Store
	api       AuthAPI
	inspector *jwt.Inspector

	state     State
	session   *Session
	observers []subscription
	nextSubID int
	lock      sync.RWMutex
}

type ManagerOption func(*Manager)

// WithInspector sets the token inspector used to decode access tokens.
func WithInspector(inspector *jwt.Inspector) ManagerOption {
	return func(m *Manager) {
		m.inspector = inspector
	}
}

// WithClock sets the clock used for expiry checks (primarily for testing)
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) {
		m.inspector = jwt.NewInspector(jwt.WithClock(clock))
	}
}

// NewManager creates a manager in StateInitializing. Call Initialize to
// resolve the persisted session.
func NewManager(store token.Store, api AuthAPI, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}
	if api == nil {
		return nil, errors.New("[NewManager] auth api is required")
	}

	m := &Manager{
		store:     store,
		api:       api,
		inspector: jwt.NewInspector(),
		state:     StateInitializing,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Initialize resolves the persisted access token into a state. Missing,
// partial, malformed and expired credentials all end Unauthenticated with
// the store cleared. It never fails and does nothing once the state is resolved.
func (m *Manager) Initialize(ctx context.Context) {
	m.lock.Lock()
	if m.state != StateInitializing {
		m.lock.Unlock()
		return
	}

	var session *Session
	creds, ok := m.store.Credentials()
	switch {
	case !ok:
		log.Debug().Msg("no stored session")
	case creds.AccessToken == "" || creds.RefreshToken == "":
		log.Warn().Msg("discarding partial stored session")
		m.clearStoreLocked()
	default:
		claims, err := m.inspector.Inspect(creds.AccessToken)
		if err != nil {
			event := log.Warn()
			if todoerrors.Is(err, todoerrors.ErrTokenExpired) {
				event = log.Info()
			}
			event.Err(err).Msg("discarding stored session")
			m.clearStoreLocked()
			break
		}
		session = sessionFromClaims(claims, creds.DisplayName)
	}

	to := StateUnauthenticated
	if session != nil {
		to = StateAuthenticated
	}
	t, _ := m.setLocked(to, session)
	m.lock.Unlock()

	if session != nil {
		log.Info().Str("user_id", session.UserID).Msg("session restored")
	}
	m.notify(t)
}

// Login exchanges credentials for tokens. On success the tokens are
// persisted, the manager becomes Authenticated and redirect is sent to the
// home route. On failure nothing changes and a *LoginError is returned.
func (m *Manager) Login(ctx context.Context, username, password string, redirect Redirect) error {
	if err := validateCredentials(username, password); err != nil {
		return newLoginError(err)
	}

	resp, err := m.api.ObtainToken(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Msg("login request failed")
		return newLoginError(err)
	}

	if resp.Refresh == "" {
		err := todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "login returned no refresh token")
		log.Warn().Err(err).Msg("login returned an incomplete token pair")
		return newLoginError(err)
	}

	claims, err := m.inspector.Inspect(resp.Access)
	if err != nil {
		log.Warn().Err(err).Msg("login returned an unusable access token")
		return newLoginError(err)
	}

	cached := resp.Username
	if cached == "" {
		cached = username
	}
	session := sessionFromClaims(claims, cached)
	creds := token.Credentials{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		DisplayName:  cached,
	}

	m.lock.Lock()
	if err := m.store.SetCredentials(creds); err != nil {
		m.lock.Unlock()
		log.Error().Err(err).Msg("persisting credentials")
		return newLoginError(err)
	}
	t, changed := m.setLocked(StateAuthenticated, session)
	m.lock.Unlock()

	log.Info().Str("user_id", session.UserID).Msg("logged in")
	if changed {
		m.notify(t)
	}
	if redirect != nil {
		redirect(RouteHome)
	}
	return nil
}

// Logout clears the stored credentials and sends redirect to the login
// route. It is safe to call in any state.
func (m *Manager) Logout(redirect Redirect) {
	m.lock.Lock()
	m.clearStoreLocked()
	t, changed := m.setLocked(StateUnauthenticated, nil)
	m.lock.Unlock()

	if changed {
		log.Info().Msg("logged out")
		m.notify(t)
	}
	if redirect != nil {
		redirect(RouteLogin)
	}
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// Session returns a copy of the current session, false unless Authenticated.
func (m *Manager) Session() (Session, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *Manager) Snapshot() Snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return Snapshot{State: m.state, Session: copySession(m.session)}
}

// Subscribe registers observer for future transitions. Observers run in
// subscription order on the goroutine that caused the transition.
func (m *Manager) Subscribe(observer Observer) (unsubscribe func()) {
	m.lock.Lock()
	defer m.lock.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.observers = append(m.observers, subscription{id: id, observer: observer})

	var once sync.Once
	return func() {
		once.Do(func() {
			m.lock.Lock()
			defer m.lock.Unlock()
			for i, s := range m.observers {
				if s.id == id {
					m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// setLocked applies a state change. It reports false when neither the
// state nor the session changed.
func (m *Manager) setLocked(to State, session *Session) (Transition, bool) {
	from := m.state
	changed := from != to || !sameSession(m.session, session)
	m.state = to
	m.session = session
	return Transition{From: from, To: to, Session: copySession(session)}, changed
}

func (m *Manager) clearStoreLocked() {
	if err := m.store.ClearCredentials(); err != nil {
		log.Error().Err(err).Msg("clearing stored credentials")
	}
}

func (m *Manager) notify(t Transition) {
	m.lock.RLock()
	observers := make([]Observer, 0, len(m.observers))
	for _, s := range m.observers {
		observers = append(observers, s.observer)
	}
	m.lock.RUnlock()

	for _, observer := range observers {
		observer(t)
	}
}

// sessionFromClaims prefers the username claim for the display name and
// falls back to the cached value.
func sessionFromClaims(claims *jwt.Claims, cachedDisplayName string) *Session {
	displayName := claims.Username
	if displayName == "" {
		displayName = cachedDisplayName
	}
	return &Session{
		UserID:      claims.Subject,
		DisplayName: displayName,
		ExpiresAt:   claims.ExpiresAt,
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func sameSession(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
