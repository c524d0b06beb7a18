package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-todo-client/apiclient"
	"github.com/jrsteele09/go-todo-client/apiclient/apitest"
	"github.com/jrsteele09/go-todo-client/apimodel"
	"github.com/jrsteele09/go-todo-client/auth"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/tasks"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/jrsteele09/go-todo-client/token/jwt"
	tokenfakerepo "github.com/jrsteele09/go-todo-client/token/repofake"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type stubAPI struct {
	resp  *apimodel.TokenResponse
	err   error
	calls int
	lock  sync.Mutex
}

func (s *stubAPI) ObtainToken(_ context.Context, _, _ string) (*apimodel.TokenResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.calls++
	return s.resp, s.err
}

type fixture struct {
	clock   *clockwork.FakeClock
	creator *jwt.Creator
	store   *tokenfakerepo.FakeTokenStore
	api     *stubAPI
	manager *auth.Manager
	seen    []auth.Transition
	routes  []string
}

func setup(t *testing.T, creds token.Credentials) *fixture {
	t.Helper()
	f := &fixture{
		clock: clockwork.NewFakeClockAt(testNow),
		store: tokenfakerepo.NewFakeTokenStoreWith(creds),
		api:   &stubAPI{},
	}
	f.creator = jwt.NewCreator(token.NewHMACSigner("test-secret"), f.clock)

	m, err := auth.NewManager(f.store, f.api, auth.WithClock(f.clock))
	require.NoError(t, err)
	f.manager = m
	m.Subscribe(func(tr auth.Transition) {
		f.seen = append(f.seen, tr)
	})
	return f
}

func (f *fixture) redirect(route string) {
	f.routes = append(f.routes, route)
}

func (f *fixture) accessToken(t *testing.T, spec jwt.AccessTokenSpec) string {
	t.Helper()
	raw, err := f.creator.CreateAccessToken(spec)
	require.NoError(t, err)
	return raw
}

func TestNewManager_Validation(t *testing.T) {
	_, err := auth.NewManager(nil, &stubAPI{})
	require.Error(t, err)

	_, err = auth.NewManager(tokenfakerepo.NewFakeTokenStore(), nil)
	require.Error(t, err)
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("starts initializing", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		require.Equal(t, auth.StateInitializing, f.manager.State())
		_, ok := f.manager.Session()
		require.False(t, ok)
	})

	t.Run("no stored token", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.store.Writes())
		require.Equal(t, []auth.Transition{{From: auth.StateInitializing, To: auth.StateUnauthenticated}}, f.seen)
	})

	t.Run("refresh token without access token is cleared", func(t *testing.T) {
		f := setup(t, token.Credentials{RefreshToken: "r1"})
		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		_, ok := f.store.Credentials()
		require.False(t, ok)
	})

	t.Run("access token without refresh token is cleared", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, DisplayName: "a@x.com"}))

		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		_, ok := f.manager.Session()
		require.False(t, ok)
		_, ok = f.store.Credentials()
		require.False(t, ok)
	})

	t.Run("expired token clears the store", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: -time.Second})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1", DisplayName: "a@x.com"}))

		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		_, ok := f.store.Credentials()
		require.False(t, ok)
	})

	t.Run("token expiring exactly now is expired", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: 0})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1"}))

		f.manager.Initialize(ctx)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	})

	t.Run("malformed token clears the store", func(t *testing.T) {
		f := setup(t, token.Credentials{AccessToken: "not-a-jwt", RefreshToken: "r1"})
		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		_, ok := f.store.Credentials()
		require.False(t, ok)
	})

	t.Run("valid token restores the session", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1", DisplayName: "a@x.com"}))
		writes := f.store.Writes()

		f.manager.Initialize(ctx)

		require.Equal(t, auth.StateAuthenticated, f.manager.State())
		session, ok := f.manager.Session()
		require.True(t, ok)
		require.Equal(t, "42", session.UserID)
		require.Equal(t, "a@x.com", session.DisplayName)
		require.Equal(t, writes, f.store.Writes())
	})

	t.Run("simple-jwt user_id subject", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "7", ExpiresIn: time.Hour, UseUserID: true})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1"}))

		f.manager.Initialize(ctx)
		session, ok := f.manager.Session()
		require.True(t, ok)
		require.Equal(t, "7", session.UserID)
		require.Empty(t, session.DisplayName)
	})

	t.Run("username claim wins over the cached name", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", Username: "claim@x.com", ExpiresIn: time.Hour})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1", DisplayName: "cached@x.com"}))

		f.manager.Initialize(ctx)
		session, _ := f.manager.Session()
		require.Equal(t, "claim@x.com", session.DisplayName)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.manager.Initialize(ctx)
		require.Len(t, f.seen, 1)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists tokens and redirects home", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour})
		f.api.resp = &apimodel.TokenResponse{Access: access, Refresh: "r1"}

		err := f.manager.Login(ctx, "a@x.com", "secret", f.redirect)
		require.NoError(t, err)

		require.Equal(t, auth.StateAuthenticated, f.manager.State())
		session, ok := f.manager.Session()
		require.True(t, ok)
		require.Equal(t, "42", session.UserID)
		require.Equal(t, "a@x.com", session.DisplayName)
		require.Equal(t, []string{auth.RouteHome}, f.routes)

		creds, ok := f.store.Credentials()
		require.True(t, ok)
		require.Equal(t, token.Credentials{AccessToken: access, RefreshToken: "r1", DisplayName: "a@x.com"}, creds)
		require.Equal(t, 1, f.store.Writes())

		last := f.seen[len(f.seen)-1]
		require.Equal(t, auth.StateUnauthenticated, last.From)
		require.Equal(t, auth.StateAuthenticated, last.To)
		require.Equal(t, "42", last.Session.UserID)
	})

	t.Run("api failure leaves everything untouched", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.api.err = &apiclient.APIError{StatusCode: http.StatusUnauthorized, Detail: "No active account found with the given credentials"}

		err := f.manager.Login(ctx, "a@x.com", "wrong", f.redirect)
		require.ErrorIs(t, err, todoerrors.ErrLoginFailed)
		var loginErr *auth.LoginError
		require.ErrorAs(t, err, &loginErr)
		require.Equal(t, auth.DefaultLoginMessage, loginErr.Message)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.store.Writes())
		require.Empty(t, f.routes)
		require.Len(t, f.seen, 1)
	})

	t.Run("server message is passed through", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.api.err = &apiclient.APIError{StatusCode: http.StatusServiceUnavailable, Message: "Try again later"}

		err := f.manager.Login(ctx, "a@x.com", "secret", nil)
		require.EqualError(t, err, "Try again later")
	})

	t.Run("missing refresh token is a failure", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.api.resp = &apimodel.TokenResponse{Access: f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour})}

		err := f.manager.Login(ctx, "a@x.com", "secret", f.redirect)
		require.ErrorIs(t, err, todoerrors.ErrLoginFailed)
		require.ErrorIs(t, err, todoerrors.ErrTokenInvalid)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.store.Writes())
		_, ok := f.store.Credentials()
		require.False(t, ok)
		require.Empty(t, f.routes)
	})

	t.Run("undecodable token is a failure", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.api.resp = &apimodel.TokenResponse{Access: "garbage", Refresh: "r1"}

		err := f.manager.Login(ctx, "a@x.com", "secret", f.redirect)
		require.ErrorIs(t, err, todoerrors.ErrLoginFailed)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.store.Writes())
	})

	t.Run("store failure is a failure", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		f.api.resp = &apimodel.TokenResponse{Access: f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour}), Refresh: "r1"}
		f.store.FailWrites(true)

		err := f.manager.Login(ctx, "a@x.com", "secret", f.redirect)
		require.ErrorIs(t, err, todoerrors.ErrLoginFailed)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Empty(t, f.routes)
	})

	t.Run("empty credentials never reach the api", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		err := f.manager.Login(ctx, " ", "secret", nil)
		require.ErrorIs(t, err, todoerrors.ErrLoginFailed)
		require.Zero(t, f.api.calls)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)

		f.manager.Logout(f.redirect)
		f.manager.Logout(f.redirect)

		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Equal(t, []string{auth.RouteLogin, auth.RouteLogin}, f.routes)
		require.Len(t, f.seen, 1)
	})

	t.Run("login then logout leaves the store as before", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		f.manager.Initialize(ctx)
		before, beforeOK := f.store.Credentials()

		f.api.resp = &apimodel.TokenResponse{Access: f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour}), Refresh: "r1"}
		require.NoError(t, f.manager.Login(ctx, "a@x.com", "secret", nil))
		f.manager.Logout(nil)

		after, afterOK := f.store.Credentials()
		require.Equal(t, beforeOK, afterOK)
		require.Equal(t, before, after)
		_, ok := f.manager.Session()
		require.False(t, ok)
		require.Equal(t, auth.StateUnauthenticated, f.seen[len(f.seen)-1].To)
	})

	t.Run("store failure still logs out", func(t *testing.T) {
		f := setup(t, token.Credentials{})
		access := f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour})
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r1"}))
		f.manager.Initialize(ctx)
		require.Equal(t, auth.StateAuthenticated, f.manager.State())

		f.store.FailWrites(true)
		f.manager.Logout(nil)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	})
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	f := setup(t, token.Credentials{})

	var order []string
	var observed auth.State
	unsubscribeA := f.manager.Subscribe(func(tr auth.Transition) {
		order = append(order, "a")
		observed = f.manager.State()
	})
	f.manager.Subscribe(func(tr auth.Transition) {
		order = append(order, "b")
	})

	f.manager.Initialize(ctx)
	require.Equal(t, []string{"a", "b"}, order)
	require.Equal(t, auth.StateUnauthenticated, observed)

	unsubscribeA()
	unsubscribeA()
	f.api.resp = &apimodel.TokenResponse{Access: f.accessToken(t, jwt.AccessTokenSpec{Subject: "42", ExpiresIn: time.Hour}), Refresh: "r1"}
	require.NoError(t, f.manager.Login(ctx, "a@x.com", "secret", nil))
	require.Equal(t, []string{"a", "b", "b"}, order)

	snap := f.manager.Snapshot()
	require.True(t, snap.Authenticated())
	snap.Session.UserID = "changed"
	session, _ := f.manager.Session()
	require.Equal(t, "42", session.UserID)
}

func TestManager_AgainstFakeAPI(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(testNow)
	api := apitest.New(apitest.WithClock(clock), apitest.WithUserIDClaim())
	t.Cleanup(api.Close)
	id := api.AddUser("a@x.com", "secret", "Ann")

	store := tokenfakerepo.NewFakeTokenStore()
	client, err := apiclient.New(api.BaseURL(), store)
	require.NoError(t, err)
	m, err := auth.NewManager(store, client, auth.WithClock(clock))
	require.NoError(t, err)
	m.Initialize(ctx)

	err = m.Login(ctx, "a@x.com", "nope", nil)
	var loginErr *auth.LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, auth.DefaultLoginMessage, loginErr.Message)

	require.NoError(t, m.Login(ctx, "a@x.com", "secret", nil))
	session, ok := m.Session()
	require.True(t, ok)
	require.Equal(t, id, session.UserID)

	// A restart with the same store resolves to the same session until the
	// token expires.
	restarted, err := auth.NewManager(store, client, auth.WithClock(clock))
	require.NoError(t, err)
	restarted.Initialize(ctx)
	require.Equal(t, auth.StateAuthenticated, restarted.State())

	clock.Advance(apitest.DefaultAccessTTL)
	expired, err := auth.NewManager(store, client, auth.WithClock(clock))
	require.NoError(t, err)
	expired.Initialize(ctx)
	require.Equal(t, auth.StateUnauthenticated, expired.State())
	_, ok = store.Credentials()
	require.False(t, ok)
}

func TestManager_AsymmetricTokens(t *testing.T) {
	ctx := context.Background()
	signer, err := token.NewECDSASigner("api-key")
	require.NoError(t, err)
	api := apitest.New(apitest.WithSigner(signer), apitest.WithUsernameClaim())
	t.Cleanup(api.Close)
	api.AddUser("bob@x.com", "secret", "Bob")

	store := tokenfakerepo.NewFakeTokenStore()
	client, err := apiclient.New(api.BaseURL(), store)
	require.NoError(t, err)
	m, err := auth.NewManager(store, client)
	require.NoError(t, err)
	m.Initialize(ctx)

	require.NoError(t, m.Login(ctx, "bob@x.com", "secret", nil))
	session, ok := m.Session()
	require.True(t, ok)
	require.Equal(t, "bob@x.com", session.DisplayName)

	// The bearer is accepted by the API that signed it
	_, err = client.List(ctx, tasks.Filter{})
	require.NoError(t, err)
}
