package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-todo-client/apiclient"
	"github.com/jrsteele09/go-todo-client/apiclient/apitest"
	"github.com/jrsteele09/go-todo-client/auth"
	"github.com/jrsteele09/go-todo-client/internal/config"
	"github.com/jrsteele09/go-todo-client/server"
	"github.com/jrsteele09/go-todo-client/token"
	tokenfakerepo "github.com/jrsteele09/go-todo-client/token/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ann@example.com"
	testPassword = "secret"
)

type fixture struct {
	api     *apitest.Server
	apiTime *clockwork.FakeClock
	store   *tokenfakerepo.FakeTokenStore
	manager *auth.Manager
	web     *httptest.Server
	client  *http.Client
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		apiTime: clockwork.NewFakeClockAt(time.Now()),
		store:   tokenfakerepo.NewFakeTokenStore(),
	}
	f.api = apitest.New(apitest.WithClock(f.apiTime), apitest.WithUsernameClaim())
	t.Cleanup(f.api.Close)
	f.api.AddUser(testEmail, testPassword, "Ann")

	client, err := apiclient.New(f.api.BaseURL(), f.store)
	require.NoError(t, err)
	f.manager, err = auth.NewManager(f.store, client)
	require.NoError(t, err)

	cfg, err := config.New(config.WithOverride("ENV", "TEST"))
	require.NoError(t, err)
	srv, err := server.New(cfg, server.Services{Auth: f.manager, Accounts: client, Tasks: client})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	f.web = httptest.NewServer(srv)
	t.Cleanup(f.web.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{Jar: jar}
	return f
}

// noFollow returns a client sharing the fixture's cookies that reports
// redirects instead of following them.
func (f *fixture) noFollow() *http.Client {
	return &http.Client{
		Jar: f.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.web.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (f *fixture) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.web.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.manager.Initialize(context.Background())
	resp, body := f.post(t, "/auth/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path)
	require.Contains(t, body, "Welcome, Ann")
}

func (f *fixture) apiCalls(method, path string) int {
	n := 0
	for _, r := range f.api.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestNew_Validation(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)

	_, err = server.New(cfg, server.Services{})
	require.Error(t, err)
}

func TestLoadingWhileInitializing(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/", "/login", "/register"} {
		t.Run(path, func(t *testing.T) {
			resp, body := f.get(t, path)
			require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
			require.Equal(t, "1", resp.Header.Get("Refresh"))
			require.Contains(t, body, "Loading...")
		})
	}

	for _, path := range []string{"/auth/login", "/register", "/tasks"} {
		t.Run("post "+path, func(t *testing.T) {
			form := url.Values{"email": {testEmail}, "password": {testPassword}, "title": {"x"}, "deadline": {"2026-01-01"}}
			resp, err := f.noFollow().PostForm(f.web.URL+path, form)
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusSeeOther, resp.StatusCode)
			require.Equal(t, "/login", resp.Header.Get("Location"))
		})
	}

	t.Run("post is replayed as a page load", func(t *testing.T) {
		resp, body := f.post(t, "/auth/login", url.Values{"email": {testEmail}, "password": {testPassword}})
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, "Loading...")
	})
	require.Empty(t, f.api.Requests())
	require.Equal(t, auth.StateInitializing, f.manager.State())
}

func TestRequireSession_RedirectsToLogin(t *testing.T) {
	f := setup(t)
	f.manager.Initialize(context.Background())

	t.Run("browser", func(t *testing.T) {
		resp, err := f.noFollow().Get(f.web.URL + "/")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("htmx", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, f.web.URL+"/", nil)
		require.NoError(t, err)
		req.Header.Set("HX-Request", "true")
		resp, err := f.noFollow().Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "/login", resp.Header.Get("HX-Redirect"))
		require.Equal(t, "/login", resp.Header.Get("HX-Replace-Url"))
	})

	t.Run("protected post", func(t *testing.T) {
		resp, body := f.post(t, "/tasks", url.Values{"title": {"x"}, "deadline": {"2026-01-01"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, "<h2>Login</h2>")
		require.Zero(t, f.apiCalls(http.MethodPost, "/api/tasks/"))
	})
}

func TestLogin(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		f := setup(t)
		f.manager.Initialize(context.Background())

		resp, body := f.post(t, "/auth/login", url.Values{"email": {testEmail}, "password": {"nope"}})
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, auth.DefaultLoginMessage)
		require.Contains(t, body, `value="`+testEmail+`"`)
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())

		// The message is shown once
		_, body = f.get(t, "/login")
		require.NotContains(t, body, auth.DefaultLoginMessage)
	})

	t.Run("missing fields are not sent", func(t *testing.T) {
		f := setup(t)
		f.manager.Initialize(context.Background())

		_, body := f.post(t, "/auth/login", url.Values{"email": {testEmail}})
		require.Contains(t, body, "Password is required")
		require.Zero(t, f.apiCalls(http.MethodPost, "/api/auth/token/"))
	})

	t.Run("success", func(t *testing.T) {
		f := setup(t)
		f.login(t)

		creds, ok := f.store.Credentials()
		require.True(t, ok)
		require.NotEmpty(t, creds.AccessToken)
		require.Equal(t, auth.StateAuthenticated, f.manager.State())

		// Signed in users skip the login page
		resp, err := f.noFollow().Get(f.web.URL + "/login")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("restored from store", func(t *testing.T) {
		f := setup(t)
		access, err := f.api.IssueAccessToken(testEmail, time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.store.SetCredentials(token.Credentials{AccessToken: access, RefreshToken: "r", DisplayName: "Ann"}))
		f.manager.Initialize(context.Background())

		resp, body := f.get(t, "/")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, body, "Welcome, Ann")
	})
}

func TestLogout(t *testing.T) {
	f := setup(t)
	f.login(t)

	resp, body := f.post(t, "/auth/logout", nil)
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Contains(t, body, "<h2>Login</h2>")
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
	_, ok := f.store.Credentials()
	require.False(t, ok)
}

func TestTasks(t *testing.T) {
	f := setup(t)
	f.login(t)

	_, body := f.get(t, "/")
	require.Contains(t, body, "No tasks found.")

	t.Run("create", func(t *testing.T) {
		resp, body := f.post(t, "/tasks", url.Values{"title": {"Buy milk"}, "deadline": {"2026-05-01"}})
		require.Equal(t, "/", resp.Request.URL.Path)
		require.Contains(t, body, "Buy milk")
		require.Contains(t, body, "Deadline: 2026-05-01")
		require.Contains(t, body, "In Progress")
	})

	t.Run("create invalid", func(t *testing.T) {
		_, body := f.post(t, "/tasks", url.Values{"deadline": {"2026-05-01"}})
		require.Contains(t, body, "Title is required")
		_, body = f.post(t, "/tasks", url.Values{"title": {"x"}, "deadline": {"soon"}})
		require.Contains(t, body, "Deadline must be a date (YYYY-MM-DD)")
	})

	t.Run("edit", func(t *testing.T) {
		_, body := f.get(t, "/tasks/1/edit")
		require.Contains(t, body, "Edit Task")
		require.Contains(t, body, `action="/tasks/1"`)
		require.Contains(t, body, `value="Buy milk"`)

		resp, body := f.post(t, "/tasks/1", url.Values{"title": {"Buy oat milk"}, "deadline": {"2026-05-02"}})
		require.Equal(t, "/", resp.Request.URL.Path)
		require.Contains(t, body, "Buy oat milk")
		require.Contains(t, body, "Deadline: 2026-05-02")
	})

	t.Run("toggle status", func(t *testing.T) {
		_, body := f.post(t, "/tasks/1/status", url.Values{"status": {"IN_PROGRESS"}})
		require.Contains(t, body, "Completed on:")

		_, body = f.get(t, "/?status=IN_PROGRESS")
		require.NotContains(t, body, "Buy oat milk")
		_, body = f.get(t, "/?status=COMPLETED")
		require.Contains(t, body, "Buy oat milk")

		resp, body := f.post(t, "/tasks/1/status", url.Values{"status": {"COMPLETED"}, "filter": {"COMPLETED"}})
		require.Equal(t, "status=COMPLETED", resp.Request.URL.RawQuery)
		require.Contains(t, body, "No tasks found.")
	})

	t.Run("missing task", func(t *testing.T) {
		_, body := f.post(t, "/tasks/99/delete", nil)
		require.Contains(t, body, "Task not found.")
	})

	t.Run("delete", func(t *testing.T) {
		_, body := f.post(t, "/tasks/1/delete", nil)
		require.NotContains(t, body, "Buy oat milk")
		require.Contains(t, body, "No tasks found.")
		require.Equal(t, 2, f.apiCalls(http.MethodDelete, "/api/tasks/1")+f.apiCalls(http.MethodDelete, "/api/tasks/99"))
	})
}

func TestExpiredTokenLogsOut(t *testing.T) {
	f := setup(t)
	f.login(t)

	f.apiTime.Advance(2 * apitest.DefaultAccessTTL)

	resp, body := f.get(t, "/")
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Contains(t, body, "Your session has expired. Please log in again.")
	require.Equal(t, auth.StateUnauthenticated, f.manager.State())
}

func TestMissingStoredTokenLogsOut(t *testing.T) {
	t.Run("page load", func(t *testing.T) {
		f := setup(t)
		f.login(t)
		require.NoError(t, f.store.ClearCredentials())
		listed := f.apiCalls(http.MethodGet, "/api/tasks/")

		resp, body := f.get(t, "/")
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, "Your session has expired. Please log in again.")
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Equal(t, listed, f.apiCalls(http.MethodGet, "/api/tasks/"))
	})

	t.Run("task form", func(t *testing.T) {
		f := setup(t)
		f.login(t)
		require.NoError(t, f.store.ClearCredentials())

		resp, body := f.post(t, "/tasks", url.Values{"title": {"Buy milk"}, "deadline": {"2026-05-01"}})
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, "Your session has expired. Please log in again.")
		require.Equal(t, auth.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.apiCalls(http.MethodPost, "/api/tasks/"))
	})
}

func TestRegister(t *testing.T) {
	t.Run("passwords must match", func(t *testing.T) {
		f := setup(t)
		f.manager.Initialize(context.Background())

		resp, body := f.post(t, "/register", url.Values{
			"email":            {"bob@example.com"},
			"password":         {"one"},
			"confirm_password": {"two"},
		})
		require.Equal(t, "/register", resp.Request.URL.Path)
		require.Contains(t, body, "Passwords do not match")
		require.Contains(t, body, `value="bob@example.com"`)
		require.Zero(t, f.apiCalls(http.MethodPost, "/api/auth/register"))
	})

	t.Run("duplicate", func(t *testing.T) {
		f := setup(t)
		f.manager.Initialize(context.Background())

		_, body := f.post(t, "/register", url.Values{
			"email":            {testEmail},
			"password":         {"pw"},
			"confirm_password": {"pw"},
		})
		require.Contains(t, body, "Email already registered")
	})

	t.Run("success", func(t *testing.T) {
		f := setup(t)
		f.manager.Initialize(context.Background())

		resp, body := f.post(t, "/register", url.Values{
			"email":            {"bob@example.com"},
			"first_name":       {"Bob"},
			"password":         {"pw"},
			"confirm_password": {"pw"},
		})
		require.Equal(t, "/login", resp.Request.URL.Path)
		require.Contains(t, body, "User created successfully")
		require.Contains(t, body, `value="bob@example.com"`)
		require.Equal(t, "pw", f.api.Password("bob@example.com"))
	})
}

func TestPasswordReset(t *testing.T) {
	f := setup(t)
	f.manager.Initialize(context.Background())

	_, body := f.post(t, "/password-reset", url.Values{"email": {"nobody@example.com"}})
	require.Contains(t, body, "User with this email does not exist.")

	_, body = f.post(t, "/password-reset", url.Values{"email": {testEmail}})
	require.Contains(t, body, "Password reset link sent to your email")

	uid, resetToken, ok := f.api.ResetLink(testEmail)
	require.True(t, ok)
	confirmPath := "/password-reset-confirm/" + uid + "/" + resetToken

	_, body = f.get(t, confirmPath)
	require.Contains(t, body, `action="`+confirmPath+`"`)

	resp, body := f.post(t, confirmPath, url.Values{"new_password1": {"a"}, "new_password2": {"b"}})
	require.Equal(t, confirmPath, resp.Request.URL.Path)
	require.Contains(t, body, "Passwords do not match")

	resp, body = f.post(t, confirmPath, url.Values{"new_password1": {"fresh"}, "new_password2": {"fresh"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Password has been reset successfully.")
	require.Contains(t, body, `content="3;url=/login"`)
	require.NotContains(t, body, `name="new_password1"`)
	require.Equal(t, "fresh", f.api.Password(testEmail))
}

func TestHealth(t *testing.T) {
	f := setup(t)

	decode := func() server.HealthResponse {
		resp, body := f.get(t, "/healthz")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var health server.HealthResponse
		require.NoError(t, json.Unmarshal([]byte(body), &health))
		return health
	}

	health := decode()
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "initializing", health.Session)
	require.Equal(t, "loading", health.Guard)

	f.manager.Initialize(context.Background())
	require.Eventually(t, func() bool {
		return decode().Guard == "redirect-login"
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, "unauthenticated", decode().Session)
}

func TestStaticFiles(t *testing.T) {
	f := setup(t)

	resp, body := f.get(t, "/static/app.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/css"))
	require.Contains(t, body, ".task")

	resp, _ = f.get(t, "/static/missing.css")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
