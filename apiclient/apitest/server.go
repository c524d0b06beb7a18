// Package apitest is an in-memory stand-in for the to-do REST API. It
// issues real signed JWTs so the client's token handling is exercised end
// to end.
package apitest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-todo-client/apimodel"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/internal/utils"
	"github.com/jrsteele09/go-todo-client/tasks"
	faketaskrepo "github.com/jrsteele09/go-todo-client/tasks/repofake"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/jrsteele09/go-todo-client/token/jwt"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 24 * time.Hour

	noActiveAccount = "No active account found with the given credentials"
)

// Request is what the server saw of one call.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type account struct {
	id        string
	username  string
	password  string
	firstName string
	lastName  string
	tasks     *faketaskrepo.FakeTaskRepo
}

type failure struct {
	status  int
	message string
}

type Server struct {
	*httptest.Server

	signer  token.Signer
	creator *jwt.Creator
	clock   clockwork.Clock

	accessTTL     time.Duration
	usernameClaim bool
	subjectUserID bool
	nextID        int
	accounts      map[string]*account
	resetTokens   map[string]string
	tokenFailure  *failure
	requests      []Request
	lock          sync.Mutex
}

type Option func(*Server)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithAccessTTL sets the lifetime of issued access tokens. Negative values
// issue tokens that are already expired.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithUsernameClaim adds the account username to issued access tokens.
func WithUsernameClaim() Option {
	return func(s *Server) {
		s.usernameClaim = true
	}
}

// WithUserIDClaim puts the subject in user_id, as simple-jwt does.
func WithUserIDClaim() Option {
	return func(s *Server) {
		s.subjectUserID = true
	}
}

// WithSigner replaces the default HMAC signer, e.g. with an ES256 key.
func WithSigner(signer token.Signer) Option {
	return func(s *Server) {
		s.signer = signer
	}
}

// New starts a fake API. Callers must Close it.
func New(options ...Option) *Server {
	s := &Server{
		signer:      token.NewHMACSigner(uuid.NewString()),
		clock:       clockwork.NewRealClock(),
		accessTTL:   DefaultAccessTTL,
		nextID:      1,
		accounts:    make(map[string]*account),
		resetTokens: make(map[string]string),
	}
	for _, opt := range options {
		opt(s)
	}
	s.creator = jwt.NewCreator(s.signer, s.clock)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/token/", s.handleToken)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/password-reset", s.handlePasswordReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm/{uid}/{token}", s.handlePasswordResetConfirm)
	mux.HandleFunc("GET /api/tasks/", s.authenticated(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks/", s.authenticated(s.handleCreateTask))
	mux.HandleFunc("PUT /api/tasks/{id}", s.authenticated(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.authenticated(s.handleDeleteTask))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// BaseURL is the API root the client should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(username, password, firstName string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.addAccountLocked(username, password, firstName, "").id
}

// ResetLink returns the uid and token of a pending reset for username.
func (s *Server) ResetLink(username string) (string, string, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return "", "", false
	}
	uid := encodeUID(acc.id)
	resetToken, ok := s.resetTokens[uid]
	return uid, resetToken, ok
}

// Password returns the current password of username.
func (s *Server) Password(username string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if acc, ok := s.accounts[username]; ok {
		return acc.password
	}
	return ""
}

// FailToken makes the token endpoint answer with status and an optional
// {"message"} body until cleared with status 0.
func (s *Server) FailToken(status int, message string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if status == 0 {
		s.tokenFailure = nil
		return
	}
	s.tokenFailure = &failure{status: status, message: message}
}

// IssueAccessToken mints an access token for username outside the login
// flow, with the server's claim settings.
func (s *Server) IssueAccessToken(username string, ttl time.Duration) (string, error) {
	s.lock.Lock()
	acc, ok := s.accounts[username]
	s.lock.Unlock()
	if !ok {
		return "", todoerrors.ErrNotFound
	}
	return s.accessToken(acc, ttl)
}

// Requests returns every call seen so far, oldest first.
func (s *Server) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) addAccountLocked(username, password, firstName, lastName string) *account {
	acc := &account{
		id:        strconv.Itoa(s.nextID),
		username:  username,
		password:  password,
		firstName: firstName,
		lastName:  lastName,
		tasks:     faketaskrepo.NewFakeTaskRepo(s.clock),
	}
	s.nextID++
	s.accounts[username] = acc
	return acc
}

func (s *Server) accessToken(acc *account, ttl time.Duration) (string, error) {
	spec := jwt.AccessTokenSpec{
		Subject:   acc.id,
		ExpiresIn: ttl,
		UseUserID: s.subjectUserID,
	}
	if s.usernameClaim {
		spec.Username = acc.username
	}
	return s.creator.CreateAccessToken(spec)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req apimodel.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apimodel.ErrorResponse{Detail: "malformed body"})
		return
	}

	s.lock.Lock()
	fail := s.tokenFailure
	acc, ok := s.accounts[req.Username]
	s.lock.Unlock()

	if fail != nil {
		writeJSON(w, fail.status, apimodel.ErrorResponse{Message: fail.message})
		return
	}
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, apimodel.ErrorResponse{Detail: noActiveAccount})
		return
	}

	access, err := s.accessToken(acc, s.accessTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apimodel.ErrorResponse{Detail: err.Error()})
		return
	}
	refresh, err := s.creator.CreateRefreshToken(acc.id, DefaultRefreshTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apimodel.ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apimodel.TokenResponse{Access: access, Refresh: refresh})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req apimodel.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Invalid request"})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.accounts[req.Username]; exists {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Email already registered"})
		return
	}
	s.addAccountLocked(req.Username, req.Password, req.FirstName, req.LastName)
	writeJSON(w, http.StatusCreated, apimodel.MessageResponse{Message: "User created successfully"})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req apimodel.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Invalid request"})
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	acc, ok := s.accounts[req.Email]
	if !ok {
		writeJSON(w, http.StatusNotFound, apimodel.MessageResponse{Message: "User with this email does not exist."})
		return
	}
	s.resetTokens[encodeUID(acc.id)] = uuid.NewString()
	writeJSON(w, http.StatusOK, apimodel.MessageResponse{Message: "Password reset link sent to your email"})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req apimodel.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Invalid request"})
		return
	}

	uid := r.PathValue("uid")
	s.lock.Lock()
	defer s.lock.Unlock()

	var acc *account
	if id, err := decodeUID(uid); err == nil {
		for _, a := range s.accounts {
			if a.id == id {
				acc = a
			}
		}
	}
	if acc == nil || s.resetTokens[uid] == "" || s.resetTokens[uid] != r.PathValue("token") {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Invalid reset link."})
		return
	}
	if req.NewPassword1 != req.NewPassword2 {
		writeJSON(w, http.StatusBadRequest, apimodel.MessageResponse{Message: "Passwords do not match."})
		return
	}
	acc.password = req.NewPassword1
	delete(s.resetTokens, uid)
	writeJSON(w, http.StatusOK, apimodel.MessageResponse{Message: "Password has been reset successfully."})
}

type accountHandler func(w http.ResponseWriter, r *http.Request, acc *account)

// authenticated verifies the bearer token signature and expiry before
// resolving the account it names.
func (s *Server) authenticated(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, apimodel.ErrorResponse{Detail: "Unauthorized"})
			return
		}

		parsed, err := jwtlib.Parse(raw, s.signer.GetVerificationKey,
			jwtlib.WithValidMethods([]string{s.signer.GetSigningMethod().Alg()}),
			jwtlib.WithTimeFunc(s.clock.Now),
		)
		if err != nil || !parsed.Valid {
			writeJSON(w, http.StatusUnauthorized, apimodel.ErrorResponse{Detail: "Unauthorized"})
			return
		}
		claims, _ := parsed.Claims.(jwtlib.MapClaims)
		subject, ok := utils.ClaimString(claims[jwt.ClaimSubject])
		if !ok {
			subject, _ = utils.ClaimString(claims[jwt.ClaimUserID])
		}

		s.lock.Lock()
		var acc *account
		for _, a := range s.accounts {
			if a.id == subject {
				acc = a
			}
		}
		s.lock.Unlock()
		if acc == nil {
			writeJSON(w, http.StatusUnauthorized, apimodel.ErrorResponse{Detail: "Unauthorized"})
			return
		}
		next(w, r, acc)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, acc *account) {
	status, err := tasks.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeJSON(w, http.StatusOK, []*tasks.Task{})
		return
	}
	list, err := acc.tasks.List(r.Context(), tasks.Filter{Status: status})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apimodel.ErrorResponse{Detail: err.Error()})
		return
	}
	// Newest first, so clients must sort for themselves.
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, acc *account) {
	var req tasks.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Deadline.IsZero() {
		writeJSON(w, http.StatusUnprocessableEntity, apimodel.ErrorResponse{Detail: "title and deadline are required"})
		return
	}
	task, err := acc.tasks.Create(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apimodel.ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, acc *account) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apimodel.ErrorResponse{Detail: "Not Found"})
		return
	}
	var req tasks.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, apimodel.ErrorResponse{Detail: "malformed body"})
		return
	}
	task, err := acc.tasks.Update(r.Context(), id, req)
	if todoerrors.Is(err, todoerrors.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apimodel.ErrorResponse{Detail: "Not Found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apimodel.ErrorResponse{Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, acc *account) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apimodel.ErrorResponse{Detail: "Not Found"})
		return
	}
	if err := acc.tasks.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, apimodel.ErrorResponse{Detail: "Not Found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func encodeUID(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

func decodeUID(uid string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(uid)
	return string(b), err
}
