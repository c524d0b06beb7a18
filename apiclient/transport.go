package apiclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const HeaderRequestID = "X-Request-ID"

// StoreTokenSource hands the stored access token to oauth2.Transport. The
// store is read on every request so a logout takes effect immediately.
type StoreTokenSource struct {
	store token.Store
}

var _ oauth2.TokenSource = (*StoreTokenSource)(nil)

func NewStoreTokenSource(store token.Store) *StoreTokenSource {
	return &StoreTokenSource{store: store}
}

func (s *StoreTokenSource) Token() (*oauth2.Token, error) {
	access, ok := s.store.Get(token.KeyAccessToken)
	if !ok {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "no access token stored")
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}

// requestIDTransport tags each request with a fresh id and logs the exchange.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := uuid.NewString()
	r := req.Clone(req.Context())
	r.Header.Set(HeaderRequestID, id)

	start := time.Now()
	resp, err := t.base.RoundTrip(r)
	if err != nil {
		log.Warn().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", id).
			Msg("api request failed")
		return nil, err
	}

	event := log.Debug()
	if resp.StatusCode >= 400 {
		event = log.Warn()
	}
	event.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", id).
		Msg("api request")
	return resp, nil
}
