package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/internal/utils"
)

// Claim names understood by the inspector. The reference API (simple-jwt)
// puts the user identifier in user_id rather than sub.
const (
	ClaimSubject  = "sub"
	ClaimUserID   = "user_id"
	ClaimUsername = "username"
	ClaimExpiry   = "exp"
	ClaimIssuedAt = "iat"
	ClaimType     = "token_type"
)

// Claims is the subset of an access token the client relies on.
type Claims struct {
	Subject   string    // Users unique ID
	Username  string    // Empty when the token does not carry one
	ExpiresAt time.Time // Expiration
	IssuedAt  time.Time // Zero when absent
	TokenType string    // "access" for simple-jwt access tokens
}

// Expired reports whether the token is no longer usable at now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Inspector decodes access tokens without verifying their signature. The
// API is the only party that trusts a token; the client only needs the
// expiry and the identity it claims.
type Inspector struct {
	clock clockwork.Clock
}

type InspectorOption func(*Inspector)

// WithClock sets the clock used for expiry checks (primarily for testing)
func WithClock(clock clockwork.Clock) InspectorOption {
	return func(i *Inspector) {
		i.clock = clock
	}
}

// NewInspector creates a new JWT inspector
func NewInspector(options ...InspectorOption) *Inspector {
	i := &Inspector{clock: clockwork.NewRealClock()}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Now returns the inspector's notion of the current time.
func (i *Inspector) Now() time.Time {
	return i.clock.Now()
}

// Decode extracts the claims from rawToken. It fails with ErrTokenInvalid
// when the token is malformed or lacks an expiry or subject. Expiry is not
// checked here.
func (i *Inspector) Decode(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "empty token")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "parse: %s", err.Error())
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "error extracting claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "token missing exp claim")
	}

	subject, ok := utils.ClaimString(claims[ClaimSubject])
	if !ok {
		subject, ok = utils.ClaimString(claims[ClaimUserID])
	}
	if !ok {
		return nil, todoerrors.Wrapf(todoerrors.ErrTokenInvalid, "token missing subject claim")
	}

	result := &Claims{
		Subject:   subject,
		ExpiresAt: exp.Time,
	}
	result.Username, _ = claims[ClaimUsername].(string)
	result.TokenType, _ = claims[ClaimType].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	return result, nil
}

// Inspect decodes rawToken and checks it has not expired. Expired tokens
// return their claims alongside ErrTokenExpired.
func (i *Inspector) Inspect(rawToken string) (*Claims, error) {
	claims, err := i.Decode(rawToken)
	if err != nil {
		return nil, err
	}
	if claims.Expired(i.clock.Now()) {
		return claims, todoerrors.Wrapf(todoerrors.ErrTokenExpired, "expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}
	return claims, nil
}
