package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-todo-client/token"
)

// Creator issues simple-jwt shaped token pairs. The client itself never
// issues tokens; the fake API in apiclient/apitest does.
type Creator struct {
	signer token.Signer
	clock  clockwork.Clock
}

// NewCreator creates a new JWT creator
func NewCreator(signer token.Signer, clock clockwork.Clock) *Creator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Creator{
		signer: signer,
		clock:  clock,
	}
}

// AccessTokenSpec describes the claims of an access token to create.
type AccessTokenSpec struct {
	Subject   string
	Username  string // Omitted from the token when empty
	ExpiresIn time.Duration
	UseUserID bool // Put the subject in user_id instead of sub
}

// CreateAccessToken creates a signed access token
func (c *Creator) CreateAccessToken(spec AccessTokenSpec) (string, error) {
	now := c.clock.Now()
	claims := jwtlib.MapClaims{
		ClaimType:     "access",
		ClaimIssuedAt: now.Unix(),
		ClaimExpiry:   now.Add(spec.ExpiresIn).Unix(),
		"jti":         uuid.New().String(),
	}
	if spec.UseUserID {
		claims[ClaimUserID] = spec.Subject
	} else {
		claims[ClaimSubject] = spec.Subject
	}
	if spec.Username != "" {
		claims[ClaimUsername] = spec.Username
	}
	return c.sign(claims)
}

// CreateRefreshToken creates a signed refresh token for subject
func (c *Creator) CreateRefreshToken(subject string, expiresIn time.Duration) (string, error) {
	now := c.clock.Now()
	return c.sign(jwtlib.MapClaims{
		ClaimType:     "refresh",
		ClaimSubject:  subject,
		ClaimIssuedAt: now.Unix(),
		ClaimExpiry:   now.Add(expiresIn).Unix(),
		"jti":         uuid.New().String(),
	})
}

func (c *Creator) sign(claims jwtlib.MapClaims) (string, error) {
	signedToken, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}
