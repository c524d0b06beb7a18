package apimodel

// TokenRequest is the body sent to POST /auth/token/.
type TokenRequest struct {
	// Username is the account e-mail address.
	// Example: "a@x.com"
	Username string `json:"username"`

	// Password is sent as typed.
	// Security: Never log or expose this value
	Password string `json:"password"`
}

// TokenResponse is the token pair returned by POST /auth/token/.
type TokenResponse struct {
	// Access is the signed access token.
	// Usage: Include in Authorization header: "Bearer <access>"
	// Lifespan: Short-lived; expiry is in the JWT's "exp" claim
	Access string `json:"access"`

	// Refresh is the signed refresh token.
	// Usage: Persisted with the access token; no refresh flow consumes it
	Refresh string `json:"refresh"`

	// Username is present only when the API echoes the authenticated user.
	Username string `json:"username,omitempty"`
}
