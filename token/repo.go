package token

// Key names an entry in the token store.
type Key string

const (
	KeyAccessToken  Key = "accessToken"
	KeyRefreshToken Key = "refreshToken"
	KeyDisplayName  Key = "displayName"
)

// Keys lists every key the store manages, in write order.
var Keys = []Key{KeyAccessToken, KeyRefreshToken, KeyDisplayName}

// Credentials is the unit persisted after a successful login. The three
// values are written and cleared together.
type Credentials struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Empty reports whether no credential is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.DisplayName == ""
}

// Value returns the credential held under key.
func (c Credentials) Value(key Key) string {
	switch key {
	case KeyAccessToken:
		return c.AccessToken
	case KeyRefreshToken:
		return c.RefreshToken
	case KeyDisplayName:
		return c.DisplayName
	}
	return ""
}

// With returns a copy of c with key set to value. Unknown keys are ignored.
func (c Credentials) With(key Key, value string) Credentials {
	switch key {
	case KeyAccessToken:
		c.AccessToken = value
	case KeyRefreshToken:
		c.RefreshToken = value
	case KeyDisplayName:
		c.DisplayName = value
	}
	return c
}

// Store is durable key/value state holding the current credentials. It does
// no validation of what it holds.
type Store interface {
	Get(key Key) (string, bool)
	Set(key Key, value string) error
	Clear(key Key) error

	// Credentials returns the whole entry set, false when nothing is stored.
	Credentials() (Credentials, bool)
	// SetCredentials replaces every entry in a single write.
	SetCredentials(creds Credentials) error
	// ClearCredentials removes every entry in a single write.
	ClearCredentials() error
}
