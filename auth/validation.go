package auth

import (
	"strings"

	"github.com/pkg/errors"
)

// validateCredentials rejects logins that cannot succeed before any
// request is made.
func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}
