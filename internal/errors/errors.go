package errors

import (
	"errors"
	"fmt"
)

// Common error types for the to-do client
var (
	// Token errors
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Authentication errors
	ErrLoginFailed        = errors.New("login failed")
	ErrPasswordsDontMatch = errors.New("passwords do not match")

	// Remote API errors
	ErrRequestFailed = errors.New("request failed")
	ErrNotFound      = errors.New("not found")

	// Store errors
	ErrStoreCorrupt = errors.New("token store corrupt")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
