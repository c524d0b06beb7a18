package auth

import (
	"github.com/jrsteele09/go-todo-client/apiclient"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
)

// DefaultLoginMessage is shown when the server gives no message of its own.
const DefaultLoginMessage = "Invalid email or password."

// LoginError is returned by Login. It matches ErrLoginFailed and carries
// only text that is safe to show the user.
type LoginError struct {
	Message string
	cause   error
}

func newLoginError(cause error) *LoginError {
	msg, ok := apiclient.ServerMessage(cause)
	if !ok {
		msg = DefaultLoginMessage
	}
	return &LoginError{Message: msg, cause: cause}
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() []error {
	if e.cause == nil {
		return []error{todoerrors.ErrLoginFailed}
	}
	return []error{todoerrors.ErrLoginFailed, e.cause}
}
