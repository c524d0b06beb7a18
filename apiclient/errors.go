package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-todo-client/apimodel"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
)

// maxErrorBody caps how much of a failed response is read for a message.
const maxErrorBody = 64 << 10

// APIError is a non-success response from the API. Message is the body's
// "message" field, meant for users. Detail is the framework's "detail"
// field, meant for logs.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	text := apimodel.ErrorResponse{Message: e.Message, Detail: e.Detail}.Text()
	if text == "" {
		return fmt.Sprintf("api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, text)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return todoerrors.ErrNotFound
	}
	return todoerrors.ErrRequestFailed
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var payload apimodel.ErrorResponse
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

// ServerMessage extracts the user facing message from err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if todoerrors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// SessionRejected reports whether err means the stored login can no longer
// authorize requests: the API answered 401, or no access token was stored.
func SessionRejected(err error) bool {
	var apiErr *APIError
	if todoerrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	return todoerrors.Is(err, todoerrors.ErrTokenInvalid)
}
