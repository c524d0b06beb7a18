package apimodel

// RegisterRequest is the body sent to POST /auth/register. The e-mail
// address doubles as the username.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PasswordResetRequest is the body sent to POST /auth/password-reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest is the body sent to
// POST /auth/password-reset/confirm/{uid}/{token}.
type PasswordResetConfirmRequest struct {
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

// MessageResponse is the {message} envelope used by the auth endpoints for
// both success and failure.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse covers the error bodies produced by the API framework
// itself (e.g. simple-jwt's {"detail": "..."}).
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Text returns the most specific human readable message available.
func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}
