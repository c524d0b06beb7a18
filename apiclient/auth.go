package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-todo-client/apimodel"
)

// ObtainToken exchanges credentials for an access/refresh pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*apimodel.TokenResponse, error) {
	var resp apimodel.TokenResponse
	req := apimodel.TokenRequest{Username: username, Password: password}
	if err := c.do(ctx, c.anon, http.MethodPost, pathToken, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the server's confirmation.
func (c *Client) Register(ctx context.Context, req apimodel.RegisterRequest) (string, error) {
	return c.message(ctx, pathRegister, req)
}

// RequestPasswordReset asks the API to e-mail a reset link to email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return c.message(ctx, pathPasswordReset, apimodel.PasswordResetRequest{Email: email})
}

// ConfirmPasswordReset sets a new password using the uid and token from a
// reset link.
func (c *Client) ConfirmPasswordReset(ctx context.Context, uid, resetToken string, req apimodel.PasswordResetConfirmRequest) (string, error) {
	path := fmt.Sprintf(pathPasswordResetConfirm, url.PathEscape(uid), url.PathEscape(resetToken))
	return c.message(ctx, path, req)
}

func (c *Client) message(ctx context.Context, path string, body any) (string, error) {
	var resp apimodel.MessageResponse
	if err := c.do(ctx, c.anon, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
