package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-todo-client/apiclient"
	"github.com/jrsteele09/go-todo-client/auth"
	"github.com/jrsteele09/go-todo-client/users"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New(`not logged in, run "todo login" first`)

var (
	loginEmail    string
	loginPassword string

	registerEmail     string
	registerFirstName string
	registerLastName  string

	resetEmail string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		email, err := p.orPrompt(loginEmail, "Email")
		if err != nil {
			return err
		}
		password := loginPassword
		if password == "" {
			if password, err = p.password("Password"); err != nil {
				return err
			}
		}

		form := users.LoginForm{Email: email, Password: password}
		if err := users.Validate(form); err != nil {
			return err
		}

		todo.manager.Initialize(cmd.Context())
		if err := todo.manager.Login(cmd.Context(), form.Email, form.Password, nil); err != nil {
			var loginErr *auth.LoginError
			if errors.As(err, &loginErr) {
				return errors.New(loginErr.Message)
			}
			return err
		}
		session, _ := todo.manager.Session()
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", users.GreetingName(session.DisplayName))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		todo.manager.Initialize(cmd.Context())
		todo.manager.Logout(nil)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := todo.requireSession(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Name:    %s\n", users.GreetingName(session.DisplayName))
		fmt.Fprintf(out, "User ID: %s\n", session.UserID)
		fmt.Fprintf(out, "Expires: %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		email, err := p.orPrompt(registerEmail, "Email")
		if err != nil {
			return err
		}
		password, err := p.password("Password")
		if err != nil {
			return err
		}
		confirm, err := p.password("Confirm Password")
		if err != nil {
			return err
		}

		form := users.RegistrationForm{
			Email:           email,
			FirstName:       registerFirstName,
			LastName:        registerLastName,
			Password:        password,
			ConfirmPassword: confirm,
		}
		if err := users.Validate(form); err != nil {
			return err
		}
		if err := users.PasswordsMatch(form.Password, form.ConfirmPassword); err != nil {
			return errors.New(users.PasswordMismatchMessage)
		}

		msg, err := todo.client.Register(cmd.Context(), form.Request())
		if err != nil {
			return userFacing(err, "Registration failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var passwordResetCmd = &cobra.Command{
	Use:   "password-reset",
	Short: "E-mail a password reset link",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := newPrompter(cmd).orPrompt(resetEmail, "Email")
		if err != nil {
			return err
		}
		form := users.PasswordResetForm{Email: email}
		if err := users.Validate(form); err != nil {
			return err
		}

		msg, err := todo.client.RequestPasswordReset(cmd.Context(), form.Email)
		if err != nil {
			return userFacing(err, "An error occurred.")
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var passwordResetConfirmCmd = &cobra.Command{
	Use:   "password-reset-confirm <uid> <token>",
	Short: "Set a new password from a reset link",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter(cmd)
		password, err := p.password("New Password")
		if err != nil {
			return err
		}
		confirm, err := p.password("Confirm New Password")
		if err != nil {
			return err
		}

		form := users.PasswordResetConfirmForm{NewPassword: password, ConfirmPassword: confirm}
		if err := users.Validate(form); err != nil {
			return err
		}
		if err := users.PasswordsMatch(form.NewPassword, form.ConfirmPassword); err != nil {
			return errors.New(users.PasswordMismatchMessage)
		}

		msg, err := todo.client.ConfirmPasswordReset(cmd.Context(), args[0], args[1], form.Request())
		if err != nil {
			return userFacing(err, "An error occurred.")
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account e-mail (prompted when empty)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when empty)")

	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account e-mail (prompted when empty)")
	registerCmd.Flags().StringVar(&registerFirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerLastName, "last-name", "", "Last name")

	passwordResetCmd.Flags().StringVar(&resetEmail, "email", "", "Account e-mail (prompted when empty)")
}

// userFacing replaces an API failure with the server's message, or fallback
// when the server did not send one.
func userFacing(err error, fallback string) error {
	if msg, ok := apiclient.ServerMessage(err); ok {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", fallback, err)
}
