package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-todo-client/apiclient"
	"github.com/jrsteele09/go-todo-client/users"
	"github.com/rs/zerolog/log"
)

const (
	registrationFailedMessage = "Registration failed"
	genericErrorMessage       = "An error occurred."
	resetRedirectSeconds      = 3
)

// AccountPageData is the template model for the registration and password
// reset pages
type AccountPageData struct {
	pageData
	Email         string
	Action        string // Form target
	RedirectTo    string // Set once the flow is complete
	RedirectAfter int    // Seconds before RedirectTo is followed
	Done          bool
}

func (s *Server) RegisterGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")
	return func(w http.ResponseWriter, r *http.Request) {
		flash := s.popFlash(r.Context())
		renderPage(w, http.StatusOK, tmpl, AccountPageData{
			pageData: s.newPageData("Register", flash),
			Email:    flash.Email,
			Action:   RouteRegister,
		})
	}
}

// RegisterPostHandler creates the account and sends the user to the login
// page. Password confirmation is checked before the API is called.
func (s *Server) RegisterPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := users.RegistrationForm{
			Email:           r.FormValue("email"),
			FirstName:       r.FormValue("first_name"),
			LastName:        r.FormValue("last_name"),
			Password:        r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirm_password"),
		}
		fail := func(msg string) {
			s.flashError(r.Context(), msg)
			s.flashEmail(r.Context(), form.Email)
			redirectSuccess(w, r, RouteRegister)
		}

		if err := users.Validate(form); err != nil {
			fail(err.Error())
			return
		}
		if err := users.PasswordsMatch(form.Password, form.ConfirmPassword); err != nil {
			fail(users.PasswordMismatchMessage)
			return
		}

		msg, err := s.accounts.Register(r.Context(), form.Request())
		if err != nil {
			log.Warn().Err(err).Msg("registration failed")
			fail(serverMessageOr(err, registrationFailedMessage))
			return
		}

		s.flashNotice(r.Context(), msg)
		s.flashEmail(r.Context(), form.Email)
		redirectSuccess(w, r, RouteLogin)
	}
}

func (s *Server) PasswordResetGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("password_reset.html")
	return func(w http.ResponseWriter, r *http.Request) {
		flash := s.popFlash(r.Context())
		renderPage(w, http.StatusOK, tmpl, AccountPageData{
			pageData: s.newPageData("Reset Password", flash),
			Email:    flash.Email,
			Action:   RoutePasswordReset,
		})
	}
}

// PasswordResetPostHandler asks the API to e-mail a reset link and shows
// its reply on the same page.
func (s *Server) PasswordResetPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := users.PasswordResetForm{Email: r.FormValue("email")}
		defer redirectSuccess(w, r, RoutePasswordReset)

		if err := users.Validate(form); err != nil {
			s.flashError(r.Context(), err.Error())
			s.flashEmail(r.Context(), form.Email)
			return
		}
		msg, err := s.accounts.RequestPasswordReset(r.Context(), form.Email)
		if err != nil {
			log.Warn().Err(err).Msg("password reset request failed")
			s.flashError(r.Context(), serverMessageOr(err, genericErrorMessage))
			s.flashEmail(r.Context(), form.Email)
			return
		}
		s.flashNotice(r.Context(), msg)
	}
}

func resetConfirmAction(r *http.Request) string {
	return "/password-reset-confirm/" + url.PathEscape(r.PathValue("uid")) + "/" + url.PathEscape(r.PathValue("token"))
}

func (s *Server) PasswordResetConfirmGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("password_reset_confirm.html")
	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, http.StatusOK, tmpl, AccountPageData{
			pageData: s.newPageData("Set New Password", s.popFlash(r.Context())),
			Action:   resetConfirmAction(r),
		})
	}
}

// PasswordResetConfirmPostHandler sets the new password. On success the
// page shows the API's message and returns to the login page shortly after.
func (s *Server) PasswordResetConfirmPostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("password_reset_confirm.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		action := resetConfirmAction(r)
		form := users.PasswordResetConfirmForm{
			NewPassword:     r.FormValue("new_password1"),
			ConfirmPassword: r.FormValue("new_password2"),
		}
		fail := func(msg string) {
			s.flashError(r.Context(), msg)
			redirectSuccess(w, r, action)
		}

		if err := users.Validate(form); err != nil {
			fail(err.Error())
			return
		}
		if err := users.PasswordsMatch(form.NewPassword, form.ConfirmPassword); err != nil {
			fail(users.PasswordMismatchMessage)
			return
		}

		msg, err := s.accounts.ConfirmPasswordReset(r.Context(), r.PathValue("uid"), r.PathValue("token"), form.Request())
		if err != nil {
			log.Warn().Err(err).Msg("password reset confirmation failed")
			fail(serverMessageOr(err, genericErrorMessage))
			return
		}

		data := AccountPageData{
			pageData:      s.newPageData("Set New Password", flashMessages{Notice: msg}),
			Action:        action,
			RedirectTo:    RouteLogin,
			RedirectAfter: resetRedirectSeconds,
			Done:          true,
		}
		renderPage(w, http.StatusOK, tmpl, data)
	}
}

func serverMessageOr(err error, fallback string) string {
	if msg, ok := apiclient.ServerMessage(err); ok {
		return msg
	}
	return fallback
}
