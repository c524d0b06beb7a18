package server

import (
	"net/http"

	"github.com/jrsteele09/go-todo-client/auth"
	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/users"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	pageData
	Email string // Preserve email on error
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		flash := s.popFlash(r.Context())
		data := LoginPageData{
			pageData: s.newPageData("Login", flash),
			Email:    flash.Email,
		}
		renderPage(w, http.StatusOK, loginTmpl, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := users.LoginForm{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		if err := users.Validate(form); err != nil {
			s.renderLoginError(w, r, err.Error(), form.Email)
			return
		}

		// The manager navigates home through this callback on success
		redirect := func(route string) {
			redirectSuccess(w, r, route)
		}
		if err := s.auth.Login(r.Context(), form.Email, form.Password, redirect); err != nil {
			msg := auth.DefaultLoginMessage
			var loginErr *auth.LoginError
			if todoerrors.As(err, &loginErr) {
				msg = loginErr.Message
			}
			s.renderLoginError(w, r, msg, form.Email)
			return
		}
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Logout(func(route string) {
			redirectSuccess(w, r, route)
		})
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	s.flashError(r.Context(), errorMsg)
	s.flashEmail(r.Context(), email)
	redirectSuccess(w, r, RouteLogin)
}
