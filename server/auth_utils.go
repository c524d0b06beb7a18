package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"
	"github.com/jrsteele09/go-todo-client/internal/config"
)

const (
	flashCookieName = "todo_flash"

	flashKeyError  = "flash.error"
	flashKeyNotice = "flash.notice"
	flashKeyEmail  = "flash.email"
)

// newFlashManager keeps one-shot UI messages between a POST and the page it
// redirects to. Authentication state never goes in here.
func newFlashManager(cfg config.UIConfig) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = cfg.GetFlashLifetime()
	sm.Cookie.Name = flashCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.GetSecureCookies()
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Persist = false
	return sm
}

type flashMessages struct {
	Error  string
	Notice string
	Email  string
}

func (s *Server) flashError(ctx context.Context, msg string) {
	s.flash.Put(ctx, flashKeyError, msg)
}

func (s *Server) flashNotice(ctx context.Context, msg string) {
	s.flash.Put(ctx, flashKeyNotice, msg)
}

func (s *Server) flashEmail(ctx context.Context, email string) {
	if email != "" {
		s.flash.Put(ctx, flashKeyEmail, email)
	}
}

func (s *Server) popFlash(ctx context.Context) flashMessages {
	return flashMessages{
		Error:  s.flash.PopString(ctx, flashKeyError),
		Notice: s.flash.PopString(ctx, flashKeyNotice),
		Email:  s.flash.PopString(ctx, flashKeyEmail),
	}
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectReplace is redirectSuccess for navigation that must not leave the
// current location in the history.
func redirectReplace(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Replace-Url", path)
	}
	redirectSuccess(w, r, path)
}

// homeURL returns the task list, keeping the active status filter.
func homeURL(filter string) string {
	if filter == "" {
		return RouteHome
	}
	return RouteHome + "?" + url.Values{"status": {filter}}.Encode()
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
