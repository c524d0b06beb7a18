package server

import (
	"html/template"
	"net/http"
	"sync"
)

var (
	loadingTmpl     *template.Template
	loadingTmplOnce sync.Once
)

// renderLoading serves the placeholder shown while the stored session is
// being resolved. The browser retries on its own after a second.
func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	loadingTmplOnce.Do(func() {
		loadingTmpl = mustParseTemplate("loading.html")
	})
	w.Header().Set("Refresh", "1")
	w.Header().Set("Retry-After", "1")
	renderPage(w, http.StatusServiceUnavailable, loadingTmpl, s.newPageData("Loading", flashMessages{}))
}

// holdLoading answers a request that arrived before the session was
// resolved. Page loads get the loading page. A refresh would replay other
// methods as a GET, so form posts are sent to the login page instead.
func (s *Server) holdLoading(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		s.renderLoading(w, r)
		return
	}
	redirectSuccess(w, r, RouteLogin)
}
