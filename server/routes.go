package server

import (
	"net/http"
)

func (s *Server) initRoutes() {
	// TASKS
	s.RegisterRouteFunc("GET "+RouteHome+"{$}", ChainMiddleware(s.HomeHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteTasks, ChainMiddleware(s.CreateTaskHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteFunc("GET "+RouteTaskEdit, ChainMiddleware(s.EditTaskHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteTask, ChainMiddleware(s.UpdateTaskHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteTaskStatus, ChainMiddleware(s.ToggleTaskStatusHandler(), s.HTMLMiddleWare(s.RequireSession)...))
	s.RegisterRouteFunc("POST "+RouteTaskDelete, ChainMiddleware(s.DeleteTaskHandler(), s.HTMLMiddleWare(s.RequireSession)...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), s.HTMLMiddleWare(s.AwaitSession, s.RedirectIfAuthenticated)...))
	s.RegisterRouteFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// ACCOUNTS
	s.RegisterRouteFunc("GET "+RouteRegister, ChainMiddleware(s.RegisterGetHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterPostHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("GET "+RoutePasswordReset, ChainMiddleware(s.PasswordResetGetHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("POST "+RoutePasswordReset, ChainMiddleware(s.PasswordResetPostHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("GET "+RoutePasswordResetConfirm, ChainMiddleware(s.PasswordResetConfirmGetHandler(), s.HTMLMiddleWare(s.AwaitSession)...))
	s.RegisterRouteFunc("POST "+RoutePasswordResetConfirm, ChainMiddleware(s.PasswordResetConfirmPostHandler(), s.HTMLMiddleWare(s.AwaitSession)...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteFunc("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.CacheMiddleware))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := r.PathValue("file")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
