package server

import "github.com/jrsteele09/go-todo-client/auth"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = auth.RouteHome

	// Tasks
	RouteTasks      = "/tasks"
	RouteTask       = "/tasks/{id}"
	RouteTaskEdit   = "/tasks/{id}/edit"
	RouteTaskStatus = "/tasks/{id}/status"
	RouteTaskDelete = "/tasks/{id}/delete"

	// Auth Routes - Login & Logout
	RouteLogin      = auth.RouteLogin
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// Auth Routes - Registration & Password Reset
	RouteRegister             = "/register"
	RoutePasswordReset        = "/password-reset"
	RoutePasswordResetConfirm = "/password-reset-confirm/{uid}/{token}"

	RouteHealth = "/healthz"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
