package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/jrsteele09/go-todo-client/apimodel"
	"github.com/jrsteele09/go-todo-client/auth"
	"github.com/jrsteele09/go-todo-client/internal/config"
	"github.com/jrsteele09/go-todo-client/routeguard"
	"github.com/jrsteele09/go-todo-client/tasks"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AccountAPI is the anonymous part of the remote API behind the account
// pages.
type AccountAPI interface {
	Register(ctx context.Context, req apimodel.RegisterRequest) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, uid, resetToken string, req apimodel.PasswordResetConfirmRequest) (string, error)
}

// Services holds everything the web UI talks to.
type Services struct {
	Auth     *auth.Manager // Session state and login/logout
	Accounts AccountAPI    // Registration and password reset
	Tasks    tasks.Repo    // Task CRUD
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	appName   string
	mux       *http.ServeMux
	handler   http.Handler
	routes    []string
	auth      *auth.Manager
	accounts  AccountAPI
	tasks     tasks.Repo
	guard     *routeguard.Guard
	stopGuard func()
	flash     *scs.SessionManager
}

func New(cfg config.Config, services Services) (*Server, error) {
	if services.Auth == nil {
		return nil, errors.New("[server.New] auth manager is required")
	}
	if services.Accounts == nil {
		return nil, errors.New("[server.New] accounts api is required")
	}
	if services.Tasks == nil {
		return nil, errors.New("[server.New] task repo is required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		appName:  cfg.GetAppName(),
		mux:      http.NewServeMux(),
		auth:     services.Auth,
		accounts: services.Accounts,
		tasks:    services.Tasks,
		guard:    routeguard.New(),
		flash:    newFlashManager(cfg),
	}

	s.guard.OnChange(func(o routeguard.Outcome) {
		log.Info().Stringer("outcome", o).Msg("route guard updated")
	})
	s.stopGuard = s.guard.Watch(s.auth)

	s.initRoutes()
	s.logRoutes()
	s.handler = s.flash.LoadAndSave(s.mux)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops following session changes.
func (s *Server) Close() {
	if s.stopGuard != nil {
		s.stopGuard()
	}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}
