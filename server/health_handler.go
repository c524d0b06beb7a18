package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HealthResponse is served by /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
	Guard   string `json:"guard"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "ok",
			Session: s.auth.State().String(),
			Guard:   s.guard.Current().String(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Err(err).Msg("Failed to write health response")
		}
	}
}
