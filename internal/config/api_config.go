package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLEnvVar = "API_BASE_URL"
	apiTimeoutEnvVar = "API_TIMEOUT"
)

type API struct {
	v *values
}

var _ APIConfig = API{}

// GetAPIBaseURL is the root of the remote REST API, without a trailing slash.
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.v.get(apiBaseURLEnvVar, "http://127.0.0.1:8000/api"), "/")
}

// GetAPITimeout is zero unless configured, leaving timeouts to the transport.
func (a API) GetAPITimeout() time.Duration {
	return a.v.duration(apiTimeoutEnvVar, 0)
}
