package config

import (
	"time"
)

type Config interface {
	EnvConfig
	APIConfig
	StoreConfig
	UIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type StoreConfig interface {
	GetTokenFile() string
	GetStorePassphrase() string
}

type UIConfig interface {
	GetFlashLifetime() time.Duration
	GetSecureCookies() bool
}

type mainConfig struct {
	EnvVars
	API
	Store
	UI
}

// Option adjusts how configuration values are resolved.
type Option func(*values) error

// WithFile layers a YAML configuration file beneath the environment.
// A missing path is ignored.
func WithFile(path string) Option {
	return func(v *values) error {
		if path == "" {
			return nil
		}
		return v.loadFile(path)
	}
}

// WithDotEnv loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set.
func WithDotEnv(paths ...string) Option {
	return func(v *values) error {
		return loadDotEnv(paths...)
	}
}

// WithOverride forces a value for the given environment variable name.
// Used for command line flags, which win over everything else.
func WithOverride(envVar, value string) Option {
	return func(v *values) error {
		if value != "" {
			v.overrides[envVar] = value
		}
		return nil
	}
}

// WithAPIBaseURL overrides the API root, as the --api flag does.
func WithAPIBaseURL(url string) Option {
	return WithOverride(apiBaseURLEnvVar, url)
}

// WithLogLevel overrides the log level, as the --log-level flag does.
func WithLogLevel(level string) Option {
	return WithOverride(logLevelEnvVar, level)
}

// New resolves configuration as: overrides, environment, file, defaults.
func New(options ...Option) (Config, error) {
	v := newValues()
	for _, opt := range options {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return mainConfig{
		EnvVars: EnvVars{v},
		API:     API{v},
		Store:   Store{v},
		UI:      UI{v},
	}, nil
}
