package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-todo-client/internal/config"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app_name: Test To-Do
port: "9999"
log_level: DEBUG
api:
  base_url: http://api.example.com/api/
  timeout: 5s
store:
  passphrase: hunter2
ui:
  flash_lifetime: 1m
  secure_cookies: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"APP_NAME", "ENV", "PORT", "FOLDER", "LOG_LEVEL", "API_BASE_URL", "API_TIMEOUT",
		"TOKEN_FILE", "STORE_PASSPHRASE", "FLASH_LIFETIME", "SECURE_COOKIES",
	} {
		t.Setenv(name, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOLDER", "/tmp/todo-test")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:8000/api", c.GetAPIBaseURL())
	require.Equal(t, time.Duration(0), c.GetAPITimeout())
	require.Equal(t, "127.0.0.1:8090", c.GetPort())
	require.Equal(t, filepath.Join("/tmp/todo-test", "tokens.json"), c.GetTokenFile())
	require.Equal(t, 10*time.Minute, c.GetFlashLifetime())
	require.False(t, c.GetSecureCookies())
}

func TestNew_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", testYAML)

	c, err := config.New(config.WithFile(path))
	require.NoError(t, err)

	require.Equal(t, "Test To-Do", c.GetAppName())
	require.Equal(t, "127.0.0.1:9999", c.GetPort())
	require.Equal(t, "debug", c.GetLogLevel())
	require.Equal(t, "http://api.example.com/api", c.GetAPIBaseURL())
	require.Equal(t, 5*time.Second, c.GetAPITimeout())
	require.Equal(t, "hunter2", c.GetStorePassphrase())
	require.Equal(t, time.Minute, c.GetFlashLifetime())
	require.True(t, c.GetSecureCookies())
}

func TestNew_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", testYAML)
	t.Setenv("API_BASE_URL", "http://env.example.com/api")

	t.Run("environment beats file", func(t *testing.T) {
		c, err := config.New(config.WithFile(path))
		require.NoError(t, err)
		require.Equal(t, "http://env.example.com/api", c.GetAPIBaseURL())
	})

	t.Run("override beats environment", func(t *testing.T) {
		c, err := config.New(config.WithFile(path), config.WithOverride("API_BASE_URL", "http://flag.example.com/api"))
		require.NoError(t, err)
		require.Equal(t, "http://flag.example.com/api", c.GetAPIBaseURL())
	})

	t.Run("flag options", func(t *testing.T) {
		c, err := config.New(config.WithAPIBaseURL("http://cli.example.com/api/"), config.WithLogLevel("WARN"), config.WithLogLevel(""))
		require.NoError(t, err)
		require.Equal(t, "http://cli.example.com/api", c.GetAPIBaseURL())
		require.Equal(t, "warn", c.GetLogLevel())
	})
}

func TestNew_MissingFileIgnored(t *testing.T) {
	_, err := config.New(config.WithFile(filepath.Join(t.TempDir(), "nope.yaml")))
	require.NoError(t, err)
}

func TestNew_InvalidFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "api: [unclosed")
	_, err := config.New(config.WithFile(path))
	require.Error(t, err)
}

func TestNew_DotEnv(t *testing.T) {
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")
	path := writeFile(t, ".env", "APP_NAME=From Dotenv\n")
	t.Cleanup(func() { os.Unsetenv("APP_NAME") })

	c, err := config.New(config.WithDotEnv(path))
	require.NoError(t, err)
	require.Equal(t, "From Dotenv", c.GetAppName())
}
