package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"
)

type EnvVars struct {
	v *values
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.get(portEnvVar, "8090")
	if port != "" && port[0] != ':' && !strings.Contains(port, ":") {
		port = fmt.Sprintf("127.0.0.1:%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.get(appNameVar, "To-Do")
}

// GetDataFolder is where the client keeps its persisted state.
func (e EnvVars) GetDataFolder() string {
	if folder := e.v.get(folderEnvVar, ""); folder != "" {
		return folder
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "todo-client")
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.v.get(logLevelEnvVar, "info"))
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.get(envEnvVar, "DEV"))
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
