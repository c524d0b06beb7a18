package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the optional YAML configuration file.
type FileConfig struct {
	AppName    string `yaml:"app_name"`
	Env        string `yaml:"env"`
	Port       string `yaml:"port"`
	DataFolder string `yaml:"data_folder"`
	LogLevel   string `yaml:"log_level"`
	API        struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Store struct {
		TokenFile  string `yaml:"token_file"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"store"`
	UI struct {
		FlashLifetime string `yaml:"flash_lifetime"`
		SecureCookies *bool  `yaml:"secure_cookies"`
	} `yaml:"ui"`
}

type values struct {
	overrides map[string]string
	file      map[string]string
	lookupEnv func(string) (string, bool)
}

func newValues() *values {
	return &values{
		overrides: make(map[string]string),
		file:      make(map[string]string),
		lookupEnv: os.LookupEnv,
	}
}

func (v *values) get(envVar, defaultValue string) string {
	if value, ok := v.overrides[envVar]; ok {
		return value
	}
	if value, ok := v.lookupEnv(envVar); ok && value != "" {
		return value
	}
	if value, ok := v.file[envVar]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (v *values) duration(envVar string, defaultValue time.Duration) time.Duration {
	raw := v.get(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}

func (v *values) loadFile(path string) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[config] read %s: %w", path, err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(content, &fc); err != nil {
		return fmt.Errorf("[config] parse %s: %w", path, err)
	}

	v.file[appNameVar] = fc.AppName
	v.file[envEnvVar] = fc.Env
	v.file[portEnvVar] = fc.Port
	v.file[folderEnvVar] = fc.DataFolder
	v.file[logLevelEnvVar] = fc.LogLevel
	v.file[apiBaseURLEnvVar] = fc.API.BaseURL
	v.file[apiTimeoutEnvVar] = fc.API.Timeout
	v.file[tokenFileEnvVar] = fc.Store.TokenFile
	v.file[storePassphraseEnvVar] = fc.Store.Passphrase
	v.file[flashLifetimeEnvVar] = fc.UI.FlashLifetime
	if fc.UI.SecureCookies != nil {
		v.file[secureCookiesEnvVar] = fmt.Sprintf("%t", *fc.UI.SecureCookies)
	}
	return nil
}

func loadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("[config] load %s: %w", path, err)
		}
	}
	return nil
}
