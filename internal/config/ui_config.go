package config

import "time"

const (
	flashLifetimeEnvVar = "FLASH_LIFETIME"
	secureCookiesEnvVar = "SECURE_COOKIES"
)

type UI struct {
	v *values
}

var _ UIConfig = UI{}

func (u UI) GetFlashLifetime() time.Duration {
	return u.v.duration(flashLifetimeEnvVar, 10*time.Minute)
}

func (u UI) GetSecureCookies() bool {
	return u.v.get(secureCookiesEnvVar, "false") == "true"
}
