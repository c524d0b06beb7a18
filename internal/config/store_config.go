package config

import "path/filepath"

const (
	tokenFileEnvVar       = "TOKEN_FILE"
	storePassphraseEnvVar = "STORE_PASSPHRASE"
)

type Store struct {
	v *values
}

var _ StoreConfig = Store{}

func (s Store) GetTokenFile() string {
	if file := s.v.get(tokenFileEnvVar, ""); file != "" {
		return file
	}
	return filepath.Join(EnvVars(s).GetDataFolder(), "tokens.json")
}

// GetStorePassphrase enables at-rest encryption of the token file when set.
func (s Store) GetStorePassphrase() string {
	return s.v.get(storePassphraseEnvVar, "")
}
