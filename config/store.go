package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/s0up4200/immichshow/immich"
)

// Store is a file-backed credential store. It satisfies
// immich.CredentialStore with a credentials.yaml next to the app config;
// platform keychains are out of scope here and can replace it behind the
// same interface.
//
// Fallback values (typically seeded from the config file's server section)
// are consulted when the credentials file has no entry, and are never
// written back.
type Store struct {
	mu       sync.Mutex
	v        *viper.Viper
	path     string
	fallback map[string]string
}

// DefaultStorePath returns the standard credentials file location.
func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, ".immichshow", "credentials.yaml"), nil
}

// NewStore opens (or prepares to create) the credentials file at path.
func NewStore(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// A missing file just means nothing is stored yet; a malformed one is
	// a real error.
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	return &Store{
		v:        v,
		path:     path,
		fallback: make(map[string]string),
	}, nil
}

// Seed installs read-only fallbacks from the config file's server section.
func (s *Store) Seed(server ServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := map[string]string{
		immich.KeyBaseURL:    server.URL,
		immich.KeyAuthMethod: server.AuthMethod,
		immich.KeyAPIKey:     server.APIKey,
		immich.KeyEmail:      server.Email,
		immich.KeyPassword:   server.Password,
	}
	for key, value := range seed {
		if value != "" {
			s.fallback[key] = value
		}
	}
}

// Load implements immich.CredentialStore. An empty stored value counts as
// absent.
func (s *Store) Load(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value := s.v.GetString(key); value != "" {
		return value, true
	}
	if value, ok := s.fallback[key]; ok && value != "" {
		return value, true
	}
	return "", false
}

// Save implements immich.CredentialStore.
func (s *Store) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, value)
	return s.write()
}

// Delete implements immich.CredentialStore. Storing the empty string is
// equivalent to deletion.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set(key, "")
	return s.write()
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	// Credentials are secrets; keep the file private.
	return os.Chmod(s.path, 0o600)
}
