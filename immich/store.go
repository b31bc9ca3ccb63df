package immich

// CredentialStore is the persistence contract for connection secrets.
// Implementations decide where the values live (keychain, encrypted file,
// plain config); the client only ever reads them through this interface.
//
// A stored empty string is indistinguishable from an absent entry and must
// be reported as absent.
type CredentialStore interface {
	Load(key string) (value string, ok bool)
	Save(key, value string) error
	Delete(key string) error
}

// Credential store keys.
const (
	KeyBaseURL    = "immichURL"
	KeyAuthMethod = "immichAPIAuthMethod"
	KeyAPIKey     = "immichAuthAPIKey"
	KeyEmail      = "immichAuthEmail"
	KeyPassword   = "immichAuthPassword"
)

// AuthMethod selects how requests authenticate against the server.
type AuthMethod string

// Supported auth methods.
const (
	AuthAPIKey           AuthMethod = "apiKey"
	AuthEmailAndPassword AuthMethod = "emailAndPassword"
)

// ConnConfig is one fully resolved connection configuration. It is built
// fresh from the credential store for every API call and never cached: the
// store is the source of truth and may change between calls.
type ConnConfig struct {
	BaseURL string
	Method  AuthMethod

	// api-key based auth
	APIKey string

	// email/password based auth
	Email    string
	Password string
}

// ResolveConfig assembles a usable config from the store or fails with
// ErrMissingConfig. Partial configs are never returned: callers either get
// everything their auth method needs or a definitive "not configured".
func ResolveConfig(store CredentialStore) (ConnConfig, error) {
	baseURL, ok := store.Load(KeyBaseURL)
	if !ok {
		return ConnConfig{}, ErrMissingConfig
	}

	method := AuthAPIKey
	if raw, ok := store.Load(KeyAuthMethod); ok {
		method = AuthMethod(raw)
	}

	cfg := ConnConfig{BaseURL: baseURL, Method: method}

	switch method {
	case AuthAPIKey:
		apiKey, ok := store.Load(KeyAPIKey)
		if !ok {
			return ConnConfig{}, ErrMissingConfig
		}
		cfg.APIKey = apiKey

	case AuthEmailAndPassword:
		email, ok := store.Load(KeyEmail)
		if !ok {
			return ConnConfig{}, ErrMissingConfig
		}
		password, ok := store.Load(KeyPassword)
		if !ok {
			return ConnConfig{}, ErrMissingConfig
		}
		cfg.Email = email
		cfg.Password = password

	default:
		return ConnConfig{}, ErrMissingConfig
	}

	return cfg, nil
}
