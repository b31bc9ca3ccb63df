package immich

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// loginFunc performs the actual network login and returns a session token.
type loginFunc func(ctx context.Context, cfg ConnConfig) (string, error)

// Authenticator owns the cached session token for email/password auth.
//
// The token has no expiry timer: it stays valid until Logout is called
// (typically after a 401) or the process exits. Concurrent Login calls are
// collapsed into a single network request; every caller receives the same
// token or the same error.
type Authenticator struct {
	mu    sync.Mutex
	token string

	group  singleflight.Group
	login  loginFunc
	logger zerolog.Logger
}

// NewAuthenticator creates an authenticator that logs in through login.
func NewAuthenticator(login loginFunc, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		login:  login,
		logger: logger,
	}
}

// Login returns the cached session token, or performs a login if none is
// cached. The api-key scheme never logs in; calling Login under it is a
// programming error and fails with ErrUnknown.
func (a *Authenticator) Login(ctx context.Context, cfg ConnConfig) (string, error) {
	if cfg.Method != AuthEmailAndPassword {
		return "", ErrUnknown
	}

	a.mu.Lock()
	if a.token != "" {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	// Everyone racing here shares one in-flight login request.
	v, err, shared := a.group.Do("login", func() (any, error) {
		// A waiter released by a previous flight may re-enter before the
		// token check above saw the cached value.
		a.mu.Lock()
		if a.token != "" {
			token := a.token
			a.mu.Unlock()
			return token, nil
		}
		a.mu.Unlock()

		token, err := a.login(ctx, cfg)
		if err != nil {
			return "", err
		}

		a.mu.Lock()
		a.token = token
		a.mu.Unlock()

		a.logger.Debug().Msg("Obtained new session token")
		return token, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		a.logger.Trace().Msg("Login request shared with concurrent caller")
	}
	return v.(string), nil
}

// Logout drops the cached token. Idempotent; safe to call at any time.
func (a *Authenticator) Logout() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}
