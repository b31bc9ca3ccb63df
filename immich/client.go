package immich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRetryBackoff is the fixed wait between media fetch attempts.
const DefaultRetryBackoff = 500 * time.Millisecond

// Client talks to an Immich server. Connection details are resolved from
// the credential store on every call, so settings edits take effect without
// rebuilding the client. The transport keeps no cookies and no cache.
type Client struct {
	store        CredentialStore
	auth         *Authenticator
	httpClient   *http.Client
	logger       zerolog.Logger
	retryBackoff time.Duration
}

// NewClient creates a new Immich client backed by store.
func NewClient(store CredentialStore, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		store:        store,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		retryBackoff: DefaultRetryBackoff,
	}
	c.auth = NewAuthenticator(c.performLogin, logger)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticator exposes the session token owner, mainly for logout flows.
func (c *Client) Authenticator() *Authenticator {
	return c.auth
}

// buildURL joins the configured base URL with path and query. A base URL
// that does not parse into scheme+host fails with ErrBadURL before any
// network I/O happens.
func (c *Client) buildURL(cfg ConnConfig, path string, query url.Values) (*url.URL, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ErrBadURL
	}

	u := base.JoinPath(path)
	u.RawQuery = query.Encode()
	return u, nil
}

// do dispatches one request and classifies the response. 401 maps to
// ErrUnauthorized, any other status >= 400 to StatusError; transport
// failures surface as ErrBadResponse.
func (c *Client) do(ctx context.Context, method string, u *url.URL, headers map[string]string, jsonBody any) ([]byte, error) {
	var body io.Reader
	if jsonBody != nil {
		payload, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, ErrUnknown
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, ErrBadURL
	}

	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return data, nil
}

// authHeaders derives the per-call auth headers. Derived fresh every call;
// the client itself never caches credentials.
func (c *Client) authHeaders(ctx context.Context, cfg ConnConfig) (map[string]string, error) {
	switch cfg.Method {
	case AuthAPIKey:
		return map[string]string{"x-api-key": cfg.APIKey}, nil
	case AuthEmailAndPassword:
		token, err := c.auth.Login(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return map[string]string{"x-immich-session-token": token}, nil
	}
	return nil, ErrMissingConfig
}

// authQuery derives the query-parameter form of the auth material, used for
// URLs handed to external players that cannot attach headers.
func (c *Client) authQuery(ctx context.Context, cfg ConnConfig) (url.Values, error) {
	switch cfg.Method {
	case AuthAPIKey:
		return url.Values{"apiKey": {cfg.APIKey}}, nil
	case AuthEmailAndPassword:
		token, err := c.auth.Login(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return url.Values{"sessionKey": {token}}, nil
	}
	return nil, ErrMissingConfig
}

// fetchOnce performs a single authenticated GET with freshly resolved
// config and headers.
func (c *Client) fetchOnce(ctx context.Context, path string, query url.Values) ([]byte, error) {
	cfg, err := ResolveConfig(c.store)
	if err != nil {
		return nil, err
	}

	headers, err := c.authHeaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	u, err := c.buildURL(cfg, path, query)
	if err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodGet, u, headers, nil)
}

// fetchRaw performs an authenticated GET. On a 401 it drops the cached
// session token and retries exactly once with fresh auth; a second 401
// propagates as ErrUnauthorized.
func (c *Client) fetchRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	data, err := c.fetchOnce(ctx, path, query)
	if errors.Is(err, ErrUnauthorized) {
		c.logger.Debug().Str("path", path).Msg("Got 401, re-authenticating and retrying once")
		c.auth.Logout()
		return c.fetchOnce(ctx, path, query)
	}
	return data, err
}

// FetchObject GETs path and decodes the JSON body into out.
func (c *Client) FetchObject(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.fetchRaw(ctx, path, query)
	if err != nil {
		return err
	}
	return decodeJSON(data, out)
}

// FetchMedia GETs path and returns the raw body bytes.
func (c *Client) FetchMedia(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.fetchRaw(ctx, path, query)
}

// FetchMediaWithRetries attempts FetchMedia up to attempts times with a
// fixed backoff between tries. The final failure is returned as-is. All
// error kinds retry alike: a transient proxy hiccup and a transient decode
// corruption are both worth another try, and the attempt bound stops
// persistent failures from retrying forever.
func (c *Client) FetchMediaWithRetries(ctx context.Context, path string, query url.Values, attempts int) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		data, err := c.FetchMedia(ctx, path, query)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		c.logger.Debug().
			Err(err).
			Str("path", path).
			Int("attempt", attempt).
			Msg("Media fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryBackoff):
		}
	}

	return nil, lastErr
}

// PlaybackURL resolves a fully qualified URL with the auth material
// embedded as query parameters, for handoff to an external player.
//
// There is no 401 retry here: this is only called after an authenticated
// call already succeeded in the session, so a stale token is exceptional.
func (c *Client) PlaybackURL(ctx context.Context, path string) (*url.URL, error) {
	cfg, err := ResolveConfig(c.store)
	if err != nil {
		return nil, err
	}

	query, err := c.authQuery(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return c.buildURL(cfg, path, query)
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// performLogin is the network half of the authenticator.
func (c *Client) performLogin(ctx context.Context, cfg ConnConfig) (string, error) {
	u, err := c.buildURL(cfg, "/api/auth/login", nil)
	if err != nil {
		return "", err
	}

	payload := map[string]string{"email": cfg.Email, "password": cfg.Password}
	data, err := c.do(ctx, http.MethodPost, u, nil, payload)
	if err != nil {
		return "", err
	}

	var resp loginResponse
	if err := decodeJSON(data, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// decodeJSON unmarshals data into out, mapping structural failures to
// DecodeError with enough field-level detail to diagnose schema drift.
func decodeJSON(data []byte, out any) error {
	err := json.Unmarshal(data, out)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{
			Field:  typeErr.Field,
			Detail: fmt.Sprintf("cannot decode %s into %s", typeErr.Value, typeErr.Type),
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{
			Detail: fmt.Sprintf("invalid json at offset %d: %v", syntaxErr.Offset, syntaxErr),
		}
	}

	return &DecodeError{Detail: err.Error()}
}
