package immich

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryBackoff sets the delay between media fetch attempts.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(c *Client) {
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}
