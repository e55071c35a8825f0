package nflverse

import (
	"net/http"
	"time"

	"github.com/okian/gridiron/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithReleaseURL sets the base URL of the nflverse-data releases.
func WithReleaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.releaseURL = u
		}
	}
}

// WithGamesURL sets the URL of the schedule and results CSV.
func WithGamesURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.gamesURL = u
		}
	}
}

// WithRetry sets the attempt count and the initial backoff, which doubles
// after each failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
