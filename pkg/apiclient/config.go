package apiclient

import (
	"net/url"
	"time"
)

// DefaultTimeout bounds every request issued by the client.
const DefaultTimeout = 10 * time.Second

// Config represents the configuration for the storefront API client
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api/v1
	BaseURL string

	// Timeout for a single request; zero means DefaultTimeout
	Timeout time.Duration

	UserAgent string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
