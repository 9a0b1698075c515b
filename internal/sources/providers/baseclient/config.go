// Package baseclient holds what every provider client shares: its
// configuration, transport construction and text normalisation helpers.
package baseclient

import (
	"net/http"
	"strings"

	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/errors"
)

// Config configures one provider client.
type Config struct {
	// APIKey is the provider credential, or the OAuth client ID for IGDB.
	APIKey string
	// Secret is the OAuth client secret, where the provider needs one.
	Secret string

	// BaseURL overrides the provider's API root.
	BaseURL string
	// AuthURL overrides the provider's token endpoint.
	AuthURL string

	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client
	// RequestsPerSecond paces raw HTTP requests. Zero uses the transport default,
	// a negative value disables pacing.
	RequestsPerSecond float64
}

// BaseURLOr returns the configured base URL or def, without a trailing slash.
func (c Config) BaseURLOr(def string) string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return def
}

// AuthURLOr returns the configured token endpoint or def.
func (c Config) AuthURLOr(def string) string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return def
}

// Transport builds the transport client for provider from this config.
func (c Config) Transport(provider string, opts ...transport.Option) *transport.Client {
	base := []transport.Option{transport.WithHTTPClient(c.HTTPClient)}
	if c.RequestsPerSecond != 0 {
		base = append(base, transport.WithRateLimit(c.RequestsPerSecond))
	}
	return transport.New(provider, append(base, opts...)...)
}

// RequireAPIKey returns a configuration error when a required credential is missing.
func RequireAPIKey(provider, envVar, value string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	return &errors.ConfigError{
		Component: provider,
		Message:   envVar + " is not set",
		Err:       errors.ErrAPIKeyRequired,
	}
}
