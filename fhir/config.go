// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fhir

import (
	"fmt"
	"strings"
	"time"
)

// Config holds configuration for the FHIR client and token provider.
type Config struct {
	// ClientID is the registered backend-services client identifier.
	// Used as both the iss and sub claims of the signed assertion.
	ClientID string

	// TokenURL is the OAuth2 token endpoint. It is also the aud claim of
	// the signed assertion.
	TokenURL string

	// KeyID is the key identifier (kid) embedded in the assertion header.
	// It must match a key published in the client's JWKS registration.
	KeyID string

	// PrivateKeyPath is the location of the PEM-encoded RSA private key
	// used to sign assertions. Ignored when PrivateKeyPEM is set.
	PrivateKeyPath string

	// PrivateKeyPEM is the PEM-encoded RSA private key material itself.
	// Takes precedence over PrivateKeyPath.
	PrivateKeyPEM []byte

	// BaseURL is the FHIR resource API base URL, without a trailing slash.
	BaseURL string

	// PageSize is the _count search parameter sent on the first page
	// request. Default: 50
	PageSize int

	// MinRequestInterval is the minimum spacing between outbound requests,
	// token exchanges included. Default: 100ms (at most 10 req/s)
	MinRequestInterval time.Duration

	// RetryBackoff is the wait before retrying a request answered with
	// HTTP 429. Default: 2s
	RetryBackoff time.Duration

	// MaxAttempts bounds the number of tries for one request under
	// sustained 429 responses. Default: 5
	MaxAttempts int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithClientID sets the backend-services client identifier.
func WithClientID(id string) ConfigOption {
	return func(c *Config) {
		c.ClientID = id
	}
}

// WithTokenURL sets the token endpoint URL.
func WithTokenURL(url string) ConfigOption {
	return func(c *Config) {
		c.TokenURL = url
	}
}

// WithKeyID sets the signing key identifier.
func WithKeyID(kid string) ConfigOption {
	return func(c *Config) {
		c.KeyID = kid
	}
}

// WithPrivateKeyPath sets the path to the PEM-encoded signing key.
func WithPrivateKeyPath(path string) ConfigOption {
	return func(c *Config) {
		c.PrivateKeyPath = path
	}
}

// WithPrivateKeyPEM sets the PEM-encoded signing key material directly.
func WithPrivateKeyPEM(pem []byte) ConfigOption {
	return func(c *Config) {
		c.PrivateKeyPEM = pem
	}
}

// WithBaseURL sets the resource API base URL.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithPageSize sets the page size requested from the resource API.
func WithPageSize(size int) ConfigOption {
	return func(c *Config) {
		c.PageSize = size
	}
}

// WithMinRequestInterval sets the minimum spacing between outbound requests.
func WithMinRequestInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.MinRequestInterval = interval
	}
}

// WithRetryBackoff sets the wait between retries of a throttled request.
func WithRetryBackoff(backoff time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryBackoff = backoff
	}
}

// WithMaxAttempts bounds retries of a request under sustained throttling.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(c *Config) {
		c.MaxAttempts = attempts
	}
}

// DefaultConfig returns a Config with the defaults every deployment shares.
// Identity fields (client ID, URLs, key material) have no defaults and must
// be supplied through options or struct literals.
func DefaultConfig() *Config {
	return &Config{
		PageSize:           50,
		MinRequestInterval: 100 * time.Millisecond,
		RetryBackoff:       2 * time.Second,
		MaxAttempts:        5,
	}
}

// NewConfig creates a Config with default values and applies the provided
// options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in canonical form.
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
}

// Validate checks that the authentication configuration is complete. It
// normalizes the configuration first. BaseURL is checked by NewClient, not
// here, so a standalone TokenProvider needs no resource API endpoint.
func (c *Config) Validate() error {
	c.Normalize()

	if c.ClientID == "" {
		return fmt.Errorf("%w: ClientID is required", ErrConfig)
	}
	if c.TokenURL == "" {
		return fmt.Errorf("%w: TokenURL is required", ErrConfig)
	}
	if c.KeyID == "" {
		return fmt.Errorf("%w: KeyID is required", ErrConfig)
	}
	if len(c.PrivateKeyPEM) == 0 && c.PrivateKeyPath == "" {
		return fmt.Errorf("%w: private key material is required (PrivateKeyPEM or PrivateKeyPath)", ErrConfig)
	}
	return nil
}
