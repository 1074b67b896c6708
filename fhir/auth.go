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
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// assertionType is the client_assertion_type URI for JWT bearer
	// assertions (RFC 7523).
	assertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// assertionLifetime is the exp-iat window of a signed assertion.
	assertionLifetime = 5 * time.Minute

	// refreshMargin triggers a refresh before the cached token actually
	// expires, so in-flight requests never present an expired token.
	refreshMargin = 5 * time.Minute

	// defaultTokenLifetime applies when the token response omits
	// expires_in.
	defaultTokenLifetime = 3600 * time.Second
)

// TokenProvider obtains and caches bearer tokens for the resource API using
// the client-credentials grant with a signed RS384 assertion.
//
// The cached token is reused until refreshMargin before its expiry. Refresh
// runs under a mutex so concurrent callers never trigger duplicate
// exchanges.
type TokenProvider struct {
	cfg        *Config
	key        *rsa.PrivateKey
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
	logger     *slog.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// TokenOption configures a TokenProvider.
type TokenOption func(*TokenProvider)

// WithTokenHTTPClient sets the HTTP client used for the exchange.
func WithTokenHTTPClient(client *http.Client) TokenOption {
	return func(p *TokenProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithTokenClock sets the time source. Tests inject a fake clock here.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(p *TokenProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTokenLimiter makes token exchanges share a request pacer with the
// resource client, for APIs that count auth calls against the same limit.
func WithTokenLimiter(limiter *rate.Limiter) TokenOption {
	return func(p *TokenProvider) {
		p.limiter = limiter
	}
}

// WithTokenLogger sets a custom logger.
func WithTokenLogger(logger *slog.Logger) TokenOption {
	return func(p *TokenProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewTokenProvider creates a token provider from the configuration. The
// signing key is loaded and parsed eagerly so a bad key fails construction,
// not the first ingestion.
func NewTokenProvider(cfg *Config, opts ...TokenOption) (*TokenProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pemBytes := cfg.PrivateKeyPEM
	if len(pemBytes) == 0 {
		var err error
		pemBytes, err = os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: reading private key %s: %v", ErrConfig, cfg.PrivateKeyPath, err)
		}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing private key: %v", ErrConfig, err)
	}

	p := &TokenProvider{
		cfg:        cfg,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		logger:     slog.Default().With("component", "token-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Token returns a bearer token for the resource API. The cached token is
// returned while it has more than refreshMargin of lifetime left; otherwise
// a new exchange runs. forceRefresh bypasses the cache unconditionally.
func (p *TokenProvider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !forceRefresh && p.token != "" && p.now().Before(p.expiry.Add(-refreshMargin)) {
		p.logger.Debug("using cached access token")
		return p.token, nil
	}
	return p.refreshLocked(ctx)
}

// refreshLocked exchanges a fresh assertion for a token. Callers must hold
// p.mu.
func (p *TokenProvider) refreshLocked(ctx context.Context) (string, error) {
	p.logger.Info("requesting new access token")

	assertion, err := p.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_assertion_type": {assertionType},
		"client_assertion":      {assertion},
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading token response: %v", ErrAuth, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned status %d: %s", ErrAuth, resp.StatusCode, body)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrAuth, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access_token", ErrAuth)
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}

	p.token = tr.AccessToken
	p.expiry = p.now().Add(lifetime)
	p.logger.Info("obtained access token", "expires_in", lifetime)

	return p.token, nil
}

// signAssertion builds and signs the per-request JWT assertion. iss and sub
// are the client ID, aud is the token endpoint, and jti is unique per
// assertion.
func (p *TokenProvider) signAssertion() (string, error) {
	now := p.now()
	claims := jwt.RegisteredClaims{
		Issuer:    p.cfg.ClientID,
		Subject:   p.cfg.ClientID,
		Audience:  jwt.ClaimStrings{p.cfg.TokenURL},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS384, claims)
	token.Header["kid"] = p.cfg.KeyID

	signed, err := token.SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("%w: signing assertion: %v", ErrAuth, err)
	}
	return signed, nil
}
