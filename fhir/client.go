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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// Client fetches resource collections for a subject from the FHIR API.
// It owns the request pacer and shares it with its TokenProvider so the
// combined rate of resource and auth requests stays under the API limit.
type Client struct {
	cfg        *Config
	tokens     *TokenProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for resource requests and, unless
// overridden with WithTokenProvider, for token exchanges.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenProvider replaces the token provider constructed from the
// configuration. The provided instance keeps its own limiter settings.
func WithTokenProvider(tokens *TokenProvider) ClientOption {
	return func(c *Client) {
		if tokens != nil {
			c.tokens = tokens
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a FHIR client. Unless WithTokenProvider is given, a
// token provider is built from the same configuration and shares the
// client's limiter and HTTP client.
func NewClient(cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrConfig)
	}

	var limiter *rate.Limiter
	if cfg.MinRequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		sleep:      sleepContext,
		logger:     slog.Default().With("component", "fhir-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokens == nil {
		tokens, err := NewTokenProvider(cfg,
			WithTokenHTTPClient(c.httpClient),
			WithTokenLimiter(c.limiter),
			WithTokenLogger(c.logger.With("component", "token-provider")),
		)
		if err != nil {
			return nil, err
		}
		c.tokens = tokens
	}

	return c, nil
}

// TokenProvider exposes the provider used by this client.
func (c *Client) TokenProvider() *TokenProvider {
	return c.tokens
}

// FetchAll retrieves every page of a resource collection for one subject,
// in arrival order. extraParams are merged into the first page request; the
// subject filter and page size are always set. Paging follows the "next"
// link verbatim until no next link is returned; a malformed next link ends
// pagination instead of looping.
func (c *Client) FetchAll(ctx context.Context, resourceType, subjectID string, extraParams url.Values) ([]json.RawMessage, error) {
	params := url.Values{}
	for key, values := range extraParams {
		params[key] = values
	}
	params.Set("patient", subjectID)
	params.Set("_count", fmt.Sprintf("%d", c.cfg.PageSize))

	pageURL := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, resourceType, params.Encode())

	var entries []json.RawMessage
	page := 1
	for pageURL != "" {
		c.logger.Debug("fetching page", "resourceType", resourceType, "page", page)

		body, err := c.get(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		var bundle searchBundle
		if err := json.Unmarshal(body, &bundle); err != nil {
			return nil, fmt.Errorf("decoding %s bundle: %w", resourceType, err)
		}

		for _, entry := range bundle.Entry {
			if len(entry.Resource) > 0 {
				entries = append(entries, entry.Resource)
			}
		}

		next := bundle.nextURL()
		if next == "" {
			break
		}
		if _, err := url.ParseRequestURI(next); err != nil {
			c.logger.Warn("malformed next link, stopping pagination", "resourceType", resourceType, "url", next)
			break
		}
		pageURL = next
		page++
	}

	c.logger.Info("fetched resource collection",
		"resourceType", resourceType, "subject", subjectID, "entries", len(entries), "pages", page)
	return entries, nil
}

// get performs one authenticated GET with pacing and bounded 429 retry.
func (c *Client) get(ctx context.Context, requestURL string) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		token, err := c.tokens.Token(ctx, false)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/fhir+json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= c.cfg.MaxAttempts {
				return nil, &RemoteError{Status: resp.StatusCode, Body: string(body)}
			}
			c.logger.Warn("rate limited by remote api, backing off",
				"attempt", attempt, "backoff", c.cfg.RetryBackoff)
			if err := c.sleep(ctx, c.cfg.RetryBackoff); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &RemoteError{Status: resp.StatusCode, Body: string(body)}
		}

		return body, nil
	}
}

// Patient fetches the demographic resource by direct read.
func (c *Client) Patient(ctx context.Context, subjectID string) (*Patient, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/Patient/%s", c.cfg.BaseURL, url.PathEscape(subjectID)))
	if err != nil {
		return nil, err
	}
	var patient Patient
	if err := json.Unmarshal(body, &patient); err != nil {
		return nil, fmt.Errorf("decoding Patient resource: %w", err)
	}
	return &patient, nil
}

// Conditions fetches all Condition resources for a subject.
func (c *Client) Conditions(ctx context.Context, subjectID string) ([]Condition, error) {
	return decodeAll[Condition](ctx, c, "Condition", subjectID, nil)
}

// Medications fetches all MedicationRequest resources for a subject.
func (c *Client) Medications(ctx context.Context, subjectID string) ([]MedicationRequest, error) {
	return decodeAll[MedicationRequest](ctx, c, "MedicationRequest", subjectID, nil)
}

// Observations fetches all Observation resources for a subject, optionally
// filtered by category (e.g. "vital-signs", "laboratory").
func (c *Client) Observations(ctx context.Context, subjectID, category string) ([]Observation, error) {
	var params url.Values
	if category != "" {
		params = url.Values{"category": {category}}
	}
	return decodeAll[Observation](ctx, c, "Observation", subjectID, params)
}

// decodeAll fetches a collection and decodes every entry into T.
func decodeAll[T any](ctx context.Context, c *Client, resourceType, subjectID string, params url.Values) ([]T, error) {
	raws, err := c.FetchAll(ctx, resourceType, subjectID, params)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var resource T
		if err := json.Unmarshal(raw, &resource); err != nil {
			return nil, fmt.Errorf("decoding %s entry: %w", resourceType, err)
		}
		out = append(out, resource)
	}
	return out, nil
}

// FetchBundle assembles the full record set for one subject: demographic
// read first, then conditions, medications, and observations. Any failure
// aborts the whole bundle so the pipeline never indexes a partial record
// set.
func (c *Client) FetchBundle(ctx context.Context, subjectID string) (*PatientBundle, error) {
	patient, err := c.Patient(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch patient %s: %w", subjectID, err)
	}

	conditions, err := c.Conditions(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch conditions for %s: %w", subjectID, err)
	}

	medications, err := c.Medications(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch medications for %s: %w", subjectID, err)
	}

	observations, err := c.Observations(ctx, subjectID, "")
	if err != nil {
		return nil, fmt.Errorf("fetch observations for %s: %w", subjectID, err)
	}

	return &PatientBundle{
		SubjectID:    subjectID,
		Patient:      patient,
		Conditions:   conditions,
		Medications:  medications,
		Observations: observations,
	}, nil
}

// sleepContext waits for d or until the context is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
