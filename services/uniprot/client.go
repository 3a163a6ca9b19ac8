// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package uniprot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JunyiZhou-Conny/AlphaFold-Bou-Nader-Lab/services/resolver"
)

const (
	// DefaultBaseURL is the public UniProt REST root.
	DefaultBaseURL = "https://rest.uniprot.org"

	// DefaultMaxRetries is the retry ceiling per physical query, applied
	// independently to rate-limit and transient failures.
	DefaultMaxRetries = 3

	// DefaultTimeout is the independent timeout of one physical call.
	DefaultTimeout = 30 * time.Second

	// defaultRetryAfter is used when a 429 carries no Retry-After header.
	defaultRetryAfter = 60 * time.Second

	// searchFields is the field list requested from the search endpoint.
	searchFields = "accession,id,gene_names,protein_name,organism_name,sequence,reviewed"
)

// Client talks to the UniProt REST API.
//
// Description:
//
//	Stateless across calls apart from shared configuration; a single Client
//	may be shared by concurrent resolutions because the pacing gate
//	(resolver.Throttle) is itself concurrency-safe.
//
// Thread Safety: Safe for concurrent use after construction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	throttle   *resolver.Throttle
	logger     *slog.Logger

	// backoffBase seeds the exponential backoff for transient failures.
	// Overridable so tests don't sleep for real.
	backoffBase time.Duration

	// sleep is time-based waiting, injected for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used by tests and mirrors).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithMaxRetries sets the retry ceiling per physical query.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout sets the independent per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithThrottle attaches the shared pacing gate. A nil throttle disables
// pacing (tests).
func WithThrottle(t *resolver.Throttle) Option {
	return func(c *Client) { c.throttle = t }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// withBackoffBase shortens the transient-failure backoff in tests.
func withBackoffBase(d time.Duration) Option {
	return func(c *Client) { c.backoffBase = d }
}

// NewClient builds a UniProt client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     DefaultBaseURL,
		maxRetries:  DefaultMaxRetries,
		logger:      slog.Default(),
		backoffBase: time.Second,
	}
	c.sleep = sleepCtx
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search implements resolver.SearchTransport against /uniprotkb/search.
//
// Description:
//
//	One logical query maps to at most 1+maxRetries physical calls. A 429
//	response sleeps for the server-advertised Retry-After (60s when absent)
//	and retries the identical query; transient network failures and 5xx
//	responses retry with exponential backoff. Exceeding the ceiling yields a
//	*resolver.Failure of kind RateLimited or TransportError respectively.
//	Non-retryable statuses (4xx other than 429) fail immediately.
//
// Outputs:
//   - []resolver.CandidateRecord: Parsed candidates; empty when the query
//     matched nothing.
//   - error: A *resolver.Failure on transport exhaustion or bad responses.
func (c *Client) Search(ctx context.Context, query string, size int) ([]resolver.CandidateRecord, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("fields", searchFields)
	params.Set("format", "json")
	params.Set("size", strconv.Itoa(size))
	endpoint := c.baseURL + "/uniprotkb/search?" + params.Encode()

	body, err := c.getWithRetry(ctx, "search", endpoint)
	if err != nil {
		return nil, err
	}
	records, err := parseSearchResponse(body)
	if err != nil {
		return nil, resolver.NewFailure(resolver.KindTransportError,
			fmt.Errorf("uniprot: parsing search response: %w", err))
	}
	return records, nil
}

// FetchSequence retrieves the amino-acid sequence for one accession via
// /uniprotkb/{accession}, with the same throttle and retry discipline as
// Search.
func (c *Client) FetchSequence(ctx context.Context, accession string) (string, error) {
	params := url.Values{}
	params.Set("fields", "sequence")
	params.Set("format", "json")
	endpoint := c.baseURL + "/uniprotkb/" + url.PathEscape(accession) + "?" + params.Encode()

	body, err := c.getWithRetry(ctx, "fetch_sequence", endpoint)
	if err != nil {
		return "", err
	}
	seq, err := parseSequenceResponse(body)
	if err != nil {
		return "", resolver.NewFailure(resolver.KindTransportError,
			fmt.Errorf("uniprot: parsing entry %s: %w", accession, err))
	}
	return seq, nil
}

// getWithRetry performs one logical GET as a bounded retry loop.
//
// The original tool retried rate limits by self-recursion with no depth
// bound; this is the same behavior re-expressed as an explicit loop with an
// attempt counter.
func (c *Client) getWithRetry(ctx context.Context, operation, endpoint string) ([]byte, error) {
	var lastErr error
	rateLimited := false

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.throttle.Wait(ctx); err != nil {
			return nil, resolver.NewFailure(resolver.KindTransportError,
				fmt.Errorf("uniprot: throttle wait: %w", err))
		}

		body, status, retryAfter, err := c.do(ctx, operation, endpoint)
		switch {
		case err != nil:
			// Network failure or per-call timeout.
			lastErr = err
			rateLimited = false
			if ctx.Err() != nil {
				return nil, resolver.NewFailure(resolver.KindTransportError, ctx.Err())
			}
			recordRetry(operation, "network")
			if serr := c.sleep(ctx, c.backoff(attempt)); serr != nil {
				return nil, resolver.NewFailure(resolver.KindTransportError, serr)
			}

		case status == http.StatusOK:
			return body, nil

		case status == http.StatusTooManyRequests:
			wait := retryAfterOf(retryAfter)
			lastErr = fmt.Errorf("uniprot: server rate limit (429), advertised wait %v", wait)
			rateLimited = true
			c.logger.Warn("rate limit hit, waiting",
				slog.String("operation", operation),
				slog.Duration("retry_after", wait),
				slog.Int("attempt", attempt+1),
			)
			recordRetry(operation, "rate_limit")
			if serr := c.sleep(ctx, wait); serr != nil {
				return nil, resolver.NewFailure(resolver.KindRateLimited, serr)
			}

		case status >= 500:
			lastErr = fmt.Errorf("uniprot: server error (status %d)", status)
			rateLimited = false
			recordRetry(operation, "server_error")
			if serr := c.sleep(ctx, c.backoff(attempt)); serr != nil {
				return nil, resolver.NewFailure(resolver.KindTransportError, serr)
			}

		default:
			// Client errors other than 429 will not improve on retry.
			return nil, resolver.NewFailure(resolver.KindTransportError,
				fmt.Errorf("uniprot: unexpected status %d for %s", status, operation))
		}
	}

	kind := resolver.KindTransportError
	if rateLimited {
		kind = resolver.KindRateLimited
	}
	return nil, resolver.NewFailure(kind,
		fmt.Errorf("uniprot: retry ceiling (%d) exceeded: %w", c.maxRetries, lastErr))
}

// do performs one physical call and returns the body, status, and the raw
// Retry-After header (empty when absent). All state stays on the stack so a
// single Client can serve concurrent logical queries.
func (c *Client) do(ctx context.Context, operation, endpoint string) ([]byte, int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("uniprot: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		recordRequest(operation, "error", duration)
		return nil, 0, "", fmt.Errorf("uniprot: %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	retryAfter := resp.Header.Get("Retry-After")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		recordRequest(operation, "error", duration)
		return nil, resp.StatusCode, retryAfter, fmt.Errorf("uniprot: reading %s response: %w", operation, err)
	}
	recordRequest(operation, strconv.Itoa(resp.StatusCode), duration)
	return body, resp.StatusCode, retryAfter, nil
}

// backoff returns the exponential delay for the given attempt number.
func (c *Client) backoff(attempt int) time.Duration {
	return c.backoffBase * time.Duration(1<<attempt)
}

// retryAfterOf parses a Retry-After header value in seconds, defaulting to
// 60s when absent or malformed.
func retryAfterOf(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
