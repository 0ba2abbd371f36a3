package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	mpkg "github.com/local/logoproxy/internal/metrics"
)

// Caller issues JSON POST requests to the generative API and retries
// rate-limited attempts with exponential backoff. Attempts are strictly
// sequential; a Caller holds no per-request state and is safe for
// concurrent use.
type Caller struct {
	http       *http.Client
	apiKey     string
	maxRetries int
	baseDelay  time.Duration
	jitter     time.Duration

	// sleep is replaceable in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// CallerOptions configures a Caller. Zero values fall back to defaults.
type CallerOptions struct {
	APIKey     string
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     time.Duration
	Timeout    time.Duration
}

func NewCaller(opts CallerOptions) *Caller {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Jitter < 0 {
		opts.Jitter = 0
	}
	return &Caller{
		http:       &http.Client{Timeout: opts.Timeout},
		apiKey:     opts.APIKey,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		jitter:     opts.Jitter,
		sleep:      sleepCtx,
	}
}

// PostJSON sends payload to url, retrying on 429 with exponential delay plus
// jitter. It performs at most maxRetries round-trips. Any other non-2xx
// status fails immediately with *HTTPError; a 2xx body that is not valid
// JSON fails with *ParseError.
func (c *Caller) PostJSON(ctx context.Context, variant, url string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream payload: %w", err)
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		raw, retry, err := c.doOnce(ctx, variant, url, body)
		if err == nil {
			return raw, nil
		}
		if !retry || attempt == c.maxRetries-1 {
			if retry {
				// Last attempt was still rate limited.
				return nil, &RateLimitError{Attempts: c.maxRetries}
			}
			return nil, err
		}

		delay := c.baseDelay * (1 << attempt)
		if c.jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(c.jitter)))
		}
		mpkg.IncRetry(variant)
		log.Warn().
			Str("variant", variant).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("upstream rate limited, backing off")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &RateLimitError{Attempts: c.maxRetries}
}

// doOnce performs one round-trip. retry is true only for a 429 answer.
func (c *Caller) doOnce(ctx context.Context, variant, url string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	dur := time.Since(start)
	if err != nil {
		mpkg.ObserveUpstream(variant, "transport_error", dur)
		return nil, false, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		mpkg.ObserveUpstream(variant, "rate_limited", dur)
		return nil, true, &RateLimitError{Attempts: 1}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		mpkg.ObserveUpstream(variant, "http_error", dur)
		return nil, false, &HTTPError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		mpkg.ObserveUpstream(variant, "transport_error", dur)
		return nil, false, fmt.Errorf("read upstream response: %w", err)
	}

	var raw json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		mpkg.ObserveUpstream(variant, "parse_error", dur)
		return nil, false, &ParseError{Cause: err}
	}

	mpkg.ObserveUpstream(variant, "success", dur)
	return raw, false, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
