package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaller(maxRetries int) (*Caller, *[]time.Duration) {
	c := NewCaller(CallerOptions{
		APIKey:     "test-key",
		MaxRetries: maxRetries,
		BaseDelay:  time.Second,
		Jitter:     0,
	})
	var slept []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestPostJSONRetriesOn429(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, slept := newTestCaller(3)
	raw, err := c.PostJSON(context.Background(), "test", srv.URL, map[string]string{"prompt": "x"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, 3, hits)

	// Backoff delays must grow strictly between attempts.
	require.Len(t, *slept, 2)
	assert.Equal(t, time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])
}

func TestPostJSONRateLimitExhausted(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, slept := newTestCaller(3)
	_, err := c.PostJSON(context.Background(), "test", srv.URL, nil)

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 3, rateErr.Attempts)
	assert.Equal(t, 3, hits)
	assert.Len(t, *slept, 2)
}

func TestPostJSONNoRetryOnOtherErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c, slept := newTestCaller(3)
	_, err := c.PostJSON(context.Background(), "test", srv.URL, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream exploded", httpErr.Body)
	assert.Equal(t, 1, hits, "non-429 errors must not be retried")
	assert.Empty(t, *slept)
}

func TestPostJSONParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	c, _ := newTestCaller(3)
	_, err := c.PostJSON(context.Background(), "test", srv.URL, nil)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestPostJSONSendsCredentialHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestCaller(1)
	_, err := c.PostJSON(context.Background(), "test", srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestPostJSONBackoffAbortsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCaller(CallerOptions{MaxRetries: 3, BaseDelay: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.PostJSON(ctx, "test", srv.URL, nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second, "backoff must not outlive the context")
}
