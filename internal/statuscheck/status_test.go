package statuscheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryWithoutKey(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:0"})

	s := c.Summary(context.Background())

	assert.False(t, s.Config.OK)
	assert.Equal(t, "API key missing", s.Config.Message)
	assert.False(t, s.Upstream.OK)
}

func TestSummaryUpstreamAvailable(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Write([]byte(`{"models": []}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, APIKey: "key"})
	s := c.Summary(context.Background())

	assert.True(t, s.Config.OK)
	assert.True(t, s.Upstream.OK)
	assert.Equal(t, "key", gotKey)
}

func TestSummaryUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, APIKey: "key"})
	s := c.Summary(context.Background())

	assert.True(t, s.Config.OK)
	assert.False(t, s.Upstream.OK)
	assert.Equal(t, "HTTP 403", s.Upstream.Message)
}
