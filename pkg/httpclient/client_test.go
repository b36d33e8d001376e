package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

func fastConfig(retries int) Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxRetries:      retries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 10,
	}
}

func get(t *testing.T, ctx context.Context, d interface {
	Do(context.Context, *http.Request) (*http.Response, error)
}, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	return d.Do(ctx, req)
}

// statusSequence answers with each status in turn, then repeats the last.
func statusSequence(hits *atomic.Int32, statuses ...int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
	}))
}

func TestDo_ForwardsCorrelationIDAndUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-1", r.Header.Get(CorrelationHeader))
		assert.Equal(t, "storefront-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := fastConfig(0)
	cfg.UserAgent = "storefront-test"
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	resp, err := get(t, ctx, New(cfg), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDo_Retries(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		statuses     []int
		wantStatus   int
		wantAttempts int32
	}{
		{"recovers after 5xx", 3, []int{503, 502, 200}, 200, 3},
		{"gives up with last response", 1, []int{500}, 500, 2},
		{"client error not retried", 3, []int{404, 200}, 404, 1},
		{"501 not retried", 3, []int{501, 200}, 501, 1},
		{"no retries configured", 0, []int{503, 200}, 503, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := statusSequence(&hits, tt.statuses...)
			defer server.Close()

			resp, err := get(t, context.Background(), New(fastConfig(tt.retries)), server.URL)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantAttempts, hits.Load())
		})
	}
}

func TestDo_CancelledDuringBackoff(t *testing.T) {
	var hits atomic.Int32
	server := statusSequence(&hits, http.StatusServiceUnavailable)
	defer server.Close()

	cfg := fastConfig(10)
	cfg.RetryWaitMin = 200 * time.Millisecond
	cfg.RetryWaitMax = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := get(t, ctx, New(cfg), server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load())
}

func TestBackoff_Capped(t *testing.T) {
	c := New(Config{RetryWaitMin: 100 * time.Millisecond, RetryWaitMax: time.Second})

	assert.Equal(t, 100*time.Millisecond, c.backoff(1))
	assert.Equal(t, 400*time.Millisecond, c.backoff(3))
	assert.Equal(t, time.Second, c.backoff(5))
	assert.Equal(t, time.Second, c.backoff(70))
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
	assert.False(t, isRetryableError(io.EOF))
}
