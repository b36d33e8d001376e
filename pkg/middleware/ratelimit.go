package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one token bucket per client key and forgets idle ones.
type buckets struct {
	mu      sync.Mutex
	byKey   map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	nowFunc func() time.Time
}

func newBuckets(rps float64, burst int, idle time.Duration) *buckets {
	return &buckets{
		byKey:   make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		nowFunc: time.Now,
	}
}

func (b *buckets) allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byKey[key] = bk
	}
	bk.lastSeen = now
	return bk.limiter.AllowN(now, 1)
}

func (b *buckets) evictIdle() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	for key, bk := range b.byKey {
		if now.Sub(bk.lastSeen) > b.idle {
			delete(b.byKey, key)
		}
	}
}

func (b *buckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byKey)
}

// retryAfter is the whole seconds until one token is back.
func (b *buckets) retryAfter() string {
	secs := 1.0
	if b.limit > 0 {
		secs = math.Max(1, math.Ceil(1/float64(b.limit)))
	}
	return strconv.Itoa(int(secs))
}

// RateLimit returns middleware enforcing a token bucket of rps requests per
// second with the given burst. Known shoppers get a bucket each; anonymous
// traffic is bucketed by client IP. Mount it after RequestLogger. Idle
// buckets are evicted until ctx is done.
func RateLimit(ctx context.Context, rps float64, burst int, l *slog.Logger) func(http.Handler) http.Handler {
	const idle = 3 * time.Minute
	b := newBuckets(rps, burst, idle)
	go func() {
		ticker := time.NewTicker(idle)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.evictIdle()
			}
		}
	}()
	return rateLimit(b, l)
}

func rateLimit(b *buckets, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if b.allow(key) {
				next.ServeHTTP(w, r)
				return
			}

			l.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client", key),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", b.retryAfter())
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "RATE_LIMITED",
					Message:   "too many requests",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
		})
	}
}

func clientKey(r *http.Request) string {
	if id := logger.ShopperIDFromContext(r.Context()); id != "" {
		return "shopper:" + id
	}
	return "ip:" + ClientIP(r)
}

// ClientIP extracts the client IP from X-Forwarded-For, X-Real-IP or the
// remote address, in that order.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
