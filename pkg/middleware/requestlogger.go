package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/storefront/pkg/logger"
)

// ShopperIDHeader carries the shopper identity set by the gateway.
const ShopperIDHeader = "X-Shopper-ID"

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, shopper_id, trace_id and span_id, then stores it in
// context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging (which sets correlation_id) and Tracing
// (which sets the span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if shopperID := strings.TrimSpace(r.Header.Get(ShopperIDHeader)); shopperID != "" {
				ctx = logger.WithShopperID(ctx, shopperID)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
