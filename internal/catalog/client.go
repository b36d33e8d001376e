// Package catalog talks to the product catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const (
	serviceName  = "catalog"
	maxBodyBytes = 4 << 20
)

// ErrRejected is returned when the catalog answers 2xx with success=false
// or without a product.
var ErrRejected = errors.New("catalog rejected the request")

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback turns an open catalog breaker into a 503 instead of
// letting gobreaker's error propagate.
func CircuitOpenFallback(_ context.Context, err error) (*http.Response, error) {
	appErr := apperrors.ServiceUnavailable("catalog service is temporarily unavailable")
	appErr.Err = fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err)
	return nil, appErr
}

// productEnvelope is the catalog's response body.
type productEnvelope struct {
	Success bool            `json:"success"`
	Data    *domain.Product `json:"data"`
	Message string          `json:"message,omitempty"`
}

// Client fetches products from the catalog service.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewClient creates a catalog client rooted at baseURL.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		tracer:  otel.Tracer("github.com/utafrali/storefront/internal/catalog"),
	}
}

// ProductURL builds the catalog URL of a product, keyed by variant when
// variantID is not empty.
func (c *Client) ProductURL(slug, variantID string) string {
	u := c.baseURL + "/products/slug/" + url.PathEscape(slug)
	if variantID != "" {
		u += "?" + url.Values{"variantId": {variantID}}.Encode()
	}
	return u
}

// FetchProduct loads a product by slug. With a variant id the catalog merges
// that variant's price, title, description and images into the product and
// returns it as selectedVariant.
func (c *Client) FetchProduct(ctx context.Context, slug, variantID string) (*domain.Product, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.FetchProduct",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("product.slug", slug),
			attribute.String("product.variant_id", variantID),
		),
	)
	defer span.End()

	product, err := c.fetch(ctx, slug, variantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("product.variants", len(product.Variants)))
	return product, nil
}

func (c *Client) fetch(ctx context.Context, slug, variantID string) (*domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProductURL(slug, variantID), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	var env productEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	if !env.Success || env.Data == nil {
		msg := env.Message
		if msg == "" {
			msg = "no product in response"
		}
		return nil, apperrors.BadGateway("CATALOG_REJECTED", fmt.Sprintf("catalog: %s", msg), ErrRejected)
	}

	c.logger.DebugContext(ctx, "catalog product fetched",
		slog.String("slug", slug),
		slog.String("variant_id", variantID),
		slog.Int("variants", len(env.Data.Variants)),
	)

	return env.Data, nil
}
