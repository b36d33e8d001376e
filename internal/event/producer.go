package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Kafka topic constants for storefront events.
const (
	TopicVariantSelected = "storefront.variant.selected"
)

// Aggregate type constant.
const AggregateTypeProduct = "product"

// Source identifier for events originating from the storefront service.
const SourceStorefrontService = "storefront-service"

// VariantSelectedData is the payload of a variant.selected event.
type VariantSelectedData struct {
	ShopperID string `json:"shopper_id"`
	ViewID    string `json:"view_id"`
	Slug      string `json:"slug"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	SKU       string `json:"sku,omitempty"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Storage   string `json:"storage,omitempty"`
	RAM       string `json:"ram,omitempty"`
	Price     int64  `json:"price"`
	Reference int64  `json:"reference_price"`
	InStock   bool   `json:"in_stock"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka. A producer without
// a publisher drops events, which is how the service runs with Kafka
// disabled.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishVariantSelected publishes a variant.selected event keyed by slug.
func (p *Producer) PublishVariantSelected(ctx context.Context, data VariantSelectedData, correlationID string) error {
	if p.kafka == nil {
		return nil
	}

	event, err := pkgkafka.NewEvent(TopicVariantSelected, SourceStorefrontService, AggregateTypeProduct, data.Slug, data,
		pkgkafka.Correlated(correlationID),
		pkgkafka.Meta("shopper_id", data.ShopperID),
	)
	if err != nil {
		return fmt.Errorf("create variant.selected event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicVariantSelected, event); err != nil {
		return fmt.Errorf("publish variant.selected event: %w", err)
	}

	p.logger.DebugContext(ctx, "published variant.selected event",
		slog.String("slug", data.Slug),
		slog.String("variant_id", data.VariantID),
	)

	return nil
}
