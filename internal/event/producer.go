package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/domain"
	pkgkafka "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/kafka"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/logger"
)

// TopicCartUpdated carries a snapshot of the cart after every committed change.
var TopicCartUpdated = pkgkafka.Topic("cart", "updated")

// AggregateTypeCart is the aggregate type on every cart event.
const AggregateTypeCart = "cart"

// SourceCartService identifies events originating from this service.
const SourceCartService = "cart-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Session   string         `json:"session"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
}

// CartItemData is one line within a cart event.
type CartItemData struct {
	ProductID int `json:"product_id"`
	Amount    int `json:"amount"`
}

// Publisher announces committed cart changes.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, session string, cart domain.Cart) error
}

// kafkaPublisher is the part of pkg/kafka.Producer the cart events need.
type kafkaPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka  kafkaPublisher
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new event producer for the cart service.
func NewProducer(kafka kafkaPublisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event keyed by session.
func (p *Producer) PublishCartUpdated(ctx context.Context, session string, cart domain.Cart) error {
	data := NewCartUpdatedData(session, cart)

	event, err := pkgkafka.NewEvent(TopicCartUpdated, session, AggregateTypeCart, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.WithMetadata("session", session).WithMetadata("lines", strconv.Itoa(len(cart)))

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session", session),
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// NewCartUpdatedData builds the event payload from a cart snapshot.
func NewCartUpdatedData(session string, cart domain.Cart) CartUpdatedData {
	items := make([]CartItemData, len(cart))
	for i, line := range cart {
		items[i] = CartItemData{ProductID: line.ID, Amount: line.Amount}
	}
	return CartUpdatedData{
		Session:   session,
		Items:     items,
		ItemCount: cart.ItemCount(),
	}
}

// NoopPublisher drops every event. It is used when Kafka is disabled.
type NoopPublisher struct{}

// PublishCartUpdated does nothing.
func (NoopPublisher) PublishCartUpdated(context.Context, string, domain.Cart) error {
	return nil
}
