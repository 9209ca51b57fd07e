package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/domain"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/event"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/inventory"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/notify"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/repository"
	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/logger"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/tracing"
)

// DefaultStoreKey is the key the cart blob is stored under.
const DefaultStoreKey = "@RocketShoes:cart"

// Messages shown to the user. The texts are part of the public contract.
const (
	MsgOutOfStock         = "Quantidade solicitada fora de estoque"
	MsgAddProductError    = "Erro na adição do produto"
	MsgRemoveProductError = "Erro na remoção do produto"
	MsgUpdateAmountError  = "Erro na alteração de quantidade do produto"
)

// Operation names used in logs, spans and metrics.
const (
	OpAddProduct          = "add_product"
	OpRemoveProduct       = "remove_product"
	OpUpdateProductAmount = "update_product_amount"
)

const tracerName = "github.com/gabrielnakaema/desafio01-hook-carrinho/internal/service"

// Outcome tells how an operation ended. The cart snapshot stays the source of truth.
type Outcome string

const (
	// OutcomeCommitted means the new cart was persisted and is now current.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRejected means the request was refused (stock, missing line). Nothing changed.
	OutcomeRejected Outcome = "rejected"
	// OutcomeNoop means the request was ignored without validation.
	OutcomeNoop Outcome = "noop"
	// OutcomeFailed means the inventory or the store faulted. Nothing changed.
	OutcomeFailed Outcome = "failed"
)

// Result is what an operation reports back besides the notification it sent.
type Result struct {
	Outcome Outcome
	// Notification is the message sent to the user, empty when none was sent.
	Notification string
	// Cart is a copy of the cart taken before the operation released the lock.
	Cart domain.Cart
}

var (
	cartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	cartItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_items",
			Help: "Units currently held in the cart",
		},
	)
)

// UpdateProductAmount holds the parameters for setting a line's amount.
type UpdateProductAmount struct {
	ProductID int
	Amount    int
}

// CartManager owns the cart of one session. Operations are serialized: each
// one holds the lock for its whole request/validate/commit cycle.
type CartManager struct {
	mu   sync.Mutex
	cart domain.Cart

	store     repository.BlobStore
	inventory inventory.Service
	notifier  notify.Notifier
	publisher event.Publisher
	key       string
	logger    *slog.Logger
}

// NewCartManager creates a manager holding an empty cart. Call Restore to load
// the persisted one.
func NewCartManager(
	store repository.BlobStore,
	inv inventory.Service,
	notifier notify.Notifier,
	publisher event.Publisher,
	key string,
	logger *slog.Logger,
) *CartManager {
	if key == "" {
		key = DefaultStoreKey
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &CartManager{
		cart:      domain.Cart{},
		store:     store,
		inventory: inv,
		notifier:  notifier,
		publisher: publisher,
		key:       key,
		logger:    logger,
	}
}

// Key returns the store key, which doubles as the session identifier.
func (m *CartManager) Key() string {
	return m.key
}

// Restore loads the persisted cart. A missing blob gives an empty cart and so
// does an unreadable one, which is logged. Only a store fault is returned.
func (m *CartManager) Restore(ctx context.Context) error {
	ctx = logger.WithSession(ctx, m.key)
	log := logger.WithContext(ctx, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.store.Read(ctx, m.key)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		m.cart = domain.Cart{}
		log.InfoContext(ctx, "no stored cart, starting empty")
	case err != nil:
		return fmt.Errorf("restore cart: %w", err)
	default:
		cart, err := domain.Decode(data)
		if err != nil {
			log.WarnContext(ctx, "stored cart is unreadable, starting empty",
				slog.String("error", err.Error()),
			)
			cart = domain.Cart{}
		}
		m.cart = cart
		log.InfoContext(ctx, "cart restored",
			slog.Int("lines", len(cart)),
			slog.Int("item_count", cart.ItemCount()),
		)
	}

	cartItems.Set(float64(m.cart.ItemCount()))
	return nil
}

// Cart returns a deep copy of the current cart.
func (m *CartManager) Cart() domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

// AddProduct adds one unit of productID. An existing line is checked against
// the stock first; a new line is built from the product data without a stock check.
func (m *CartManager) AddProduct(ctx context.Context, productID int) Result {
	return m.run(ctx, OpAddProduct, productID, func(ctx context.Context) Result {
		if i, ok := m.cart.Find(productID); ok {
			want := m.cart[i].Amount + 1

			stock, err := m.inventory.GetStock(ctx, productID)
			if err != nil {
				return m.fail(ctx, MsgAddProductError, err)
			}
			if stock.Amount < want {
				return m.reject(ctx, MsgOutOfStock, apperrors.StockInsufficient(productID, want, stock.Amount))
			}

			next, _ := m.cart.WithAmount(productID, want)
			if err := m.commit(ctx, next); err != nil {
				return m.fail(ctx, MsgAddProductError, err)
			}
			return Result{Outcome: OutcomeCommitted}
		}

		product, err := m.inventory.GetProduct(ctx, productID)
		if err != nil {
			return m.fail(ctx, MsgAddProductError, err)
		}
		if product.ID != productID {
			return m.fail(ctx, MsgAddProductError,
				fmt.Errorf("inventory returned product %d for %d", product.ID, productID))
		}

		next := m.cart.Append(domain.CartLine{Product: product, Amount: 1})
		if err := m.commit(ctx, next); err != nil {
			return m.fail(ctx, MsgAddProductError, err)
		}
		return Result{Outcome: OutcomeCommitted}
	})
}

// RemoveProduct drops the line for productID. Removing a missing line is rejected.
func (m *CartManager) RemoveProduct(ctx context.Context, productID int) Result {
	return m.run(ctx, OpRemoveProduct, productID, func(ctx context.Context) Result {
		next, ok := m.cart.Without(productID)
		if !ok {
			return m.reject(ctx, MsgRemoveProductError, apperrors.NotFound("cart line", fmt.Sprint(productID)))
		}
		if err := m.commit(ctx, next); err != nil {
			return m.fail(ctx, MsgRemoveProductError, err)
		}
		return Result{Outcome: OutcomeCommitted}
	})
}

// UpdateProductAmount sets the amount of an existing line after checking the
// stock. A non-positive amount is ignored; a missing line is rejected.
func (m *CartManager) UpdateProductAmount(ctx context.Context, in UpdateProductAmount) Result {
	if in.Amount <= 0 {
		cartOperations.WithLabelValues(OpUpdateProductAmount, string(OutcomeNoop)).Inc()
		return Result{Outcome: OutcomeNoop, Cart: m.Cart()}
	}

	return m.run(ctx, OpUpdateProductAmount, in.ProductID, func(ctx context.Context) Result {
		if _, ok := m.cart.Find(in.ProductID); !ok {
			return m.reject(ctx, MsgUpdateAmountError, apperrors.NotFound("cart line", fmt.Sprint(in.ProductID)))
		}

		stock, err := m.inventory.GetStock(ctx, in.ProductID)
		if err != nil {
			return m.fail(ctx, MsgUpdateAmountError, err)
		}
		if stock.Amount < in.Amount {
			return m.reject(ctx, MsgOutOfStock, apperrors.StockInsufficient(in.ProductID, in.Amount, stock.Amount))
		}

		next, _ := m.cart.WithAmount(in.ProductID, in.Amount)
		if err := m.commit(ctx, next); err != nil {
			return m.fail(ctx, MsgUpdateAmountError, err)
		}
		return Result{Outcome: OutcomeCommitted}
	})
}

// run executes fn under the manager lock inside a span and records the outcome.
func (m *CartManager) run(ctx context.Context, op string, productID int, fn func(context.Context) Result) Result {
	ctx = logger.WithSession(ctx, m.key)
	ctx, span := tracing.Tracer(tracerName).Start(ctx, "cart."+op,
		trace.WithAttributes(
			attribute.String("cart.operation", op),
			attribute.Int("product.id", productID),
		),
	)
	defer span.End()

	m.mu.Lock()
	res := fn(ctx)
	res.Cart = m.cart.Clone()
	m.mu.Unlock()
	items := res.Cart.ItemCount()

	span.SetAttributes(attribute.String("cart.outcome", string(res.Outcome)))
	cartOperations.WithLabelValues(op, string(res.Outcome)).Inc()

	logger.WithContext(ctx, m.logger).InfoContext(ctx, "cart operation finished",
		slog.String("operation", op),
		slog.Int("product_id", productID),
		slog.String("outcome", string(res.Outcome)),
		slog.Int("item_count", items),
	)
	return res
}

// commit persists next and only then makes it the current cart. Must be
// called with m.mu held.
func (m *CartManager) commit(ctx context.Context, next domain.Cart) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("commit cart: %w", err)
	}
	data, err := domain.Encode(next)
	if err != nil {
		return fmt.Errorf("commit cart: %w", err)
	}
	if err := m.store.Write(ctx, m.key, data); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	m.cart = next
	cartItems.Set(float64(next.ItemCount()))

	if err := m.publisher.PublishCartUpdated(ctx, m.key, next.Clone()); err != nil {
		logger.WithContext(ctx, m.logger).ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (m *CartManager) reject(ctx context.Context, message string, err error) Result {
	logger.WithContext(ctx, m.logger).WarnContext(ctx, "cart operation rejected",
		slog.String("reason", err.Error()),
	)
	m.notifier.Error(ctx, message)
	return Result{Outcome: OutcomeRejected, Notification: message}
}

func (m *CartManager) fail(ctx context.Context, message string, err error) Result {
	tracing.RecordError(trace.SpanFromContext(ctx), err)
	logger.WithContext(ctx, m.logger).ErrorContext(ctx, "cart operation failed",
		slog.String("error", err.Error()),
	)
	m.notifier.Error(ctx, message)
	return Result{Outcome: OutcomeFailed, Notification: message}
}
