package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/domain"
	apperrors "github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/errors"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/httpclient"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/tracing"
)

const (
	serviceName = "inventory"
	tracerName  = "github.com/gabrielnakaema/desafio01-hook-carrinho/internal/inventory"
)

// Service is the inventory the cart validates against.
type Service interface {
	GetProduct(ctx context.Context, productID int) (domain.Product, error)
	GetStock(ctx context.Context, productID int) (domain.Stock, error)
}

// Config holds inventory client settings.
type Config struct {
	BaseURL string
	// Timeout bounds each lookup, retries included. 0 disables it.
	Timeout time.Duration
}

// Client talks to the inventory over HTTP.
type Client struct {
	doer    httpclient.Doer
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

var _ Service = (*Client)(nil)

// NewClient creates an inventory client. doer is usually a
// httpclient.CircuitBreakerClient wrapping a retrying httpclient.Client.
func NewClient(doer httpclient.Doer, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// GetProduct fetches the product data for productID.
func (c *Client) GetProduct(ctx context.Context, productID int) (domain.Product, error) {
	var p domain.Product
	if err := c.get(ctx, "GetProduct", "/products/"+strconv.Itoa(productID), productID, &p); err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	return p, nil
}

// GetStock fetches the available quantity for productID.
func (c *Client) GetStock(ctx context.Context, productID int) (domain.Stock, error) {
	var s domain.Stock
	if err := c.get(ctx, "GetStock", "/stock/"+strconv.Itoa(productID), productID, &s); err != nil {
		return domain.Stock{}, fmt.Errorf("get stock %d: %w", productID, err)
	}
	return s, nil
}

// Ping reports whether the inventory answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", http.NoBody)
	if err != nil {
		return fmt.Errorf("create inventory ping request: %w", err)
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return mapTransportError(err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, operation, path string, productID int, dst any) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ctx, span := tracing.Tracer(tracerName).Start(ctx, "inventory."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.path", path),
			attribute.Int("product.id", productID),
		),
	)
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "inventory request failed",
			slog.String("operation", operation),
			slog.Int("product_id", productID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return mapTransportError(err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	return httpclient.DecodeJSON(resp, serviceName, dst)
}

// mapTransportError turns an open circuit into ErrServiceUnavail so callers
// can tell a tripped breaker from a single failed call.
func mapTransportError(err error) error {
	if errors.Is(err, httpclient.ErrCircuitOpen) {
		return apperrors.ServiceUnavailable("inventory circuit open")
	}
	return fmt.Errorf("call %s service: %w", serviceName, err)
}
