package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/domain"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/notify"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/internal/service"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/httputil"
	"github.com/gabrielnakaema/desafio01-hook-carrinho/pkg/validator"
)

// CartManager is the cart the handler drives. *service.CartManager satisfies it.
type CartManager interface {
	Cart() domain.Cart
	AddProduct(ctx context.Context, productID int) service.Result
	RemoveProduct(ctx context.Context, productID int) service.Result
	UpdateProductAmount(ctx context.Context, in service.UpdateProductAmount) service.Result
}

// NotificationFeed exposes recent notifications. *notify.Feed satisfies it.
type NotificationFeed interface {
	Since(id int64) []notify.Entry
	LastID() int64
}

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	manager CartManager
	feed    NotificationFeed
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(manager CartManager, feed NotificationFeed, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		feed:    feed,
		logger:  logger,
	}
}

// --- Request / response DTOs ---

// UpdateAmountRequest is the JSON request body for setting a line's amount.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// CartResponse is the cart snapshot returned by every cart endpoint.
type CartResponse struct {
	Items        domain.Cart `json:"items"`
	ItemCount    int         `json:"item_count"`
	Notification string      `json:"notification,omitempty"`
}

// NotificationsResponse is the payload of the notifications feed.
type NotificationsResponse struct {
	Notifications []notify.Entry `json:"notifications"`
	LastID        int64          `json:"last_id"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(h.manager.Cart(), "")})
}

// AddProduct handles POST /api/v1/cart/items/{productId}
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParsePositiveInt(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	res := h.manager.AddProduct(r.Context(), productID)
	h.writeResult(w, res)
}

// UpdateProductAmount handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParsePositiveInt(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res := h.manager.UpdateProductAmount(r.Context(), service.UpdateProductAmount{
		ProductID: productID,
		Amount:    *req.Amount,
	})
	h.writeResult(w, res)
}

// RemoveProduct handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParsePositiveInt(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	res := h.manager.RemoveProduct(r.Context(), productID)
	h.writeResult(w, res)
}

// ListNotifications handles GET /api/v1/cart/notifications?since=N
func (h *CartHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid since: " + raw},
			})
			return
		}
		since = n
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: NotificationsResponse{
		Notifications: h.feed.Since(since),
		LastID:        h.feed.LastID(),
	}})
}

// --- Helpers ---

// writeResult answers with the cart as the operation left it, so a concurrent
// change never shows up in this response. Rejections map to 409 and inventory
// or store faults to 502.
func (h *CartHandler) writeResult(w http.ResponseWriter, res service.Result) {
	body := httputil.Response{Data: newCartResponse(res.Cart, res.Notification)}

	status := http.StatusOK
	switch res.Outcome {
	case service.OutcomeRejected:
		status = http.StatusConflict
		body.Error = &httputil.ErrorResponse{Code: "CART_REJECTED", Message: res.Notification}
	case service.OutcomeFailed:
		status = http.StatusBadGateway
		body.Error = &httputil.ErrorResponse{Code: "CART_FAILED", Message: res.Notification}
	}

	httputil.WriteJSON(w, status, body)
}

func newCartResponse(cart domain.Cart, notification string) CartResponse {
	if cart == nil {
		cart = domain.Cart{}
	}
	return CartResponse{
		Items:        cart,
		ItemCount:    cart.ItemCount(),
		Notification: notification,
	}
}
