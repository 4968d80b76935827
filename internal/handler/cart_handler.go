package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	// AddToCart は商品をカートに追加する。同じ商品の明細があれば数量を加算する。
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error)
	SetQuantity(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error)
	Remove(ctx context.Context, userID, lineID int64) error
	ListCart(ctx context.Context, userID int64) (*model.Cart, error)
}

// CartHandler はカートのHTTPハンドラー。
type CartHandler struct {
	service CartServiceInterface
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface) *CartHandler {
	return &CartHandler{service: service}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// List はカートの中身と合計金額を返す。
// GET /api/cart
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	cart, err := h.service.ListCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

// Add は商品をカートに追加する。
// POST /api/cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	line, err := h.service.AddToCart(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

// SetQuantity はカート明細の数量を上書きする。
// PUT /api/cart/items/{id}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req setQuantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	line, err := h.service.SetQuantity(r.Context(), userID, lineID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

// Remove はカート明細を削除する。
// DELETE /api/cart/items/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), userID, lineID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
