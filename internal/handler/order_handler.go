package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/order"
	"github.com/shopspring/decimal"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, userID int64, in order.PlaceOrderInput) (int64, error)
	ListOrders(ctx context.Context, userID int64) ([]*model.Order, error)
}

// OrderHandler は注文のHTTPハンドラー。
type OrderHandler struct {
	service OrderServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(service OrderServiceInterface) *OrderHandler {
	return &OrderHandler{service: service}
}

type orderItemRequest struct {
	ProductID   int64           `json:"product_id"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

// placeOrderRequest は注文確定のリクエストボディ。
// 明細の単価と合計金額はクライアントが確定した値をそのまま記録する。
type placeOrderRequest struct {
	AddressID   int64              `json:"address_id"`
	Items       []orderItemRequest `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

type placeOrderResponse struct {
	OrderID int64 `json:"order_id"`
}

// Place は注文を確定する。
// POST /api/orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]model.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.OrderItemInput{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			PriceAtTime: it.PriceAtTime,
		})
	}

	orderID, err := h.service.PlaceOrder(r.Context(), userID, order.PlaceOrderInput{
		AddressID:   req.AddressID,
		Items:       items,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{OrderID: orderID})
}

// List はログイン中のユーザーの注文履歴を新しい順に返す。
// GET /api/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.ListOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}
