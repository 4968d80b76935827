package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/shopspring/decimal"
)

type mockCartService struct {
	addToCartFn   func(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error)
	setQuantityFn func(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error)
	removeFn      func(ctx context.Context, userID, lineID int64) error
	listCartFn    func(ctx context.Context, userID int64) (*model.Cart, error)
}

func (m *mockCartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error) {
	if m.addToCartFn != nil {
		return m.addToCartFn(ctx, userID, productID, quantity)
	}
	return &model.CartLine{ID: 1, UserID: userID, ProductID: productID, Quantity: quantity}, nil
}

func (m *mockCartService) SetQuantity(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error) {
	if m.setQuantityFn != nil {
		return m.setQuantityFn(ctx, userID, lineID, quantity)
	}
	return &model.CartLine{ID: lineID, UserID: userID, Quantity: quantity}, nil
}

func (m *mockCartService) Remove(ctx context.Context, userID, lineID int64) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, userID, lineID)
	}
	return nil
}

func (m *mockCartService) ListCart(ctx context.Context, userID int64) (*model.Cart, error) {
	if m.listCartFn != nil {
		return m.listCartFn(ctx, userID)
	}
	return model.NewCart(nil), nil
}

func TestCartHandler_List_ReturnsLinesAndTotal(t *testing.T) {
	svc := &mockCartService{
		listCartFn: func(ctx context.Context, userID int64) (*model.Cart, error) {
			return model.NewCart([]*model.CartLine{
				{ID: 1, UserID: userID, ProductID: 10, Quantity: 2, AddedAt: time.Now(), Product: &model.Product{ID: 10, Name: "Milk", Price: decimal.RequireFromString("25.50")}},
				{ID: 2, UserID: userID, ProductID: 11, Quantity: 1, AddedAt: time.Now(), Product: &model.Product{ID: 11, Name: "Bread", Price: decimal.NewFromInt(40)}},
			}), nil
		},
	}
	h := NewCartHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/cart", nil), 3)
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp cartResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if !resp.Items[0].Subtotal.Equal(decimal.NewFromInt(51)) {
		t.Errorf("subtotal = %s, want 51", resp.Items[0].Subtotal)
	}
	if !resp.Total.Equal(decimal.NewFromInt(91)) {
		t.Errorf("total = %s, want 91", resp.Total)
	}
}

func TestCartHandler_List_EmptyCartHasEmptyItems(t *testing.T) {
	h := NewCartHandler(&mockCartService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/cart", nil), 3)
	w := httptest.NewRecorder()

	h.List(w, req)

	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want empty items array", w.Body.String())
	}
}

func TestCartHandler_Add_Success(t *testing.T) {
	svc := &mockCartService{
		addToCartFn: func(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error) {
			if userID != 3 || productID != 10 || quantity != 2 {
				t.Errorf("AddToCart(%d, %d, %d), want (3, 10, 2)", userID, productID, quantity)
			}
			return &model.CartLine{ID: 5, UserID: userID, ProductID: productID, Quantity: 7}, nil
		},
	}
	h := NewCartHandler(svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"product_id":10,"quantity":2}`)), 3)
	w := httptest.NewRecorder()

	h.Add(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp cartLineResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 5 || resp.Quantity != 7 {
		t.Errorf("response = %+v", resp)
	}
}

func TestCartHandler_Add_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid quantity", model.NewInvalidQuantityError(101, 100), http.StatusBadRequest},
		{"unknown product", model.NewProductNotFoundError(10), http.StatusNotFound},
		{"out of stock", model.NewOutOfStockError(10), http.StatusBadRequest},
		{"concurrent update", model.NewCartContendedError(), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCartService{
				addToCartFn: func(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error) {
					return nil, tt.err
				},
			}
			h := NewCartHandler(svc)

			req := withUserID(httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"product_id":10,"quantity":101}`)), 3)
			w := httptest.NewRecorder()

			h.Add(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCartHandler_SetQuantity_Success(t *testing.T) {
	svc := &mockCartService{
		setQuantityFn: func(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error) {
			if lineID != 8 || quantity != 4 {
				t.Errorf("SetQuantity(%d, %d, %d)", userID, lineID, quantity)
			}
			return &model.CartLine{ID: lineID, UserID: userID, Quantity: quantity}, nil
		},
	}
	h := NewCartHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/cart/items/8", strings.NewReader(`{"quantity":4}`))
	req = withUserID(withChiURLParam(req, "id", "8"), 3)
	w := httptest.NewRecorder()

	h.SetQuantity(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCartHandler_SetQuantity_LineNotFound(t *testing.T) {
	svc := &mockCartService{
		setQuantityFn: func(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error) {
			return nil, model.NewCartLineNotFoundError(lineID)
		},
	}
	h := NewCartHandler(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/cart/items/8", strings.NewReader(`{"quantity":4}`))
	req = withUserID(withChiURLParam(req, "id", "8"), 3)
	w := httptest.NewRecorder()

	h.SetQuantity(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCartHandler_Remove_Success(t *testing.T) {
	removed := false
	svc := &mockCartService{
		removeFn: func(ctx context.Context, userID, lineID int64) error {
			removed = userID == 3 && lineID == 8
			return nil
		},
	}
	h := NewCartHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/items/8", nil)
	req = withUserID(withChiURLParam(req, "id", "8"), 3)
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if !removed {
		t.Error("expected Remove(3, 8) to be called")
	}
}

func TestCartHandler_Remove_InvalidID(t *testing.T) {
	h := NewCartHandler(&mockCartService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/items/x", nil)
	req = withUserID(withChiURLParam(req, "id", "x"), 3)
	w := httptest.NewRecorder()

	h.Remove(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
