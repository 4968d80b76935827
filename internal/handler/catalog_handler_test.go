package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/quickcommerce/internal/catalog"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/shopspring/decimal"
)

// --- モック定義 ---

type mockCategoryService struct {
	listFn               func(ctx context.Context) ([]*model.Category, error)
	getFn                func(ctx context.Context, id int64) (*model.Category, error)
	createFn             func(ctx context.Context, name string) (*model.Category, error)
	updateFn             func(ctx context.Context, id int64, name string) (*model.Category, error)
	deleteFn             func(ctx context.Context, id int64) error
	productsInCategoryFn func(ctx context.Context, id int64) ([]*model.Product, error)
}

func (m *mockCategoryService) List(ctx context.Context) ([]*model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryService) Get(ctx context.Context, id int64) (*model.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Category{ID: id, Name: "Fruits"}, nil
}

func (m *mockCategoryService) Create(ctx context.Context, name string) (*model.Category, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return &model.Category{ID: 1, Name: name}, nil
}

func (m *mockCategoryService) Update(ctx context.Context, id int64, name string) (*model.Category, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, name)
	}
	return &model.Category{ID: id, Name: name}, nil
}

func (m *mockCategoryService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCategoryService) ProductsInCategory(ctx context.Context, id int64) ([]*model.Product, error) {
	if m.productsInCategoryFn != nil {
		return m.productsInCategoryFn(ctx, id)
	}
	return nil, nil
}

type mockProductService struct {
	listFn       func(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	getFn        func(ctx context.Context, id int64) (*model.Product, error)
	searchFn     func(ctx context.Context, query string) ([]*model.Product, error)
	priceRangeFn func(ctx context.Context) (*model.PriceRange, error)
	createFn     func(ctx context.Context, in catalog.ProductInput) (*model.Product, error)
	updateFn     func(ctx context.Context, id int64, patch catalog.ProductPatch) (*model.Product, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (m *mockProductService) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return testProduct(id), nil
}

func (m *mockProductService) Search(ctx context.Context, query string) ([]*model.Product, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

func (m *mockProductService) PriceRange(ctx context.Context) (*model.PriceRange, error) {
	if m.priceRangeFn != nil {
		return m.priceRangeFn(ctx)
	}
	return &model.PriceRange{}, nil
}

func (m *mockProductService) Create(ctx context.Context, in catalog.ProductInput) (*model.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return testProduct(1), nil
}

func (m *mockProductService) Update(ctx context.Context, id int64, patch catalog.ProductPatch) (*model.Product, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return testProduct(id), nil
}

func (m *mockProductService) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func testProduct(id int64) *model.Product {
	return &model.Product{
		ID:           id,
		Name:         "Banana",
		Price:        decimal.RequireFromString("40.50"),
		InStock:      true,
		CategoryID:   2,
		CategoryName: "Fruits",
	}
}

// --- カテゴリ ---

func TestCatalogHandler_ListCategories(t *testing.T) {
	svc := &mockCategoryService{
		listFn: func(ctx context.Context) ([]*model.Category, error) {
			return []*model.Category{{ID: 1, Name: "Dairy"}, {ID: 2, Name: "Fruits"}}, nil
		},
	}
	h := NewCatalogHandler(svc, &mockProductService{})

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	h.ListCategories(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp []categoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Name != "Fruits" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCatalogHandler_CreateCategory_Duplicate_Returns409(t *testing.T) {
	svc := &mockCategoryService{
		createFn: func(ctx context.Context, name string) (*model.Category, error) {
			return nil, model.NewDuplicateCategoryError(name)
		},
	}
	h := NewCatalogHandler(svc, &mockProductService{})

	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"Fruits"}`))
	w := httptest.NewRecorder()

	h.CreateCategory(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCatalogHandler_DeleteCategory_InUse_Returns409(t *testing.T) {
	svc := &mockCategoryService{
		deleteFn: func(ctx context.Context, id int64) error {
			return model.NewCategoryInUseError()
		},
	}
	h := NewCatalogHandler(svc, &mockProductService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/categories/2", nil), "id", "2")
	w := httptest.NewRecorder()

	h.DeleteCategory(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCatalogHandler_ListCategoryProducts_UnknownCategory_Returns404(t *testing.T) {
	svc := &mockCategoryService{
		productsInCategoryFn: func(ctx context.Context, id int64) ([]*model.Product, error) {
			return nil, model.NewCategoryNotFoundError(id)
		},
	}
	h := NewCatalogHandler(svc, &mockProductService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/categories/77/products", nil), "id", "77")
	w := httptest.NewRecorder()

	h.ListCategoryProducts(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- 商品 ---

func TestCatalogHandler_ListProducts_ParsesFilter(t *testing.T) {
	var got model.ProductFilter
	svc := &mockProductService{
		listFn: func(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
			got = filter
			return []*model.Product{testProduct(1)}, nil
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	url := "/api/products?category_id=2&min_price=10&max_price=99.50&in_stock=true&search=ban&sort_by=price_desc&limit=5"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()

	h.ListProducts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.CategoryID == nil || *got.CategoryID != 2 {
		t.Errorf("CategoryID = %v, want 2", got.CategoryID)
	}
	if got.MinPrice == nil || !got.MinPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("MinPrice = %v, want 10", got.MinPrice)
	}
	if got.MaxPrice == nil || !got.MaxPrice.Equal(decimal.RequireFromString("99.5")) {
		t.Errorf("MaxPrice = %v, want 99.5", got.MaxPrice)
	}
	if !got.InStockOnly {
		t.Error("InStockOnly = false, want true")
	}
	if got.Search != "ban" {
		t.Errorf("Search = %q, want %q", got.Search, "ban")
	}
	if got.SortBy != model.ProductSortPriceDesc {
		t.Errorf("SortBy = %q, want %q", got.SortBy, model.ProductSortPriceDesc)
	}
	if got.Limit != 5 {
		t.Errorf("Limit = %d, want 5", got.Limit)
	}
}

func TestCatalogHandler_ListProducts_InvalidQuery_Returns400(t *testing.T) {
	tests := []string{
		"/api/products?category_id=abc",
		"/api/products?min_price=cheap",
		"/api/products?max_price=-1",
		"/api/products?in_stock=maybe",
		"/api/products?limit=0",
	}

	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			called := false
			svc := &mockProductService{
				listFn: func(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
					called = true
					return nil, nil
				},
			}
			h := NewCatalogHandler(&mockCategoryService{}, svc)

			req := httptest.NewRequest(http.MethodGet, url, nil)
			w := httptest.NewRecorder()

			h.ListProducts(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("service must not be called for an invalid filter")
			}
		})
	}
}

func TestCatalogHandler_GetProduct_PriceSerializedAsString(t *testing.T) {
	h := NewCatalogHandler(&mockCategoryService{}, &mockProductService{})

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/products/1", nil), "id", "1")
	w := httptest.NewRecorder()

	h.GetProduct(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"price":"40.5"`) {
		t.Errorf("body = %s, want price as string", w.Body.String())
	}
}

func TestCatalogHandler_SearchProducts_PassesQuery(t *testing.T) {
	svc := &mockProductService{
		searchFn: func(ctx context.Context, query string) ([]*model.Product, error) {
			if query != "milk" {
				t.Errorf("query = %q, want %q", query, "milk")
			}
			return []*model.Product{}, nil
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products/search?q=milk", nil)
	w := httptest.NewRecorder()

	h.SearchProducts(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCatalogHandler_PriceRange(t *testing.T) {
	svc := &mockProductService{
		priceRangeFn: func(ctx context.Context) (*model.PriceRange, error) {
			return &model.PriceRange{Min: decimal.RequireFromString("1.25"), Max: decimal.NewFromInt(500)}, nil
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/products/price-range", nil)
	w := httptest.NewRecorder()

	h.PriceRange(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp priceRangeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Min.Equal(decimal.RequireFromString("1.25")) || !resp.Max.Equal(decimal.NewFromInt(500)) {
		t.Errorf("response = %+v", resp)
	}
}

func TestCatalogHandler_CreateProduct_DefaultsInStock(t *testing.T) {
	var got catalog.ProductInput
	svc := &mockProductService{
		createFn: func(ctx context.Context, in catalog.ProductInput) (*model.Product, error) {
			got = in
			return testProduct(9), nil
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	body := `{"name":"Banana","price":"40.50","category_id":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.CreateProduct(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if !got.InStock {
		t.Error("InStock = false, want true when omitted")
	}
	if !got.Price.Equal(decimal.RequireFromString("40.50")) {
		t.Errorf("Price = %s, want 40.50", got.Price)
	}
	if got.CategoryID != 2 {
		t.Errorf("CategoryID = %d, want 2", got.CategoryID)
	}
}

func TestCatalogHandler_UpdateProduct_PartialPatch(t *testing.T) {
	var got catalog.ProductPatch
	svc := &mockProductService{
		updateFn: func(ctx context.Context, id int64, patch catalog.ProductPatch) (*model.Product, error) {
			got = patch
			return testProduct(id), nil
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	req := httptest.NewRequest(http.MethodPut, "/api/products/3", strings.NewReader(`{"in_stock":false}`))
	req = withChiURLParam(req, "id", "3")
	w := httptest.NewRecorder()

	h.UpdateProduct(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.InStock == nil || *got.InStock {
		t.Errorf("InStock = %v, want false", got.InStock)
	}
	if got.Name != nil || got.Price != nil || got.CategoryID != nil || got.Image != nil {
		t.Errorf("unexpected fields in patch: %+v", got)
	}
}

func TestCatalogHandler_DeleteProduct_InUse_Returns409(t *testing.T) {
	svc := &mockProductService{
		deleteFn: func(ctx context.Context, id int64) error {
			return model.NewProductInUseError()
		},
	}
	h := NewCatalogHandler(&mockCategoryService{}, svc)

	req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/3", nil), "id", "3")
	w := httptest.NewRecorder()

	h.DeleteProduct(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}
