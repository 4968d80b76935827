package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/quickcommerce/internal/catalog"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/shopspring/decimal"
)

// CategoryServiceInterface はカテゴリハンドラーが必要とするサービスインターフェース。
type CategoryServiceInterface interface {
	List(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id int64) (*model.Category, error)
	Create(ctx context.Context, name string) (*model.Category, error)
	Update(ctx context.Context, id int64, name string) (*model.Category, error)
	// Delete はカテゴリを削除する。商品が属している場合は削除できない。
	Delete(ctx context.Context, id int64) error
	ProductsInCategory(ctx context.Context, id int64) ([]*model.Product, error)
}

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	Get(ctx context.Context, id int64) (*model.Product, error)
	Search(ctx context.Context, query string) ([]*model.Product, error)
	PriceRange(ctx context.Context) (*model.PriceRange, error)
	Create(ctx context.Context, in catalog.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id int64, patch catalog.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogHandler はカテゴリと商品のHTTPハンドラー。
type CatalogHandler struct {
	categories CategoryServiceInterface
	products   ProductServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(categories CategoryServiceInterface, products ProductServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		categories: categories,
		products:   products,
	}
}

type categoryRequest struct {
	Name string `json:"name"`
}

type createProductRequest struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	InStock    *bool           `json:"in_stock"`
	CategoryID int64           `json:"category_id"`
}

// updateProductRequest は商品の部分更新のリクエストボディ。省略した項目は変更しない。
type updateProductRequest struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	Image      *string          `json:"image"`
	InStock    *bool            `json:"in_stock"`
	CategoryID *int64           `json:"category_id"`
}

// ListCategories はカテゴリ一覧を返す。
// GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// GetCategory は指定カテゴリを返す。
// GET /api/categories/{id}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.categories.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{ID: c.ID, Name: c.Name})
}

// ListCategoryProducts はカテゴリに属する商品一覧を返す。
// GET /api/categories/{id}/products
func (h *CatalogHandler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	products, err := h.categories.ProductsInCategory(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// CreateCategory はカテゴリを作成する。
// POST /api/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.categories.Create(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name})
}

// UpdateCategory はカテゴリ名を変更する。
// PUT /api/categories/{id}
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.categories.Update(r.Context(), id, req.Name)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{ID: c.ID, Name: c.Name})
}

// DeleteCategory はカテゴリを削除する。
// DELETE /api/categories/{id}
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProducts は絞り込み条件付きで商品一覧を返す。
// GET /api/products?category_id=&min_price=&max_price=&in_stock=&search=&sort_by=&limit=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// SearchProducts は商品名・カテゴリ名で商品を検索する。
// GET /api/products/search?q=
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// PriceRange は全商品の価格帯を返す。
// GET /api/products/price-range
func (h *CatalogHandler) PriceRange(w http.ResponseWriter, r *http.Request) {
	pr, err := h.products.PriceRange(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, priceRangeResponse{Min: pr.Min, Max: pr.Max})
}

// GetProduct は指定商品を返す。
// GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// CreateProduct は商品を登録する。in_stockを省略した場合は在庫ありとする。
// POST /api/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	p, err := h.products.Create(r.Context(), catalog.ProductInput{
		Name:       req.Name,
		Price:      req.Price,
		Image:      req.Image,
		InStock:    inStock,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

// UpdateProduct は商品を部分更新する。
// PUT /api/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Update(r.Context(), id, catalog.ProductPatch{
		Name:       req.Name,
		Price:      req.Price,
		Image:      req.Image,
		InStock:    req.InStock,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// DeleteProduct は商品を削除する。
// DELETE /api/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseProductFilter はクエリパラメータから商品の絞り込み条件を組み立てる。
// 並び順と件数の正規化はサービス層が行う。
func parseProductFilter(r *http.Request) (model.ProductFilter, error) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		Search: q.Get("search"),
		SortBy: model.ProductSort(q.Get("sort_by")),
	}

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return filter, model.NewInvalidInputError("category_idが不正です")
		}
		filter.CategoryID = &id
	}
	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return filter, model.NewInvalidInputError("min_priceが不正です")
		}
		filter.MinPrice = &d
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return filter, model.NewInvalidInputError("max_priceが不正です")
		}
		filter.MaxPrice = &d
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, model.NewInvalidInputError("in_stockが不正です")
		}
		filter.InStockOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, model.NewInvalidInputError("limitが不正です")
		}
		filter.Limit = n
	}

	return filter, nil
}
