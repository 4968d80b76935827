package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
	"github.com/hitoshi/quickcommerce/internal/security"
)

// 商品の入力制約
const (
	MinProductNameLength = 2
	MaxProductNameLength = 200
	MaxImageURLLength    = 500
)

// MaxPrice は商品価格の上限。
var MaxPrice = decimal.RequireFromString("999999.99")

// ProductInput は商品作成の入力。
type ProductInput struct {
	Name       string
	Price      decimal.Decimal
	Image      string
	InStock    bool
	CategoryID int64
}

// ProductPatch は商品の部分更新の入力。nilの項目は変更しない。
type ProductPatch struct {
	Name       *string
	Price      *decimal.Decimal
	Image      *string
	InStock    *bool
	CategoryID *int64
}

// ProductService は商品カタログのサービス層。
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	queryLimit   int
}

// NewProductService はProductServiceの新しいインスタンスを生成する。
// queryLimitは一覧・検索で返す最大件数。
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	queryLimit int,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		queryLimit:   queryLimit,
	}
}

// List はフィルタ条件に一致する商品を返す。件数は設定された上限で打ち切る。
func (s *ProductService) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, model.NewInvalidInputError("minPrice は maxPrice 以下で指定してください")
	}
	filter.SortBy = model.ParseProductSort(string(filter.SortBy))
	if filter.Limit <= 0 || filter.Limit > s.queryLimit {
		filter.Limit = s.queryLimit
	}

	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("商品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

// Get は指定IDの商品を返す。
func (s *ProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Search は商品名またはカテゴリ名で検索する。空の検索語には空の一覧を返す。
func (s *ProductService) Search(ctx context.Context, query string) ([]*model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Product{}, nil
	}

	products, err := s.productRepo.Search(ctx, query, s.queryLimit)
	if err != nil {
		return nil, fmt.Errorf("商品検索に失敗しました: %w", err)
	}
	return products, nil
}

// PriceRange は全商品の価格帯を返す。
func (s *ProductService) PriceRange(ctx context.Context) (*model.PriceRange, error) {
	pr, err := s.productRepo.PriceRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("価格帯の取得に失敗しました: %w", err)
	}
	return pr, nil
}

// Create は商品を作成する。
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		Image:      strings.TrimSpace(in.Image),
		InStock:    in.InStock,
		CategoryID: in.CategoryID,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	existing, err := s.productRepo.FindByName(ctx, product.Name)
	if err != nil {
		return nil, fmt.Errorf("商品名の重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateProductError(product.Name)
	}

	if err := s.requireCategory(ctx, product.CategoryID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, s.mapWriteError(err, product)
	}
	return s.Get(ctx, product.ID)
}

// Update は商品を部分更新する。
func (s *ProductService) Update(ctx context.Context, id int64, patch ProductPatch) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		product.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Image != nil {
		product.Image = strings.TrimSpace(*patch.Image)
	}
	if patch.InStock != nil {
		product.InStock = *patch.InStock
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		existing, err := s.productRepo.FindByName(ctx, product.Name)
		if err != nil {
			return nil, fmt.Errorf("商品名の重複確認に失敗しました: %w", err)
		}
		if existing != nil && existing.ID != id {
			return nil, model.NewDuplicateProductError(product.Name)
		}
	}
	if patch.CategoryID != nil {
		if err := s.requireCategory(ctx, product.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, s.mapWriteError(err, product)
	}
	return s.Get(ctx, id)
}

// Delete は商品を削除する。注文履歴に含まれる商品は削除できない。
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.DeleteByID(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.NewProductNotFoundError(id)
		case errors.Is(err, repository.ErrForeignKey):
			return model.NewProductInUseError()
		}
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *ProductService) requireCategory(ctx context.Context, categoryID int64) error {
	exists, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("カテゴリの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return model.NewCategoryNotFoundError(categoryID)
	}
	return nil
}

// mapWriteError は商品の書き込みで発生した制約違反をAPIErrorに変換する。
func (s *ProductService) mapWriteError(err error, product *model.Product) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return model.NewDuplicateProductError(product.Name)
	case errors.Is(err, repository.ErrForeignKey):
		return model.NewCategoryNotFoundError(product.CategoryID)
	case errors.Is(err, repository.ErrNotFound):
		return model.NewProductNotFoundError(product.ID)
	}
	return fmt.Errorf("商品の保存に失敗しました: %w", err)
}

// validateProduct は商品の各項目を検証する。
func validateProduct(p *model.Product) error {
	if n := security.RuneLen(p.Name); n < MinProductNameLength || n > MaxProductNameLength {
		return model.NewInvalidInputError(fmt.Sprintf("商品名は%dから%d文字で入力してください", MinProductNameLength, MaxProductNameLength))
	}
	if !p.Price.IsPositive() || p.Price.GreaterThan(MaxPrice) {
		return model.NewInvalidInputError("価格は0より大きく999999.99以下で指定してください")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return model.NewInvalidInputError("価格は小数点以下2桁までで指定してください")
	}
	if p.CategoryID <= 0 {
		return model.NewInvalidInputError("categoryId は必須です")
	}
	if p.Image != "" {
		if len(p.Image) > MaxImageURLLength {
			return model.NewInvalidInputError(fmt.Sprintf("画像URLは%d文字以内で指定してください", MaxImageURLLength))
		}
		if !isAbsoluteURL(p.Image) {
			return model.NewInvalidInputError("画像URLは絶対URLで指定してください")
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
