// Package catalog はカテゴリと商品カタログのドメインロジックを提供する。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
	"github.com/hitoshi/quickcommerce/internal/security"
)

// MaxCategoryNameLength はカテゴリ名の最大文字数。
const MaxCategoryNameLength = 100

// CategoryService はカテゴリ管理のサービス層。
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCategoryService はCategoryServiceの新しいインスタンスを生成する。
func NewCategoryService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// List は全カテゴリを返す。
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// Get は指定IDのカテゴリを返す。
func (s *CategoryService) Get(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if category == nil {
		return nil, model.NewCategoryNotFoundError(id)
	}
	return category, nil
}

// Create はカテゴリを作成する。名前が重複する場合はConflictを返す。
func (s *CategoryService) Create(ctx context.Context, name string) (*model.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	category := &model.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateCategoryError(name)
		}
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return category, nil
}

// Update はカテゴリ名を変更する。
func (s *CategoryService) Update(ctx context.Context, id int64, name string) (*model.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, model.NewDuplicateCategoryError(name)
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewCategoryNotFoundError(id)
		}
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	return category, nil
}

// Delete はカテゴリを削除する。商品が存在するカテゴリは削除できない。
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	hasProducts, err := s.categoryRepo.HasProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("カテゴリの商品有無の確認に失敗しました: %w", err)
	}
	if hasProducts {
		return model.NewCategoryInUseError()
	}

	if err := s.categoryRepo.DeleteByID(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			// 確認後に商品が追加された
			return model.NewCategoryInUseError()
		case errors.Is(err, repository.ErrNotFound):
			return model.NewCategoryNotFoundError(id)
		}
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	return nil
}

// ProductsInCategory はカテゴリに属する商品を返す。
func (s *CategoryService) ProductsInCategory(ctx context.Context, id int64) ([]*model.Product, error) {
	exists, err := s.categoryRepo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの存在確認に失敗しました: %w", err)
	}
	if !exists {
		return nil, model.NewCategoryNotFoundError(id)
	}

	products, err := s.productRepo.ListByCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの商品一覧の取得に失敗しました: %w", err)
	}
	return products, nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewInvalidInputError("カテゴリ名は必須です")
	}
	if security.RuneLen(name) > MaxCategoryNameLength {
		return "", model.NewInvalidInputError(fmt.Sprintf("カテゴリ名は%d文字以内で入力してください", MaxCategoryNameLength))
	}
	return name, nil
}
