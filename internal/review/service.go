// Package review は商品レビューのドメインロジックを提供する。
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
	"github.com/hitoshi/quickcommerce/internal/security"
)

// レビューの入力制約
const (
	MinRating     = 1
	MaxRating     = 5
	MaxTextLength = 2000
)

// Service は商品レビューのサービス層。
type Service struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	sanitizer   security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		sanitizer:   sanitizer,
	}
}

// AddReview は商品レビューを投稿する。
// 同一ユーザーが同一商品に既にレビューしている場合はConflictを返し、既存レビューは変更しない。
// 事前検索をすり抜けた並行投稿は一意インデックスで検出し、同じくConflictを返す。
func (s *Service) AddReview(ctx context.Context, userID, productID int64, rating int, text string) (*model.Review, error) {
	text, err := s.validate(rating, text)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	existing, err := s.reviewRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("既存レビューの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateReviewError()
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateReviewError()
		}
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	slog.Info("レビューを投稿",
		"user_id", userID,
		"product_id", productID,
		"review_id", review.ID,
		"rating", rating,
	)
	return review, nil
}

// UpdateReview は自分のレビューの評価と本文を更新する。
// 他ユーザーのレビューはNotFoundとして扱う。
func (s *Service) UpdateReview(ctx context.Context, userID, reviewID int64, rating int, text string) (*model.Review, error) {
	text, err := s.validate(rating, text)
	if err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	review.Rating = rating
	review.Text = text
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewReviewNotFoundError(reviewID)
		}
		return nil, fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}
	return review, nil
}

// DeleteReview は自分のレビューを削除する。
func (s *Service) DeleteReview(ctx context.Context, userID, reviewID int64) error {
	if _, err := s.ownedReview(ctx, userID, reviewID); err != nil {
		return err
	}
	if err := s.reviewRepo.DeleteByID(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewReviewNotFoundError(reviewID)
		}
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	return nil
}

// Get は指定IDのレビューを返す。
func (s *Service) Get(ctx context.Context, reviewID int64) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewReviewNotFoundError(reviewID)
	}
	return review, nil
}

// ListByProduct は商品のレビューを新しい順に返す。
func (s *Service) ListByProduct(ctx context.Context, productID int64) ([]*model.Review, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品レビューの取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// ListAll は全レビューを新しい順に返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Review, error) {
	reviews, err := s.reviewRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	return reviews, nil
}

// validate は評価値を検証し、サニタイズ済みの本文を返す。
func (s *Service) validate(rating int, text string) (string, error) {
	if rating < MinRating || rating > MaxRating {
		return "", model.NewInvalidInputError(fmt.Sprintf("rating は%dから%dの範囲で指定してください", MinRating, MaxRating))
	}
	clean := s.sanitizer.SanitizeText(text)
	if security.RuneLen(clean) > MaxTextLength {
		return "", model.NewInvalidInputError(fmt.Sprintf("レビュー本文は%d文字以内で入力してください", MaxTextLength))
	}
	return clean, nil
}

func (s *Service) ownedReview(ctx context.Context, userID, reviewID int64) (*model.Review, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	if review == nil || review.UserID != userID {
		return nil, model.NewReviewNotFoundError(reviewID)
	}
	return review, nil
}
