// Package cart はショッピングカートのドメインロジックを提供する。
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/quickcommerce/internal/metrics"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

// MaxQuantity は1回の追加・変更で指定できる数量の上限。
// 既存明細への加算結果はこの上限で切り詰めない。
const MaxQuantity = 100

// upsertAttempts は検索→挿入の試行回数。一意制約違反時の再試行は1回まで。
const upsertAttempts = 2

// Service はカート操作のサービス層。
type Service struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	metrics     metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     collector,
	}
}

// AddToCart は商品をカートに追加する。
// 同じ商品の明細が既にあれば数量を加算し、added_atを更新する。
// (userID, productID) の明細は常に1行に保たれる。
func (s *Service) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, model.NewInvalidQuantityError(quantity, MaxQuantity)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	if !product.InStock {
		return nil, model.NewOutOfStockError(productID)
	}

	line, result, err := s.upsert(ctx, userID, productID, quantity)
	if err != nil {
		slog.Error("カート追加に失敗",
			"user_id", userID,
			"product_id", productID,
			"error", err,
		)
		return nil, err
	}

	s.metrics.RecordCartUpsert(result)
	slog.Info("カートに商品を追加",
		"user_id", userID,
		"product_id", productID,
		"line_id", line.ID,
		"quantity", line.Quantity,
		"result", result,
	)

	line.Product = product
	return line, nil
}

// upsert は明細の検索→加算または挿入を行う。
// 並行リクエストが先に挿入して一意制約違反となった場合は、再検索して加算する。
func (s *Service) upsert(ctx context.Context, userID, productID int64, quantity int) (*model.CartLine, string, error) {
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		existing, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
		if err != nil {
			return nil, "", fmt.Errorf("カート明細の検索に失敗しました: %w", err)
		}

		if existing != nil {
			updated, err := s.cartRepo.AddQuantity(ctx, existing.ID, quantity)
			if err != nil {
				return nil, "", fmt.Errorf("カート明細の数量加算に失敗しました: %w", err)
			}
			if updated != nil {
				if attempt > 0 {
					return updated, metrics.CartUpsertConflictRetried, nil
				}
				return updated, metrics.CartUpsertMerged, nil
			}
			// 検索後に明細が削除された場合は挿入を試みる
		}

		line := &model.CartLine{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
		}
		err = s.cartRepo.Insert(ctx, line)
		if err == nil {
			return line, metrics.CartUpsertInserted, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, "", fmt.Errorf("カート明細の作成に失敗しました: %w", err)
		}

		slog.Warn("カート明細の並行挿入を検出、再検索して加算します",
			"user_id", userID,
			"product_id", productID,
			"attempt", attempt+1,
		)
	}

	// 再試行後も挿入・加算のどちらも成立しなかった
	return nil, "", model.NewCartContendedError()
}

// SetQuantity はカート明細の数量を上書きする。
// 明細が存在しない、または他ユーザーの明細である場合はNotFoundを返す。
func (s *Service) SetQuantity(ctx context.Context, userID, lineID int64, quantity int) (*model.CartLine, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, model.NewInvalidQuantityError(quantity, MaxQuantity)
	}

	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return nil, err
	}

	updated, err := s.cartRepo.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return nil, fmt.Errorf("カート明細の数量更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewCartLineNotFoundError(lineID)
	}
	return updated, nil
}

// Remove はカート明細を削除する。
// 明細が存在しない、または他ユーザーの明細である場合はNotFoundを返す。
func (s *Service) Remove(ctx context.Context, userID, lineID int64) error {
	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return err
	}

	deleted, err := s.cartRepo.DeleteByID(ctx, lineID)
	if err != nil {
		return fmt.Errorf("カート明細の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCartLineNotFoundError(lineID)
	}
	return nil
}

// ListCart はユーザーのカートを合計金額付きで返す。
func (s *Service) ListCart(ctx context.Context, userID int64) (*model.Cart, error) {
	lines, err := s.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カートの取得に失敗しました: %w", err)
	}
	return model.NewCart(lines), nil
}

// ownedLine は明細を取得し、呼び出しユーザーの所有であることを確認する。
func (s *Service) ownedLine(ctx context.Context, userID, lineID int64) (*model.CartLine, error) {
	line, err := s.cartRepo.FindByID(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	if line == nil || line.UserID != userID {
		return nil, model.NewCartLineNotFoundError(lineID)
	}
	return line, nil
}
