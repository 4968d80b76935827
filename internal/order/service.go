// Package order は注文確定と注文履歴のドメインロジックを提供する。
package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/quickcommerce/internal/metrics"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

// 失敗した段階を表すメトリクスラベル
const (
	stageBegin      = "begin"
	stageInsertHead = "insert_order"
	stageInsertItem = "insert_item"
	stageCommit     = "commit"
)

// PlaceOrderInput は注文確定の入力。
// 各明細のPriceAtTimeは呼び出し元が確定した単価で、商品の現在価格は再取得しない。
type PlaceOrderInput struct {
	AddressID   int64
	Items       []model.OrderItemInput
	TotalAmount decimal.Decimal
}

// Service は注文のサービス層。
type Service struct {
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	metrics     metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		metrics:     collector,
	}
}

// PlaceOrder は注文ヘッダと明細を1トランザクションで作成し、注文IDを返す。
// 途中のいずれかの書き込みが失敗した場合は明示的にロールバックし、
// 注文も明細も残さずにTransactionFailedを返す。自動再試行は行わない。
// カートは変更しない。
func (s *Service) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (int64, error) {
	if err := validatePlaceOrder(in); err != nil {
		return 0, err
	}

	address, err := s.addressRepo.FindByID(ctx, in.AddressID)
	if err != nil {
		return 0, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if address == nil || address.UserID == nil || *address.UserID != userID {
		return 0, model.NewAddressNotFoundError()
	}

	tx, err := s.orderRepo.Begin(ctx)
	if err != nil {
		slog.Error("注文トランザクションの開始に失敗",
			"user_id", userID,
			"error", err,
		)
		s.metrics.RecordOrderFailed(stageBegin)
		return 0, model.NewOrderFailedError()
	}

	order, err := tx.InsertOrder(ctx, userID, in.AddressID, in.TotalAmount)
	if err != nil {
		return 0, s.abort(tx, userID, stageInsertHead, err)
	}

	for i, item := range in.Items {
		if err := tx.InsertOrderItem(ctx, order.ID, item); err != nil {
			return 0, s.abort(tx, userID, stageInsertItem, fmt.Errorf("item %d (product %d): %w", i, item.ProductID, err))
		}
	}

	// Commitが失敗した時点でトランザクションは終了しているため、Rollbackは呼ばない
	if err := tx.Commit(); err != nil {
		slog.Error("注文トランザクションのコミットに失敗",
			"user_id", userID,
			"order_id", order.ID,
			"error", err,
		)
		s.metrics.RecordOrderFailed(stageCommit)
		return 0, model.NewOrderFailedError()
	}

	s.metrics.RecordOrderPlaced(in.TotalAmount)
	slog.Info("注文を確定",
		"user_id", userID,
		"order_id", order.ID,
		"address_id", in.AddressID,
		"items", len(in.Items),
		"total_amount", in.TotalAmount.StringFixed(2),
	)

	return order.ID, nil
}

// abort はトランザクションをロールバックし、TransactionFailedを返す。
// ロールバック自体の失敗はログに記録するのみで、元の失敗を上書きしない。
func (s *Service) abort(tx repository.OrderTx, userID int64, stage string, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		slog.Error("注文トランザクションのロールバックに失敗",
			"user_id", userID,
			"stage", stage,
			"error", rbErr,
		)
	}
	slog.Error("注文トランザクションをロールバック",
		"user_id", userID,
		"stage", stage,
		"error", cause,
	)
	s.metrics.RecordOrderFailed(stage)
	return model.NewOrderFailedError()
}

// validatePlaceOrder はストアに触れる前に入力を検証する。
func validatePlaceOrder(in PlaceOrderInput) error {
	if len(in.Items) == 0 {
		return model.NewEmptyOrderError()
	}
	if in.AddressID <= 0 {
		return model.NewInvalidInputError("addressId は正の整数で指定してください")
	}
	if in.TotalAmount.IsNegative() {
		return model.NewInvalidInputError("totalAmount は0以上で指定してください")
	}
	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return model.NewInvalidInputError("productId は正の整数で指定してください")
		}
		if item.Quantity <= 0 {
			return model.NewInvalidInputError(fmt.Sprintf("quantity は1以上で指定してください: %d", item.Quantity))
		}
		if item.PriceAtTime.IsNegative() {
			return model.NewInvalidInputError("priceAtTime は0以上で指定してください")
		}
	}
	return nil
}

// ListOrders はユーザーの注文履歴を新しい順に返す。
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("注文履歴の取得に失敗しました: %w", err)
	}
	return orders, nil
}
