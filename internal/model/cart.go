package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine はカート内の1明細を表す。
// (UserID, ProductID) の組はカート内で一意。
type CartLine struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
	AddedAt   time.Time
	Product   *Product // 一覧取得時のみ設定される
}

// Subtotal は明細の小計を返す。商品情報がない場合はゼロ。
func (l *CartLine) Subtotal() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart はユーザーのカート全体を表す。
type Cart struct {
	Lines []*CartLine
	Total decimal.Decimal
}

// NewCart は明細一覧から合計金額を計算してCartを生成する。
func NewCart(lines []*CartLine) *Cart {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &Cart{Lines: lines, Total: total}
}
