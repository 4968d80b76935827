package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order は確定した注文を表す。
type Order struct {
	ID          int64
	UserID      int64
	AddressID   int64
	TotalAmount decimal.Decimal
	OrderDate   time.Time
	Items       []*OrderItem
}

// OrderItem は注文明細を表す。
// PriceAtTimeは注文時点の単価のスナップショットで、以後の商品価格変更の影響を受けない。
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int
	PriceAtTime decimal.Decimal
	ProductName string
}

// OrderItemInput は注文確定時に呼び出し元が渡す明細。
type OrderItemInput struct {
	ProductID   int64
	Quantity    int
	PriceAtTime decimal.Decimal
}
