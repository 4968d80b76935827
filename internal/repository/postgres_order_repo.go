package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresOrderRepo はPostgreSQLを使用した注文リポジトリ。
type PostgresOrderRepo struct {
	db *sql.DB
}

// NewPostgresOrderRepo はPostgresOrderRepoを生成する。
func NewPostgresOrderRepo(db *sql.DB) *PostgresOrderRepo {
	return &PostgresOrderRepo{db: db}
}

// postgresOrderTx は*sql.Txをラップした注文トランザクション。
type postgresOrderTx struct {
	tx *sql.Tx
}

// Begin は注文確定用のトランザクションを開始する。
func (r *PostgresOrderRepo) Begin(ctx context.Context) (OrderTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresOrderTx{tx: tx}, nil
}

// InsertOrder は注文ヘッダを作成し、採番されたIDを返す。
func (t *postgresOrderTx) InsertOrder(ctx context.Context, userID, addressID int64, total decimal.Decimal) (*model.Order, error) {
	o := &model.Order{UserID: userID, AddressID: addressID, TotalAmount: total}
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, address_id, total_amount, order_date)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, order_date`,
		userID, addressID, total,
	).Scan(&o.ID, &o.OrderDate)
	if err != nil {
		return nil, classifyError(err, "注文の作成に失敗しました")
	}
	return o, nil
}

// InsertOrderItem は注文明細を作成する。
func (t *postgresOrderTx) InsertOrderItem(ctx context.Context, orderID int64, item model.OrderItemInput) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, price_at_time)
		 VALUES ($1, $2, $3, $4)`,
		orderID, item.ProductID, item.Quantity, item.PriceAtTime,
	)
	if err != nil {
		return classifyError(err, "注文明細の作成に失敗しました")
	}
	return nil
}

// Commit はトランザクションをコミットする。
func (t *postgresOrderTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback はトランザクションをロールバックする。
func (t *postgresOrderTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの注文を明細付きで新しい順に返す。
func (r *PostgresOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.user_id, o.address_id, o.total_amount, o.order_date,
			oi.id, oi.product_id, oi.quantity, oi.price_at_time, COALESCE(p.name, '')
		 FROM orders o
		 LEFT JOIN order_items oi ON oi.order_id = o.id
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE o.user_id = $1
		 ORDER BY o.order_date DESC, o.id DESC, oi.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("注文一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	var current *model.Order
	for rows.Next() {
		var (
			o           model.Order
			itemID      sql.NullInt64
			productID   sql.NullInt64
			quantity    sql.NullInt64
			price       decimal.NullDecimal
			productName string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.AddressID, &o.TotalAmount, &o.OrderDate,
			&itemID, &productID, &quantity, &price, &productName); err != nil {
			return nil, fmt.Errorf("注文行の読み取りに失敗しました: %w", err)
		}

		if current == nil || current.ID != o.ID {
			current = &model.Order{
				ID:          o.ID,
				UserID:      o.UserID,
				AddressID:   o.AddressID,
				TotalAmount: o.TotalAmount,
				OrderDate:   o.OrderDate,
				Items:       []*model.OrderItem{},
			}
			orders = append(orders, current)
		}

		// 明細のない注文はLEFT JOINでNULL行になる
		if itemID.Valid {
			current.Items = append(current.Items, &model.OrderItem{
				ID:          itemID.Int64,
				OrderID:     o.ID,
				ProductID:   productID.Int64,
				Quantity:    int(quantity.Int64),
				PriceAtTime: price.Decimal,
				ProductName: productName,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("注文一覧の走査に失敗しました: %w", err)
	}
	return orders, nil
}

// compile-time interface check
var _ OrderRepository = (*PostgresOrderRepo)(nil)
