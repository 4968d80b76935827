package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

const cartLineColumns = `id, user_id, product_id, quantity, added_at`

func scanCartLine(row interface{ Scan(...any) error }) (*model.CartLine, error) {
	l := &model.CartLine{}
	if err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.AddedAt); err != nil {
		return nil, err
	}
	return l, nil
}

// ListByUserID はユーザーのカート明細を商品・カテゴリ情報付きで追加日時順に返す。
func (r *PostgresCartRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.CartLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cl.id, cl.user_id, cl.product_id, cl.quantity, cl.added_at,
			p.id, p.name, p.price, p.image, p.in_stock, p.category_id, c.name
		 FROM cart_lines cl
		 JOIN products p ON p.id = cl.product_id
		 JOIN categories c ON c.id = p.category_id
		 WHERE cl.user_id = $1
		 ORDER BY cl.added_at ASC, cl.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("カート明細一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	lines := []*model.CartLine{}
	for rows.Next() {
		l := &model.CartLine{Product: &model.Product{}}
		p := l.Product
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.AddedAt,
			&p.ID, &p.Name, &p.Price, &p.Image, &p.InStock, &p.CategoryID, &p.CategoryName); err != nil {
			return nil, fmt.Errorf("カート明細行の読み取りに失敗しました: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カート明細一覧の走査に失敗しました: %w", err)
	}
	return lines, nil
}

// FindByID は指定IDのカート明細を取得する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindByID(ctx context.Context, id int64) (*model.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カート明細の取得に失敗しました: %w", err)
	}
	return l, nil
}

// FindByUserAndProduct はユーザーIDと商品IDでカート明細を検索する。見つからない場合はnilを返す。
func (r *PostgresCartRepo) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*model.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		`SELECT `+cartLineColumns+` FROM cart_lines WHERE user_id = $1 AND product_id = $2`,
		userID, productID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーと商品によるカート明細の検索に失敗しました: %w", err)
	}
	return l, nil
}

// Insert はカート明細を新規作成する。
// (user_id, product_id) の一意制約違反時はErrDuplicateを返す。
func (r *PostgresCartRepo) Insert(ctx context.Context, line *model.CartLine) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_lines (user_id, product_id, quantity, added_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, added_at`,
		line.UserID, line.ProductID, line.Quantity,
	).Scan(&line.ID, &line.AddedAt)
	if err != nil {
		return classifyError(err, "カート明細の作成に失敗しました")
	}
	return nil
}

// AddQuantity は既存明細の数量に delta を加算し、added_atを現在時刻に更新する。
// 読み取りと書き込みの間に他のリクエストが割り込んでも加算が失われないよう、SQL内で加算する。
func (r *PostgresCartRepo) AddQuantity(ctx context.Context, id int64, delta int) (*model.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		`UPDATE cart_lines SET quantity = quantity + $2, added_at = NOW()
		 WHERE id = $1
		 RETURNING `+cartLineColumns,
		id, delta))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カート明細の数量加算に失敗しました: %w", err)
	}
	return l, nil
}

// SetQuantity は明細の数量を上書きする。見つからない場合はnilを返す。
func (r *PostgresCartRepo) SetQuantity(ctx context.Context, id int64, quantity int) (*model.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		`UPDATE cart_lines SET quantity = $2 WHERE id = $1 RETURNING `+cartLineColumns,
		id, quantity))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カート明細の数量更新に失敗しました: %w", err)
	}
	return l, nil
}

// DeleteByID は指定IDのカート明細を削除する。削除した場合はtrueを返す。
func (r *PostgresCartRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("カート明細の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
