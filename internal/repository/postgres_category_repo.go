package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// List は全カテゴリを名前順に返す。
func (r *PostgresCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("カテゴリ行の読み取りに失敗しました: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の走査に失敗しました: %w", err)
	}
	return categories, nil
}

// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
func (r *PostgresCategoryRepo) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	return c, nil
}

// Exists は指定IDのカテゴリが存在するかを返す。
func (r *PostgresCategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("カテゴリの存在確認に失敗しました: %w", err)
	}
	return exists, nil
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`,
		category.Name,
	).Scan(&category.ID)
	if err != nil {
		return classifyError(err, "カテゴリの作成に失敗しました")
	}
	return nil
}

// Update はカテゴリ名を更新する。
func (r *PostgresCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2 WHERE id = $1`,
		category.ID, category.Name,
	)
	if err != nil {
		return classifyError(err, "カテゴリの更新に失敗しました")
	}
	return requireAffected(result, "category", category.ID)
}

// DeleteByID は指定IDのカテゴリを削除する。
func (r *PostgresCategoryRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "カテゴリの削除に失敗しました")
	}
	return requireAffected(result, "category", id)
}

// HasProducts はカテゴリに商品が1件以上存在するかを返す。
func (r *PostgresCategoryRepo) HasProducts(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("カテゴリの商品有無の確認に失敗しました: %w", err)
	}
	return exists, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
