package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用した商品レビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

const reviewSelect = `SELECT r.id, r.product_id, r.user_id, u.user_name, r.rating, r.text, r.created_at, r.updated_at
	FROM product_reviews r JOIN users u ON u.id = r.user_id`

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Text, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *PostgresReviewRepo) queryReviews(ctx context.Context, query string, args ...any) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("レビュー行の読み取りに失敗しました: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("レビュー一覧の走査に失敗しました: %w", err)
	}
	return reviews, nil
}

func (r *PostgresReviewRepo) findOne(ctx context.Context, query string, args ...any) (*model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("レビューの取得に失敗しました: %w", err)
	}
	return rv, nil
}

// List は全レビューを新しい順に返す。
func (r *PostgresReviewRepo) List(ctx context.Context) ([]*model.Review, error) {
	return r.queryReviews(ctx, reviewSelect+` ORDER BY r.created_at DESC, r.id DESC`)
}

// ListByProduct は商品のレビューを新しい順に返す。
func (r *PostgresReviewRepo) ListByProduct(ctx context.Context, productID int64) ([]*model.Review, error) {
	return r.queryReviews(ctx, reviewSelect+` WHERE r.product_id = $1 ORDER BY r.created_at DESC, r.id DESC`, productID)
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id int64) (*model.Review, error) {
	return r.findOne(ctx, reviewSelect+` WHERE r.id = $1`, id)
}

// FindByUserAndProduct はユーザーIDと商品IDでレビューを検索する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*model.Review, error) {
	return r.findOne(ctx, reviewSelect+` WHERE r.user_id = $1 AND r.product_id = $2`, userID, productID)
}

// Create はレビューを作成する。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO product_reviews (product_id, user_id, rating, text, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		review.ProductID, review.UserID, review.Rating, review.Text,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return classifyError(err, "レビューの作成に失敗しました")
	}
	return nil
}

// Update はレビューの評価と本文を更新し、updated_atを設定する。
func (r *PostgresReviewRepo) Update(ctx context.Context, review *model.Review) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE product_reviews SET rating = $2, text = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		review.ID, review.Rating, review.Text,
	).Scan(&review.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("review %d: %w", review.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("レビューの更新に失敗しました: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのレビューを削除する。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("レビューの削除に失敗しました: %w", err)
	}
	return requireAffected(result, "review", id)
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
