package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// PostgresAddressRepo はPostgreSQLを使用した住所リポジトリ。
type PostgresAddressRepo struct {
	db *sql.DB
}

// NewPostgresAddressRepo はPostgresAddressRepoを生成する。
func NewPostgresAddressRepo(db *sql.DB) *PostgresAddressRepo {
	return &PostgresAddressRepo{db: db}
}

const addressColumns = `id, user_id, house, street, landmark, city, state, pincode, phone`

func scanAddress(row interface{ Scan(...any) error }) (*model.Address, error) {
	a := &model.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.House, &a.Street, &a.Landmark, &a.City, &a.State, &a.Pincode, &a.Phone)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByID(ctx context.Context, id int64) (*model.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindByUserID はユーザーの住所を取得する。見つからない場合はnilを返す。
func (r *PostgresAddressRepo) FindByUserID(ctx context.Context, userID int64) (*model.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの住所の取得に失敗しました: %w", err)
	}
	return a, nil
}

// CreateForUser は住所を作成し、users.address_idを同一トランザクションで更新する。
func (r *PostgresAddressRepo) CreateForUser(ctx context.Context, userID int64, address *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 住所を作成
	err = tx.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, house, street, landmark, city, state, pincode, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		userID, address.House, address.Street, address.Landmark, address.City, address.State,
		address.Pincode, address.Phone,
	).Scan(&address.ID)
	if err != nil {
		return classifyError(err, "住所の作成に失敗しました")
	}

	// ユーザーの参照を更新
	result, err := tx.ExecContext(ctx,
		`UPDATE users SET address_id = $2, updated_at = NOW() WHERE id = $1`,
		userID, address.ID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの住所参照の更新に失敗しました: %w", err)
	}
	if err := requireAffected(result, "user", userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	address.UserID = &userID
	return nil
}

// Update は住所の各項目を更新する。
func (r *PostgresAddressRepo) Update(ctx context.Context, address *model.Address) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE addresses
		 SET house = $2, street = $3, landmark = $4, city = $5, state = $6, pincode = $7, phone = $8
		 WHERE id = $1`,
		address.ID, address.House, address.Street, address.Landmark, address.City, address.State,
		address.Pincode, address.Phone,
	)
	if err != nil {
		return fmt.Errorf("住所の更新に失敗しました: %w", err)
	}
	return requireAffected(result, "address", address.ID)
}

// DeleteByID は指定IDの住所を削除する。users.address_idはON DELETE SET NULLで解除される。
func (r *PostgresAddressRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return classifyError(err, "住所の削除に失敗しました")
	}
	return requireAffected(result, "address", id)
}

// compile-time interface check
var _ AddressRepository = (*PostgresAddressRepo)(nil)
