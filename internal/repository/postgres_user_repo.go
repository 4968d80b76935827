package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/quickcommerce/internal/model"
)

const userColumns = `id, user_name, email, password_hash, profile_picture, google_id, google_name,
	google_picture, is_google_user, address_id, created_at, updated_at`

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.PasswordHash, &u.ProfilePicture, &u.GoogleID,
		&u.GoogleName, &u.GooglePicture, &u.IsGoogleUser, &u.AddressID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepo) findOne(ctx context.Context, where string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := r.findOne(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := r.findOne(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return u, nil
}

// FindByUserName はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	u, err := r.findOne(ctx, "user_name = $1", userName)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by user name: %w", err)
	}
	return u, nil
}

// List は全ユーザーを登録順に返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ユーザー行の読み取りに失敗しました: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ユーザー一覧の走査に失敗しました: %w", err)
	}
	return users, nil
}

// Create はユーザーを作成し、採番されたIDとタイムスタンプをuserに設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (user_name, email, password_hash, profile_picture, google_id, google_name,
			google_picture, is_google_user)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		user.UserName, user.Email, user.PasswordHash, user.ProfilePicture, user.GoogleID, user.GoogleName,
		user.GooglePicture, user.IsGoogleUser,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return classifyError(err, "failed to insert user")
	}
	return nil
}

// UpdateProfile はユーザー名とメールアドレスを更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET user_name = $2, email = $3, updated_at = NOW()
		 WHERE id = $1 RETURNING updated_at`,
		user.ID, user.UserName, user.Email,
	).Scan(&user.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}
	if err != nil {
		return classifyError(err, "failed to update user profile")
	}
	return nil
}

// UpdatePassword はパスワードハッシュを更新する。
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(result, "user", id)
}

// LinkGoogle はGoogleアカウント情報を既存ユーザーに紐付ける。
func (r *PostgresUserRepo) LinkGoogle(ctx context.Context, id int64, profile *model.GoogleProfile) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = $2, google_name = $3, google_picture = $4,
			is_google_user = TRUE, updated_at = NOW()
		 WHERE id = $1`,
		id, profile.Subject, profile.Name, profile.Picture,
	)
	if err != nil {
		return classifyError(err, "failed to link google account")
	}
	return requireAffected(result, "user", id)
}

// DeleteByID は指定IDのユーザーを削除する。
// 住所・カート・レビューはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return classifyError(err, "failed to delete user")
	}
	return requireAffected(result, "user", id)
}

// requireAffected は更新・削除で1行以上が対象になったことを確認する。
func requireAffected(result sql.Result, entity string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
