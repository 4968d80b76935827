// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/quickcommerce/internal/auth"
	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

// ProfileUpdate はプロフィール更新の入力。nilの項目は変更しない。
type ProfileUpdate struct {
	UserName *string
	Email    *string
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, hasher auth.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// Profile はログイン中のユーザーのプロフィールを返す。
func (s *Service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	return s.Get(ctx, userID)
}

// Get は指定IDのユーザーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// List は全ユーザーを返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// UpdateProfile はユーザー名とメールアドレスを更新する。
// 他のユーザーが使用中の値に変更しようとした場合はConflictを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.UserName != nil && *in.UserName != "" {
		name, err := auth.ValidateUserName(*in.UserName)
		if err != nil {
			return nil, err
		}
		if name != user.UserName {
			existing, err := s.userRepo.FindByUserName(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("ユーザー名の重複確認に失敗しました: %w", err)
			}
			if existing != nil && existing.ID != userID {
				return nil, model.NewUserNameTakenError()
			}
		}
		user.UserName = name
	}

	if in.Email != nil && *in.Email != "" {
		email, err := auth.ValidateEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
			}
			if existing != nil && existing.ID != userID {
				return nil, model.NewEmailTakenError()
			}
		}
		user.Email = email
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, auth.DuplicateAccountError(ctx, s.userRepo, user.Email, userID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	slog.Info("プロフィールを更新しました", slog.Int64("user_id", userID))
	return user, nil
}

// ChangePassword は現在のパスワードを確認した上でパスワードを変更する。
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next, confirm string) error {
	if current == "" {
		return model.NewInvalidInputError("現在のパスワードは必須です")
	}
	if err := auth.ValidateNewPassword(next, confirm); err != nil {
		return err
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return model.NewInvalidInputError("このアカウントにはパスワードが設定されていません")
	}

	ok, err := s.hasher.Compare(user.PasswordHash, current)
	if err != nil {
		return fmt.Errorf("パスワードの照合に失敗しました: %w", err)
	}
	if !ok {
		return model.NewInvalidInputError("現在のパスワードが正しくありません")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}

	slog.Info("パスワードを変更しました", slog.Int64("user_id", userID))
	return nil
}

// Delete はユーザーを削除する。
// 住所・カート・レビューはCASCADE削除される。注文履歴のあるユーザーは削除できない。
func (s *Service) Delete(ctx context.Context, userID int64) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	slog.Info("ユーザー削除を開始します", slog.Int64("user_id", userID))

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return model.NewUserHasOrdersError()
		case errors.Is(err, repository.ErrNotFound):
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザー削除が完了しました", slog.Int64("user_id", userID))
	return nil
}
