// Package address はユーザーの配送先住所を管理する。
package address

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
)

// Input は住所の作成・更新の入力。
type Input struct {
	House    string
	Street   string
	Landmark string
	City     string
	State    string
	Pincode  string
	Phone    string
}

// Service は住所管理のサービス層。
type Service struct {
	addressRepo repository.AddressRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(addressRepo repository.AddressRepository) *Service {
	return &Service{addressRepo: addressRepo}
}

// AddForUser はユーザーの住所を登録する。ユーザーは住所を1件まで持てる。
func (s *Service) AddForUser(ctx context.Context, userID int64, in Input) (*model.Address, error) {
	addr, err := buildAddress(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.addressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateAddressError()
	}

	if err := s.addressRepo.CreateForUser(ctx, userID, addr); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewDuplicateAddressError()
		}
		return nil, fmt.Errorf("住所の登録に失敗しました: %w", err)
	}

	slog.Info("住所を登録しました", slog.Int64("user_id", userID), slog.Int64("address_id", addr.ID))
	return addr, nil
}

// UpdateForUser はユーザーの住所を更新する。住所が未登録の場合はNotFoundを返す。
func (s *Service) UpdateForUser(ctx context.Context, userID int64, in Input) (*model.Address, error) {
	updated, err := buildAddress(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.UserID = existing.UserID
	if err := s.addressRepo.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewAddressNotFoundError()
		}
		return nil, fmt.Errorf("住所の更新に失敗しました: %w", err)
	}
	return updated, nil
}

// GetForUser はユーザーの住所を返す。
func (s *Service) GetForUser(ctx context.Context, userID int64) (*model.Address, error) {
	addr, err := s.addressRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if addr == nil {
		return nil, model.NewAddressNotFoundError()
	}
	return addr, nil
}

// Get は指定IDの住所を返す。他ユーザーの住所はNotFoundとして扱う。
func (s *Service) Get(ctx context.Context, userID, id int64) (*model.Address, error) {
	addr, err := s.addressRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("住所の取得に失敗しました: %w", err)
	}
	if addr == nil || addr.UserID == nil || *addr.UserID != userID {
		return nil, model.NewAddressNotFoundError()
	}
	return addr, nil
}

// Delete はユーザー自身の住所を削除する。注文で使用済みの住所は削除できない。
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.addressRepo.DeleteByID(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			return model.NewAddressInUseError()
		case errors.Is(err, repository.ErrNotFound):
			return model.NewAddressNotFoundError()
		}
		return fmt.Errorf("住所の削除に失敗しました: %w", err)
	}
	return nil
}

func buildAddress(in Input) (*model.Address, error) {
	addr := &model.Address{
		House:    strings.TrimSpace(in.House),
		Street:   strings.TrimSpace(in.Street),
		Landmark: strings.TrimSpace(in.Landmark),
		City:     strings.TrimSpace(in.City),
		State:    strings.TrimSpace(in.State),
		Pincode:  strings.TrimSpace(in.Pincode),
		Phone:    strings.TrimSpace(in.Phone),
	}
	if addr.City == "" || addr.State == "" || addr.Pincode == "" {
		return nil, model.NewInvalidInputError("city, state, pincode は必須です")
	}
	return addr, nil
}
