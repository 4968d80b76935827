// Package auth はアカウント登録、パスワード・Googleログイン、アクセストークン発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/repository"
	"github.com/hitoshi/quickcommerce/internal/security"
)

// RegisterInput はアカウント登録の入力。
type RegisterInput struct {
	UserName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	hasher    PasswordHasher
	tokens    *TokenIssuer
	google    GoogleVerifier
	sanitizer security.TextSanitizer
}

// NewService はServiceを生成する。googleがnilの場合はGoogleログインを無効にする。
func NewService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	google GoogleVerifier,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		google:    google,
		sanitizer: sanitizer,
	}
}

// Register はパスワードでアカウントを登録し、セッションを発行する。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Session, error) {
	userName, err := ValidateUserName(in.UserName)
	if err != nil {
		return nil, err
	}
	email, err := ValidateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidateNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to check user name: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserNameTakenError()
	}
	existing, err = s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, DuplicateAccountError(ctx, s.userRepo, email, 0)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered", slog.Int64("user_id", user.ID))
	return s.issueSession(user)
}

// Login はメールアドレスとパスワードでログインする。
// Googleのみで登録されたアカウントはパスワードログインできない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		slog.Warn("password hash comparison failed",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInvalidCredentialsError()
	}
	if !ok {
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return s.issueSession(user)
}

// GoogleLogin はGoogleトークンでログインする。
// 同じメールアドレスのアカウントが存在する場合はGoogle情報を紐付け、存在しない場合は新規作成する。
func (s *Service) GoogleLogin(ctx context.Context, token string) (*model.Session, error) {
	if s.google == nil {
		return nil, model.NewUnauthorizedError()
	}

	profile, err := s.google.Verify(ctx, token)
	if err != nil {
		slog.Warn("google token verification failed", slog.String("error", err.Error()))
		return nil, model.NewUnauthorizedError()
	}
	if !profile.EmailVerified {
		slog.Warn("google email is not verified", slog.String("subject", profile.Subject))
		return nil, model.NewUnauthorizedError()
	}
	profile.Email = NormalizeEmail(profile.Email)
	profile.Name = s.sanitizer.SanitizeText(profile.Name)

	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user != nil {
		// 別のGoogleアカウントが紐付け済みのユーザーにはログインさせない
		if user.IsGoogleUser && (user.GoogleID == nil || *user.GoogleID != profile.Subject) {
			slog.Warn("google subject does not match linked account", slog.Int64("user_id", user.ID))
			return nil, model.NewUnauthorizedError()
		}
		if !user.IsGoogleUser {
			if err := s.userRepo.LinkGoogle(ctx, user.ID, profile); err != nil {
				return nil, fmt.Errorf("failed to link google account: %w", err)
			}
			user.IsGoogleUser = true
			user.GoogleID = &profile.Subject
			user.GoogleName = &profile.Name
			user.GooglePicture = &profile.Picture
			slog.Info("google account linked", slog.Int64("user_id", user.ID))
		}
		return s.issueSession(user)
	}

	userName, err := s.availableUserName(ctx, profile)
	if err != nil {
		return nil, err
	}
	user = &model.User{
		UserName:      userName,
		Email:         profile.Email,
		GoogleID:      &profile.Subject,
		GoogleName:    &profile.Name,
		GooglePicture: &profile.Picture,
		IsGoogleUser:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, DuplicateAccountError(ctx, s.userRepo, profile.Email, 0)
		}
		return nil, fmt.Errorf("failed to create google user: %w", err)
	}

	slog.Info("new google user created", slog.Int64("user_id", user.ID))
	return s.issueSession(user)
}

// ParseToken はアクセストークンを検証し、クレームを返す。
func (s *Service) ParseToken(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}

func (s *Service) issueSession(user *model.User) (*model.Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &model.Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

var disallowedUserNameChars = regexp.MustCompile(`[^a-zA-Z0-9_\s]+`)

// userNameAttempts はGoogleユーザー名の候補を試す回数。
const userNameAttempts = 5

// availableUserName はGoogleプロフィールから未使用のユーザー名を決める。
// 使用できない文字は除去し、既に使われている場合はGoogleのsubject末尾、
// それも使われている場合はランダムな接尾辞を付与する。
func (s *Service) availableUserName(ctx context.Context, profile *model.GoogleProfile) (string, error) {
	base := strings.TrimSpace(disallowedUserNameChars.ReplaceAllString(profile.Name, ""))
	if len(base) < MinUserNameLength {
		local, _, _ := strings.Cut(profile.Email, "@")
		base = strings.TrimSpace(disallowedUserNameChars.ReplaceAllString(local, ""))
	}
	if len(base) < MinUserNameLength {
		base = "user"
	}
	if len(base) > MaxUserNameLength {
		base = base[:MaxUserNameLength]
	}

	subjectSuffix := "_" + disallowedUserNameChars.ReplaceAllString(profile.Subject, "")
	if len(subjectSuffix) > 9 {
		subjectSuffix = "_" + subjectSuffix[len(subjectSuffix)-8:]
	}

	for attempt := 0; attempt < userNameAttempts; attempt++ {
		candidate := base
		switch {
		case attempt == 1:
			candidate = withUserNameSuffix(base, subjectSuffix)
		case attempt > 1:
			candidate = withUserNameSuffix(base, "_"+strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		}

		existing, err := s.userRepo.FindByUserName(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check user name: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}

	return "", model.NewUserNameTakenError()
}

// withUserNameSuffix は上限長に収まるようbaseを切り詰めて接尾辞を付ける。
func withUserNameSuffix(base, suffix string) string {
	if len(base)+len(suffix) > MaxUserNameLength {
		base = base[:MaxUserNameLength-len(suffix)]
	}
	return base + suffix
}

// DuplicateAccountError は一意制約違反がメールアドレスとユーザー名のどちらによるものかを判定する。
// selfIDには更新対象のユーザーIDを渡す。新規作成時は0。
func DuplicateAccountError(ctx context.Context, users repository.UserRepository, email string, selfID int64) error {
	existing, err := users.FindByEmail(ctx, email)
	if err == nil && existing != nil && existing.ID != selfID {
		return model.NewEmailTakenError()
	}
	return model.NewUserNameTakenError()
}
