package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/hitoshi/quickcommerce/internal/model"
	"github.com/hitoshi/quickcommerce/internal/security"
)

// アカウント項目の入力制約
const (
	MinUserNameLength = 2
	MaxUserNameLength = 50
	MaxEmailLength    = 100
	MinPasswordLength = 6
	MaxPasswordLength = 100
)

var userNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\s]+$`)

// ValidateUserName はユーザー名を検証し、前後の空白を除いた値を返す。
func ValidateUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := security.RuneLen(name); n < MinUserNameLength || n > MaxUserNameLength {
		return "", model.NewInvalidInputError(fmt.Sprintf("ユーザー名は%dから%d文字で入力してください", MinUserNameLength, MaxUserNameLength))
	}
	if !userNamePattern.MatchString(name) {
		return "", model.NewInvalidInputError("ユーザー名には英数字・空白・アンダースコアのみ使用できます")
	}
	return name, nil
}

// NormalizeEmail はメールアドレスの前後の空白を除き小文字にする。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail はメールアドレスを検証し、正規化した値を返す。
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", model.NewInvalidInputError("メールアドレスは必須です")
	}
	if len(email) > MaxEmailLength {
		return "", model.NewInvalidInputError(fmt.Sprintf("メールアドレスは%d文字以内で入力してください", MaxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", model.NewInvalidInputError("メールアドレスの形式が正しくありません")
	}
	return email, nil
}

// ValidateNewPassword は新しいパスワードと確認用パスワードを検証する。
func ValidateNewPassword(password, confirm string) error {
	if n := len(password); n < MinPasswordLength || n > MaxPasswordLength {
		return model.NewInvalidInputError(fmt.Sprintf("パスワードは%dから%d文字で入力してください", MinPasswordLength, MaxPasswordLength))
	}
	if password != confirm {
		return model.NewInvalidInputError("パスワードが一致しません")
	}
	return nil
}
