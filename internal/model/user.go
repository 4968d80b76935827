// Package model はドメインモデルを定義する。
package model

import "time"

// User はストアの利用者を表す。
// パスワードでの登録とGoogleアカウントでの登録の両方をサポートする。
type User struct {
	ID             int64
	UserName       string
	Email          string
	PasswordHash   string // Googleのみのアカウントでは空文字
	ProfilePicture *string
	GoogleID       *string
	GoogleName     *string
	GooglePicture  *string
	IsGoogleUser   bool
	AddressID      *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword はパスワードログインが可能なアカウントかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Session はログイン成功時に発行されるアクセストークンを表す。
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// GoogleProfile はGoogleのトークン検証で得られるプロフィール情報を表す。
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
