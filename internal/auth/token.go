package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// ErrInvalidToken はアクセストークンが不正または期限切れであることを示す。
var ErrInvalidToken = errors.New("invalid access token")

// TokenConfig はアクセストークン発行の設定。
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims はアクセストークンのクレーム。SubjectにユーザーIDを持つ。
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID はSubjectからユーザーIDを取り出す。
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}
	return id, nil
}

// TokenIssuer はHS256署名のアクセストークンを発行・検証する。
type TokenIssuer struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(config TokenConfig) *TokenIssuer {
	return &TokenIssuer{config: config, now: time.Now}
}

// Issue はユーザーのアクセストークンと有効期限を返す。
func (i *TokenIssuer) Issue(user *model.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.config.TTL)
	claims := Claims{
		Name:  user.UserName,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    i.config.Issuer,
			Audience:  jwt.ClaimStrings{i.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はアクセストークンを検証し、クレームを返す。
// 署名アルゴリズム・発行者・対象者・有効期限を検証する。
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) {
			return []byte(i.config.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.config.Issuer),
		jwt.WithAudience(i.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
