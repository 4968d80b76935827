package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/quickcommerce/internal/model"
)

const (
	defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultGoogleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"
	defaultGoogleTimeout      = 10 * time.Second
)

// ErrInvalidGoogleToken はGoogleトークンの検証に失敗したことを示す。
var ErrInvalidGoogleToken = errors.New("invalid google token")

// GoogleTokenConfig はGoogleトークン検証の設定。
type GoogleTokenConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
	UserInfoURL  string

	HTTPClient *http.Client
}

// GoogleVerifier はフロントエンドから受け取ったGoogleトークンを検証する。
type GoogleVerifier interface {
	// Verify はトークンを検証し、Googleアカウントのプロフィールを返す。
	Verify(ctx context.Context, token string) (*model.GoogleProfile, error)
}

// GoogleTokenVerifier はGoogleのtokeninfoエンドポイントでトークンを検証する。
// IDトークンとして検証できない場合はアクセストークンとして検証し、userinfoからプロフィールを取得する。
type GoogleTokenVerifier struct {
	config GoogleTokenConfig
}

// NewGoogleTokenVerifier はGoogleTokenVerifierを生成する。
func NewGoogleTokenVerifier(config GoogleTokenConfig) *GoogleTokenVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultGoogleTokenInfoURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: defaultGoogleTimeout}
	}
	return &GoogleTokenVerifier{config: config}
}

// flexBool はtokeninfoが "true" 文字列で返すbool値を扱う。
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `true`, `"true"`:
		*b = true
	default:
		*b = false
	}
	return nil
}

// googleTokenInfo はtokeninfoエンドポイントのレスポンス。
type googleTokenInfo struct {
	Aud           string   `json:"aud"`
	Azp           string   `json:"azp"`
	Sub           string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
}

// googleUserInfo はuserinfoエンドポイントのレスポンス。
type googleUserInfo struct {
	Sub           string   `json:"sub"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
}

// Verify はトークンを検証し、Googleアカウントのプロフィールを返す。
func (v *GoogleTokenVerifier) Verify(ctx context.Context, token string) (*model.GoogleProfile, error) {
	if token == "" {
		return nil, ErrInvalidGoogleToken
	}

	// 1. IDトークンとして検証
	info, status, err := v.fetchTokenInfo(ctx, "id_token", token)
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK {
		if err := v.checkAudience(info); err != nil {
			return nil, err
		}
		if info.Sub == "" || info.Email == "" {
			return nil, fmt.Errorf("%w: missing sub or email", ErrInvalidGoogleToken)
		}
		return &model.GoogleProfile{
			Subject:       info.Sub,
			Email:         info.Email,
			EmailVerified: bool(info.EmailVerified),
			Name:          info.Name,
			Picture:       info.Picture,
		}, nil
	}

	// 2. アクセストークンとして検証し、userinfoを取得
	info, status, err = v.fetchTokenInfo(ctx, "access_token", token)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: tokeninfo status %d", ErrInvalidGoogleToken, status)
	}
	if err := v.checkAudience(info); err != nil {
		return nil, err
	}

	userInfo, err := v.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return &model.GoogleProfile{
		Subject:       userInfo.Sub,
		Email:         userInfo.Email,
		EmailVerified: bool(userInfo.EmailVerified),
		Name:          userInfo.Name,
		Picture:       userInfo.Picture,
	}, nil
}

// checkAudience はトークンが自アプリのクライアントIDに発行されたものかを確認する。
func (v *GoogleTokenVerifier) checkAudience(info *googleTokenInfo) error {
	if v.config.ClientID == "" {
		return nil
	}
	if info.Aud != v.config.ClientID && info.Azp != v.config.ClientID {
		return fmt.Errorf("%w: token was not issued for this client", ErrInvalidGoogleToken)
	}
	return nil
}

// fetchTokenInfo はtokeninfoエンドポイントを呼び出す。200以外のステータスはエラーにせず呼び出し元に返す。
func (v *GoogleTokenVerifier) fetchTokenInfo(ctx context.Context, kind, token string) (*googleTokenInfo, int, error) {
	reqURL := v.config.TokenInfoURL + "?" + url.Values{kind: {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.config.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read tokeninfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var info googleTokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, 0, fmt.Errorf("failed to parse tokeninfo response: %w", err)
	}
	return &info, resp.StatusCode, nil
}

// fetchUserInfo はアクセストークンでGoogleのユーザー情報を取得する。
func (v *GoogleTokenVerifier) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := v.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: user info status %d", ErrInvalidGoogleToken, resp.StatusCode)
	}

	var userInfo googleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, fmt.Errorf("failed to parse user info response: %w", err)
	}

	if userInfo.Sub == "" || userInfo.Email == "" {
		return nil, fmt.Errorf("%w: missing sub or email in user info", ErrInvalidGoogleToken)
	}

	return &userInfo, nil
}

// compile-time interface check
var _ GoogleVerifier = (*GoogleTokenVerifier)(nil)
