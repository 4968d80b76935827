// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickcommerce/internal/auth"
	"github.com/hitoshi/quickcommerce/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.Session, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	GoogleLogin(ctx context.Context, token string) (*model.Session, error)
}

// AuthHandler は登録・ログインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	UserName        string `json:"user_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleLoginRequest はGoogleログインのリクエストボディ。
// tokenにはIDトークンまたはアクセストークンを渡す。
type googleLoginRequest struct {
	Token string `json:"token"`
}

// Register は新規ユーザーを登録し、そのままログイン状態にする。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Register(r.Context(), auth.RegisterInput{
		UserName:        req.UserName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Login はメールアドレスとパスワードでログインする。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// GoogleLogin はGoogleのトークンでログインする。
// POST /api/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		handleServiceError(w, r, model.NewInvalidInputError("トークンが空です"))
		return
	}

	session, err := h.service.GoogleLogin(r.Context(), req.Token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
