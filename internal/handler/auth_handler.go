// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/meshauth/internal/auth"
	"github.com/hitoshi/meshauth/internal/model"
)

// MaxPasswordBytes はパスワードの最大バイト長。ハッシュ計算コストの上限を抑える。
const MaxPasswordBytes = 1024

// HealthMessage はヘルスチェックが返す固定文字列。
const HealthMessage = "Auth service running"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*model.AccountIdentity, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	PasswordMinLength int
}

// AuthHandler は登録・ログイン・ヘルスチェックのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	if config.PasswordMinLength < 1 {
		config.PasswordMinLength = 6
	}
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// credentialsRequest は登録・ログイン共通のリクエストボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerResponse は登録成功時のレスポンス。ハッシュは含めない。
type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register はアカウントを作成する。
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r, true)
	if !ok {
		return
	}

	identity, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		ID:    identity.ID,
		Email: identity.Email,
	})
}

// Login は認証情報を検証し、トークンを返す。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r, false)
	if !ok {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC(),
	})
}

// Health は依存先を確認せずに固定文字列を返す。
// GET /health
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(HealthMessage))
}

// decodeCredentials はリクエストボディを読み取り、入力形式を検証する。
// 不正な場合は400を書き込みfalseを返す。
// 最小長のポリシーは登録時のみ適用し、ログインでは不一致として401で扱う。
func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request, enforcePolicy bool) (*credentialsRequest, bool) {
	var req credentialsRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("request body must be a JSON object with email and password"))
		return nil, false
	}
	// ボディはオブジェクト1つのみ。後続データがあれば拒否する
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("request body must contain a single JSON object"))
		return nil, false
	}

	if reason := h.validateCredentials(&req, enforcePolicy); reason != "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError(reason))
		return nil, false
	}

	return &req, true
}

func (h *AuthHandler) validateCredentials(req *credentialsRequest, enforcePolicy bool) string {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return "email is required"
	}
	addr, err := mail.ParseAddress(email)
	// 表示名付きの形式（"Name <a@example.com>"）は受け付けない
	if err != nil || addr.Address != email {
		return "email is not a valid address"
	}

	if req.Password == "" {
		return "password is required"
	}
	if enforcePolicy && utf8.RuneCountInString(req.Password) < h.config.PasswordMinLength {
		return fmt.Sprintf("password must be at least %d characters", h.config.PasswordMinLength)
	}
	if len(req.Password) > MaxPasswordBytes {
		return fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes)
	}

	return ""
}
