// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeAccountExists      = "ACCOUNT_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidInputError は入力形式エラーを生成する。
// reasonはクライアントに返しても問題のない説明文のみを渡すこと。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  reason,
		Category: "validation",
		Action:   "Check the email address and password and try again.",
	}
}

// NewAccountExistsError は登録済みメールアドレスでの再登録エラーを生成する。
func NewAccountExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountExists,
		Message:  "An account with this email already exists",
		Category: "auth",
		Action:   "Sign in with this email or register with a different one.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// アカウント不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewStorageUnavailableError はストレージの一時的な障害エラーを生成する。
// 再試行しても安全な失敗であることを示す。
func NewStorageUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageUnavailable,
		Message:  "The service is temporarily unavailable",
		Category: "system",
		Action:   "Please try again in a moment.",
	}
}

// NewUnsupportedMediaTypeError はContent-Typeが不正な場合のエラーを生成する。
func NewUnsupportedMediaTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedMedia,
		Message:  "Content-Type must be application/json",
		Category: "validation",
		Action:   "Send the request body as JSON.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred",
		Category: "system",
		Action:   "Please try again later.",
	}
}
