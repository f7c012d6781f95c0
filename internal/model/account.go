// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Account はメールアドレスとパスワードで認証されるアカウントを表す。
// Emailは正規化済み（前後空白除去・小文字化）の値を保持する。
// PasswordHashはCredential Store / Password Hasherの境界の外に出してはならない。
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity はアカウントの公開可能な識別情報を返す。
func (a *Account) Identity() *AccountIdentity {
	return &AccountIdentity{
		ID:    a.ID,
		Email: a.Email,
	}
}

// AccountIdentity は登録完了時にクライアントへ返すアカウント情報。
// パスワードハッシュは含まない。
type AccountIdentity struct {
	ID    string
	Email string
}

// NormalizeEmail はメールアドレスを保存・検索用の正規形（前後空白除去・小文字化）に変換する。
// 大文字小文字のみが異なるメールアドレスは同一アカウントとして扱う。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
