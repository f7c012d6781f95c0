// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/meshauth/internal/model"
)

var (
	// ErrNotFound は指定メールアドレスのアカウントが存在しないことを示す。
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateEmail は正規化後のメールアドレスが既に登録済みであることを示す。
	// 事前の存在確認ではなく、書き込み時の一意制約違反から判定する。
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrStorageUnavailable はタイムアウトや接続断などの一時的な障害を示す。
	// 呼び出し元が再試行しても安全な失敗。
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AccountRepository はアカウントデータの永続化インターフェース（Credential Store）。
// 更新・削除の操作は持たない。
type AccountRepository interface {
	// Create はアカウントを作成する。
	// 正規化後のメールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	// 同一メールアドレスの同時呼び出しのうち成功するのは高々1つ。
	Create(ctx context.Context, account *model.Account) error

	// FindByEmail は正規化後のメールアドレスに完全一致するアカウントを取得する。
	// 見つからない場合はErrNotFoundを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}
