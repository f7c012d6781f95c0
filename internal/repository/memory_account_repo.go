package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/meshauth/internal/model"
)

// MemoryAccountRepo はプロセス内メモリにアカウントを保持するリポジトリ。
// 正規化後のメールアドレスをキーとするマップがPostgreSQLの一意制約と同じ役割を果たす。
// プロセス終了で内容は失われる。
type MemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]model.Account
}

// NewMemoryAccountRepo はMemoryAccountRepoを生成する。
func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{
		accounts: make(map[string]model.Account),
	}
}

// Create はアカウントを作成する。存在確認と挿入は同一ロック内で行う。
func (r *MemoryAccountRepo) Create(ctx context.Context, account *model.Account) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to insert account: %w: %w", ErrStorageUnavailable, err)
	}

	key := model.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[key]; exists {
		return ErrDuplicateEmail
	}

	stored := *account
	stored.Email = key
	r.accounts[key] = stored
	return nil
}

// FindByEmail は正規化後のメールアドレスでアカウントを取得する。
// 呼び出し元による変更が保存内容に影響しないようコピーを返す。
func (r *MemoryAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w: %w", ErrStorageUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[model.NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &account, nil
}

// Len は保存されているアカウント数を返す。
func (r *MemoryAccountRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// compile-time interface check
var _ AccountRepository = (*MemoryAccountRepo)(nil)
