package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hitoshi/meshauth/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
// すべてのクエリはqueryTimeoutで打ち切られる。
type PostgresAccountRepo struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
// queryTimeoutが0以下の場合は5秒を使用する。
func NewPostgresAccountRepo(db *sql.DB, queryTimeout time.Duration) *PostgresAccountRepo {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &PostgresAccountRepo{db: db, queryTimeout: queryTimeout}
}

// Create はアカウントを作成する。
// 一意制約違反（SQLSTATE 23505）はErrDuplicateEmailとして返す。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		account.ID, model.NormalizeEmail(account.Email), account.PasswordHash, account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return classifyError("failed to insert account", err)
	}

	return nil
}

// FindByEmail は正規化後のメールアドレスでアカウントを取得する。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1`,
		model.NormalizeEmail(email),
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &account.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifyError("failed to find account by email", err)
	}

	return account, nil
}

// isUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation
}

// classifyError は一時的な障害をErrStorageUnavailableでラップする。
// それ以外のエラーはそのまま文脈を付けて返す。
func classifyError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return pgerrcode.IsConnectionException(code) ||
			pgerrcode.IsInsufficientResources(code) ||
			pgerrcode.IsOperatorIntervention(code)
	}

	return false
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
