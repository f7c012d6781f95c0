// Package auth はパスワードハッシュ、トークン発行・検証、
// アカウント登録とログインのビジネスロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/meshauth/internal/metrics"
	"github.com/hitoshi/meshauth/internal/model"
	"github.com/hitoshi/meshauth/internal/repository"
)

// dummyVerifier はアカウント不在時にダミー照合を行えるハッシャー。
type dummyVerifier interface {
	VerifyDummy(password string)
}

// LoginResult はログイン成功時に返すトークンとその有効期限。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// Service はアカウント登録（Registration）とログイン（Authentication）を提供する。
// リクエスト間で共有する可変状態は持たない。
type Service struct {
	repo    repository.AccountRepository
	hasher  PasswordHasher
	tokens  *TokenIssuer
	metrics metrics.AuthMetrics
	now     func() time.Time
}

// NewService はServiceを生成する。mがnilの場合はメトリクスを記録しない。
func NewService(
	repo repository.AccountRepository,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	m metrics.AuthMetrics,
) *Service {
	if m == nil {
		m = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		metrics: m,
		now:     time.Now,
	}
}

// Register は新しいアカウントを作成し、公開用の識別情報を返す。
// 正規化後のメールアドレスが登録済みの場合はACCOUNT_EXISTSを返す。
// 重複判定は書き込み時の一意制約に委ね、事前の存在確認は行わない。
func (s *Service) Register(ctx context.Context, email, password string) (*model.AccountIdentity, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordRegistration(metrics.OutcomeInvalidInput)
		return nil, model.NewInvalidInputError("email and password are required")
	}

	hash, err := s.hash(password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.metrics.RecordRegistration(metrics.OutcomeAccountExists)
			slog.Info("registration rejected", slog.String("reason", "account_exists"))
			return nil, model.NewAccountExistsError()
		case errors.Is(err, repository.ErrStorageUnavailable):
			s.metrics.RecordRegistration(metrics.OutcomeStorageUnavailable)
			slog.Error("registration failed: storage unavailable", slog.String("error", err.Error()))
			return nil, model.NewStorageUnavailableError()
		default:
			s.metrics.RecordRegistration(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	slog.Info("account registered", slog.String("account_id", account.ID))

	return account.Identity(), nil
}

// Login は認証情報を検証し、成功時にトークンを発行する。
// アカウント不在とパスワード不一致は同じINVALID_CREDENTIALSとして返し、
// 不在時もダミー照合でハッシュ計算を行う。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.RecordLogin(metrics.OutcomeInvalidInput)
		return nil, model.NewInvalidInputError("email and password are required")
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.verifyDummy(password)
			s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
			slog.Info("login rejected", slog.String("reason", "invalid_credentials"))
			return nil, model.NewInvalidCredentialsError()
		case errors.Is(err, repository.ErrStorageUnavailable):
			s.metrics.RecordLogin(metrics.OutcomeStorageUnavailable)
			slog.Error("login failed: storage unavailable", slog.String("error", err.Error()))
			return nil, model.NewStorageUnavailableError()
		default:
			s.metrics.RecordLogin(metrics.OutcomeError)
			return nil, fmt.Errorf("failed to find account: %w", err)
		}
	}

	ok, err := s.verify(password, account.PasswordHash)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		slog.Error("stored password hash is unreadable",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInvalidCredentialsError()
	}
	if !ok {
		s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
		slog.Info("login rejected", slog.String("reason", "invalid_credentials"))
		return nil, model.NewInvalidCredentialsError()
	}

	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	slog.Info("account logged in", slog.String("account_id", account.ID))

	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken はトークンを検証し、認証されたアカウントIDを返す。
func (s *Service) ValidateToken(token string) (string, error) {
	return s.tokens.Validate(token)
}

func (s *Service) hash(password string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.RecordHashDuration(time.Since(start)) }()
	return s.hasher.Hash(password)
}

func (s *Service) verify(password, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.RecordHashDuration(time.Since(start)) }()
	return s.hasher.Verify(password, hash)
}

func (s *Service) verifyDummy(password string) {
	if d, ok := s.hasher.(dummyVerifier); ok {
		d.VerifyDummy(password)
	}
}
