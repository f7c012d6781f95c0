package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL      string
	DBQueryTimeout   time.Duration
	DBMaxOpenConns   int
	DBConnectTimeout time.Duration

	// Token
	JWTSecret   string
	TokenTTL    time.Duration
	TokenIssuer string

	// Password
	PasswordMinLength int
	Argon2MemoryKiB   uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// ConfigError は起動時の設定不備を表す。
// このエラーが返った場合、プロセスはリクエストの受け付けを開始してはならない。
type ConfigError struct {
	Missing []string
	Invalid []string
}

// Error はerrorインターフェースを実装する。
func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 && len(e.Invalid) > 0 {
		return fmt.Sprintf("required environment variables are not set: %v; invalid values: %v", e.Missing, e.Invalid)
	}
	if len(e.Missing) > 0 {
		return fmt.Sprintf("required environment variables are not set: %v", e.Missing)
	}
	return fmt.Sprintf("invalid environment variable values: %v", e.Invalid)
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または任意キーの値が不正な場合は*ConfigErrorを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	// Optional fields with defaults
	env := &envReader{}
	cfg.DBQueryTimeout = env.duration("DB_QUERY_TIMEOUT", 5*time.Second)
	cfg.DBMaxOpenConns = int(env.int("DB_MAX_OPEN_CONNS", 10, 1, math.MaxInt32))
	cfg.DBConnectTimeout = env.duration("DB_CONNECT_TIMEOUT", 10*time.Second)
	cfg.TokenTTL = env.duration("TOKEN_TTL", 24*time.Hour)
	cfg.TokenIssuer = getEnvString("TOKEN_ISSUER", "meshauth")
	cfg.PasswordMinLength = int(env.int("PASSWORD_MIN_LENGTH", 6, 1, 1024))
	cfg.Argon2MemoryKiB = uint32(env.int("ARGON2_MEMORY_KIB", 64*1024, 1, math.MaxUint32))
	cfg.Argon2Iterations = uint32(env.int("ARGON2_ITERATIONS", 1, 1, math.MaxUint32))
	cfg.Argon2Parallelism = uint8(env.int("ARGON2_PARALLELISM", 4, 1, math.MaxUint8))
	cfg.ServerPort = getEnvString("SERVER_PORT", "4001")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if len(missing) > 0 || len(env.invalid) > 0 {
		return nil, &ConfigError{Missing: missing, Invalid: env.invalid}
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envReader は任意キーを読み込み、解釈できない値や範囲外の値を持つキーをinvalidに集める。
// 未設定（空）のキーのみデフォルト値になる。
type envReader struct {
	invalid []string
}

// int は[lo, hi]の整数を読む。範囲外の値を切り詰めずinvalidに記録する。
func (e *envReader) int(key string, defaultVal, lo, hi int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || i < lo || i > hi {
		e.invalid = append(e.invalid, key)
		return defaultVal
	}
	return i
}

// duration は正の時間を読む。
func (e *envReader) duration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		e.invalid = append(e.invalid, key)
		return defaultVal
	}
	return d
}
