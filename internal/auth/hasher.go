package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes
)

var (
	// ErrEmptyPassword は空のパスワードをハッシュしようとした場合に返される。
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrInvalidHash はハッシュ文字列がargon2idのPHC形式として解釈できないことを示す。
	ErrInvalidHash = errors.New("invalid password hash")
)

// HashParams はargon2idのコストパラメータ。
type HashParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultHashParams はOWASP推奨値（m=64MiB, t=1, p=4）を返す。
func DefaultHashParams() HashParams {
	return HashParams{MemoryKiB: 64 * 1024, Iterations: 1, Parallelism: 4}
}

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	// Hash はソルト付きのハッシュ文字列を生成する。同じ入力でも呼び出しごとに異なる値になる。
	Hash(password string) (string, error)

	// Verify はpasswordがhashの元入力であるかを判定する。
	// 不一致は(false, nil)。ハッシュ文字列が不正な場合のみエラーを返す。
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher はargon2idによるPasswordHasher実装。
// ハッシュはPHC形式 $argon2id$v=19$m=..,t=..,p=..$<salt>$<key> で表す。
type Argon2idHasher struct {
	params HashParams
	dummy  string
}

// NewArgon2idHasher はArgon2idHasherを生成する。
// ゼロ値のパラメータは既定値で補う。
func NewArgon2idHasher(params HashParams) *Argon2idHasher {
	def := DefaultHashParams()
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}

	return &Argon2idHasher{
		params: params,
		dummy:  encodeHash(params, make([]byte, argon2SaltLen), make([]byte, argon2KeyLen)),
	}
}

// Hash はpasswordのargon2idハッシュを生成する。
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, argon2KeyLen)
	return encodeHash(h.params, salt, key), nil
}

// Verify はハッシュに埋め込まれたパラメータとソルトで再計算し、定数時間で比較する。
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	params, salt, expected, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// VerifyDummy はアカウントが存在しない場合に呼び出し、
// 実在アカウントの照合と同程度の時間を消費する。結果は常に破棄される。
func (h *Argon2idHasher) VerifyDummy(password string) {
	_, _ = h.Verify(password, h.dummy)
}

func encodeHash(p HashParams, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeHash(encoded string) (HashParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return HashParams{}, nil, nil, fmt.Errorf("%w: unexpected format", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return HashParams{}, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return HashParams{}, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	// uint8への切り詰めを防ぐ
	if memory == 0 || iterations == 0 || threads == 0 || threads > 255 {
		return HashParams{}, nil, nil, fmt.Errorf("%w: parameters out of range", ErrInvalidHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HashParams{}, nil, nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return HashParams{}, nil, nil, fmt.Errorf("%w: invalid key length %d", ErrInvalidHash, len(key))
	}

	return HashParams{MemoryKiB: memory, Iterations: iterations, Parallelism: uint8(threads)}, salt, key, nil
}

// compile-time interface check
var _ PasswordHasher = (*Argon2idHasher)(nil)
