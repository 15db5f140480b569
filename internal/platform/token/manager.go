package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ogurasousui/codex-employee-api/internal/platform/config"
)

// ErrInvalidToken は署名・発行者・受信者・有効期限のいずれかの検証に失敗したことを示します。
var ErrInvalidToken = errors.New("token: invalid token")

// Claims はベアラートークンに含めるクレームです。
type Claims struct {
	jwt.RegisteredClaims
}

// Manager は HS256 で署名したトークンを発行・検証します。発行者と受信者には同じ値を使います。
type Manager struct {
	issuer string
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager は認証設定から Manager を生成します。
func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("token: issuer is required")
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("token: signing key is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	return &Manager{
		issuer: cfg.Issuer,
		key:    []byte(cfg.SigningKey),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}, nil
}

// withClock は検証時に使う時刻関数を差し替えた Manager を返します。
func (m *Manager) withClock(now func() time.Time) *Manager {
	clone := *m
	clone.now = now
	return &clone
}

// Issue は subject 向けのトークンを発行し、有効期限と合わせて返します。
func (m *Manager) Issue(subject string, issuedAt time.Time) (string, time.Time, error) {
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.issuer},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークンを検証してクレームを返します。
func (m *Manager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
