package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// UseCase はログインユースケースの公開インターフェースです。
type UseCase interface {
	Login(ctx context.Context, in LoginInput) (*Token, error)
}

// Service は資格情報の確認とトークン発行をまとめます。
type Service struct {
	verifier CredentialVerifier
	issuer   TokenIssuer
	clock    Clock
}

// NewService は Service を生成します。
func NewService(verifier CredentialVerifier, issuer TokenIssuer, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{verifier: verifier, issuer: issuer, clock: clock}
}

// Login は VerifyLogin で資格情報を確認し、成功した場合にトークンを発行します。
func (s *Service) Login(ctx context.Context, in LoginInput) (*Token, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.verifier.Verify(ctx, email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("verify login: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	value, expiresAt, err := s.issuer.Issue(email, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Token{Value: value, ExpiresAt: expiresAt}, nil
}
