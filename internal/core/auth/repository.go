package auth

import (
	"context"
	"time"
)

// CredentialVerifier は VerifyLogin プロシージャ呼び出しの抽象です。
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (bool, error)
}

// TokenIssuer は認証済みの利用者にトークンを発行します。
type TokenIssuer interface {
	Issue(subject string, issuedAt time.Time) (string, time.Time, error)
}
