package postgres

import (
	"context"

	pgdb "github.com/ogurasousui/codex-employee-api/internal/platform/db/postgres"
)

// CredentialRepository は verify_login を呼び出してログイン資格情報を確認します。
type CredentialRepository struct {
	pool pgdb.Queryer
}

// NewCredentialRepository は CredentialRepository を生成します。
func NewCredentialRepository(pool pgdb.Queryer) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// Verify はメールアドレスとパスワードの組が登録済みかを返します。
func (r *CredentialRepository) Verify(ctx context.Context, email, password string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var authenticated int
	if err := exec.QueryRow(ctx, `SELECT verify_login($1::text, $2::text)`, email, password).Scan(&authenticated); err != nil {
		return false, err
	}
	return authenticated == 1, nil
}
