package middleware

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/platform/token"
)

type (
	claimsContextKey    struct{}
	loggerContextKey    struct{}
	requestIDContextKey struct{}
)

// ClaimsFromContext は Bearer 認証で検証済みのクレームを返します。
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok && claims != nil
}

// RequestIDFromContext はリクエスト ID を返します。
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// LoggerFromContext はリクエスト単位のロガーを返します。未設定なら fallback を返します。
func LoggerFromContext(ctx context.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if entry, ok := ctx.Value(loggerContextKey{}).(logrus.FieldLogger); ok && entry != nil {
		return entry
	}
	return fallback
}

func withClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func withRequestLogger(ctx context.Context, requestID string, logger logrus.FieldLogger) context.Context {
	ctx = context.WithValue(ctx, requestIDContextKey{}, requestID)
	return context.WithValue(ctx, loggerContextKey{}, logger)
}
