package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/platform/token"
)

// TokenParser はベアラートークンを検証します。
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// Bearer は Authorization ヘッダーのトークンを検証し、失敗時は 401 を返します。
func Bearer(parser TokenParser, logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				LoggerFromContext(r.Context(), logger).WithError(err).Debug("bearer token rejected")
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
