package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader はリクエスト ID を受け渡すヘッダーです。
const RequestIDHeader = "X-Request-ID"

// RequestLogger はリクエスト ID を採番し、アクセスログを出力します。
func RequestLogger(logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			entry := logger.WithField("request_id", requestID)
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(withRequestLogger(r.Context(), requestID, entry)))

			fields := entry.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_ip":   r.RemoteAddr,
			})
			switch {
			case rec.status >= http.StatusInternalServerError:
				fields.Error("request completed")
			case rec.status >= http.StatusBadRequest:
				fields.Warn("request completed")
			default:
				fields.Info("request completed")
			}
		})
	}
}
