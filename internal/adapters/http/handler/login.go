package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/go-playground/form"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/core/auth"
)

const maxLoginBodyBytes = 64 << 10

// LoginHandler はログイン API の HTTP 実装です。
type LoginHandler struct {
	svc     auth.UseCase
	logger  logrus.FieldLogger
	decoder *form.Decoder
}

// NewLoginHandler は LoginHandler を生成します。
func NewLoginHandler(svc auth.UseCase, logger logrus.FieldLogger) *LoginHandler {
	return &LoginHandler{svc: svc, logger: logger, decoder: newFormDecoder()}
}

// Register はログインのルートを登録します。
func (h *LoginHandler) Register(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
}

// Login は POST /login です。資格情報はクエリ、フォーム、JSON のいずれでも受け付けます。
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	const fallback = "An error occurred while logging in"

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)

	var in loginForm
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, r, h.logger, auth.ErrInvalidCredentials, fallback)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, h.logger, classifyBodyError(err), fallback)
			return
		}
		if err := h.decoder.Decode(&in, camelKeys(r.Form)); err != nil {
			writeError(w, r, h.logger, auth.ErrInvalidCredentials, fallback)
			return
		}
	}

	tok, err := h.svc.Login(r.Context(), auth.LoginInput{Email: in.Email, Password: in.Password})
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: tok.Value, ExpiresAt: tok.ExpiresAt.UTC()})
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
