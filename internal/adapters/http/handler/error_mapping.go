package handler

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-employee-api/internal/core/auth"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

var errRequestTooLarge = errors.New("request body too large")

// writeError はドメインエラーを HTTP 応答に変換します。想定外のエラーは fallback を返してログに残します。
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error, fallback string) {
	var verr *employee.ValidationError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "validation failed", Errors: verr.Fields})
	case errors.As(err, &maxErr), errors.Is(err, errRequestTooLarge):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Request body too large"})
	case errors.Is(err, employee.ErrEmployeeNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Employee not found"})
	case errors.Is(err, employee.ErrEmailAlreadyExists):
		writeJSON(w, http.StatusConflict, envelope{Success: false, Message: "Email already exists"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid email or password"})
	case errors.Is(err, employee.ErrInvalidID):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid employee id"})
	case errors.Is(err, employee.ErrInvalidPageNumber):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid page number"})
	case errors.Is(err, employee.ErrInvalidPageSize):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid page size"})
	case errors.Is(err, employee.ErrInvalidSortColumn):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid sort column"})
	case errors.Is(err, employee.ErrInvalidSortDirection):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid sort direction"})
	case errors.Is(err, employee.ErrInvalidDateRange):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid date range"})
	case errors.Is(err, employee.ErrInvalidImage):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Uploaded file is not a supported image"})
	case errors.Is(err, employee.ErrValidation):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "validation failed"})
	default:
		middleware.LoggerFromContext(r.Context(), logger).WithError(err).Error(fallback)
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: fallback})
	}
}
