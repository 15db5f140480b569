package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/form"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

// TotalCountHeader は一覧の総件数を返すヘッダーです。
const TotalCountHeader = "X-Total-Count"

// EmployeeHandler は社員 API の HTTP 実装です。
type EmployeeHandler struct {
	svc            employee.UseCase
	logger         logrus.FieldLogger
	decoder        *form.Decoder
	maxUploadBytes int64
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase, logger logrus.FieldLogger, maxUploadBytes int64) *EmployeeHandler {
	return &EmployeeHandler{
		svc:            svc,
		logger:         logger,
		decoder:        newFormDecoder(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register は社員 API のルートを登録します。
func (h *EmployeeHandler) Register(r *mux.Router) {
	r.HandleFunc("/list", h.List).Methods(http.MethodGet)
	r.HandleFunc("/insert", h.Insert).Methods(http.MethodPost)
	r.HandleFunc("/edit/{id}", h.Edit).Methods(http.MethodGet)
	r.HandleFunc("/update", h.Update).Methods(http.MethodPost)
	r.HandleFunc("/delete/{id}", h.Delete).Methods(http.MethodPost)
}

// List は GET /employee/list です。
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	const fallback = "An error occurred while retrieving employee data"

	var q listQuery
	if err := h.decoder.Decode(&q, camelKeys(r.URL.Query())); err != nil {
		writeError(w, r, h.logger, employee.ErrValidation, fallback)
		return
	}

	in, err := q.input()
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	result, err := h.svc.ListEmployees(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	w.Header().Set(TotalCountHeader, strconv.FormatInt(result.TotalCount, 10))
	writeJSON(w, http.StatusOK, toEmployeeResponses(result.Employees))
}

// Insert は POST /employee/insert です。
func (h *EmployeeHandler) Insert(w http.ResponseWriter, r *http.Request) {
	const fallback = "Error occurred while saving employee data"

	f, img, closeImage, err := parseEmployeeRequest(w, r, h.decoder, h.maxUploadBytes)
	defer closeImage()
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	fields, err := f.fields()
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	created, err := h.svc.CreateEmployee(r.Context(), employee.CreateEmployeeInput{Fields: fields, Image: img})
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	h.logChange(r, "employee inserted", created.ID)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Employee inserted successfully",
		Data:    toEmployeeResponse(created),
	})
}

// Edit は GET /employee/edit/{id} です。
func (h *EmployeeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	const fallback = "Error occurred while fetching employee data"

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	found, err := h.svc.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: id})
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: toEmployeeResponse(found)})
}

// Update は POST /employee/update です。
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	const fallback = "Error occurred while updating employee data"

	f, img, closeImage, err := parseEmployeeRequest(w, r, h.decoder, h.maxUploadBytes)
	defer closeImage()
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	id, err := parseID(f.ID)
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	fields, err := f.fields()
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	updated, err := h.svc.UpdateEmployee(r.Context(), employee.UpdateEmployeeInput{ID: id, Fields: fields, Image: img})
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	h.logChange(r, "employee updated", updated.ID)
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Employee updated successfully",
		Data:    toEmployeeResponse(updated),
	})
}

// Delete は POST /employee/delete/{id} です。
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const fallback = "An error occurred while deleting employee"

	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	if err := h.svc.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{ID: id}); err != nil {
		writeError(w, r, h.logger, err, fallback)
		return
	}

	h.logChange(r, "employee deleted", id)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Employee deleted successfully"})
}

// logChange は変更操作を認証済みのサブジェクトと合わせて記録します。
func (h *EmployeeHandler) logChange(r *http.Request, msg string, id int64) {
	entry := middleware.LoggerFromContext(r.Context(), h.logger).WithField("employee_id", id)
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		entry = entry.WithField("subject", claims.Subject)
	}
	entry.Info(msg)
}
