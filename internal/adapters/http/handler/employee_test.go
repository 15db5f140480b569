package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
	"github.com/ogurasousui/codex-employee-api/internal/platform/token"
)

type stubEmployeeUseCase struct {
	createInput employee.CreateEmployeeInput
	createImage []byte
	createOut   *employee.Employee
	createErr   error

	updateInput employee.UpdateEmployeeInput
	updateOut   *employee.Employee
	updateErr   error

	deleteInput employee.DeleteEmployeeInput
	deleteErr   error

	getInput employee.GetEmployeeInput
	getOut   *employee.Employee
	getErr   error

	listInput employee.ListEmployeesInput
	listOut   *employee.ListEmployeesResult
	listErr   error
}

func (s *stubEmployeeUseCase) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	s.createInput = in
	if in.Image != nil {
		s.createImage, _ = io.ReadAll(in.Image.Content)
	}
	return s.createOut, s.createErr
}

func (s *stubEmployeeUseCase) GetEmployee(ctx context.Context, in employee.GetEmployeeInput) (*employee.Employee, error) {
	s.getInput = in
	return s.getOut, s.getErr
}

func (s *stubEmployeeUseCase) ListEmployees(ctx context.Context, in employee.ListEmployeesInput) (*employee.ListEmployeesResult, error) {
	s.listInput = in
	return s.listOut, s.listErr
}

func (s *stubEmployeeUseCase) UpdateEmployee(ctx context.Context, in employee.UpdateEmployeeInput) (*employee.Employee, error) {
	s.updateInput = in
	return s.updateOut, s.updateErr
}

func (s *stubEmployeeUseCase) DeleteEmployee(ctx context.Context, in employee.DeleteEmployeeInput) error {
	s.deleteInput = in
	return s.deleteErr
}

func newTestRouter(stub *stubEmployeeUseCase, maxUpload int64) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	r := mux.NewRouter()
	NewEmployeeHandler(stub, logger, maxUpload).Register(r.PathPrefix("/employee").Subrouter())
	return r
}

func sampleEmployee() *employee.Employee {
	images := "a.png"
	return &employee.Employee{
		ID:           7,
		Name:         "Jane Doe",
		Gender:       "Female",
		Email:        "jane@example.com",
		Password:     "secret",
		PhoneNo:      "0123456789",
		Address:      "1 Main Street",
		Occupation:   "Engineer",
		DateOfBirth:  time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		CreationDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Images:       &images,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartRequest(t *testing.T, target string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("Image", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestEmployeeHandler_List(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{listOut: &employee.ListEmployeesResult{
		Employees:  []*employee.Employee{sampleEmployee()},
		TotalCount: 31,
		PageNumber: 2,
		PageSize:   5,
	}}
	r := newTestRouter(stub, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/employee/list?fromDate=2025-01-01&toDate=2025-01-31&PageNumber=2&pageSize=5&sortColumn=Name&sortDirection=ASC&searchTerm=jane", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "31", rec.Header().Get(TotalCountHeader))

	in := stub.listInput
	assert.Equal(t, 2, in.PageNumber)
	assert.Equal(t, 5, in.PageSize)
	assert.Equal(t, "Name", in.SortColumn)
	assert.Equal(t, "ASC", in.SortDirection)
	assert.Equal(t, "jane", in.SearchTerm)
	require.NotNil(t, in.FromDate)
	require.NotNil(t, in.ToDate)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *in.FromDate)
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC), *in.ToDate)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "jane@example.com", list[0]["email"])
	assert.Equal(t, "1990-05-17", list[0]["dateOfBirth"])
	assert.Equal(t, "a.png", list[0]["images"])
	assert.NotContains(t, list[0], "password")
}

func TestEmployeeHandler_List_BadParameters(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query string
		err   error
	}{
		{query: "pageNumber=abc"},
		{query: "pageSize=ten"},
		{query: "fromDate=yesterday"},
		{query: "sortColumn=Password", err: employee.ErrInvalidSortColumn},
	}

	for _, tc := range cases {
		stub := &stubEmployeeUseCase{listErr: tc.err, listOut: &employee.ListEmployeesResult{}}
		rec := httptest.NewRecorder()
		newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/list?"+tc.query, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.query)
	}
}

func TestEmployeeHandler_List_InternalError(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{listErr: errors.New("pq: relation does not exist")}
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/list", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "An error occurred while retrieving employee data", body["message"])
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestEmployeeHandler_Insert_Multipart(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createOut: sampleEmployee()}
	r := newTestRouter(stub, 1<<20)

	req := multipartRequest(t, "/employee/insert", map[string]string{
		"Name":        "Jane Doe",
		"Gender":      "Female",
		"Email":       "jane@example.com",
		"Password":    "secret",
		"PhoneNo":     "0123456789",
		"Address":     "1 Main Street",
		"Occupation":  "Engineer",
		"DateOfBirth": "1990-05-17",
	}, []byte("image-bytes"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Employee inserted successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 7, data["id"])

	in := stub.createInput
	assert.Equal(t, "Jane Doe", in.Name)
	assert.Equal(t, "0123456789", in.PhoneNo)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), in.DateOfBirth)
	require.NotNil(t, in.Image)
	assert.Equal(t, "avatar.png", in.Image.Filename)
	assert.Equal(t, []byte("image-bytes"), stub.createImage)
}

func TestEmployeeHandler_Insert_URLEncodedWithoutImage(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createOut: sampleEmployee()}
	r := newTestRouter(stub, 1<<20)

	form := url.Values{
		"name":        {"Jane Doe"},
		"email":       {"jane@example.com"},
		"dateOfBirth": {"1990-05-17T00:00:00"},
	}
	req := httptest.NewRequest(http.MethodPost, "/employee/insert", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, stub.createInput.Image)
	assert.Nil(t, stub.createInput.Images)
	assert.Equal(t, "jane@example.com", stub.createInput.Email)
}

func TestEmployeeHandler_Insert_ValidationErrors(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createErr: &employee.ValidationError{Fields: map[string]string{
		"Email":   "Invalid email address",
		"PhoneNo": "Phone number must contain only numbers",
	}}}
	r := newTestRouter(stub, 1<<20)

	req := multipartRequest(t, "/employee/insert", map[string]string{"Email": "bad"}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "Invalid email address", errs["Email"])
	assert.Equal(t, "Phone number must contain only numbers", errs["PhoneNo"])
}

func TestEmployeeHandler_Insert_InvalidDate(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	req := multipartRequest(t, "/employee/insert", map[string]string{"DateOfBirth": "17/05/1990"}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "DateOfBirth is invalid", errs["DateOfBirth"])
	assert.Equal(t, "Name is required", errs["Name"])
	assert.Equal(t, "Email is required", errs["Email"])
	assert.Equal(t, employee.CreateEmployeeInput{}, stub.createInput)
}

func TestEmployeeHandler_Insert_InvalidDateWithOtherErrors(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	req := multipartRequest(t, "/employee/insert", map[string]string{
		"Name":        "Jane",
		"Gender":      "Female",
		"Email":       "not-an-email",
		"Password":    "secret",
		"PhoneNo":     "12-34",
		"Address":     "1 Main Street",
		"Occupation":  "Engineer",
		"DateOfBirth": "1990-13-45",
	}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decodeBody(t, rec)["errors"].(map[string]any)
	assert.Len(t, errs, 3)
	assert.Equal(t, "DateOfBirth is invalid", errs["DateOfBirth"])
	assert.Equal(t, "Invalid email address", errs["Email"])
	assert.Equal(t, "Phone number must contain only numbers", errs["PhoneNo"])
}

func TestEmployeeHandler_Insert_Conflict(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createErr: employee.ErrEmailAlreadyExists}
	req := multipartRequest(t, "/employee/insert", map[string]string{"Email": "jane@example.com"}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEmployeeHandler_Insert_TooLarge(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{createOut: sampleEmployee()}
	req := multipartRequest(t, "/employee/insert", map[string]string{"Name": "Jane"}, bytes.Repeat([]byte("x"), 4096))
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1024).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body too large", decodeBody(t, rec)["message"])
}

func TestEmployeeHandler_Edit(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{getOut: sampleEmployee()}
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/edit/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), stub.getInput.ID)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Jane Doe", body["data"].(map[string]any)["name"])
}

func TestEmployeeHandler_Edit_NotFound(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{getErr: employee.ErrEmployeeNotFound}
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/edit/404", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Employee not found", body["message"])
}

func TestEmployeeHandler_Edit_InvalidID(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	for _, id := range []string{"abc", "0", "-3"} {
		rec := httptest.NewRecorder()
		newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/edit/"+id, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
}

func TestEmployeeHandler_Update(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{updateOut: sampleEmployee()}
	req := multipartRequest(t, "/employee/update", map[string]string{
		"Id":          "7",
		"Name":        "Jane Doe",
		"DateOfBirth": "1990-05-17",
		"Images":      "",
	}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Employee updated successfully", decodeBody(t, rec)["message"])
	assert.Equal(t, int64(7), stub.updateInput.ID)
	require.NotNil(t, stub.updateInput.Images)
	assert.Equal(t, "", *stub.updateInput.Images)
	assert.Nil(t, stub.updateInput.Image)
}

func TestEmployeeHandler_Update_MissingID(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	req := multipartRequest(t, "/employee/update", map[string]string{"Name": "Jane"}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeHandler_Update_NotFound(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{updateErr: employee.ErrEmployeeNotFound}
	req := multipartRequest(t, "/employee/update", map[string]string{"id": "99", "DateOfBirth": "1990-05-17"}, nil)
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployeeHandler_Delete(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{}
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/employee/delete/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), stub.deleteInput.ID)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Employee deleted successfully", body["message"])
}

type subjectParser struct {
	subject string
}

func (p subjectParser) Parse(string) (*token.Claims, error) {
	return &token.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: p.subject}}, nil
}

func TestEmployeeHandler_Delete_LogsSubject(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	stub := &stubEmployeeUseCase{}

	r := mux.NewRouter()
	employees := r.PathPrefix("/employee").Subrouter()
	employees.Use(middleware.Bearer(subjectParser{subject: "admin@example.com"}, logger))
	NewEmployeeHandler(stub, logger, 1<<20).Register(employees)

	req := httptest.NewRequest(http.MethodPost, "/employee/delete/7", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "employee deleted", entry.Message)
	assert.Equal(t, "admin@example.com", entry.Data["subject"])
	assert.Equal(t, int64(7), entry.Data["employee_id"])
}

func TestEmployeeHandler_Delete_NotFound(t *testing.T) {
	t.Parallel()

	stub := &stubEmployeeUseCase{deleteErr: employee.ErrEmployeeNotFound}
	rec := httptest.NewRecorder()
	newTestRouter(stub, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/employee/delete/7", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Employee not found", decodeBody(t, rec)["message"])
}

func TestEmployeeHandler_Delete_WrongMethod(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(&stubEmployeeUseCase{}, 1<<20).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/delete/7", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
