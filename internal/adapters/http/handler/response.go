package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

const dateLayout = "2006-01-02"

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// employeeResponse は社員の JSON 表現です。パスワードは出力しません。
type employeeResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Gender       string    `json:"gender"`
	Email        string    `json:"email"`
	PhoneNo      string    `json:"phoneNo"`
	Address      string    `json:"address"`
	Occupation   string    `json:"occupation"`
	DateOfBirth  string    `json:"dateOfBirth"`
	CreationDate time.Time `json:"creationDate"`
	Images       *string   `json:"images"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	return employeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Gender:       e.Gender,
		Email:        e.Email,
		PhoneNo:      e.PhoneNo,
		Address:      e.Address,
		Occupation:   e.Occupation,
		DateOfBirth:  e.DateOfBirth.Format(dateLayout),
		CreationDate: e.CreationDate.UTC(),
		Images:       e.Images,
	}
}

func toEmployeeResponses(list []*employee.Employee) []employeeResponse {
	out := make([]employeeResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEmployeeResponse(e))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
