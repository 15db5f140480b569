package employee

import (
	"context"
	"io"
	"strings"
	"time"
)

// Employee は社員エンティティです。ID と CreationDate はデータベースが採番します。
type Employee struct {
	ID           int64
	Name         string
	Gender       string
	Email        string
	Password     string
	PhoneNo      string
	Address      string
	Occupation   string
	DateOfBirth  time.Time
	CreationDate time.Time
	Images       *string
}

// Image はアップロードされたプロフィール画像です。
type Image struct {
	Filename string
	Content  io.Reader
}

// ImageStore はプロフィール画像の保存先の抽象です。
type ImageStore interface {
	Save(ctx context.Context, img Image) (string, error)
	Remove(ctx context.Context, name string) error
}

// SortColumn は一覧の並び替え対象列です。
type SortColumn string

const (
	SortByID           SortColumn = "Id"
	SortByName         SortColumn = "Name"
	SortByGender       SortColumn = "Gender"
	SortByEmail        SortColumn = "Email"
	SortByPhoneNo      SortColumn = "PhoneNo"
	SortByAddress      SortColumn = "Address"
	SortByOccupation   SortColumn = "Occupation"
	SortByDateOfBirth  SortColumn = "DateOfBirth"
	SortByCreationDate SortColumn = "CreationDate"
)

var sortColumns = map[string]SortColumn{
	"id":           SortByID,
	"name":         SortByName,
	"gender":       SortByGender,
	"email":        SortByEmail,
	"phoneno":      SortByPhoneNo,
	"address":      SortByAddress,
	"occupation":   SortByOccupation,
	"dateofbirth":  SortByDateOfBirth,
	"creationdate": SortByCreationDate,
}

// ParseSortColumn は大文字小文字を区別せずに並び替え列を解釈します。空文字は CreationDate です。
func ParseSortColumn(raw string) (SortColumn, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SortByCreationDate, nil
	}
	col, ok := sortColumns[strings.ToLower(trimmed)]
	if !ok {
		return "", ErrInvalidSortColumn
	}
	return col, nil
}

// SortDirection は並び順です。
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortDirection は ASC / DESC を解釈します。空文字は DESC です。
func ParseSortDirection(raw string) (SortDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	default:
		return "", ErrInvalidSortDirection
	}
}
