package storage

import (
	"fmt"
	"io"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

var allowedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
}

// Object は保存可能な状態に整えた画像です。
type Object struct {
	Name        string
	ContentType string
	Data        []byte
}

// Prepare は画像の内容を判定し、保存名を採番します。画像以外は employee.ErrInvalidImage です。
func Prepare(img employee.Image) (*Object, error) {
	if img.Content == nil {
		return nil, employee.ErrInvalidImage
	}

	data, err := io.ReadAll(img.Content)
	if err != nil {
		return nil, fmt.Errorf("storage: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, employee.ErrInvalidImage
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedImageTypes...) {
		return nil, fmt.Errorf("%w: unsupported content type %s", employee.ErrInvalidImage, mime.String())
	}

	return &Object{
		Name:        uuid.NewString() + mime.Extension(),
		ContentType: mime.String(),
		Data:        data,
	}, nil
}

// ValidName は保存名がディレクトリを含まない単一の名前かを返します。
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return path.Base(name) == name && !containsSeparator(name)
}

func containsSeparator(name string) bool {
	for _, r := range name {
		if r == '/' || r == '\\' {
			return true
		}
	}
	return false
}
