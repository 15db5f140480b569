package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/storage"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

// Store は画像をローカルディレクトリへ保存します。
type Store struct {
	dir string
}

// New は Store を生成します。ディレクトリは最初の保存時に作成されます。
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir は保存先ディレクトリを返します。
func (s *Store) Dir() string {
	return s.dir
}

// Save は画像を保存し、保存名を返します。
func (s *Store) Save(_ context.Context, img employee.Image) (string, error) {
	obj, err := storage.Prepare(img)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("local: create dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, obj.Name), obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("local: write %s: %w", obj.Name, err)
	}
	return obj.Name, nil
}

// Remove は保存済みの画像を削除します。存在しない場合は何もしません。
func (s *Store) Remove(_ context.Context, name string) error {
	if !storage.ValidName(name) {
		return fmt.Errorf("local: invalid image name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local: remove %s: %w", name, err)
	}
	return nil
}
