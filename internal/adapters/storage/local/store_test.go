package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestStore_SaveAndRemove(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Images")
	store := New(dir)

	name, err := store.Save(context.Background(), employee.Image{Filename: "me.png", Content: bytes.NewReader(pngSignature)})
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, pngSignature, stored)

	require.NoError(t, store.Remove(context.Background(), name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(context.Background(), name), "removing twice is not an error")
}

func TestStore_SaveRejectsNonImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := New(dir)

	_, err := store.Save(context.Background(), employee.Image{Filename: "x.png", Content: strings.NewReader("<html></html>")})
	assert.ErrorIs(t, err, employee.ErrInvalidImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_RemoveRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	assert.Error(t, store.Remove(context.Background(), "../secret.txt"))
}
