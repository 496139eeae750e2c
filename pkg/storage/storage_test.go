package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e-hrm/backend/config"
)

func newTestStore(t *testing.T, maxSize int64) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(&config.StorageConfig{
		UploadDir:     t.TempDir(),
		PublicBaseURL: "http://files.local/uploads/",
		MaxSize:       maxSize,
	})
	require.NoError(t, err)
	return s
}

func TestLocalStore_Save(t *testing.T) {
	s := newTestStore(t, 1024)

	url, err := s.Save(context.Background(), "approvals/leave", "bukti.PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://files.local/uploads/approvals/leave/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))

	rel := strings.TrimPrefix(url, "http://files.local/uploads/")
	data, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalStore_RejectsType(t *testing.T) {
	s := newTestStore(t, 1024)
	_, err := s.Save(context.Background(), "x", "run.sh", strings.NewReader("echo"))
	assert.ErrorIs(t, err, ErrFileTypeInvalid)
}

func TestLocalStore_RejectsOversize(t *testing.T) {
	s := newTestStore(t, 4)
	_, err := s.Save(context.Background(), "x", "a.png", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Root(), "x"))
	require.NoError(t, err)
	assert.Empty(t, entries, "超限文件应被删除")
}

func TestLocalStore_Remove(t *testing.T) {
	s := newTestStore(t, 1024)
	ctx := context.Background()

	url, err := s.Save(ctx, "proofs/leave", "bukti.png", strings.NewReader("png"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, url))
	entries, err := os.ReadDir(filepath.Join(s.Root(), "proofs", "leave"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	// 重复删除不报错
	assert.NoError(t, s.Remove(ctx, url))

	assert.ErrorIs(t, s.Remove(ctx, "http://elsewhere/a.png"), ErrForeignURL)
	assert.ErrorIs(t, s.Remove(ctx, "http://files.local/uploads/../secret.pdf"), ErrForeignURL)
}

func TestSanitizeFolder(t *testing.T) {
	assert.Equal(t, "a/b", sanitizeFolder("../a/./b/.."))
	assert.Equal(t, "misc", sanitizeFolder("../.."))
}
