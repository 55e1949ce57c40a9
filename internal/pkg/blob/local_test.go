package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/docagent/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "abc.pdf", []byte("%PDF-1.4"), "application/pdf"))

	rc, err := store.Open(ctx, "abc.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(ctx, "abc.pdf"))
	require.NoError(t, store.Delete(ctx, "abc.pdf"))

	_, err = store.Open(ctx, "abc.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../etc/passwd", `a\b.pdf`} {
		assert.Error(t, store.Put(context.Background(), key, []byte("x"), ""), key)
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Driver: config.StorageLocal}, t.TempDir(), nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	store, err = New(context.Background(), config.StorageConfig{
		Driver: config.StorageS3,
		S3:     config.S3StorageConfig{Bucket: "docs", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000"},
	}, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	_, err = New(context.Background(), config.StorageConfig{Driver: "ftp"}, "", nil)
	assert.Error(t, err)

	assert.Equal(t, "docs/a.pdf", objectName("docs", "a.pdf"))
	assert.Equal(t, "a.pdf", objectName("", "a.pdf"))
}
