package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodayFilename(t *testing.T) {
	day := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "stdout_3-7-26.log", TodayFilename(day))
}

func TestResolveDir_EnvWins(t *testing.T) {
	t.Setenv(EnvLogDir, "/var/log/docagent")
	assert.Equal(t, "/var/log/docagent", ResolveDir("./logs"))

	t.Setenv(EnvLogDir, "")
	assert.Equal(t, "custom", ResolveDir(" custom "))
	assert.Equal(t, filepath.Join(".", "logs"), ResolveDir(""))
}

func TestWriter_AppendsToDailyFile(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	day := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.Local)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "stdout_1-2-26.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
