package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("state")
	require.NoError(t, err)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_ExistingDirIsFine(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	_, err := EnsureSubdDir("state")
	require.NoError(t, err)
	_, err = EnsureSubdDir("state")
	require.NoError(t, err)
}

func TestWriteFileAtomic_WritesAndReplaces(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "tokens.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"index":0}`)))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"index":1}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"index":1}`, string(data))

	// no temp files left behind
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
