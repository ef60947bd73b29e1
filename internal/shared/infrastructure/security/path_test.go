package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedTempDir(t *testing.T) string {
	t.Helper()
	// On macOS, /var is a symlink to /private/var.
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestValidateFilePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidateFilePath("")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects dangerous shell characters", func(t *testing.T) {
		for _, char := range dangerousChars {
			_, err := ValidateFilePath("/tmp/doc" + char + "file.json")
			assert.ErrorContains(t, err, "forbidden character", "character %q", char)
		}
	})

	t.Run("converts relative path to absolute", func(t *testing.T) {
		result, err := ValidateFilePath("doc.json")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(result))
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		dir := resolvedTempDir(t)
		real := filepath.Join(dir, "real.json")
		require.NoError(t, os.WriteFile(real, []byte("{}"), 0o644))
		link := filepath.Join(dir, "link.json")
		require.NoError(t, os.Symlink(real, link))

		result, err := ValidateFilePath(link)
		require.NoError(t, err)
		assert.Equal(t, real, result)
	})

	t.Run("resolves the parent of a new file", func(t *testing.T) {
		dir := resolvedTempDir(t)
		require.NoError(t, os.Symlink(dir, filepath.Join(dir, "alias")))

		result, err := ValidateFilePath(filepath.Join(dir, "alias", "new.json"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "new.json"), result)
	})
}

func TestValidateFilePathInDir(t *testing.T) {
	root := resolvedTempDir(t)

	t.Run("accepts a relative path inside the root", func(t *testing.T) {
		result, err := ValidateFilePathInDir("graphs/doc.json", root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "graphs", "doc.json"), result)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := ValidateFilePathInDir("../outside.json", root)
		assert.ErrorIs(t, err, ErrPathOutsideRoot)
	})

	t.Run("rejects an absolute path elsewhere", func(t *testing.T) {
		_, err := ValidateFilePathInDir(filepath.Join(resolvedTempDir(t), "doc.json"), root)
		assert.ErrorIs(t, err, ErrPathOutsideRoot)
	})

	t.Run("rejects a sibling with a common prefix", func(t *testing.T) {
		_, err := ValidateFilePathInDir(root+"-other/doc.json", root)
		assert.ErrorIs(t, err, ErrPathOutsideRoot)
	})

	t.Run("rejects a symlink out of the root", func(t *testing.T) {
		outside := resolvedTempDir(t)
		require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))
		_, err := ValidateFilePathInDir("escape/doc.json", root)
		assert.ErrorIs(t, err, ErrPathOutsideRoot)
	})

	t.Run("requires a root", func(t *testing.T) {
		_, err := ValidateFilePathInDir("doc.json", "")
		assert.Error(t, err)
	})
}

func TestReadWriteFile(t *testing.T) {
	root := resolvedTempDir(t)

	written, err := WriteFile("doc.json", root, []byte(`{"bindings":[]}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "doc.json"), written)

	data, err := ReadFile("doc.json", root)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bindings":[]}`, string(data))

	data, err = ReadFile(written, "")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	f, err := Open(written, root)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = WriteFile("../doc.json", root, nil)
	assert.True(t, errors.Is(err, ErrPathOutsideRoot))

	_, err = ReadFile("missing.json", root)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
