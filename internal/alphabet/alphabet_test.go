package alphabet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a, err := New([]string{" ", "a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 4, a.Size())
	assert.Equal(t, 5, a.ClassCount())
	assert.Equal(t, 4, a.BlankID())
	assert.Equal(t, 0, a.SpaceID())
	assert.True(t, a.IsSpace(0))
	assert.False(t, a.IsSpace(1))
	assert.Equal(t, "b", a.Label(2))
	assert.Equal(t, 2, a.Index("b"))
	assert.Equal(t, -1, a.Index("z"))
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_Duplicates(t *testing.T) {
	a, err := New([]string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Size())
	assert.Equal(t, 0, a.Index("a"))
}

func TestNew_NoSpace(t *testing.T) {
	a, err := New([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, -1, a.SpaceID())
	assert.False(t, a.IsSpace(0))
}

func TestDecode(t *testing.T) {
	a, err := New([]string{" ", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "ab a", a.Decode([]int{1, 2, 0, 1}))
	// out-of-range ids are skipped
	assert.Equal(t, "a", a.Decode([]int{1, 99}))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alphabet.txt")
	content := "# comment line\n \na\nb\nc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	a, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, a.Size())
	assert.Equal(t, 0, a.SpaceID())
	assert.Equal(t, "c", a.Label(3))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("/nonexistent/alphabet.txt")
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_BOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alphabet.txt")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFa\nb\n"), 0o600))

	a, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Size())
	assert.Equal(t, "a", a.Label(0))
}

func TestLoad_CRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alphabet.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb\r\n"), 0o600))

	a, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Size())
	assert.Equal(t, "b", a.Label(1))
}
