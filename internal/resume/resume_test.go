package resume

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadFileText(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"cv.txt", "CV.MD"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("\n  Go developer, 5 years\n"), 0o600))

		text, err := ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "Go developer, 5 years", text)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))

	image := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(image, []byte("png"), 0o600))

	for _, path := range []string{
		filepath.Join(dir, "missing.txt"),
		empty,
		image,
		filepath.Join(dir, "no-extension"),
	} {
		_, err := ReadFile(path)
		require.Error(t, err, path)
	}
}
