// Package testutil provides filesystem and archive fixtures shared across
// the test suites.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateTree materializes a map of slash-relative paths to contents under
// rootDir. A trailing slash or empty content makes a directory.
func CreateTree(t *testing.T, rootDir string, structure map[string]string) {
	t.Helper()
	for path, content := range structure {
		fullPath := filepath.Join(rootDir, filepath.FromSlash(path))
		if strings.HasSuffix(path, "/") || content == "" {
			require.NoError(t, os.MkdirAll(fullPath, 0o755), "Failed to create directory %s", fullPath)
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755), "Failed to create parent of %s", fullPath)
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644), "Failed to write file %s", fullPath)
	}
}

// BuildZip produces zip file bytes containing the given name->content
// entries. A name ending in "/" creates a directory entry.
func BuildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// BuildTar produces tar file bytes containing the given name->content
// entries. A name ending in "/" creates a directory entry.
func BuildTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	for name, content := range entries {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, w.WriteHeader(&tar.Header{
				Name:     name,
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			}))
			continue
		}
		require.NoError(t, w.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// BuildGzip produces gzip bytes for a single payload.
func BuildGzip(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// WriteFixture writes data to dir/name and returns the full path.
func WriteFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644), "Failed to write fixture %s", path)
	return path
}
