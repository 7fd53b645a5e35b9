// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"io"
	"os"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustClose closes the given io.Closer.
// The test fails immediately if the close fails.
func MustClose(t testing.TB, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
}

// DirNames returns the sorted entry names of dir.
func DirNames(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read directory %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// AssertEmptyDir fails the test for every entry left in dir.
func AssertEmptyDir(t testing.TB, dir string) {
	t.Helper()
	for _, name := range DirNames(t, dir) {
		t.Errorf("unexpected file left in %s: %s", dir, name)
	}
}

// GunzipLen returns the decompressed size of the gzip file at path.
func GunzipLen(t testing.TB, path string) int64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer MustClose(t, f)

	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader for %s: %v", path, err)
	}
	n, err := io.Copy(io.Discard, zr)
	if err != nil {
		t.Fatalf("decompress %s: %v", path, err)
	}
	return n
}
