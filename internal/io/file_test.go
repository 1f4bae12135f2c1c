package ioutils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"normal name", "normal name"},
		{"a/b\\c", "a b c"},
		{"Vol.1: Part 2", "Vol.1： Part 2"},
		{"what?", "what？"},
		{`say "hi"`, "say 'hi'"},
		{"<title>", "《title》"},
		{"a|b", "a丨b"},
		{"star*", "star⭐"},
		{"multiple   spaces", "multiple spaces"},
		{"  padded  ", "padded"},
		{"tab\there", "tab here"},
		{"bell\x07", "bell"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeFileName(tt.input))
		})
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "001.webp")

	require.NoError(t, WriteFile(path, []byte("page")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "page", string(data))

	leftovers, err := filepath.Glob(path + ".*" + partSuffix)
	require.NoError(t, err)
	require.Empty(t, leftovers)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteFile_ConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- WriteFile(path, []byte(fmt.Sprintf(`{"writer":%03d}`, i)))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Regexp(t, `^\{"writer":\d{3}\}$`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPruneForeignFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"001.webp", "002.jpg", "003.webp", "004.png", "chapter_metadata.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	removed, err := PruneForeignFiles(dir, "webp")
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"001.webp", "003.webp", "chapter_metadata.json", "nested"}, names)
}

func TestCommit(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, ".downloading-0001 Chapter")
	final := filepath.Join(root, "0001 Chapter")

	require.NoError(t, EnsureDir(staging))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "001.webp"), []byte("new"), 0644))

	// A stale final directory is replaced wholesale.
	require.NoError(t, EnsureDir(final))
	require.NoError(t, os.WriteFile(filepath.Join(final, "999.webp"), []byte("old"), 0644))

	require.NoError(t, Commit(staging, final))

	require.False(t, Exists(staging))
	require.True(t, Exists(filepath.Join(final, "001.webp")))
	require.False(t, Exists(filepath.Join(final, "999.webp")))
}

func TestCommit_MissingStaging(t *testing.T) {
	root := t.TempDir()
	err := Commit(filepath.Join(root, "missing"), filepath.Join(root, "final"))
	require.Error(t, err)
	require.False(t, Exists(filepath.Join(root, "final")))
}
