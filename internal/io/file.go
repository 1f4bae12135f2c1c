// Package ioutils provides file system utilities for the comic-downloader.
//
// This package contains functions for:
//   - Atomic file writing
//   - Filename sanitization
//   - Directory creation
//   - Staging directory hygiene and commit
package ioutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// partSuffix marks a file that is still being written.
const partSuffix = ".part"

var (
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	whitespace   = regexp.MustCompile(`\s+`)

	// fullWidth maps characters that are illegal in file names on at least
	// one platform to a visually similar replacement.
	fullWidth = strings.NewReplacer(
		`\`, " ",
		"/", " ",
		":", "：",
		"*", "⭐",
		"?", "？",
		`"`, "'",
		"<", "《",
		">", "》",
		"|", "丨",
	)
)

// WriteFile writes data to path atomically.
//
// The data is first written to a uniquely named "<name>.*.part" file in the
// same directory and then renamed over path, so a reader never observes a
// half-written file and concurrent writers of one path never share a temp file.
//
// Example:
//
//	err := WriteFile("/comics/Title/Chapter/001.webp", data)
func WriteFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*"+partSuffix)
	if err != nil {
		return err
	}
	tmp := f.Name()

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, 0644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// SanitizeFileName replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Slashes and backslashes → space
//   - : * ? " < > | → full-width lookalikes (：⭐？'《》丨)
//   - Control characters → removed
//   - Multiple whitespace → single space
//   - Leading and trailing whitespace → removed
//
// Example:
//
//	SanitizeFileName("Vol.1/Part: 2")   // Returns "Vol.1 Part： 2"
//	SanitizeFileName("  What?  ")       // Returns "What？"
func SanitizeFileName(name string) string {
	name = fullWidth.Replace(name)
	name = controlChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PruneForeignFiles removes regular files in dir whose extension is not ext.
//
// ext is given without the leading dot. JSON files are kept since they carry
// metadata rather than pages. The number of removed files is returned.
func PruneForeignFiles(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		got := strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), ".")
		if got == strings.ToLower(ext) || got == "json" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove stale file %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Commit publishes a staging directory at its final path.
//
// An existing final directory is removed first, then staging is renamed onto
// final. The rename is the only point at which final appears with content.
func Commit(staging, final string) error {
	if _, err := os.Stat(staging); err != nil {
		return fmt.Errorf("staging dir: %w", err)
	}
	if err := os.RemoveAll(final); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", final, err)
	}
	if err := EnsureDir(filepath.Dir(final)); err != nil {
		return err
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("rename %s to %s: %w", staging, final, err)
	}
	return nil
}
