// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writing and directory creation
//   - Filename sanitization for cross-platform compatibility
//   - Staging directory pruning and commit
//   - Image format detection and conversion
//
// # File Operations
//
//	// Write a page atomically
//	err := ioutils.WriteFile("/comics/Title/.downloading-0001 Ch/001.webp", data)
//
//	// Publish a finished chapter
//	err := ioutils.Commit(stagingDir, finalDir)
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Vol.1/Part: 2") // Returns "Vol.1 Part： 2"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	out, err := svc.Convert(data, ioutils.DetectFormat(data), ioutils.FormatWEBP)
package ioutils
