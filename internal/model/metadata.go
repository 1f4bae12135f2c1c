package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ioutils "github.com/handiism/comic-downloader/internal/io"
)

const (
	// ComicMetadataFile is written into every comic directory.
	ComicMetadataFile = "metadata.json"

	// ChapterMetadataFile is written into every committed chapter directory.
	ChapterMetadataFile = "chapter_metadata.json"
)

// SaveMetadata writes the comic to ComicDownloadDir/metadata.json.
//
// Download flags and directories are derived from the file's location on
// load, so they are stripped before writing.
func (c *Comic) SaveMetadata() error {
	if c.ComicDownloadDir == "" {
		return errors.New("comic download dir not resolved")
	}

	out := c.Clone()
	out.IsDownloaded = false
	out.ComicDownloadDir = ""
	_ = out.updateChapters(func(ch *ChapterInfo) error {
		ch.IsDownloaded = false
		ch.ChapterDownloadDir = ""
		return nil
	})

	return writeJSON(c.ComicDownloadDir, ComicMetadataFile, out)
}

// SaveMetadata writes the chapter to ChapterDownloadDir/chapter_metadata.json.
func (ch *ChapterInfo) SaveMetadata() error {
	if ch.ChapterDownloadDir == "" {
		return ErrNoDownloadDir
	}

	out := *ch
	out.IsDownloaded = false
	out.ChapterDownloadDir = ""

	return writeJSON(ch.ChapterDownloadDir, ChapterMetadataFile, &out)
}

func writeJSON(dir, name string, v any) error {
	if err := ioutils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return ioutils.WriteFile(filepath.Join(dir, name), data)
}

// LoadComicMetadata reads a comic back from a metadata file and links it to
// the directory containing that file.
func LoadComicMetadata(path string) (*Comic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var comic Comic
	if err := json.Unmarshal(data, &comic); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := comic.LinkDownloadDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &comic, nil
}

// LinkDownloadDir marks the comic as downloaded into dir and flags every
// chapter whose metadata file is found below it.
func (c *Comic) LinkDownloadDir(dir string) error {
	c.ComicDownloadDir = dir
	c.IsDownloaded = true
	return c.MarkDownloaded()
}

// MarkDownloaded walks ComicDownloadDir for chapter metadata files and sets
// IsDownloaded and ChapterDownloadDir on the matching chapters.
func (c *Comic) MarkDownloaded() error {
	if c.ComicDownloadDir == "" {
		return errors.New("comic download dir not resolved")
	}
	if !ioutils.Exists(c.ComicDownloadDir) {
		return nil
	}

	type chapterKey struct{ group, uuid string }
	found := make(map[chapterKey]string)

	err := filepath.WalkDir(c.ComicDownloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), StagingPrefix) {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ChapterMetadataFile {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var meta ChapterInfo
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		found[chapterKey{meta.GroupPathWord, meta.ChapterUUID}] = filepath.Dir(path)
		return nil
	})
	if err != nil {
		return err
	}

	return c.updateChapters(func(ch *ChapterInfo) error {
		if dir, ok := found[chapterKey{ch.GroupPathWord, ch.ChapterUUID}]; ok {
			ch.IsDownloaded = true
			ch.ChapterDownloadDir = dir
		}
		return nil
	})
}

// ScanLibrary walks root and maps each comic path word to the directory
// holding its metadata file.
func ScanLibrary(root string) (map[string]string, error) {
	library := make(map[string]string)
	if !ioutils.Exists(root) {
		return library, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || d.Name() != ComicMetadataFile {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var meta struct {
			PathWord string `json:"path_word"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if meta.PathWord == "" {
			return fmt.Errorf("%s has no path_word", path)
		}
		if _, ok := library[meta.PathWord]; !ok {
			library[meta.PathWord] = filepath.Dir(path)
		}
		return nil
	})
	return library, err
}
