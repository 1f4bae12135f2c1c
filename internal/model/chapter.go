package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// StagingPrefix marks a chapter directory that is still being downloaded.
const StagingPrefix = ".downloading-"

// ErrNoDownloadDir is returned when a chapter's directory has not been resolved.
var ErrNoDownloadDir = errors.New("chapter download dir not resolved")

// ChapterType classifies a chapter within its group.
type ChapterType int

const (
	ChapterTypeChapter ChapterType = 1
	ChapterTypeVolume  ChapterType = 2
	ChapterTypeExtra   ChapterType = 3
)

// DirName returns the directory used when chapters are separated by type.
func (t ChapterType) DirName() string {
	switch t {
	case ChapterTypeChapter:
		return "Chapters"
	case ChapterTypeVolume:
		return "Volumes"
	case ChapterTypeExtra:
		return "Extras"
	default:
		return "Other"
	}
}

// ChapterInfo describes a single chapter and where it is stored locally.
//
// Order is a decimal so that inserted chapters such as "5.1" sort between
// their neighbours. ChapterDownloadDir is the final, committed location and
// is empty until the owning comic's directories are resolved.
type ChapterInfo struct {
	ChapterUUID   string      `json:"chapter_uuid"`
	ChapterTitle  string      `json:"chapter_title"`
	ChapterSize   int         `json:"chapter_size"`
	ComicUUID     string      `json:"comic_uuid"`
	ComicTitle    string      `json:"comic_title"`
	ComicPathWord string      `json:"comic_path_word"`
	GroupPathWord string      `json:"group_path_word"`
	GroupName     string      `json:"group_name"`
	GroupSize     int         `json:"group_size"`
	Order         float64     `json:"order"`
	ComicStatus   ComicStatus `json:"comic_status"`
	ChapterType   ChapterType `json:"chapter_type"`

	IsDownloaded       bool   `json:"is_downloaded,omitempty"`
	ChapterDownloadDir string `json:"chapter_download_dir,omitempty"`
}

// OrderString renders Order without a trailing ".0" for whole numbers.
func (ch *ChapterInfo) OrderString() string {
	return strconv.FormatFloat(ch.Order, 'f', -1, 64)
}

// StagingDir returns the in-progress sibling of ChapterDownloadDir.
//
// Example: "/comics/Title/Main/0005 Ch" becomes "/comics/Title/Main/.downloading-0005 Ch".
func (ch *ChapterInfo) StagingDir() (string, error) {
	if ch.ChapterDownloadDir == "" {
		return "", ErrNoDownloadDir
	}
	dir := filepath.Clean(ch.ChapterDownloadDir)
	return filepath.Join(filepath.Dir(dir), StagingPrefix+filepath.Base(dir)), nil
}

func (ch *ChapterInfo) templateVars(c *Comic) map[string]string {
	vars := c.templateVars()
	vars["group_path_word"] = ch.GroupPathWord
	vars["group_title"] = ch.GroupName
	vars["chapter_uuid"] = ch.ChapterUUID
	vars["chapter_title"] = ch.ChapterTitle
	vars[orderVar] = ch.OrderString()
	return vars
}

// Page is one image of a chapter.
//
// Index is the 0-based reading position; page files are named after Index+1.
type Page struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
}

// FileName returns the page file name for the given extension, e.g. "001.webp".
func (p Page) FileName(ext string) string {
	return fmt.Sprintf("%03d.%s", p.Index+1, ext)
}
