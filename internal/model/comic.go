package model

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ComicStatus is the serialization status of a comic.
type ComicStatus string

const (
	ComicOngoing   ComicStatus = "ongoing"
	ComicCompleted ComicStatus = "completed"
)

// Display returns a human readable label for the status.
func (s ComicStatus) Display() string {
	if s == ComicCompleted {
		return "Completed"
	}
	return "Ongoing"
}

// Author is a credited creator of a comic.
type Author struct {
	Name     string `json:"name"`
	Alias    string `json:"alias,omitempty"`
	PathWord string `json:"path_word"`
}

// Group is a named sequence of chapters within a comic, such as the main
// serialization or a collection of extras.
type Group struct {
	PathWord string        `json:"path_word"`
	Name     string        `json:"name"`
	Count    int           `json:"count"`
	Chapters []ChapterInfo `json:"chapters"`
}

// Comic represents a comic with its metadata and chapter groups.
//
// Comic carries everything needed to resolve where its chapters are saved:
//   - Name and PathWord for identification and directory naming
//   - Groups mapping a group path word to its ordered chapters
//   - ComicDownloadDir once ResolveDirs or LinkDownloadDir has run
//
// Example:
//
//	comic.ResolveDirs("/comics", "{comic_title}", "{group_title}/{order:0>4} {chapter_title}", false)
//	chapter, _ := comic.Chapter(chapterUUID)
//	fmt.Println(chapter.ChapterDownloadDir) // "/comics/Title/Main/0005 Chapter 5"
type Comic struct {
	UUID            string           `json:"uuid"`
	Name            string           `json:"name"`
	Alias           string           `json:"alias,omitempty"`
	PathWord        string           `json:"path_word"`
	Authors         []Author         `json:"authors"`
	Themes          []string         `json:"themes,omitempty"`
	Region          string           `json:"region,omitempty"`
	Status          ComicStatus      `json:"status"`
	Brief           string           `json:"brief,omitempty"`
	Cover           string           `json:"cover,omitempty"`
	DatetimeUpdated string           `json:"datetime_updated,omitempty"`
	Popular         int64            `json:"popular"`
	Groups          map[string]Group `json:"groups"`

	// IsDownloaded is true when a directory for this comic exists in the library.
	IsDownloaded bool `json:"is_downloaded,omitempty"`

	// ComicDownloadDir is the absolute directory holding the comic's chapters.
	ComicDownloadDir string `json:"comic_download_dir,omitempty"`
}

// Clone returns a deep copy of the comic so the copy can be shared
// read-only with download tasks.
func (c *Comic) Clone() *Comic {
	out := *c
	out.Authors = append([]Author(nil), c.Authors...)
	out.Themes = append([]string(nil), c.Themes...)
	out.Groups = make(map[string]Group, len(c.Groups))
	for key, group := range c.Groups {
		group.Chapters = append([]ChapterInfo(nil), group.Chapters...)
		out.Groups[key] = group
	}
	return &out
}

// AuthorNames returns the author names joined with commas.
func (c *Comic) AuthorNames() string {
	names := make([]string, 0, len(c.Authors))
	for _, a := range c.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ",")
}

// GroupKeys returns the group path words sorted with "default" first.
func (c *Comic) GroupKeys() []string {
	keys := make([]string, 0, len(c.Groups))
	for key := range c.Groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "default" || keys[j] == "default" {
			return keys[i] == "default"
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Chapter finds a chapter by uuid across all groups.
func (c *Comic) Chapter(uuid string) (ChapterInfo, bool) {
	for _, group := range c.Groups {
		for _, ch := range group.Chapters {
			if ch.ChapterUUID == uuid {
				return ch, true
			}
		}
	}
	return ChapterInfo{}, false
}

// updateChapters applies fn to every chapter in place.
func (c *Comic) updateChapters(fn func(ch *ChapterInfo) error) error {
	for key, group := range c.Groups {
		for i := range group.Chapters {
			if err := fn(&group.Chapters[i]); err != nil {
				return err
			}
		}
		c.Groups[key] = group
	}
	return nil
}

// ResolveDirs computes ComicDownloadDir and every chapter's ChapterDownloadDir
// from the directory templates.
//
// A comic or chapter that is already known to be downloaded keeps its
// existing directory so renamed templates do not orphan earlier downloads.
// When separateChapterType is set, a directory named after the chapter type
// is inserted between the comic and chapter directories.
func (c *Comic) ResolveDirs(downloadDir, comicFmt, chapterFmt string, separateChapterType bool) error {
	if c.ComicDownloadDir == "" || !c.IsDownloaded {
		rel, err := formatPath(comicFmt, c.templateVars())
		if err != nil {
			return fmt.Errorf("comic dir format: %w", err)
		}
		c.ComicDownloadDir = filepath.Join(downloadDir, rel)
	}

	return c.updateChapters(func(ch *ChapterInfo) error {
		if ch.IsDownloaded && ch.ChapterDownloadDir != "" {
			return nil
		}
		rel, err := formatPath(chapterFmt, ch.templateVars(c))
		if err != nil {
			return fmt.Errorf("chapter dir format: %w", err)
		}
		base := c.ComicDownloadDir
		if separateChapterType {
			base = filepath.Join(base, ch.ChapterType.DirName())
		}
		ch.ChapterDownloadDir = filepath.Join(base, rel)
		return nil
	})
}

func (c *Comic) templateVars() map[string]string {
	return map[string]string{
		"comic_uuid":      c.UUID,
		"comic_path_word": c.PathWord,
		"comic_title":     c.Name,
		"author":          c.AuthorNames(),
		"comic_status":    c.Status.Display(),
	}
}
