package dto

import (
	"fmt"
	"sort"
	"strings"

	"github.com/handiism/comic-downloader/internal/model"
)

const (
	lowResMarker  = ".c800x."
	highResMarker = ".c1500x."
)

// JSONChapter is one entry of a group's chapter list.
type JSONChapter struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Size    int    `json:"size"`
	Count   int    `json:"count"`
	Ordered int64  `json:"ordered"`
	Type    int    `json:"type"`
}

// JSONChapterList is the results object of
// GET /api/v3/comic/{path_word}/group/{group}/chapters.
type JSONChapterList struct {
	List   []JSONChapter `json:"list"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// JSONContent is one image reference of a chapter.
type JSONContent struct {
	URL string `json:"url"`
}

// JSONChapterDetail is the "chapter" object of the chapter endpoint.
//
// Contents are not in reading order: Words[i] is the 0-based page index
// of Contents[i].
type JSONChapterDetail struct {
	UUID     string        `json:"uuid"`
	Name     string        `json:"name"`
	Contents []JSONContent `json:"contents"`
	Words    []int         `json:"words"`
}

// JSONChapterPages is the results object of
// GET /api/v3/comic/{path_word}/chapter2/{uuid}.
type JSONChapterPages struct {
	Chapter JSONChapterDetail `json:"chapter"`
}

// ToPages pairs every content URL with its page index, upgrades the URL to
// the high resolution variant and returns the pages in reading order.
func (j *JSONChapterPages) ToPages() ([]model.Page, error) {
	ch := j.Chapter
	if len(ch.Words) != len(ch.Contents) {
		return nil, fmt.Errorf("chapter %s: %d contents but %d page indices", ch.UUID, len(ch.Contents), len(ch.Words))
	}

	pages := make([]model.Page, len(ch.Contents))
	for i, content := range ch.Contents {
		pages[i] = model.Page{
			Index: ch.Words[i],
			URL:   strings.Replace(content.URL, lowResMarker, highResMarker, 1),
		}
	}
	sort.Slice(pages, func(a, b int) bool { return pages[a].Index < pages[b].Index })
	return pages, nil
}
