package dto

import (
	"github.com/handiism/comic-downloader/internal/model"
)

// LabeledValue is the API's enum encoding, e.g. {"value": 0, "display": "连载中"}.
type LabeledValue struct {
	Value   int    `json:"value"`
	Display string `json:"display"`
}

// JSONAuthor is an author entry of a comic.
type JSONAuthor struct {
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	PathWord string `json:"path_word"`
}

// JSONTheme is a theme tag of a comic.
type JSONTheme struct {
	Name     string `json:"name"`
	PathWord string `json:"path_word"`
}

// JSONGroup describes a chapter group without its chapters.
type JSONGroup struct {
	PathWord string `json:"path_word"`
	Count    int    `json:"count"`
	Name     string `json:"name"`
}

// JSONComicDetail is the "comic" object of the comic endpoint.
type JSONComicDetail struct {
	UUID            string       `json:"uuid"`
	Name            string       `json:"name"`
	Alias           *string      `json:"alias"`
	PathWord        string       `json:"path_word"`
	Region          LabeledValue `json:"region"`
	Status          LabeledValue `json:"status"`
	Author          []JSONAuthor `json:"author"`
	Theme           []JSONTheme  `json:"theme"`
	Brief           string       `json:"brief"`
	DatetimeUpdated string       `json:"datetime_updated"`
	Cover           string       `json:"cover"`
	Popular         int64        `json:"popular"`
}

// JSONComic is the results object of GET /api/v3/comic2/{path_word}.
type JSONComic struct {
	Comic   JSONComicDetail      `json:"comic"`
	Popular int64                `json:"popular"`
	Groups  map[string]JSONGroup `json:"groups"`
}

// ToComic builds a model.Comic from the comic details and the chapters of
// each group, keyed by group path word.
//
// Chapter order comes from the API's "ordered" field, which is ten times
// the displayed chapter number.
func (j *JSONComic) ToComic(chapters map[string][]JSONChapter) *model.Comic {
	d := j.Comic

	status := model.ComicOngoing
	if d.Status.Value != 0 {
		status = model.ComicCompleted
	}

	comic := &model.Comic{
		UUID:            d.UUID,
		Name:            d.Name,
		PathWord:        d.PathWord,
		Region:          d.Region.Display,
		Status:          status,
		Brief:           d.Brief,
		Cover:           d.Cover,
		DatetimeUpdated: d.DatetimeUpdated,
		Popular:         j.Popular,
		Groups:          make(map[string]model.Group, len(j.Groups)),
	}
	if d.Alias != nil {
		comic.Alias = *d.Alias
	}
	for _, a := range d.Author {
		comic.Authors = append(comic.Authors, model.Author{Name: a.Name, Alias: a.Alias, PathWord: a.PathWord})
	}
	for _, t := range d.Theme {
		comic.Themes = append(comic.Themes, t.Name)
	}

	for groupPathWord, g := range j.Groups {
		list := chapters[groupPathWord]
		infos := make([]model.ChapterInfo, 0, len(list))
		for _, ch := range list {
			infos = append(infos, model.ChapterInfo{
				ChapterUUID:   ch.UUID,
				ChapterTitle:  ch.Name,
				ChapterSize:   ch.Size,
				ComicUUID:     d.UUID,
				ComicTitle:    d.Name,
				ComicPathWord: d.PathWord,
				GroupPathWord: groupPathWord,
				GroupName:     g.Name,
				GroupSize:     ch.Count,
				Order:         float64(ch.Ordered) / 10,
				ComicStatus:   status,
				ChapterType:   model.ChapterType(ch.Type),
			})
		}
		comic.Groups[groupPathWord] = model.Group{
			PathWord: groupPathWord,
			Name:     g.Name,
			Count:    g.Count,
			Chapters: infos,
		}
	}
	return comic
}
