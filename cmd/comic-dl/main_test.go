package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/comic-downloader/internal/model"
)

func testComic() *model.Comic {
	return &model.Comic{
		PathWord: "testcomic",
		Groups: map[string]model.Group{
			"default": {Name: "Main", Chapters: []model.ChapterInfo{
				{ChapterUUID: "ch-1", Order: 1, IsDownloaded: true},
				{ChapterUUID: "ch-2", Order: 2},
				{ChapterUUID: "ch-2.5", Order: 2.5},
			}},
		},
	}
}

func uuids(chapters []model.ChapterInfo) []string {
	out := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ch.ChapterUUID)
	}
	return out
}

func TestSelectChapters(t *testing.T) {
	tests := []struct {
		name  string
		group string
		spec  string
		want  []string
	}{
		{name: "not downloaded", group: "default", want: []string{"ch-2", "ch-2.5"}},
		{name: "by uuid", group: "default", spec: "ch-1", want: []string{"ch-1"}},
		{name: "by order", group: "default", spec: " 2.5, 1 ", want: []string{"ch-1", "ch-2.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectChapters(testComic(), tt.group, tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uuids(got))
		})
	}
}

func TestSelectChapters_Errors(t *testing.T) {
	_, err := selectChapters(testComic(), "extra", "")
	assert.ErrorContains(t, err, `no group "extra"`)

	_, err = selectChapters(testComic(), "default", "99")
	assert.ErrorContains(t, err, "no chapter")
}
