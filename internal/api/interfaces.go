package api

import (
	"context"

	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/history"
	"github.com/handiism/comic-downloader/internal/model"
)

// TaskController is the part of download.Manager the API drives.
//
//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks
type TaskController interface {
	CreateTask(comic *model.Comic, chapterUUID string) error
	PauseTask(chapterUUID string) error
	ResumeTask(chapterUUID string) error
	CancelTask(chapterUUID string) error
	Task(chapterUUID string) (download.TaskSnapshot, bool)
	Tasks() []download.TaskSnapshot
}

// ComicFetcher loads a comic with its chapters from upstream.
type ComicFetcher interface {
	FetchComic(ctx context.Context, pathWord string) (*model.Comic, error)
}

// HistoryReader lists finished downloads.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*history.Entry, error)
}
