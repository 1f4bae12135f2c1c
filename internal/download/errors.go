package download

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTask is returned by CreateTask while a task for the same
	// chapter is pending, downloading or paused.
	ErrDuplicateTask = errors.New("download task already active")

	// ErrTaskNotFound is returned by control calls for an unknown chapter.
	ErrTaskNotFound = errors.New("download task not found")

	// ErrChapterNotFound is returned by CreateTask when the comic has no
	// chapter with the requested uuid.
	ErrChapterNotFound = errors.New("chapter not found in comic")

	// ErrShutdown is returned by CreateTask after Shutdown.
	ErrShutdown = errors.New("download manager shut down")

	// ErrNoPages is returned when the upstream chapter lists no pages.
	ErrNoPages = errors.New("chapter has no pages")

	// errTaskStopped unwinds a task whose state was set to cancelled (or
	// otherwise ended) while it was suspended.
	errTaskStopped = errors.New("task stopped")
)

// IncompleteError is returned when fewer pages were saved than the chapter has.
type IncompleteError struct {
	Downloaded int64
	Total      int64
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete download: %d of %d pages saved", e.Downloaded, e.Total)
}
