package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	ioutils "github.com/handiism/comic-downloader/internal/io"
	"github.com/handiism/comic-downloader/internal/metrics"
	"github.com/handiism/comic-downloader/internal/model"
	"github.com/handiism/comic-downloader/internal/source"
)

const (
	// riskControlCooldown is how many ticks to wait after a risk-control response.
	riskControlCooldown = 60
	// maxFetchRetries bounds retries of transient chapter fetch failures.
	maxFetchRetries = 5
)

// Task downloads one chapter. Comic and Chapter are snapshots taken at
// creation and are never modified afterwards.
type Task struct {
	Comic     *model.Comic
	Chapter   model.ChapterInfo
	RunID     string
	CreatedAt time.Time

	m          *Manager
	seq        uint64
	state      *stateCell
	downloaded atomic.Int64
	total      atomic.Int64
	done       chan struct{}
	logger     *slog.Logger

	errMu sync.Mutex
	err   error
}

// TaskSnapshot is a point-in-time view of a Task.
type TaskSnapshot struct {
	RunID         string    `json:"run_id"`
	ChapterUUID   string    `json:"chapter_uuid"`
	ChapterTitle  string    `json:"chapter_title"`
	GroupName     string    `json:"group_name"`
	ComicPathWord string    `json:"comic_path_word"`
	ComicTitle    string    `json:"comic_title"`
	State         State     `json:"state"`
	Downloaded    int64     `json:"downloaded"`
	Total         int64     `json:"total"`
	Err           string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newTask(m *Manager, comic *model.Comic, chapter model.ChapterInfo) *Task {
	runID := uuid.NewString()
	return &Task{
		Comic:     comic,
		Chapter:   chapter,
		RunID:     runID,
		CreatedAt: time.Now(),
		m:         m,
		state:     newStateCell(StatePending),
		done:      make(chan struct{}),
		logger: m.logger.With(
			"run_id", runID,
			"comic", comic.Name,
			"chapter", chapter.ChapterTitle,
			"chapter_uuid", chapter.ChapterUUID,
		),
	}
}

// State returns the task's current state.
func (t *Task) State() State {
	return t.state.load()
}

// Done is closed once the task's driver has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Snapshot returns the task's current progress.
func (t *Task) Snapshot() TaskSnapshot {
	s := TaskSnapshot{
		RunID:         t.RunID,
		ChapterUUID:   t.Chapter.ChapterUUID,
		ChapterTitle:  t.Chapter.ChapterTitle,
		GroupName:     t.Chapter.GroupName,
		ComicPathWord: t.Comic.PathWord,
		ComicTitle:    t.Comic.Name,
		State:         t.state.load(),
		Downloaded:    t.downloaded.Load(),
		Total:         t.total.Load(),
		CreatedAt:     t.CreatedAt,
	}
	if err := t.failure(); err != nil {
		s.Err = err.Error()
	}
	return s
}

func (t *Task) failure() error {
	t.errMu.Lock()
	defer t.errMu.Unlock()
	return t.err
}

func (t *Task) emitUpdate() {
	s := t.Snapshot()
	t.m.emit(TaskUpdateEvent{
		ChapterUUID: s.ChapterUUID,
		State:       s.State,
		Downloaded:  s.Downloaded,
		Total:       s.Total,
		Err:         s.Err,
	})
}

// signal pushes a control state into the cell. Finished tasks ignore it.
func (t *Task) signal(s State) {
	if t.state.transition(s) {
		t.logger.Info("task state changed", "state", s)
		t.emitUpdate()
	}
}

func (t *Task) finish(s State, err error) {
	if err != nil {
		t.errMu.Lock()
		t.err = err
		t.errMu.Unlock()
	}
	if t.state.transition(s) {
		t.emitUpdate()
	}
}

// run is the chapter driver. It waits for a chapter permit, runs the
// download and records the outcome.
func (t *Task) run(ctx context.Context) {
	defer close(t.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.ActiveChapterTasks.Inc()
	defer metrics.ActiveChapterTasks.Dec()

	ctrl := newController(t.state, t.m.chapterSem, chapterRole)
	ctrl.promoted = func() {
		t.logger.Debug("chapter permit acquired")
		t.emitUpdate()
	}
	defer ctrl.release()

	err := ctrl.await(ctx, nil)
	if err == nil {
		err = t.download(ctx, ctrl)
	}

	switch {
	case err == nil:
		t.logger.Info("chapter downloaded")
		t.finish(StateCompleted, nil)
	case errors.Is(err, errTaskStopped):
		t.logger.Info("chapter download stopped", "state", t.State())
	case ctx.Err() != nil:
		t.logger.Info("chapter download aborted", "err", err)
		t.finish(StateCancelled, nil)
	default:
		t.logger.Error("chapter download failed", "err", err)
		t.finish(StateFailed, err)
	}

	t.m.record(t)
}

// download is the chapter body: fetch the page list, fan out one image task
// per page into the staging directory, and commit it once every page is saved.
func (t *Task) download(ctx context.Context, ctrl *controller) error {
	if err := t.Comic.SaveMetadata(); err != nil {
		return fmt.Errorf("save comic metadata: %w", err)
	}

	pages, err := t.fetchPages(ctx, ctrl)
	if err != nil {
		return fmt.Errorf("fetch chapter pages: %w", err)
	}
	if len(pages) == 0 {
		return ErrNoPages
	}
	t.total.Store(int64(len(pages)))
	t.emitUpdate()

	staging, err := t.Chapter.StagingDir()
	if err != nil {
		return err
	}
	if err := ioutils.EnsureDir(staging); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	format := t.m.settings.DownloadFormat.ImageFormat()
	ext := format.Extension()
	if removed, err := ioutils.PruneForeignFiles(staging, ext); err != nil {
		t.logger.Warn("failed to prune staging dir", "dir", staging, "err", err)
	} else if removed > 0 {
		t.logger.Debug("pruned stale pages", "dir", staging, "count", removed)
	}

	var g errgroup.Group
	for _, page := range pages {
		img := &imgTask{task: t, page: page, dir: staging, format: format, ext: ext}
		g.Go(func() error {
			img.run(ctx)
			return nil
		})
	}
	joined := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(joined)
	}()
	if err := ctrl.await(ctx, joined); err != nil {
		return err
	}

	if got, want := t.downloaded.Load(), t.total.Load(); got != want {
		return &IncompleteError{Downloaded: got, Total: want}
	}

	if err := ioutils.Commit(staging, t.Chapter.ChapterDownloadDir); err != nil {
		return fmt.Errorf("commit chapter: %w", err)
	}
	if err := t.Chapter.SaveMetadata(); err != nil {
		t.logger.Error("failed to save chapter metadata", "err", err)
	}

	return t.sleepBetweenChapters(ctx, ctrl)
}

// fetchPages asks the client for the chapter's pages.
//
// Risk-control responses trigger a cooldown of riskControlCooldown ticks
// and are retried without limit. Permanent errors are returned at once.
// Any other error is retried after a random delay, up to maxFetchRetries times.
func (t *Task) fetchPages(ctx context.Context, ctrl *controller) ([]model.Page, error) {
	retries := 0
	for {
		pages, err := call(ctx, ctrl, func(ctx context.Context) ([]model.Page, error) {
			return t.m.client.FetchChapterPages(ctx, t.Chapter.ComicPathWord, t.Chapter.ChapterUUID)
		})
		if err == nil {
			return pages, nil
		}
		if errors.Is(err, errTaskStopped) || ctx.Err() != nil {
			return nil, err
		}

		var riskErr *source.RiskControlError
		switch {
		case errors.As(err, &riskErr):
			metrics.RiskControl.Inc()
			t.logger.Warn("risk control triggered, cooling down", "err", err, "seconds", riskControlCooldown)
			for i := 1; i <= riskControlCooldown; i++ {
				t.m.emit(RiskControlEvent{ChapterUUID: t.Chapter.ChapterUUID, RetryAfter: riskControlCooldown - i})
				if err := ctrl.sleep(ctx, t.m.tick); err != nil {
					return nil, err
				}
			}

		case errors.Is(err, source.ErrPermanent):
			return nil, err

		default:
			if retries >= maxFetchRetries {
				return nil, err
			}
			retries++
			t.logger.Warn("retrying chapter fetch", "attempt", retries, "err", err)
			if err := ctrl.sleep(ctx, t.m.retryDelay()); err != nil {
				return nil, err
			}
		}
	}
}

func (t *Task) sleepBetweenChapters(ctx context.Context, ctrl *controller) error {
	for remaining := t.m.settings.ChapterDownloadIntervalSec; remaining > 0; remaining-- {
		t.m.emit(SleepingEvent{ChapterUUID: t.Chapter.ChapterUUID, Remaining: remaining})
		if err := ctrl.sleep(ctx, t.m.tick); err != nil {
			return err
		}
	}
	return nil
}
