package download

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/handiism/comic-downloader/internal/config"
	ioutils "github.com/handiism/comic-downloader/internal/io"
	"github.com/handiism/comic-downloader/internal/metrics"
	"github.com/handiism/comic-downloader/internal/model"
)

// Client is the upstream the Manager downloads from.
type Client interface {
	// FetchChapterPages returns the ordered pages of a chapter.
	FetchChapterPages(ctx context.Context, comicPathWord, chapterUUID string) ([]model.Page, error)
	// FetchImage returns the raw bytes of an image and their detected format.
	// onBytes receives the size of each chunk as it is read.
	FetchImage(ctx context.Context, url string, onBytes func(n int)) ([]byte, ioutils.ImageFormat, error)
}

// Outcome describes how a task ended.
type Outcome struct {
	RunID         string
	ChapterUUID   string
	ChapterTitle  string
	ComicPathWord string
	ComicTitle    string
	State         State
	Downloaded    int64
	Total         int64
	Err           string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Recorder persists task outcomes.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder stores every task outcome in r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager owns the chapter tasks and the limiters they share.
type Manager struct {
	settings   *config.Settings
	client     Client
	images     *ioutils.ImageService
	chapterSem *semaphore.Weighted
	imgSem     *semaphore.Weighted
	meter      Meter
	recorder   Recorder
	onEvent    EventSink
	logger     *slog.Logger

	tasks   map[string]*Task
	nextSeq uint64
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	// tick is one second of countdown. Tests shorten it.
	tick       time.Duration
	retryDelay func() time.Duration
}

// NewManager creates a Manager. Concurrency limits are read from settings
// once; the other settings are read whenever a task needs them.
func NewManager(settings *config.Settings, client Client, onEvent EventSink, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		settings:   settings,
		client:     client,
		images:     ioutils.NewImageService(),
		chapterSem: semaphore.NewWeighted(int64(max(settings.ChapterConcurrency, 1))),
		imgSem:     semaphore.NewWeighted(int64(max(settings.ImgConcurrency, 1))),
		onEvent:    onEvent,
		logger:     slog.Default(),
		tasks:      make(map[string]*Task),
		ctx:        ctx,
		cancel:     cancel,
		tick:       time.Second,
		retryDelay: randomRetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func randomRetryDelay() time.Duration {
	return time.Duration(1000+rand.Intn(4000)) * time.Millisecond
}

// Run reports download speed every second until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	m.meter.Run(ctx, m.tick, m.emit)
}

// CreateTask registers and starts a download of one chapter of comic.
//
// The comic is cloned and its download directories resolved from the
// current settings. A chapter whose previous task finished may be
// downloaded again; an active one returns ErrDuplicateTask.
func (m *Manager) CreateTask(comic *model.Comic, chapterUUID string) error {
	comic = comic.Clone()
	err := comic.ResolveDirs(m.settings.DownloadDir, m.settings.ComicDirFmt, m.settings.ChapterDirFmt, m.settings.SeparateChapterType)
	if err != nil {
		return fmt.Errorf("resolve download dirs: %w", err)
	}
	chapter, ok := comic.Chapter(chapterUUID)
	if !ok {
		return fmt.Errorf("chapter %s of %s: %w", chapterUUID, comic.PathWord, ErrChapterNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.tasks[chapterUUID]; ok && prev.State().IsActive() {
		return fmt.Errorf("chapter %s: %w", chapterUUID, ErrDuplicateTask)
	}
	if m.ctx.Err() != nil {
		return ErrShutdown
	}

	task := newTask(m, comic, chapter)
	m.nextSeq++
	task.seq = m.nextSeq
	m.tasks[chapterUUID] = task
	task.logger.Info("download task created")
	m.emit(TaskCreateEvent{
		Comic:   comic,
		Chapter: chapter,
		State:   StatePending,
	})

	go task.run(m.ctx)
	return nil
}

// PauseTask pauses the chapter's task. Its permits are returned to the pool.
func (m *Manager) PauseTask(chapterUUID string) error {
	return m.signal(chapterUUID, StatePaused)
}

// ResumeTask puts a paused task back in the queue for a chapter permit.
func (m *Manager) ResumeTask(chapterUUID string) error {
	return m.signal(chapterUUID, StatePending)
}

// CancelTask stops the chapter's task. Pages already in the staging dir are kept.
func (m *Manager) CancelTask(chapterUUID string) error {
	return m.signal(chapterUUID, StateCancelled)
}

func (m *Manager) signal(chapterUUID string, s State) error {
	task, ok := m.task(chapterUUID)
	if !ok {
		return fmt.Errorf("chapter %s: %w", chapterUUID, ErrTaskNotFound)
	}
	task.signal(s)
	return nil
}

func (m *Manager) task(chapterUUID string) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[chapterUUID]
	return task, ok
}

// Task returns a snapshot of the chapter's most recent task.
func (m *Manager) Task(chapterUUID string) (TaskSnapshot, bool) {
	task, ok := m.task(chapterUUID)
	if !ok {
		return TaskSnapshot{}, false
	}
	return task.Snapshot(), true
}

// Tasks returns snapshots of every task in creation order.
func (m *Manager) Tasks() []TaskSnapshot {
	m.mu.RLock()
	tasks := make([]*Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, task)
	}
	m.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].seq < tasks[j].seq })

	snapshots := make([]TaskSnapshot, len(tasks))
	for i, task := range tasks {
		snapshots[i] = task.Snapshot()
	}
	return snapshots
}

// Done returns a channel closed when the chapter's task driver exits.
func (m *Manager) Done(chapterUUID string) (<-chan struct{}, error) {
	task, ok := m.task(chapterUUID)
	if !ok {
		return nil, fmt.Errorf("chapter %s: %w", chapterUUID, ErrTaskNotFound)
	}
	return task.Done(), nil
}

// Wait blocks until every task has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	tasks := make([]*Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, task)
	}
	m.mu.RUnlock()

	for _, task := range tasks {
		select {
		case <-task.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown cancels every running task and waits for their drivers to exit.
// No task can be created afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	return m.Wait(ctx)
}

// TotalBytes returns the image bytes received since the Manager was created.
func (m *Manager) TotalBytes() int64 {
	return m.meter.Total()
}

// received counts image bytes as they arrive from the network.
func (m *Manager) received(n int) {
	m.meter.Add(n)
	metrics.BytesDownloaded.Add(float64(n))
}

func (m *Manager) emit(e Event) {
	if m.onEvent != nil {
		m.onEvent(e)
	}
}

func (m *Manager) record(t *Task) {
	s := t.Snapshot()
	metrics.ChapterTasks.WithLabelValues(s.State.String()).Inc()
	if m.recorder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.recorder.Record(ctx, Outcome{
		RunID:         s.RunID,
		ChapterUUID:   s.ChapterUUID,
		ChapterTitle:  s.ChapterTitle,
		ComicPathWord: s.ComicPathWord,
		ComicTitle:    s.ComicTitle,
		State:         s.State,
		Downloaded:    s.Downloaded,
		Total:         s.Total,
		Err:           s.Err,
		StartedAt:     s.CreatedAt,
		FinishedAt:    time.Now(),
	})
	if err != nil {
		t.logger.Warn("failed to record task outcome", "err", err)
	}
}
