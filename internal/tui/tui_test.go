package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/comic-downloader/internal/config"
	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/model"
)

type fakeController struct {
	created []string
	calls   []string
	tasks   []download.TaskSnapshot
	err     error
}

func (f *fakeController) CreateTask(comic *model.Comic, chapterUUID string) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, chapterUUID)
	f.tasks = append(f.tasks, download.TaskSnapshot{
		ChapterUUID:   chapterUUID,
		ComicPathWord: comic.PathWord,
		ComicTitle:    comic.Name,
		State:         download.StatePending,
	})
	return nil
}

func (f *fakeController) PauseTask(id string) error  { return f.record("pause", id) }
func (f *fakeController) ResumeTask(id string) error { return f.record("resume", id) }
func (f *fakeController) CancelTask(id string) error { return f.record("cancel", id) }

func (f *fakeController) record(op, id string) error {
	f.calls = append(f.calls, op+" "+id)
	return nil
}

func (f *fakeController) Tasks() []download.TaskSnapshot { return f.tasks }
func (f *fakeController) TotalBytes() int64              { return 2048 }

type fakeFetcher struct {
	comic *model.Comic
	err   error
}

func (f *fakeFetcher) FetchComic(_ context.Context, _ string) (*model.Comic, error) {
	return f.comic, f.err
}

func testComic() *model.Comic {
	return &model.Comic{
		PathWord: "testcomic",
		Name:     "Test Comic",
		Groups: map[string]model.Group{
			"default": {PathWord: "default", Name: "Main", Chapters: []model.ChapterInfo{
				{ChapterUUID: "ch-1", ChapterTitle: "Chapter 1", IsDownloaded: true},
				{ChapterUUID: "ch-2", ChapterTitle: "Chapter 2"},
				{ChapterUUID: "ch-3", ChapterTitle: "Chapter 3"},
			}},
			"extra": {PathWord: "extra", Name: "Extras", Chapters: []model.ChapterInfo{
				{ChapterUUID: "ex-1", ChapterTitle: "Extra 1"},
			}},
		},
	}
}

func newTestModel(ctrl *fakeController, fetcher *fakeFetcher) Model {
	return NewModel(config.DefaultSettings(), ctrl, fetcher, nil)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ComicLoadedQueuesDefaultGroup(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, &fakeFetcher{})

	m = update(t, m, ComicLoadedMsg{Comic: testComic()})

	assert.Equal(t, StateTasks, m.state)
	assert.Equal(t, []string{"ch-2", "ch-3"}, ctrl.created)
	assert.Len(t, m.tasks, 2)
	require.Len(t, m.notices, 1)
	assert.Contains(t, m.notices[0], "queued 2 chapter(s) of Main, skipped 1")
}

func TestModel_ComicLoadedError(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeFetcher{})

	m = update(t, m, ComicLoadedMsg{Err: errors.New("boom")})

	assert.Equal(t, StateError, m.state)
	assert.Contains(t, m.View(), "boom")

	m = update(t, m, keyRunes("n"))
	assert.Equal(t, StateInput, m.state)
}

func TestModel_EnterFetchesComic(t *testing.T) {
	comic := testComic()
	m := newTestModel(&fakeController{}, &fakeFetcher{comic: comic})

	m.textInput.SetValue("  testcomic ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Equal(t, StateLoading, m.state)
	require.NotNil(t, cmd)
	msg := m.fetchComic("testcomic")()
	assert.Equal(t, ComicLoadedMsg{Comic: comic}, msg)
}

func TestModel_TaskKeys(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, &fakeFetcher{})
	m = update(t, m, ComicLoadedMsg{Comic: testComic()})

	m = update(t, m, keyRunes("p"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, keyRunes("c"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, keyRunes("r"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})

	assert.Equal(t, 0, m.selected)
	assert.Equal(t, []string{"pause ch-2", "cancel ch-3", "resume ch-3"}, ctrl.calls)
}

func TestModel_RetryOnlyFinishedTasks(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, &fakeFetcher{})
	m = update(t, m, ComicLoadedMsg{Comic: testComic()})

	m = update(t, m, keyRunes("a"))
	assert.Len(t, ctrl.created, 2, "pending task is not re-created")

	ctrl.tasks[0].State = download.StateFailed
	m = update(t, m, TickMsg{})
	update(t, m, keyRunes("a"))
	assert.Equal(t, []string{"ch-2", "ch-3", "ch-2"}, ctrl.created)
}

func TestModel_CreateErrorsBecomeNotices(t *testing.T) {
	ctrl := &fakeController{err: fmt.Errorf("chapter ch-2: %w", download.ErrDuplicateTask)}
	m := newTestModel(ctrl, &fakeFetcher{})

	m = update(t, m, ComicLoadedMsg{Comic: testComic()})
	assert.Contains(t, m.notices[0], "queued 0 chapter(s) of Main, skipped 3")

	ctrl.err = download.ErrShutdown
	m = update(t, m, ComicLoadedMsg{Comic: testComic()})
	assert.Contains(t, m.notices[1], download.ErrShutdown.Error())
}

func TestModel_Events(t *testing.T) {
	m := newTestModel(&fakeController{}, &fakeFetcher{})

	m = update(t, m, EventMsg{Event: download.SpeedEvent{Speed: "1.50 MB/s"}})
	assert.Equal(t, "1.50 MB/s", m.speed)

	m = update(t, m, EventMsg{Event: download.RiskControlEvent{ChapterUUID: "ch-2", RetryAfter: 42}})
	assert.Contains(t, m.countdowns["ch-2"], "retry in 42s")

	m = update(t, m, EventMsg{Event: download.RiskControlEvent{ChapterUUID: "ch-2", RetryAfter: 0}})
	assert.NotContains(t, m.countdowns, "ch-2")

	m = update(t, m, EventMsg{Event: download.SleepingEvent{ChapterUUID: "ch-3", Remaining: 5}})
	assert.Contains(t, m.countdowns["ch-3"], "next chapter in 5s")

	m = update(t, m, EventMsg{Event: download.TaskUpdateEvent{ChapterUUID: "ch-3", State: download.StateCompleted}})
	assert.NotContains(t, m.countdowns, "ch-3")
}

func TestEventSink_DropsWhenFull(t *testing.T) {
	events, sink := EventSink()
	for i := 0; i < eventBuffer+5; i++ {
		sink(download.SleepingEvent{Remaining: i})
	}
	assert.Len(t, events, eventBuffer)
	assert.Equal(t, download.SleepingEvent{Remaining: 0}, <-events)
}

func TestModel_ViewTasks(t *testing.T) {
	ctrl := &fakeController{}
	m := newTestModel(ctrl, &fakeFetcher{})
	m = update(t, m, ComicLoadedMsg{Comic: testComic()})

	ctrl.tasks[0].State = download.StateDownloading
	ctrl.tasks[0].ChapterTitle = "Chapter 2"
	ctrl.tasks[0].Downloaded, ctrl.tasks[0].Total = 3, 10
	ctrl.tasks[1].State = download.StateFailed
	ctrl.tasks[1].Err = "no pages"
	m = update(t, m, TickMsg{})

	view := m.View()
	assert.Contains(t, view, "Chapter 2")
	assert.Contains(t, view, "3/10")
	assert.Contains(t, view, "[downloading]")
	assert.Contains(t, view, "no pages")
	assert.Contains(t, view, "2.0 KiB received")
}
