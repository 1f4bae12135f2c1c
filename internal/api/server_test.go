package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/handiism/comic-downloader/internal/api/mocks"
	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/history"
	"github.com/handiism/comic-downloader/internal/model"
)

type testDeps struct {
	tasks   *mocks.MockTaskController
	comics  *mocks.MockComicFetcher
	history *mocks.MockHistoryReader
	router  http.Handler
}

func newTestServer(t *testing.T) *testDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	d := &testDeps{
		tasks:   mocks.NewMockTaskController(ctrl),
		comics:  mocks.NewMockComicFetcher(ctrl),
		history: mocks.NewMockHistoryReader(ctrl),
	}
	srv := NewServer(d.tasks, d.comics,
		WithHistory(d.history),
		WithGatherer(prometheus.NewRegistry()),
	)
	d.router = srv.Router()
	return d
}

func (d *testDeps) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)
	return w
}

func TestServer_Healthz(t *testing.T) {
	d := newTestServer(t)

	w := d.do(http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	d := newTestServer(t)

	w := d.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ListTasks(t *testing.T) {
	d := newTestServer(t)
	d.tasks.EXPECT().Tasks().Return([]download.TaskSnapshot{
		{ChapterUUID: "ch-1", State: download.StateDownloading, Downloaded: 1, Total: 3},
	})

	w := d.do(http.MethodGet, "/api/tasks")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "ch-1", got[0]["chapter_uuid"])
	require.Equal(t, "downloading", got[0]["state"])
}

func TestServer_GetTask(t *testing.T) {
	d := newTestServer(t)
	d.tasks.EXPECT().Task("ch-1").Return(download.TaskSnapshot{ChapterUUID: "ch-1", State: download.StatePaused}, true)
	d.tasks.EXPECT().Task("missing").Return(download.TaskSnapshot{}, false)

	w := d.do(http.MethodGet, "/api/tasks/ch-1")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"state":"paused"`)

	w = d.do(http.MethodGet, "/api/tasks/missing")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_CreateTask(t *testing.T) {
	comic := &model.Comic{PathWord: "testcomic", Name: "Test Comic"}

	tests := []struct {
		name       string
		fetchErr   error
		createErr  error
		wantStatus int
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "duplicate", createErr: fmt.Errorf("chapter ch-1: %w", download.ErrDuplicateTask), wantStatus: http.StatusConflict},
		{name: "unknown chapter", createErr: download.ErrChapterNotFound, wantStatus: http.StatusNotFound},
		{name: "shut down", createErr: download.ErrShutdown, wantStatus: http.StatusServiceUnavailable},
		{name: "upstream failure", fetchErr: errors.New("connection refused"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestServer(t)

			if tt.fetchErr != nil {
				d.comics.EXPECT().FetchComic(gomock.Any(), "testcomic").Return(nil, tt.fetchErr)
			} else {
				d.comics.EXPECT().FetchComic(gomock.Any(), "testcomic").Return(comic, nil)
				d.tasks.EXPECT().CreateTask(comic, "ch-1").Return(tt.createErr)
			}
			if tt.wantStatus == http.StatusCreated {
				d.tasks.EXPECT().Task("ch-1").Return(download.TaskSnapshot{ChapterUUID: "ch-1"}, true)
			}

			w := d.do(http.MethodPost, "/api/comics/testcomic/chapters/ch-1")
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusCreated {
				require.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestServer_ControlTask(t *testing.T) {
	tests := []struct {
		action     string
		expect     func(m *mocks.MockTaskController) *gomock.Call
		err        error
		wantStatus int
	}{
		{
			action:     "pause",
			expect:     func(m *mocks.MockTaskController) *gomock.Call { return m.EXPECT().PauseTask("ch-1") },
			wantStatus: http.StatusNoContent,
		},
		{
			action:     "resume",
			expect:     func(m *mocks.MockTaskController) *gomock.Call { return m.EXPECT().ResumeTask("ch-1") },
			wantStatus: http.StatusNoContent,
		},
		{
			action:     "cancel",
			expect:     func(m *mocks.MockTaskController) *gomock.Call { return m.EXPECT().CancelTask("ch-1") },
			err:        fmt.Errorf("chapter ch-1: %w", download.ErrTaskNotFound),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			d := newTestServer(t)
			tt.expect(d.tasks).Return(tt.err)

			w := d.do(http.MethodPost, "/api/tasks/ch-1/"+tt.action)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestServer_ControlTask_UnknownAction(t *testing.T) {
	d := newTestServer(t)

	w := d.do(http.MethodPost, "/api/tasks/ch-1/restart")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_History(t *testing.T) {
	d := newTestServer(t)
	d.history.EXPECT().Recent(gomock.Any(), 5).Return([]*history.Entry{
		{RunID: "run-1", ChapterUUID: "ch-1", State: download.StateCompleted},
	}, nil)
	d.history.EXPECT().Recent(gomock.Any(), defaultHistoryLimit).Return(nil, nil)

	w := d.do(http.MethodGet, "/api/history?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"run_id":"run-1"`)
	require.Contains(t, w.Body.String(), `"state":"completed"`)

	w = d.do(http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	w = d.do(http.MethodGet, "/api/history?limit=zero")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
