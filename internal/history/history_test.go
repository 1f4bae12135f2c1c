package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handiism/comic-downloader/internal/download"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func outcome(runID, chapterUUID string, state download.State, finished time.Time) download.Outcome {
	return download.Outcome{
		RunID:         runID,
		ChapterUUID:   chapterUUID,
		ChapterTitle:  "Chapter " + chapterUUID,
		ComicPathWord: "testcomic",
		ComicTitle:    "Test Comic",
		State:         state,
		Downloaded:    3,
		Total:         3,
		StartedAt:     finished.Add(-time.Minute),
		FinishedAt:    finished,
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "in-memory database", path: ":memory:"},
		{name: "file database", path: filepath.Join(t.TempDir(), "nested", "history.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	require.NoError(t, s.Record(ctx, outcome("run-1", "ch-1", download.StateCompleted, now.Add(-2*time.Minute))))
	failed := outcome("run-2", "ch-2", download.StateFailed, now)
	failed.Err = "incomplete download: 2 of 3 pages saved"
	failed.Downloaded = 2
	require.NoError(t, s.Record(ctx, failed))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "run-2", entries[0].RunID)
	require.Equal(t, download.StateFailed, entries[0].State)
	require.Equal(t, int64(2), entries[0].Downloaded)
	require.Equal(t, failed.Err, entries[0].Err)
	require.Equal(t, time.Minute, entries[0].Duration())
	require.True(t, entries[0].FinishedAt.Equal(now))

	require.Equal(t, "run-1", entries[1].RunID)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestStore_RecordDuplicateRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	o := outcome("run-1", "ch-1", download.StateCompleted, time.Now())
	require.NoError(t, s.Record(ctx, o))
	require.Error(t, s.Record(ctx, o))
}

func TestStore_ByChapter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, outcome("run-1", "ch-1", download.StateCancelled, now.Add(-time.Hour))))
	require.NoError(t, s.Record(ctx, outcome("run-2", "ch-1", download.StateCompleted, now)))
	require.NoError(t, s.Record(ctx, outcome("run-3", "ch-2", download.StateCompleted, now)))

	entries, err := s.ByChapter(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, download.StateCompleted, entries[0].State)
	require.Equal(t, download.StateCancelled, entries[1].State)

	entries, err = s.ByChapter(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestStore_StatsAndPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, outcome("run-1", "ch-1", download.StateCompleted, now.Add(-48*time.Hour))))
	require.NoError(t, s.Record(ctx, outcome("run-2", "ch-2", download.StateCompleted, now)))
	require.NoError(t, s.Record(ctx, outcome("run-3", "ch-3", download.StateFailed, now)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats[download.StateCompleted])
	require.Equal(t, 1, stats[download.StateFailed])

	removed, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
