package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/handiism/comic-downloader/internal/api/mocks"
	"github.com/handiism/comic-downloader/internal/download"
)

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(download.SpeedEvent{Speed: "0.00 MB/s"})
	require.Zero(t, hub.Subscribers())
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	s := hub.subscribe()
	defer hub.unsubscribe(s)

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(download.SleepingEvent{ChapterUUID: "ch-1", Remaining: i})
	}
	require.Len(t, s.ch, subscriberBuffer)

	first := <-s.ch
	require.Equal(t, "sleeping", first.Type)
	require.Equal(t, 0, first.Data.(download.SleepingEvent).Remaining)
}

func TestHub_StreamsEvents(t *testing.T) {
	hub := NewHub(nil)
	ctrl := gomock.NewController(t)
	srv := NewServer(mocks.NewMockTaskController(ctrl), mocks.NewMockComicFetcher(ctrl), WithHub(hub))
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	hub.Publish(download.TaskUpdateEvent{ChapterUUID: "ch-1", State: download.StateCompleted, Downloaded: 3, Total: 3})

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "task_update", msg.Type)
	require.Equal(t, "ch-1", msg.Data["chapter_uuid"])
	require.Equal(t, "completed", msg.Data["state"])
	require.Equal(t, float64(3), msg.Data["downloaded"])
}
