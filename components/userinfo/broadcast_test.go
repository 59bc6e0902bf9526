package userinfo

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookSubscribe(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	event := RenderEvent{WidgetID: DefaultWidgetID, Reason: "render"}
	if err := hook.WidgetRendered(context.Background(), event); err != nil {
		t.Fatalf("WidgetRendered returned error: %v", err)
	}
	select {
	case e := <-ch:
		if e.WidgetID != event.WidgetID {
			t.Fatalf("expected widget %s, got %s", event.WidgetID, e.WidgetID)
		}
	default:
		t.Fatalf("expected event to be delivered")
	}
}

func TestBroadcastHookKeepsNewestWhenSubscriberFallsBehind(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	total := streamBuffer * 2
	for i := 1; i <= total; i++ {
		event := RenderEvent{Reason: "render", Snapshot: Snapshot{Generation: uint64(i)}}
		if err := hook.WidgetRendered(context.Background(), event); err != nil {
			t.Fatalf("WidgetRendered returned error: %v", err)
		}
	}
	var last RenderEvent
	for i := 0; i < streamBuffer; i++ {
		last = <-ch
	}
	if last.Snapshot.Generation != uint64(total) {
		t.Fatalf("expected newest generation %d, got %d", total, last.Snapshot.Generation)
	}
}

func TestBroadcastHookReplaysLatestToNewSubscriber(t *testing.T) {
	hook := NewBroadcastHook()
	_ = hook.WidgetRendered(context.Background(), RenderEvent{Reason: "render", Snapshot: Snapshot{Generation: 3}})
	_ = hook.WidgetRendered(context.Background(), RenderEvent{Reason: "loading", Snapshot: Snapshot{Generation: 2}})

	ch, cancel := hook.Subscribe()
	defer cancel()
	select {
	case e := <-ch:
		if e.Snapshot.Generation != 3 || e.Reason != "render" {
			t.Fatalf("expected latest render replayed, got %+v", e)
		}
	default:
		t.Fatalf("expected replay of latest event")
	}
}

func TestBroadcastHookCancelRemovesSubscriber(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	if hook.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber")
	}
	cancel()
	cancel()
	if hook.Subscribers() != 0 {
		t.Fatalf("expected subscriber to be removed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestBroadcastHookServeWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hook.WidgetRendered(context.Background(), RenderEvent{
		WidgetID: DefaultWidgetID,
		Reason:   "render",
		Snapshot: Snapshot{Generation: 2, HTML: "<div></div>"},
	}))

	var got RenderEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "render", got.Reason)
	assert.Equal(t, uint64(2), got.Snapshot.Generation)
}

func TestBroadcastHookServeSSE(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeSSE))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hook.WidgetRendered(context.Background(), RenderEvent{Reason: "empty", Snapshot: Snapshot{Generation: 4}}))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: empty\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "id: 4\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: {"))
}

func TestBroadcastHookServeWebSocketReleasesClosedClients(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hook.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hook.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}
