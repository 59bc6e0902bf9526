package userinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamBuffer = 4
	writeWait    = 5 * time.Second
	readLimit    = 512
)

// BroadcastHook streams render events to live page subscribers. A new
// subscriber first receives the latest render. When a subscriber falls
// behind, its oldest queued event is dropped: each event carries the full
// container content, so only the newest generation matters.
type BroadcastHook struct {
	mu     sync.Mutex
	subs   map[uint64]chan RenderEvent
	nextID uint64
	latest *RenderEvent
}

// NewBroadcastHook creates an empty broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[uint64]chan RenderEvent)}
}

var _ RenderHook = (*BroadcastHook)(nil)

// WidgetRendered records the event as latest and pushes it to every subscriber.
func (h *BroadcastHook) WidgetRendered(_ context.Context, event RenderEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest != nil && event.Snapshot.Generation != 0 && event.Snapshot.Generation < h.latest.Snapshot.Generation {
		return nil
	}
	h.latest = &event
	for _, ch := range h.subs {
		push(ch, event)
	}
	return nil
}

func push(ch chan RenderEvent, event RenderEvent) {
	for {
		select {
		case ch <- event:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe registers a subscriber. The returned cancel func is idempotent
// and closes the channel.
func (h *BroadcastHook) Subscribe() (<-chan RenderEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan RenderEvent, streamBuffer)
	if h.latest != nil {
		ch <- *h.latest
	}
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Subscribers reports how many subscribers are attached.
func (h *BroadcastHook) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and writes each render event as a JSON frame.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	// the read loop handles control frames and ends the stream once the
	// client goes away
	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	conn.SetReadLimit(readLimit)
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams render events as Server-Sent Events. The event name is
// the render reason and the id is the container generation.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", event.Reason, event.Snapshot.Generation, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
