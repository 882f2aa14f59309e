package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/telagraphic/sfx-board/playback"
)

// broadcaster fans playback events out to SSE subscribers. Each subscriber
// gets a buffered channel; a subscriber that cannot keep up loses events
// rather than blocking the controller.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan playback.Event]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan playback.Event]struct{})}
}

func (b *broadcaster) subscribe() chan playback.Event {
	ch := make(chan playback.Event, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

func (b *broadcaster) unsubscribe(ch chan playback.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broadcaster) publish(ev playback.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = make(map[chan playback.Event]struct{})
}

// handleEvents streams playback events to the board page.
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before snapshotting so no transition slips between the
	// two; an event the snapshot already covers just reapplies the same
	// state on the page.
	ch := s.events.subscribe()
	defer s.events.unsubscribe(ch)

	// Initial full snapshot so the page can render without a second fetch
	if snapshot, err := json.Marshal(s.controller.Snapshot()); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
