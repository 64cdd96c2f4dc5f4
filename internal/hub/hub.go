// Package hub fans committed conversation updates out to session watchers.
package hub

import (
	"log"
	"sync"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

const watcherBuffer = 8

// Watcher receives conversation snapshots for a single session.
type Watcher struct {
	ch chan domain.ConversationState
}

// Updates returns the snapshot channel. It is closed when the watcher is
// unsubscribed.
func (w *Watcher) Updates() <-chan domain.ConversationState {
	return w.ch
}

// Hub tracks watchers per session id.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*Watcher]struct{}
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		watchers: make(map[string]map[*Watcher]struct{}),
	}
}

// Subscribe registers a new watcher for the session.
func (h *Hub) Subscribe(sessionID string) *Watcher {
	w := &Watcher{ch: make(chan domain.ConversationState, watcherBuffer)}

	h.mu.Lock()
	if h.watchers[sessionID] == nil {
		h.watchers[sessionID] = make(map[*Watcher]struct{})
	}
	h.watchers[sessionID][w] = struct{}{}
	h.mu.Unlock()

	return w
}

// Unsubscribe removes the watcher and closes its channel. Safe to call more
// than once.
func (h *Hub) Unsubscribe(sessionID string, w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.watchers[sessionID]
	if !ok {
		return
	}
	if _, ok := set[w]; !ok {
		return
	}
	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, sessionID)
	}
	close(w.ch)
}

// Publish delivers a snapshot to every watcher of the session. Delivery is
// non-blocking: a watcher whose buffer is full misses the update and will
// catch up on the next one, since every snapshot carries the full history.
func (h *Hub) Publish(sessionID string, state domain.ConversationState) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for w := range h.watchers[sessionID] {
		select {
		case w.ch <- state:
		default:
			log.Printf("hub: watcher for session %s is falling behind, dropping update", sessionID)
		}
	}
}

// WatcherCount returns the number of watchers for a session.
func (h *Hub) WatcherCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[sessionID])
}
