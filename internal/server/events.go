package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/models"
)

// revisionEvent tells the page that a new document revision is loaded.
type revisionEvent struct {
	Revision string `json:"revision"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// hub fans revision events out to connected pages. A subscriber that has not
// consumed its previous event only keeps the newest one.
type hub struct {
	mu   sync.Mutex
	subs map[chan revisionEvent]struct{}
	done chan struct{}
	once sync.Once
}

func newHub() *hub {
	return &hub{subs: make(map[chan revisionEvent]struct{}), done: make(chan struct{})}
}

// close ends every open stream so a graceful shutdown does not wait on them.
func (h *hub) close() {
	h.once.Do(func() { close(h.done) })
}

func (h *hub) subscribe() chan revisionEvent {
	ch := make(chan revisionEvent, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan revisionEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) publish(ev revisionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- ev
	}
}

// Publish notifies connected pages that doc is now displayed. It never blocks and
// is safe to call from a viewer load hook.
func (s *Server) Publish(doc *models.Document) {
	if doc == nil {
		return
	}
	s.events.publish(revisionEvent{Revision: doc.Revision, FileName: doc.FileName, Path: doc.Path})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch := s.events.subscribe()
	defer s.events.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 2000\n\n"))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.events.done:
			return
		case ev := <-ch:
			raw, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("encode revision event", zap.Error(err))
				continue
			}
			_, _ = w.Write([]byte("event: revision\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(raw)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}
