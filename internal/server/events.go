package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/apm/internal/catalog"
	"github.com/dmitrymomot/apm/pkg/selector"
)

// productEvents streams the products view as server-sent events. A new
// event is written whenever the catalog slice changes. Bursts collapse into
// the latest view.
func (s *Server) productEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	streamID := uuid.NewString()
	log := s.logger.With(slog.String("stream_id", streamID))
	log.DebugContext(r.Context(), "event stream opened")
	defer log.DebugContext(r.Context(), "event stream closed")

	changed := make(chan struct{}, 1)
	slice := selector.New1(s.catalog.Feature, func(st *catalog.State) *catalog.State { return st })
	unsubscribe := selector.Subscribe(s.store, slice, func(*catalog.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	if _, err := fmt.Fprintf(w, "retry: 3000\n: %s\n\n", streamID); err != nil {
		return
	}
	_ = rc.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	var (
		seq  int
		last []byte
	)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			_ = rc.Flush()
		case <-changed:
			data, err := json.Marshal(s.productsView(r))
			if err != nil {
				log.ErrorContext(r.Context(), "encode products view", slog.Any("error", err))
				return
			}
			if string(data) == string(last) {
				continue
			}
			last = data
			seq++
			if _, err := fmt.Fprintf(w, "event: products\nid: %d\ndata: %s\n\n", seq, data); err != nil {
				return
			}
			_ = rc.Flush()
		}
	}
}
