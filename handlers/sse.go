package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gearledger/domain"

	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// defaultKeepalive is the maximum SSE silence before a comment line is
// emitted to keep intermediaries from dropping the idle connection. The
// client's read timeout must stay strictly above this.
const defaultKeepalive = 30 * time.Second

// Events (GET /api/events) is the push-plane stream. On attach the
// subscriber immediately receives a synthetic connected event (current
// version, catalog metadata when present) and, if a catalog exists, a
// synthesized catalog_uploaded event so late joiners catch up. Delivery is
// best-effort: events published before the subscription are never replayed.
func (h *HTTPServer) Events(ectx echo.Context) error {
	w := ectx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)

	id, ch := h.sync.Hub().Subscribe()
	defer h.sync.Hub().Unsubscribe(id)

	level.Debug(h.logger).Log("msg", "event stream opened", "subscriber", id, "addr", ectx.RealIP())

	// One snapshot for both frames, so an upload landing mid-attach cannot
	// skew the catch-up frame against the connected frame.
	for _, evt := range h.sync.AttachEvents() {
		if err := writeEvent(w, evt); err != nil {
			return nil
		}
	}

	keepalive := h.keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	timer := time.NewTimer(keepalive)
	defer timer.Stop()

	ctx := ectx.Request().Context()
	for {
		select {
		case <-ctx.Done():
			level.Debug(h.logger).Log("msg", "event stream closed", "subscriber", id)
			return nil
		case evt, ok := <-ch:
			if !ok {
				// Evicted by the hub.
				return nil
			}
			if err := writeEvent(w, evt); err != nil {
				return nil
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(keepalive)
		case <-timer.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			w.Flush()
			timer.Reset(keepalive)
		}
	}
}

// writeEvent emits one `data: <json>` frame and flushes it.
func writeEvent(w *echo.Response, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	w.Flush()
	return nil
}
