// Package ws serves the paint service over websocket. Each text frame carries one paint
// event; every event is answered by exactly one ack frame.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/and161185/paintstream/internal/service"
	"github.com/and161185/paintstream/internal/wire"
)

// DefaultApplyTimeout bounds one Apply call when the handler has no explicit timeout.
const DefaultApplyTimeout = 10 * time.Second

// Handler upgrades HTTP requests and applies incoming paint events.
type Handler struct {
	rooms    service.RoomService
	lg       *zap.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration
}

// NewHandler returns a handler that accepts any origin.
func NewHandler(rooms service.RoomService, lg *zap.Logger) *Handler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Handler{
		rooms:   rooms,
		lg:      lg,
		timeout: DefaultApplyTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// WithTimeout overrides the per-event apply timeout.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.lg.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	lg := h.lg.With(zap.String("peer", r.RemoteAddr))
	lg.Debug("websocket open")
	for {
		var ev wire.PaintEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				lg.Debug("websocket closed")
				return
			}
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				lg.Warn("websocket read", zap.Error(err))
			}
			return
		}

		ack := h.apply(r.Context(), &ev)
		lg.Info("ws",
			zap.String("room", ev.Room),
			zap.String("kind", string(ev.Kind)),
			zap.Int("actions", ev.Count()),
			zap.Int32("accepted", ack.Accepted),
			zap.String("error", ack.Error),
		)
		if err := conn.WriteJSON(ack); err != nil {
			lg.Warn("websocket write", zap.Error(err))
			return
		}
	}
}

func (h *Handler) apply(ctx context.Context, ev *wire.PaintEvent) wire.PaintAck {
	ack := wire.PaintAck{Room: ev.Room}
	switch {
	case ev.Room == "":
		ack.Error = "empty room"
		return ack
	case !ev.Kind.Valid():
		ack.Error = "unknown kind " + string(ev.Kind)
		return ack
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	n, err := h.rooms.Apply(ctx, ev)
	if err != nil {
		ack.Error = err.Error()
		return ack
	}
	ack.Accepted = int32(n)
	return ack
}
