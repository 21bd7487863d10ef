// Package wsclient is a websocket transport for the replication dispatcher. It sends the
// same JSON paint events as the gRPC transport, one text frame per event, and reads one
// ack frame back.
package wsclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/and161185/paintstream/internal/replication"
	"github.com/and161185/paintstream/internal/wire"
)

// DefaultIOTimeout applies to a round trip when ctx has no deadline.
const DefaultIOTimeout = 10 * time.Second

// Transport owns one websocket connection and redials after a failed round trip.
type Transport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	lg     *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

var (
	_ replication.Transport = (*Transport)(nil)
	_ replication.Client    = (*Transport)(nil)
)

// New returns a transport for a ws:// or wss:// url.
func New(url string, header http.Header, lg *zap.Logger) *Transport {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Transport{url: url, header: header, dialer: websocket.DefaultDialer, lg: lg}
}

// GetClient dials when no connection is open.
func (t *Transport) GetClient(ctx context.Context) (replication.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return t, nil
	}
	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", t.url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}
	t.conn = conn
	t.lg.Debug("websocket connected", zap.String("url", t.url))
	return t, nil
}

// SubmitPaint writes ev and waits for the ack.
func (t *Transport) SubmitPaint(ctx context.Context, ev *wire.PaintEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("submit %s: not connected", ev.Kind)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultIOTimeout)
	}
	_ = t.conn.SetWriteDeadline(deadline)
	_ = t.conn.SetReadDeadline(deadline)

	if err := t.conn.WriteJSON(ev); err != nil {
		t.reset()
		return fmt.Errorf("write %s: %w", ev.Kind, err)
	}
	var ack wire.PaintAck
	if err := t.conn.ReadJSON(&ack); err != nil {
		t.reset()
		return fmt.Errorf("read ack: %w", err)
	}
	if ack.Error != "" {
		return fmt.Errorf("submit %s: rejected: %s", ev.Kind, ack.Error)
	}
	t.lg.Debug("paint ack", zap.String("room", ack.Room), zap.Int32("accepted", ack.Accepted))
	return nil
}

// Close sends a close frame and drops the connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *Transport) reset() {
	_ = t.conn.Close()
	t.conn = nil
}
