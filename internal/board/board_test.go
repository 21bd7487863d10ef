package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/input"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/replication"
	"github.com/and161185/paintstream/internal/wire"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type deleted struct {
	id      uuid.UUID
	wasSent bool
}

type fakeReplicator struct {
	flushes  [][]model.Action
	deletes  []deleted
	flushErr error
}

var _ Replicator = (*fakeReplicator)(nil)

func (f *fakeReplicator) Flush(actions []model.Action) ([]uuid.UUID, error) {
	if f.flushErr != nil {
		return nil, f.flushErr
	}
	f.flushes = append(f.flushes, actions)
	out := make([]uuid.UUID, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.ID)
	}
	return out, nil
}

func (f *fakeReplicator) NotifyDeleted(a model.Action, wasSent bool) error {
	f.deletes = append(f.deletes, deleted{id: a.ID, wasSent: wasSent})
	return nil
}

type driver struct {
	b   *Board
	now time.Time
}

func newDriver(t *testing.T, repl Replicator, cfg Config) *driver {
	t.Helper()
	cfg.Width, cfg.Height = 200, 100
	return &driver{b: New(cfg, repl, zaptest.NewLogger(t)), now: t0}
}

func (d *driver) ev(e input.Event) {
	d.now = d.now.Add(10 * time.Millisecond)
	e.At = d.now
	d.b.Handle(e)
}

func (d *driver) stroke(pts ...[2]float64) {
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Primary, Pressed: true, X: pts[0][0], Y: pts[0][1]})
	for _, p := range pts {
		d.ev(input.Event{Kind: input.PointerMove, X: p[0], Y: p[1]})
	}
	last := pts[len(pts)-1]
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Primary, X: last[0], Y: last[1]})
}

func (d *driver) key(k string) {
	d.ev(input.Event{Kind: input.Key, Key: k, Pressed: true})
	d.ev(input.Event{Kind: input.Key, Key: k})
}

func (d *driver) undo() {
	d.ev(input.Event{Kind: input.Key, Key: input.KeyControl, Pressed: true})
	d.key("z")
	d.ev(input.Event{Kind: input.Key, Key: input.KeyControl})
}

func (d *driver) frame() FrameResult { return d.b.Frame(d.now) }

func TestFrame_FlushesUnsentOnce(t *testing.T) {
	t.Parallel()
	repl := &fakeReplicator{}
	d := newDriver(t, repl, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 0}, [2]float64{10, 10})
	res := d.frame()
	require.True(t, res.Redraw)
	require.Equal(t, 1, res.Flushed)
	require.Len(t, repl.flushes, 1)
	require.Len(t, repl.flushes[0][0].Payload.(model.Stroke).Vertices, 3)

	require.Zero(t, d.frame().Flushed, "sent actions are not flushed again")
	require.Zero(t, d.b.Unsent())

	d.stroke([2]float64{1, 1}, [2]float64{2, 2})
	d.frame()
	require.Len(t, repl.flushes, 2)
	require.Len(t, repl.flushes[1], 1, "only the new suffix is flushed")
}

func TestFrame_WithheldWhileTyping(t *testing.T) {
	t.Parallel()
	repl := &fakeReplicator{}
	d := newDriver(t, repl, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 50, Y: 50})
	d.key("h")
	d.key("i")
	require.Zero(t, d.frame().Flushed)
	require.Empty(t, repl.flushes)

	d.ev(input.Event{Kind: input.Key, Key: input.KeyEnter, Pressed: true})
	require.Equal(t, 2, d.frame().Flushed)
	txt := repl.flushes[0][1].Payload.(model.Text)
	require.Equal(t, "hi", txt.Entry.Text)
	require.False(t, txt.Entry.Pending)
}

func TestFrame_FailedFlushKeepsIdsUnsent(t *testing.T) {
	t.Parallel()
	repl := &fakeReplicator{flushErr: errs.ErrQueueFull}
	d := newDriver(t, repl, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	require.Zero(t, d.frame().Flushed)
	require.Equal(t, 1, d.b.Unsent())

	repl.flushErr = nil
	require.Equal(t, 1, d.frame().Flushed)
}

func TestUndo_AnnouncesDeleteWithSentFlag(t *testing.T) {
	t.Parallel()
	repl := &fakeReplicator{}
	d := newDriver(t, repl, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	d.frame()
	d.stroke([2]float64{20, 20}, [2]float64{30, 30})
	second := d.b.Actions()[1].ID

	d.undo()
	require.Len(t, d.b.Actions(), 1)
	require.Equal(t, []deleted{{id: second, wasSent: false}}, repl.deletes)

	first := d.b.Actions()[0].ID
	d.undo()
	require.Empty(t, d.b.Actions())
	require.Equal(t, deleted{id: first, wasSent: true}, repl.deletes[1])

	d.undo()
	require.Len(t, repl.deletes, 2, "undo on an empty log is a no-op")
}

func TestUndo_NoOpWhileTyping(t *testing.T) {
	t.Parallel()
	repl := &fakeReplicator{}
	d := newDriver(t, repl, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 50, Y: 50})
	d.undo()
	_, ok := d.b.Undo()
	require.False(t, ok)
	require.Len(t, d.b.Actions(), 1)
	require.Empty(t, repl.deletes)
}

func TestSnapshot_DraftSubstitutesEditedEntry(t *testing.T) {
	t.Parallel()
	d := newDriver(t, &fakeReplicator{}, Config{})

	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 10, Y: 10})
	d.key("a")
	d.ev(input.Event{Kind: input.Key, Key: input.KeyEnter, Pressed: true})

	d.now = d.now.Add(time.Second)
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 80, Y: 60})
	d.key("b")
	s := d.b.Snapshot()
	require.Len(t, s.Texts, 2, "new draft is appended")
	require.Equal(t, "b", s.Texts[1].Text)
	require.True(t, s.Texts[1].Pending)
	require.True(t, s.Caret)

	d.ev(input.Event{Kind: input.Key, Key: input.KeyEnter, Pressed: true})
	d.now = d.now.Add(time.Second)
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 12, Y: 12})
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 12, Y: 12})
	d.key("!")
	s = d.b.Snapshot()
	require.Len(t, s.Texts, 2, "edited entry is substituted in place")
	require.Equal(t, "a!", s.Texts[0].Text)
	require.Equal(t, "b", s.Texts[1].Text)
}

func TestSnapshot_InProgressGeometryAndChrome(t *testing.T) {
	t.Parallel()
	d := newDriver(t, &fakeReplicator{}, Config{})
	d.b.SetColor(model.Color{0, 1, 0, 1})
	d.b.SetFontSize(40)
	d.b.EnterRectangleMode()

	s := d.b.Snapshot()
	require.True(t, s.RectangleMode)
	require.Equal(t, int32(40), s.FontSize)
	require.Equal(t, uint32(200), s.Width)

	d.ev(input.Event{Kind: input.PointerButton, Button: input.Primary, Pressed: true, X: 0, Y: 0})
	d.ev(input.Event{Kind: input.PointerMove, X: 100, Y: 50})
	s = d.b.Snapshot()
	require.Len(t, s.RectangleHandles, 2)
	require.Equal(t, model.Vec2{0, 0}, s.RectangleHandles[1])

	d.ev(input.Event{Kind: input.PointerButton, Button: input.Primary, X: 100, Y: 50})
	s = d.b.Snapshot()
	require.Len(t, s.Shapes, 1)
	require.Equal(t, model.Color{0, 1, 0, 1}, s.Shapes[0].Color)
	require.Empty(t, s.RectangleHandles)
}

func TestFrame_CaretBlinkRequestsRedraw(t *testing.T) {
	t.Parallel()
	d := newDriver(t, &fakeReplicator{}, Config{BlinkInterval: 100 * time.Millisecond})
	d.ev(input.Event{Kind: input.PointerButton, Button: input.Secondary, Pressed: true, X: 5, Y: 5})
	d.frame()

	require.False(t, d.b.Frame(d.now.Add(50*time.Millisecond)).Redraw)
	require.True(t, d.b.Frame(d.now.Add(150*time.Millisecond)).Redraw)
	require.False(t, d.b.Snapshot().Caret)
}

// --- end to end through the dispatcher ---

type memTransport struct {
	mu     sync.Mutex
	events []*wire.PaintEvent
	down   bool
}

func (m *memTransport) GetClient(context.Context) (replication.Client, error) {
	if m.down {
		return nil, errors.New("offline")
	}
	return m, nil
}

func (m *memTransport) SubmitPaint(_ context.Context, ev *wire.PaintEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func TestEndToEnd_TwoStrokesThenUndo(t *testing.T) {
	t.Parallel()
	tr := &memTransport{}
	disp := replication.New(replication.Config{Room: "general"}, tr, zaptest.NewLogger(t))
	d := newDriver(t, disp, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 0}, [2]float64{10, 10})
	d.frame()
	d.stroke([2]float64{50, 50}, [2]float64{60, 60})
	d.frame()
	second := d.b.Actions()[1]
	d.undo()
	d.frame()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, disp.Close(ctx))

	require.Len(t, d.b.Actions(), 1)
	require.Len(t, tr.events, 3)
	require.Equal(t, wire.KindActionRequest, tr.events[0].Kind)
	require.Len(t, tr.events[0].Actions[0].Actions[0].Vertices, 3)
	require.Equal(t, wire.KindActionRequest, tr.events[1].Kind)
	require.Equal(t, wire.KindIsDeleted, tr.events[2].Kind)
	require.Equal(t, second.ID.String(), tr.events[2].Actions[0].Actions[0].ID)
}

func TestEndToEnd_StrictSkipsDeleteOfUnsent(t *testing.T) {
	t.Parallel()
	tr := &memTransport{}
	disp := replication.New(replication.Config{Policy: replication.Strict, RetryBase: time.Millisecond}, tr, zaptest.NewLogger(t))
	d := newDriver(t, disp, Config{PruneSentOnUndo: true})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	d.undo()
	d.frame()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, disp.Close(ctx))
	require.Empty(t, tr.events)
}

func TestEndToEnd_OfflineDropsButMarksSent(t *testing.T) {
	t.Parallel()
	tr := &memTransport{down: true}
	disp := replication.New(replication.Config{}, tr, zaptest.NewLogger(t))
	d := newDriver(t, disp, Config{})

	d.stroke([2]float64{0, 0}, [2]float64{10, 10})
	require.Equal(t, 1, d.frame().Flushed)
	require.Zero(t, d.b.Unsent())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, disp.Close(ctx))
	require.Equal(t, replication.Stats{Dropped: 1}, disp.Stats())
}
