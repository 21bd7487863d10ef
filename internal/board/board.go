// Package board is the drawing session context owned by the frame loop. It wires the
// input interpreter, the action log, the text session and replication together.
package board

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/paintstream/internal/actionlog"
	"github.com/and161185/paintstream/internal/input"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/textsession"
)

// Replicator accepts batches for asynchronous delivery. Implemented by *replication.Dispatcher.
type Replicator interface {
	Flush(actions []model.Action) ([]uuid.UUID, error)
	NotifyDeleted(a model.Action, wasSent bool) error
}

// Config tunes the session. Zero values select the package defaults of input and textsession.
type Config struct {
	DoubleClickWindow   time.Duration
	DoubleClickDistance float64
	BlinkInterval       time.Duration
	RectangleKey        string
	UndoKey             string
	FontSize            int32
	Color               model.Color
	// MacSecondaryAlias makes primary+Control act as a secondary press.
	MacSecondaryAlias bool
	// PruneSentOnUndo must match a Strict replicator.
	PruneSentOnUndo bool
	Width, Height   uint32
	Measure         textsession.Measure
	NewID           model.IDSource
}

// FrameResult reports what a frame did.
type FrameResult struct {
	Redraw  bool
	Flushed int // actions handed to the replicator
}

// Snapshot is what the renderer reads once per frame.
type Snapshot struct {
	Strokes          []model.Stroke
	Shapes           []model.Rectangle
	Texts            []model.TextEntry
	CurrentStroke    []model.Vertex
	RectangleHandles []model.Vec2
	Caret            bool
	Width, Height    uint32
	Color            model.Color
	FontSize         int32
	RectangleMode    bool
}

// Board is not safe for concurrent use.
type Board struct {
	log  *actionlog.Log
	text *textsession.Session
	in   *input.Interpreter
	repl Replicator
	lg   *zap.Logger

	dirty bool
}

// New builds a session that replicates through repl.
func New(cfg Config, repl Replicator, lg *zap.Logger) *Board {
	if lg == nil {
		lg = zap.NewNop()
	}
	log := actionlog.New(actionlog.Options{PruneSentOnUndo: cfg.PruneSentOnUndo})
	text := textsession.New(textsession.Config{
		DoubleClickWindow:   cfg.DoubleClickWindow,
		DoubleClickDistance: cfg.DoubleClickDistance,
		BlinkInterval:       cfg.BlinkInterval,
		Measure:             cfg.Measure,
	})
	in := input.New(input.Config{
		RectangleKey:   cfg.RectangleKey,
		UndoKey:        cfg.UndoKey,
		SecondaryAlias: cfg.MacSecondaryAlias,
		Color:          cfg.Color,
		FontSize:       cfg.FontSize,
		NewID:          cfg.NewID,
	}, log, text, lg)

	b := &Board{log: log, text: text, in: in, repl: repl, lg: lg, dirty: true}
	if cfg.Width > 0 && cfg.Height > 0 {
		in.Handle(input.Event{Kind: input.Resize, Width: cfg.Width, Height: cfg.Height})
	}
	return b
}

// Handle feeds one event to the interpreter and runs the command it yields.
func (b *Board) Handle(ev input.Event) {
	b.dirty = true
	if b.in.Handle(ev) == input.Undo {
		b.Undo()
	}
}

// Undo pops the newest action and announces its deletion. It is a no-op while typing.
func (b *Board) Undo() (model.Action, bool) {
	if b.text.Typing() {
		return model.Action{}, false
	}
	u, ok := b.log.Undo()
	if !ok {
		return model.Action{}, false
	}
	b.dirty = true
	if err := b.repl.NotifyDeleted(u.Action, u.WasSent); err != nil {
		b.lg.Warn("delete notification dropped", zap.String("id", u.Action.ID.String()), zap.Error(err))
	}
	return u.Action, true
}

// Frame runs one processing pass: caret blink, then a flush of unsent actions when no
// text is being typed. Ids are marked sent once their batch is queued.
func (b *Board) Frame(now time.Time) FrameResult {
	res := FrameResult{Redraw: b.dirty}
	b.dirty = false
	if b.text.Tick(now) {
		res.Redraw = true
	}
	if b.text.Typing() || !b.log.HasUnsent() {
		return res
	}

	unsent := b.log.Unsent()
	ids, err := b.repl.Flush(unsent)
	if err != nil {
		b.lg.Warn("flush deferred", zap.Int("actions", len(unsent)), zap.Error(err))
		return res
	}
	b.log.MarkSent(ids...)
	res.Flushed = len(ids)
	return res
}

// Snapshot returns the render state. The entry being typed replaces the one it edits,
// or is appended when it is new.
func (b *Board) Snapshot() Snapshot {
	w, h := b.in.Viewport()
	s := Snapshot{
		Strokes:          b.log.Strokes(),
		Shapes:           b.log.Shapes(),
		CurrentStroke:    b.in.CurrentStroke(),
		RectangleHandles: b.in.RectangleHandles(),
		Caret:            b.text.CaretVisible(),
		Width:            w,
		Height:           h,
		Color:            b.in.Color(),
		FontSize:         b.in.FontSize(),
		RectangleMode:    b.in.RectangleMode(),
	}

	draft, typing := b.text.Draft()
	target, editing := b.text.Target()
	for _, v := range b.log.VisibleTexts() {
		if editing && v.Index == target {
			s.Texts = append(s.Texts, draft)
			continue
		}
		s.Texts = append(s.Texts, v.Entry)
	}
	if typing && !editing {
		s.Texts = append(s.Texts, draft)
	}
	return s
}

// --- UI chrome ---

// SetColor selects the colour of the next gesture.
func (b *Board) SetColor(c model.Color) { b.in.SetColor(c) }

// SetFontSize selects the font size of the next text entry.
func (b *Board) SetFontSize(size int32) { b.in.SetFontSize(size) }

// EnterRectangleMode arms rectangle capture for the next primary drag.
func (b *Board) EnterRectangleMode() { b.in.EnterRectangleMode() }

// Typing reports whether a text entry has focus.
func (b *Board) Typing() bool { return b.text.Typing() }

// Actions returns a copy of the log in order.
func (b *Board) Actions() []model.Action { return b.log.Actions() }

// Unsent returns the number of actions not yet handed to the replicator.
func (b *Board) Unsent() int { return len(b.log.Unsent()) }
