package input

import (
	"go.uber.org/zap"

	"github.com/and161185/paintstream/internal/actionlog"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/textsession"
)

// Command is a request the interpreter cannot satisfy on its own.
type Command int

const (
	None Command = iota
	Undo
)

// Config binds keys to tools. Zero values select the defaults.
type Config struct {
	RectangleKey string // held while pressing primary arms rectangle capture
	UndoKey      string
	UndoModifier string
	// SecondaryAlias makes primary+Control behave as a secondary press.
	SecondaryAlias bool
	Color          model.Color
	FontSize       int32
	NewID          model.IDSource
}

// Defaults applied by New.
const (
	DefaultRectangleKey = "s"
	DefaultUndoKey      = "z"
	DefaultFontSize     = 24
)

// DefaultColor is opaque black.
var DefaultColor = model.Color{0, 0, 0, 1}

// Interpreter is driven synchronously by the input loop.
type Interpreter struct {
	cfg  Config
	log  *actionlog.Log
	text *textsession.Session
	lg   *zap.Logger

	width, height uint32
	cursorX       float64
	cursorY       float64
	pressed       map[string]struct{}

	mouseDown    bool
	rectMode     bool
	stroke       []model.Vertex
	handles      []model.Vec2
	gestureColor model.Color

	color    model.Color
	fontSize int32
}

// New wires an interpreter to the log and the text session it drives.
func New(cfg Config, log *actionlog.Log, text *textsession.Session, lg *zap.Logger) *Interpreter {
	if cfg.RectangleKey == "" {
		cfg.RectangleKey = DefaultRectangleKey
	}
	if cfg.UndoKey == "" {
		cfg.UndoKey = DefaultUndoKey
	}
	if cfg.UndoModifier == "" {
		cfg.UndoModifier = KeyControl
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = DefaultFontSize
	}
	if cfg.Color == (model.Color{}) {
		cfg.Color = DefaultColor
	}
	if cfg.NewID == nil {
		cfg.NewID = model.NewV4
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Interpreter{
		cfg:      cfg,
		log:      log,
		text:     text,
		lg:       lg,
		pressed:  make(map[string]struct{}),
		color:    cfg.Color,
		fontSize: cfg.FontSize,
	}
}

// --- UI chrome commands ---

// SetColor selects the colour used by the next gesture.
func (in *Interpreter) SetColor(c model.Color) { in.color = c }

// SetFontSize selects the font size of the next text entry.
func (in *Interpreter) SetFontSize(size int32) {
	if size > 0 {
		in.fontSize = size
	}
}

// EnterRectangleMode arms rectangle capture for the next primary drag.
func (in *Interpreter) EnterRectangleMode() { in.rectMode = true }

// Color returns the current colour.
func (in *Interpreter) Color() model.Color { return in.color }

// FontSize returns the current font size.
func (in *Interpreter) FontSize() int32 { return in.fontSize }

// RectangleMode reports whether rectangle capture is armed.
func (in *Interpreter) RectangleMode() bool { return in.rectMode }

// Viewport returns the last known window size.
func (in *Interpreter) Viewport() (width, height uint32) { return in.width, in.height }

// CurrentStroke returns the in-progress stroke.
func (in *Interpreter) CurrentStroke() []model.Vertex {
	return append([]model.Vertex(nil), in.stroke...)
}

// RectangleHandles returns the captured rectangle corners (at most two).
func (in *Interpreter) RectangleHandles() []model.Vec2 {
	return append([]model.Vec2(nil), in.handles...)
}

// Handle consumes one event.
func (in *Interpreter) Handle(ev Event) Command {
	switch ev.Kind {
	case PointerMove:
		in.move(ev)
	case PointerButton:
		in.button(ev)
	case Key:
		if ev.Pressed {
			return in.keyDown(ev)
		}
		in.keyUp(ev)
	case Resize:
		if ev.Width > 0 && ev.Height > 0 {
			in.width, in.height = ev.Width, ev.Height
		}
	case Focus:
		in.text.ResetCaret(ev.At)
	}
	return None
}

func (in *Interpreter) move(ev Event) {
	in.cursorX, in.cursorY = ev.X, ev.Y
	if !in.mouseDown {
		return
	}
	p := model.ToNormalized(ev.X, ev.Y, in.width, in.height)
	if in.rectMode {
		if len(in.handles) > 1 {
			in.handles = in.handles[:1]
		}
		in.handles = append(in.handles, p)
		return
	}
	in.stroke = append(in.stroke, model.Vertex{Position: p, Color: in.gestureColor})
}

func (in *Interpreter) button(ev Event) {
	in.cursorX, in.cursorY = ev.X, ev.Y

	// the alias applies to presses only so a primary release always ends the gesture
	secondary := ev.Button == Secondary ||
		(in.cfg.SecondaryAlias && ev.Pressed && ev.Button == Primary && in.held(KeyControl))
	if secondary {
		if ev.Pressed {
			in.textClick(ev)
		}
		return
	}
	if ev.Button != Primary {
		return
	}
	if ev.Pressed {
		in.mouseDown = true
		in.stroke = nil
		in.gestureColor = in.color
		if in.held(in.cfg.RectangleKey) {
			in.rectMode = true
		}
		if in.rectMode {
			in.handles = []model.Vec2{model.ToNormalized(ev.X, ev.Y, in.width, in.height)}
		}
		return
	}

	in.mouseDown = false
	if len(in.stroke) >= 2 {
		in.commit(model.Stroke{Vertices: in.stroke})
	}
	in.stroke = nil
	in.finishRectangle()
}

// finishRectangle commits a captured rectangle and disarms rectangle mode.
func (in *Interpreter) finishRectangle() {
	in.rectMode = false
	if len(in.handles) > 0 {
		in.commit(model.Shape{Rectangle: model.Rectangle{
			First: in.handles[0],
			Last:  in.handles[len(in.handles)-1],
			Color: in.gestureColor,
		}})
	}
	in.handles = nil
}

func (in *Interpreter) textClick(ev Event) {
	pos := model.Vec2{float32(ev.X), float32(ev.Y)}
	fresh := model.NewTextEntry(model.ToRGBA(in.color), in.fontSize)
	if c, ok := in.text.Click(ev.At, pos, in.hitText, fresh); ok {
		in.commitText(c)
	}
}

func (in *Interpreter) hitText(pos model.Vec2) (int, model.TextEntry, bool) {
	for _, v := range in.log.VisibleTexts() {
		if v.Entry.Bounds.Contains(pos[0], pos[1]) {
			return v.Index, v.Entry, true
		}
	}
	return 0, model.TextEntry{}, false
}

func (in *Interpreter) keyDown(ev Event) Command {
	in.pressed[ev.Key] = struct{}{}

	if in.text.Typing() {
		if s, ok := character(ev.Key); ok {
			in.text.Insert(s)
			return None
		}
		switch ev.Key {
		case KeyEnter, KeyGoBack:
			if c, ok := in.text.Commit(ev.At); ok {
				in.commitText(c)
			}
		case KeyBackspace:
			in.text.Backspace()
		case KeyDelete:
			in.text.Delete()
		}
		return None
	}

	if in.held(in.cfg.UndoModifier) && in.held(in.cfg.UndoKey) {
		return Undo
	}
	return None
}

func (in *Interpreter) keyUp(ev Event) {
	delete(in.pressed, ev.Key)
	in.finishRectangle()
}

func (in *Interpreter) held(key string) bool {
	_, ok := in.pressed[key]
	return ok
}

func (in *Interpreter) commitText(c textsession.Commit) {
	t := model.Text{Entry: c.Entry}
	if c.Target != textsession.NoTarget {
		if item, ok := in.log.TextAt(c.Target); ok {
			t.Replaces = item.ID
		}
	}
	in.commit(t)
}

func (in *Interpreter) commit(p model.Payload) {
	a := model.Action{ID: in.cfg.NewID(), Payload: p}
	if err := in.log.Append(a); err != nil {
		in.lg.Warn("drop action", zap.String("kind", string(p.Kind())), zap.Error(err))
		return
	}
	in.lg.Debug("commit", zap.String("id", a.ID.String()), zap.String("kind", string(p.Kind())))
}
