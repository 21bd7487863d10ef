// Package textsession implements the typing sub-state of the interpreter:
// which text entry is open for editing, caret blink and double-click detection.
package textsession

import (
	"math"
	"time"

	"github.com/and161185/paintstream/internal/model"
)

// Defaults used when Config fields are zero.
const (
	DefaultDoubleClickWindow   = 500 * time.Millisecond
	DefaultDoubleClickDistance = 5.0
	DefaultBlinkInterval       = 500 * time.Millisecond
)

// NoTarget marks a draft that is a brand-new entry.
const NoTarget = -1

// State of the session.
type State int

const (
	Idle State = iota
	Typing
)

func (s State) String() string {
	if s == Typing {
		return "typing"
	}
	return "idle"
}

// Measure computes the device-pixel bounds of an entry; supplied by the text layout collaborator.
type Measure func(model.TextEntry) model.Rect

// HitFunc finds the committed text entry under pos and returns its index in the text collection.
type HitFunc func(pos model.Vec2) (index int, entry model.TextEntry, ok bool)

// Config tunes thresholds. Zero values select the defaults.
type Config struct {
	DoubleClickWindow   time.Duration
	DoubleClickDistance float64
	BlinkInterval       time.Duration
	Measure             Measure
}

// Commit is a finished text edit ready to become an action.
type Commit struct {
	Entry  model.TextEntry // Pending is false
	Target int            // index of the re-edited entry, NoTarget for a new one
}

// Session is owned by the input loop and is not safe for concurrent use.
type Session struct {
	cfg Config

	state  State
	target int
	draft  model.TextEntry

	caretVisible bool
	caretAt      time.Time

	lastClickAt  time.Time
	lastClickPos model.Vec2
}

// New returns an idle session.
func New(cfg Config) *Session {
	if cfg.DoubleClickWindow <= 0 {
		cfg.DoubleClickWindow = DefaultDoubleClickWindow
	}
	if cfg.DoubleClickDistance <= 0 {
		cfg.DoubleClickDistance = DefaultDoubleClickDistance
	}
	if cfg.BlinkInterval <= 0 {
		cfg.BlinkInterval = DefaultBlinkInterval
	}
	if cfg.Measure == nil {
		cfg.Measure = EstimateBounds
	}
	return &Session{cfg: cfg, target: NoTarget}
}

// IsDoubleClick reports whether a press at (now, pos) pairs with the previous press.
// A zero last time never pairs.
func IsDoubleClick(now time.Time, pos model.Vec2, last time.Time, lastPos model.Vec2, window time.Duration, maxDist float64) bool {
	if last.IsZero() {
		return false
	}
	dt := now.Sub(last)
	if dt < 0 || dt > window {
		return false
	}
	dx := float64(pos[0] - lastPos[0])
	dy := float64(pos[1] - lastPos[1])
	return dx*dx+dy*dy <= maxDist*maxDist
}

// EstimateBounds approximates layout with a fixed advance per rune.
func EstimateBounds(e model.TextEntry) model.Rect {
	size := int(e.FontSize)
	runes := len([]rune(e.Text))
	if runes == 0 {
		runes = 1
	}
	return model.Rect{
		X:      e.Position[0],
		Y:      e.Position[1],
		Width:  float32(math.Ceil(float64(runes*size*3) / 5)),
		Height: float32(math.Ceil(float64(size*6) / 5)),
	}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Typing reports whether a draft is open.
func (s *Session) Typing() bool { return s.state == Typing }

// Target returns the index of the entry being re-edited.
func (s *Session) Target() (int, bool) {
	if s.state != Typing || s.target == NoTarget {
		return NoTarget, false
	}
	return s.target, true
}

// Draft returns the entry being typed.
func (s *Session) Draft() (model.TextEntry, bool) {
	if s.state != Typing {
		return model.TextEntry{}, false
	}
	return s.draft, true
}

// CaretVisible reports the render-only caret flag.
func (s *Session) CaretVisible() bool { return s.state == Typing && s.caretVisible }

// Click handles a text-protocol press. It returns the commit when the press ended a typing focus.
// A double click on an entry re-edits it; a double click elsewhere leaves a fresh draft.
// fresh is the template for a brand-new entry; its position is set to pos.
func (s *Session) Click(now time.Time, pos model.Vec2, hit HitFunc, fresh model.TextEntry) (Commit, bool) {
	double := IsDoubleClick(now, pos, s.lastClickAt, s.lastClickPos, s.cfg.DoubleClickWindow, s.cfg.DoubleClickDistance)
	s.lastClickAt, s.lastClickPos = now, pos

	if double && hit != nil {
		if i, entry, ok := hit(pos); ok {
			if s.state == Typing && s.target == i {
				return Commit{}, false
			}
			c, committed := s.finish(now)
			s.beginEdit(now, i, entry)
			return c, committed
		}
	}
	if s.state == Typing {
		c, committed := s.finish(now)
		if double {
			// a double click that misses every entry opens a new one at the second press
			fresh.Position = pos
			fresh.Pending = true
			s.begin(now, NoTarget, fresh)
		}
		return c, committed
	}
	fresh.Position = pos
	fresh.Pending = true
	s.begin(now, NoTarget, fresh)
	return Commit{}, false
}

// Insert appends text to the draft.
func (s *Session) Insert(text string) bool {
	if s.state != Typing || !s.draft.Pending || text == "" {
		return false
	}
	s.draft.Text += text
	s.measure()
	return true
}

// Backspace removes the last character of the draft.
func (s *Session) Backspace() bool {
	if s.state != Typing || !s.draft.Pending {
		return false
	}
	return s.dropLast()
}

// Delete removes the last character of the edited entry, or of the newest one.
func (s *Session) Delete() bool {
	if s.state != Typing {
		return false
	}
	return s.dropLast()
}

// Commit closes the draft and returns to Idle. An empty brand-new entry is discarded.
func (s *Session) Commit(now time.Time) (Commit, bool) { return s.finish(now) }

// Tick toggles the caret when the blink interval elapsed; it reports whether it flipped.
func (s *Session) Tick(now time.Time) bool {
	if s.state != Typing || now.Sub(s.caretAt) < s.cfg.BlinkInterval {
		return false
	}
	s.caretVisible = !s.caretVisible
	s.caretAt = now
	return true
}

// ResetCaret shows the caret and restarts the blink timer.
func (s *Session) ResetCaret(now time.Time) {
	s.caretVisible = true
	s.caretAt = now
}

func (s *Session) beginEdit(now time.Time, i int, entry model.TextEntry) {
	entry.Pending = true
	s.begin(now, i, entry)
}

func (s *Session) begin(now time.Time, target int, entry model.TextEntry) {
	s.state = Typing
	s.target = target
	s.draft = entry
	s.measure()
	s.ResetCaret(now)
}

func (s *Session) finish(now time.Time) (Commit, bool) {
	if s.state != Typing {
		return Commit{}, false
	}
	c := Commit{Entry: s.draft, Target: s.target}
	c.Entry.Pending = false

	s.state = Idle
	s.target = NoTarget
	s.draft = model.TextEntry{}
	s.ResetCaret(now)

	if c.Target == NoTarget && c.Entry.Text == "" {
		return Commit{}, false
	}
	return c, true
}

func (s *Session) dropLast() bool {
	r := []rune(s.draft.Text)
	if len(r) == 0 {
		return false
	}
	s.draft.Text = string(r[:len(r)-1])
	s.measure()
	return true
}

func (s *Session) measure() { s.draft.Bounds = s.cfg.Measure(s.draft) }
