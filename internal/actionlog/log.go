// Package actionlog keeps the ordered history of committed drawing actions,
// the per-type collections derived from it and the set of ids handed to replication.
package actionlog

import (
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/model"
)

// TextItem is a committed text action as seen by the text collection.
type TextItem struct {
	ID   uuid.UUID
	Text model.Text
}

// VisibleText is a text entry that is not superseded by a later edit.
// Index addresses the derived text collection.
type VisibleText struct {
	Index int
	Entry model.TextEntry
}

// Undone is the result of a successful Undo.
type Undone struct {
	Action  model.Action
	WasSent bool // id was in the sent set at the moment of undo
}

// Options tune log behaviour.
type Options struct {
	// PruneSentOnUndo drops the undone id from the sent set together with the action.
	// When false the id stays in the set (best-effort replication).
	PruneSentOnUndo bool
}

// Log is not safe for concurrent use; it is owned by the input/render loop.
type Log struct {
	opts Options

	actions []model.Action
	ids     map[uuid.UUID]struct{}

	strokes []model.Stroke
	shapes  []model.Rectangle
	texts   []TextItem

	sent   map[uuid.UUID]struct{}
	unsent int // actions in the log whose id is not in sent
}

// New returns an empty log.
func New(opts Options) *Log {
	return &Log{
		opts: opts,
		ids:  make(map[uuid.UUID]struct{}),
		sent: make(map[uuid.UUID]struct{}),
	}
}

// Append pushes a to the tail of the log and of its derived collection.
func (l *Log) Append(a model.Action) error {
	if a.Payload == nil {
		return fmt.Errorf("append %s: nil payload", a.ID)
	}
	if _, dup := l.ids[a.ID]; dup {
		return fmt.Errorf("append %s: %w", a.ID, errs.ErrDuplicateID)
	}
	a = a.Clone()
	switch p := a.Payload.(type) {
	case model.Stroke:
		l.strokes = append(l.strokes, p)
	case model.Shape:
		l.shapes = append(l.shapes, p.Rectangle)
	case model.Text:
		l.texts = append(l.texts, TextItem{ID: a.ID, Text: p})
	default:
		return fmt.Errorf("append %s: unknown payload %T", a.ID, a.Payload)
	}
	l.actions = append(l.actions, a)
	l.ids[a.ID] = struct{}{}
	if _, ok := l.sent[a.ID]; !ok {
		l.unsent++
	}
	return nil
}

// Undo pops the tail action together with the tail of its derived collection.
func (l *Log) Undo() (Undone, bool) {
	if len(l.actions) == 0 {
		return Undone{}, false
	}
	last := l.actions[len(l.actions)-1]
	l.actions = l.actions[:len(l.actions)-1]
	delete(l.ids, last.ID)

	switch last.Payload.(type) {
	case model.Stroke:
		l.strokes = l.strokes[:len(l.strokes)-1]
	case model.Shape:
		l.shapes = l.shapes[:len(l.shapes)-1]
	case model.Text:
		l.texts = l.texts[:len(l.texts)-1]
	}

	_, wasSent := l.sent[last.ID]
	if !wasSent {
		l.unsent--
	}
	if wasSent && l.opts.PruneSentOnUndo {
		delete(l.sent, last.ID)
	}
	return Undone{Action: last, WasSent: wasSent}, true
}

// Len returns the number of actions in the log.
func (l *Log) Len() int { return len(l.actions) }

// Actions returns a copy of the log in insertion order.
func (l *Log) Actions() []model.Action {
	out := make([]model.Action, 0, len(l.actions))
	for _, a := range l.actions {
		out = append(out, a.Clone())
	}
	return out
}

// Strokes returns the committed strokes in log order.
func (l *Log) Strokes() []model.Stroke {
	out := make([]model.Stroke, 0, len(l.strokes))
	for _, s := range l.strokes {
		out = append(out, model.Stroke{Vertices: append([]model.Vertex(nil), s.Vertices...)})
	}
	return out
}

// Shapes returns the committed rectangles in log order.
func (l *Log) Shapes() []model.Rectangle {
	return append([]model.Rectangle(nil), l.shapes...)
}

// Texts returns all committed text actions, superseded ones included.
func (l *Log) Texts() []TextItem {
	return append([]TextItem(nil), l.texts...)
}

// TextAt returns the i-th committed text action.
func (l *Log) TextAt(i int) (TextItem, bool) {
	if i < 0 || i >= len(l.texts) {
		return TextItem{}, false
	}
	return l.texts[i], true
}

// VisibleTexts returns text entries not replaced by a later edit that is still in the log.
func (l *Log) VisibleTexts() []VisibleText {
	replaced := make(map[uuid.UUID]struct{})
	for _, t := range l.texts {
		if t.Text.Replaces != uuid.Nil {
			replaced[t.Text.Replaces] = struct{}{}
		}
	}
	out := make([]VisibleText, 0, len(l.texts))
	for i, t := range l.texts {
		if _, gone := replaced[t.ID]; gone {
			continue
		}
		out = append(out, VisibleText{Index: i, Entry: t.Text.Entry})
	}
	return out
}

// Unsent returns, in log order, every action whose id is not in the sent set.
func (l *Log) Unsent() []model.Action {
	if l.unsent == 0 {
		return nil
	}
	out := make([]model.Action, 0, l.unsent)
	for _, a := range l.actions {
		if _, ok := l.sent[a.ID]; !ok {
			out = append(out, a.Clone())
		}
	}
	return out
}

// HasUnsent reports whether at least one action awaits replication.
func (l *Log) HasUnsent() bool { return l.unsent > 0 }

// MarkSent adds ids to the sent set. Ids of actions not in the log are recorded too.
func (l *Log) MarkSent(ids ...uuid.UUID) {
	for _, id := range ids {
		if _, ok := l.sent[id]; ok {
			continue
		}
		l.sent[id] = struct{}{}
		if _, inLog := l.ids[id]; inLog {
			l.unsent--
		}
	}
}

// IsSent reports whether id is in the sent set.
func (l *Log) IsSent(id uuid.UUID) bool {
	_, ok := l.sent[id]
	return ok
}

// SentCount returns the size of the sent set.
func (l *Log) SentCount() int { return len(l.sent) }
