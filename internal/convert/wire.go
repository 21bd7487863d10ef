// Package convert maps drawing actions to paint-event wire messages and back.
package convert

import (
	"fmt"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/wire"
)

// --- helpers ---

func ts(t time.Time) *timestamppb.Timestamp {
	if t.IsZero() {
		return nil
	}
	return timestamppb.New(t)
}

func widen(c model.RGBA) [4]float32 {
	return [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
}

func narrow(c [4]float32) model.RGBA {
	var out model.RGBA
	for i, v := range c {
		switch {
		case v <= 0:
			out[i] = 0
		case v >= 255:
			out[i] = 255
		default:
			out[i] = uint8(v)
		}
	}
	return out
}

// --- model -> wire ---

// ToStreamAction converts one action to its wire form.
func ToStreamAction(a model.Action) wire.StreamAction {
	sa := wire.StreamAction{ID: a.ID.String()}
	switch p := a.Payload.(type) {
	case model.Stroke:
		sa.Vertices = make([]wire.Vertex, 0, len(p.Vertices))
		for _, v := range p.Vertices {
			sa.Vertices = append(sa.Vertices, wire.Vertex{Position: v.Position, Color: v.Color})
		}
	case model.Text:
		e := p.Entry
		t := &wire.Text{
			Position: e.Position,
			Color:    widen(e.Color),
			Text:     e.Text,
			Pending:  e.Pending,
			Bounds:   wire.Bounds{X: e.Bounds.X, Y: e.Bounds.Y, Width: e.Bounds.Width, Height: e.Bounds.Height},
			FontSize: e.FontSize,
		}
		if p.Replaces != u.Nil {
			t.Replaces = p.Replaces.String()
		}
		sa.Text = t
	case model.Shape:
		r := p.Rectangle
		sa.Rectangle = &wire.Rectangle{First: r.First, Last: r.Last, Color: r.Color}
	}
	return sa
}

// ToStreamActions wraps every action in its own group, preserving order.
func ToStreamActions(actions []model.Action) []wire.StreamActions {
	out := make([]wire.StreamActions, 0, len(actions))
	for _, a := range actions {
		out = append(out, wire.StreamActions{Actions: []wire.StreamAction{ToStreamAction(a)}})
	}
	return out
}

// ToPaintEvent builds the outbound unit for a batch.
func ToPaintEvent(room string, kind wire.Kind, actions []model.Action, at time.Time) *wire.PaintEvent {
	return &wire.PaintEvent{
		Room:      room,
		Actions:   ToStreamActions(actions),
		Timestamp: ts(at),
		Kind:      kind,
	}
}

// --- wire -> model ---

// FromStreamAction converts a wire action that carries exactly one payload.
func FromStreamAction(sa wire.StreamAction) (model.Action, error) {
	var id u.UUID
	if err := id.UnmarshalText([]byte(sa.ID)); err != nil {
		return model.Action{}, fmt.Errorf("invalid id %q: %w", sa.ID, errs.ErrInvalidAction)
	}

	n := 0
	if len(sa.Vertices) > 0 {
		n++
	}
	if sa.Text != nil {
		n++
	}
	if sa.Rectangle != nil {
		n++
	}
	if n != 1 {
		return model.Action{}, fmt.Errorf("%s: %d payloads: %w", sa.ID, n, errs.ErrInvalidAction)
	}

	a := model.Action{ID: id}
	switch {
	case len(sa.Vertices) > 0:
		vs := make([]model.Vertex, 0, len(sa.Vertices))
		for _, v := range sa.Vertices {
			vs = append(vs, model.Vertex{Position: v.Position, Color: v.Color})
		}
		a.Payload = model.Stroke{Vertices: vs}
	case sa.Text != nil:
		t := sa.Text
		p := model.Text{Entry: model.TextEntry{
			Position: t.Position,
			Color:    narrow(t.Color),
			Text:     t.Text,
			Pending:  t.Pending,
			Bounds:   model.Rect{X: t.Bounds.X, Y: t.Bounds.Y, Width: t.Bounds.Width, Height: t.Bounds.Height},
			FontSize: t.FontSize,
		}}
		if t.Replaces != "" {
			rid, err := u.FromString(t.Replaces)
			if err != nil {
				return model.Action{}, fmt.Errorf("%s: invalid replaces %q: %w", sa.ID, t.Replaces, errs.ErrInvalidAction)
			}
			p.Replaces = rid
		}
		a.Payload = p
	default:
		r := sa.Rectangle
		a.Payload = model.Shape{Rectangle: model.Rectangle{First: r.First, Last: r.Last, Color: r.Color}}
	}
	return a, nil
}

// FromPaintEvent flattens and converts every wire action of ev in order.
func FromPaintEvent(ev *wire.PaintEvent) ([]model.Action, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil PaintEvent")
	}
	out := make([]model.Action, 0, ev.Count())
	i := 0
	for _, g := range ev.Actions {
		for _, sa := range g.Actions {
			a, err := FromStreamAction(sa)
			if err != nil {
				return nil, fmt.Errorf("action[%d]: %w", i, err)
			}
			out = append(out, a)
			i++
		}
	}
	return out, nil
}

// IDsFromPaintEvent returns the action ids referenced by ev without decoding payloads.
func IDsFromPaintEvent(ev *wire.PaintEvent) ([]u.UUID, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil PaintEvent")
	}
	out := make([]u.UUID, 0, ev.Count())
	i := 0
	for _, g := range ev.Actions {
		for _, sa := range g.Actions {
			id, err := u.FromString(sa.ID)
			if err != nil {
				return nil, fmt.Errorf("action[%d]: invalid id %q: %w", i, sa.ID, errs.ErrInvalidAction)
			}
			out = append(out, id)
			i++
		}
	}
	return out, nil
}

// --- room listing ---

// ToRoomSnapshot converts live room actions for the ListRoom reply.
func ToRoomSnapshot(room string, actions []model.Action) *wire.RoomSnapshot {
	out := &wire.RoomSnapshot{Room: room, Actions: make([]wire.StreamAction, 0, len(actions))}
	for _, a := range actions {
		out.Actions = append(out.Actions, ToStreamAction(a))
	}
	return out
}

// FromRoomSnapshot converts a ListRoom reply back to actions.
func FromRoomSnapshot(s *wire.RoomSnapshot) ([]model.Action, error) {
	if s == nil {
		return nil, fmt.Errorf("nil RoomSnapshot")
	}
	out := make([]model.Action, 0, len(s.Actions))
	for i, sa := range s.Actions {
		a, err := FromStreamAction(sa)
		if err != nil {
			return nil, fmt.Errorf("action[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}
