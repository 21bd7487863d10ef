// Package model defines the drawing entities shared by the interpreter, the action log and replication.
package model

import (
	"github.com/gofrs/uuid/v5"
)

// Vec2 is a point in either normalized drawing space or device pixels, depending on the owner.
type Vec2 [2]float32

// Color is a normalized RGBA colour (each channel in [0,1]).
type Color [4]float32

// RGBA is an 8-bit per channel colour used by text entries.
type RGBA [4]uint8

// Vertex is a single point of a stroke.
type Vertex struct {
	Position Vec2
	Color    Color
}

// Rectangle is an axis-aligned shape given by two opposite corners in normalized space.
type Rectangle struct {
	First Vec2
	Last  Vec2
	Color Color
}

// Rect is a device-pixel bounding box.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// TextEntry is a text label positioned in device pixels.
type TextEntry struct {
	Position Vec2
	Color    RGBA
	Text     string
	Pending  bool // open for character-level editing
	Bounds   Rect
	FontSize int32
}

// NewTextEntry returns an empty pending entry at the origin.
func NewTextEntry(color RGBA, fontSize int32) TextEntry {
	return TextEntry{Color: color, FontSize: fontSize, Pending: true}
}

// PayloadKind names the variant carried by an Action.
type PayloadKind string

const (
	KindStroke PayloadKind = "stroke"
	KindText   PayloadKind = "text"
	KindShape  PayloadKind = "shape"
)

// Payload is the sealed sum over Stroke, Text and Shape.
type Payload interface {
	Kind() PayloadKind
	clone() Payload
}

// Stroke is a freehand path in normalized space.
type Stroke struct{ Vertices []Vertex }

// Text is a committed text entry. Replaces names the earlier text action this one
// was edited from; uuid.Nil for a fresh entry.
type Text struct {
	Entry    TextEntry
	Replaces uuid.UUID
}

// Shape is a committed rectangle.
type Shape struct{ Rectangle Rectangle }

func (Stroke) Kind() PayloadKind { return KindStroke }
func (Text) Kind() PayloadKind   { return KindText }
func (Shape) Kind() PayloadKind  { return KindShape }

func (s Stroke) clone() Payload {
	return Stroke{Vertices: append([]Vertex(nil), s.Vertices...)}
}
func (t Text) clone() Payload  { return t }
func (s Shape) clone() Payload { return s }

// Action is one completed gesture. ID is the unit of replication and undo.
type Action struct {
	ID      uuid.UUID
	Payload Payload
}

// Clone returns a deep copy so callers can hand actions across goroutines.
func (a Action) Clone() Action {
	if a.Payload == nil {
		return a
	}
	return Action{ID: a.ID, Payload: a.Payload.clone()}
}

// IDSource produces action ids.
type IDSource func() uuid.UUID

// NewV4 is the default IDSource.
func NewV4() uuid.UUID { return uuid.Must(uuid.NewV4()) }
