// Package wire declares the paint-event messages exchanged with the remote paint service
// and the gRPC service description used to carry them.
package wire

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Kind distinguishes a commit batch from an undo notification.
type Kind string

const (
	KindActionRequest Kind = "action_request"
	KindIsDeleted     Kind = "is_deleted"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k == KindActionRequest || k == KindIsDeleted }

// Vertex is one stroke point in normalized space.
type Vertex struct {
	Position [2]float32 `json:"position"`
	Color    [4]float32 `json:"color"`
}

// Bounds is a device-pixel box.
type Bounds struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"w"`
	Height float32 `json:"h"`
}

// Text is a text entry. Color holds the 8-bit channels widened to floats.
type Text struct {
	Position [2]float32 `json:"position"`
	Color    [4]float32 `json:"color"`
	Text     string     `json:"text"`
	Pending  bool       `json:"pending"`
	Bounds   Bounds     `json:"bounds"`
	FontSize int32      `json:"font_size"`
	Replaces string     `json:"replaces,omitempty"`
}

// Rectangle is a shape given by two corners in normalized space.
type Rectangle struct {
	First [2]float32 `json:"first"`
	Last  [2]float32 `json:"last"`
	Color [4]float32 `json:"color"`
}

// StreamAction carries one action id and exactly one populated payload.
type StreamAction struct {
	ID        string     `json:"id"`
	Vertices  []Vertex   `json:"vertices,omitempty"`
	Text      *Text      `json:"text,omitempty"`
	Rectangle *Rectangle `json:"rectangle,omitempty"`
}

// StreamActions groups the wire actions of one logical action.
type StreamActions struct {
	Actions []StreamAction `json:"actions"`
}

// PaintEvent is one outbound unit: a flush batch or an undo notification.
type PaintEvent struct {
	Room      string                 `json:"room"`
	Actions   []StreamActions        `json:"actions"`
	Timestamp *timestamppb.Timestamp `json:"timestamp,omitempty"`
	Kind      Kind                   `json:"kind"`
}

// Count returns the number of wire actions across all groups.
func (e *PaintEvent) Count() int {
	if e == nil {
		return 0
	}
	n := 0
	for _, g := range e.Actions {
		n += len(g.Actions)
	}
	return n
}

// PaintAck is the service reply. Accepted counts the wire actions it applied.
// Error is set only on transports without a status channel of their own.
type PaintAck struct {
	Room     string `json:"room"`
	Accepted int32  `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// ListRoomRequest asks for the live actions of a room.
type ListRoomRequest struct {
	Room string `json:"room"`
}

// RoomSnapshot lists live actions in insertion order.
type RoomSnapshot struct {
	Room    string         `json:"room"`
	Actions []StreamAction `json:"actions"`
}
