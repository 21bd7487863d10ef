package model

import (
	"testing"

	"github.com/gofrs/uuid/v5"
)

func TestToNormalized(t *testing.T) {
	t.Parallel()

	cases := []struct {
		x, y float64
		want Vec2
	}{
		{0, 0, Vec2{-1, 1}},
		{200, 100, Vec2{1, -1}},
		{100, 50, Vec2{0, 0}},
	}
	for _, c := range cases {
		if got := ToNormalized(c.x, c.y, 200, 100); got != c.want {
			t.Fatalf("ToNormalized(%v,%v)=%v, want %v", c.x, c.y, got, c.want)
		}
	}
	if got := ToNormalized(10, 10, 0, 100); got != (Vec2{}) {
		t.Fatalf("zero viewport must map to origin, got %v", got)
	}
}

func TestToRGBA_Truncates(t *testing.T) {
	t.Parallel()

	got := ToRGBA(Color{1, 0.5, 0, 2})
	want := RGBA{255, 127, 0, 255}
	if got != want {
		t.Fatalf("ToRGBA=%v, want %v", got, want)
	}
}

func TestRect_ContainsEdges(t *testing.T) {
	t.Parallel()

	r := Rect{X: 10, Y: 10, Width: 20, Height: 5}
	if !r.Contains(10, 10) || !r.Contains(30, 15) {
		t.Fatalf("edges must be inside")
	}
	if r.Contains(31, 12) || r.Contains(15, 9) {
		t.Fatalf("outside points reported inside")
	}
}

func TestRectangle_Outline(t *testing.T) {
	t.Parallel()

	r := Rectangle{First: Vec2{0, 0}, Last: Vec2{1, 1}, Color: Color{1, 0, 0, 1}}
	out := r.Outline()
	if len(out) != 8 {
		t.Fatalf("outline must have 8 vertices, got %d", len(out))
	}
	if out[0].Position != (Vec2{0, 1}) || out[7].Position != (Vec2{0, 1}) {
		t.Fatalf("outline must start and end at (x1,y2): %v", out)
	}
}

func TestStroke_Segments(t *testing.T) {
	t.Parallel()

	if (Stroke{Vertices: []Vertex{{}}}).Segments() != nil {
		t.Fatalf("single point stroke must yield no segments")
	}
	s := Stroke{Vertices: []Vertex{{Position: Vec2{0, 0}}, {Position: Vec2{1, 0}}, {Position: Vec2{1, 1}}}}
	if got := len(s.Segments()); got != 4 {
		t.Fatalf("want 4 segment vertices, got %d", got)
	}
}

func TestAction_CloneIsDeep(t *testing.T) {
	t.Parallel()

	a := Action{ID: uuid.Must(uuid.NewV4()), Payload: Stroke{Vertices: []Vertex{{Position: Vec2{1, 2}}}}}
	c := a.Clone()
	c.Payload.(Stroke).Vertices[0].Position = Vec2{9, 9}
	if a.Payload.(Stroke).Vertices[0].Position != (Vec2{1, 2}) {
		t.Fatalf("clone shares vertex storage")
	}
	if c.ID != a.ID {
		t.Fatalf("clone must keep id")
	}
}
