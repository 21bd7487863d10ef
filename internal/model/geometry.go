package model

// ToNormalized maps device pixel coordinates into [-1,1]x[-1,1] with +y up.
// A zero-sized viewport maps everything to the origin.
func ToNormalized(x, y float64, width, height uint32) Vec2 {
	if width == 0 || height == 0 {
		return Vec2{}
	}
	nx := float32(x)/float32(width)*2 - 1
	ny := -(float32(y)/float32(height)*2 - 1)
	return Vec2{nx, ny}
}

// ToRGBA converts a normalized colour to 8-bit channels, truncating.
func ToRGBA(c Color) RGBA {
	var out RGBA
	for i, v := range c {
		switch {
		case v <= 0:
			out[i] = 0
		case v >= 1:
			out[i] = 255
		default:
			out[i] = uint8(v * 255)
		}
	}
	return out
}

// Outline returns the four edges of r as a line list (pairs of vertices).
func (r Rectangle) Outline() []Vertex {
	x1, y1 := r.First[0], r.First[1]
	x2, y2 := r.Last[0], r.Last[1]
	corners := []Vec2{
		{x1, y2}, {x2, y2},
		{x2, y2}, {x2, y1},
		{x2, y1}, {x1, y1},
		{x1, y1}, {x1, y2},
	}
	out := make([]Vertex, 0, len(corners))
	for _, p := range corners {
		out = append(out, Vertex{Position: p, Color: r.Color})
	}
	return out
}

// Segments expands a stroke into a line list; strokes with fewer than two points yield nothing.
func (s Stroke) Segments() []Vertex {
	if len(s.Vertices) < 2 {
		return nil
	}
	out := make([]Vertex, 0, 2*(len(s.Vertices)-1))
	for i := 0; i < len(s.Vertices)-1; i++ {
		out = append(out, s.Vertices[i], s.Vertices[i+1])
	}
	return out
}
