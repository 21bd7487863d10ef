// Package input turns normalized pointer and keyboard events into in-progress geometry
// and committed actions.
package input

import "time"

// Kind of an input event.
type Kind int

const (
	PointerMove Kind = iota
	PointerButton
	Key
	Resize
	Focus
)

func (k Kind) String() string {
	switch k {
	case PointerMove:
		return "move"
	case PointerButton:
		return "button"
	case Key:
		return "key"
	case Resize:
		return "resize"
	case Focus:
		return "focus"
	default:
		return "unknown"
	}
}

// Button identifies a pointer button.
type Button int

const (
	Primary Button = iota
	Secondary
	Middle
)

// Named logical keys. Any other key whose name is a single rune is a character.
const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
	KeyGoBack    = "GoBack"
	KeySpace     = "Space"
	KeyTab       = "Tab"
	KeyEscape    = "Escape"
	KeyControl   = "Control"
	KeyShift     = "Shift"
	KeyAlt       = "Alt"
	KeySuper     = "Super"
)

var named = map[string]struct{}{
	KeyEnter: {}, KeyBackspace: {}, KeyDelete: {}, KeyGoBack: {}, KeySpace: {}, KeyTab: {},
	KeyEscape: {}, KeyControl: {}, KeyShift: {}, KeyAlt: {}, KeySuper: {},
}

// Event is an already-normalized window event. Fields irrelevant to Kind are ignored.
type Event struct {
	Kind Kind
	At   time.Time

	// PointerMove, PointerButton: device pixels.
	X, Y float64

	// PointerButton, Key.
	Button  Button
	Pressed bool

	// Key: logical key name or the typed character.
	Key string

	// Resize.
	Width, Height uint32

	// Focus.
	Focused bool
}

// character returns the text a key inserts while typing.
func character(key string) (string, bool) {
	if key == KeySpace {
		return " ", true
	}
	if _, ok := named[key]; ok {
		return "", false
	}
	if len([]rune(key)) != 1 {
		return "", false
	}
	return key, true
}
