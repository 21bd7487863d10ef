package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/and161185/paintstream/internal/input"
	"github.com/and161185/paintstream/internal/model"
)

// frameInterval is how far the script clock advances per line.
const frameInterval = 16 * time.Millisecond

// step is one line of a session script.
//
//	{"type":"move","x":10,"y":20}
//	{"type":"button","button":"primary","pressed":true,"x":10,"y":20}
//	{"type":"key","key":"a","pressed":true}
//	{"type":"resize","w":800,"h":600}
//	{"type":"color","rgba":[1,0,0,1]}
//	{"type":"wait","ms":600}
type step struct {
	Type    string     `json:"type"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Button  string     `json:"button"`
	Pressed bool       `json:"pressed"`
	Key     string     `json:"key"`
	W       uint32     `json:"w"`
	H       uint32     `json:"h"`
	Focused bool       `json:"focused"`
	RGBA    [4]float32 `json:"rgba"`
	Size    int32      `json:"size"`
	MS      int        `json:"ms"`
}

// op is what a step asks the session to do.
type op int

const (
	opEvent op = iota
	opColor
	opFont
	opRect
	opUndo
	opWait
)

type command struct {
	op    op
	event input.Event
	color model.Color
	size  int32
	wait  time.Duration
}

var buttons = map[string]input.Button{
	"primary":   input.Primary,
	"left":      input.Primary,
	"secondary": input.Secondary,
	"right":     input.Secondary,
	"middle":    input.Middle,
}

func (s step) command() (command, error) {
	switch s.Type {
	case "move":
		return command{event: input.Event{Kind: input.PointerMove, X: s.X, Y: s.Y}}, nil
	case "button":
		b, ok := buttons[strings.ToLower(s.Button)]
		if !ok {
			return command{}, fmt.Errorf("unknown button %q", s.Button)
		}
		return command{event: input.Event{Kind: input.PointerButton, Button: b, Pressed: s.Pressed, X: s.X, Y: s.Y}}, nil
	case "key":
		if s.Key == "" {
			return command{}, fmt.Errorf("key step without key")
		}
		return command{event: input.Event{Kind: input.Key, Key: s.Key, Pressed: s.Pressed}}, nil
	case "resize":
		return command{event: input.Event{Kind: input.Resize, Width: s.W, Height: s.H}}, nil
	case "focus":
		return command{event: input.Event{Kind: input.Focus, Focused: s.Focused}}, nil
	case "color":
		return command{op: opColor, color: model.Color(s.RGBA)}, nil
	case "font":
		if s.Size <= 0 {
			return command{}, fmt.Errorf("font size must be positive, got %d", s.Size)
		}
		return command{op: opFont, size: s.Size}, nil
	case "rect":
		return command{op: opRect}, nil
	case "undo":
		return command{op: opUndo}, nil
	case "wait":
		if s.MS < 0 {
			return command{}, fmt.Errorf("negative wait %d", s.MS)
		}
		return command{op: opWait, wait: time.Duration(s.MS) * time.Millisecond}, nil
	default:
		return command{}, fmt.Errorf("unknown step type %q", s.Type)
	}
}

// parseScript reads one JSON step per line. Blank lines and lines starting with # are skipped.
func parseScript(r io.Reader) ([]command, error) {
	var out []command
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var s step
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		c, err := s.command()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// session is the subset of *board.Board a script drives.
type session interface {
	Handle(ev input.Event)
	SetColor(c model.Color)
	SetFontSize(size int32)
	EnterRectangleMode()
	Undo() (model.Action, bool)
}

// play runs cmds against b, calling frame after each one with the script clock.
func play(b session, cmds []command, start time.Time, frame func(now time.Time)) time.Time {
	now := start
	for _, c := range cmds {
		now = now.Add(frameInterval)
		switch c.op {
		case opEvent:
			ev := c.event
			ev.At = now
			b.Handle(ev)
		case opColor:
			b.SetColor(c.color)
		case opFont:
			b.SetFontSize(c.size)
		case opRect:
			b.EnterRectangleMode()
		case opUndo:
			b.Undo()
		case opWait:
			now = now.Add(c.wait)
		}
		frame(now)
	}
	return now
}
