package convert

import (
	"errors"
	"strings"
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/and161185/paintstream/internal/errs"
	"github.com/and161185/paintstream/internal/model"
	"github.com/and161185/paintstream/internal/wire"
)

func mustUUID(t *testing.T, s string) u.UUID {
	t.Helper()
	id, err := u.FromString(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}

func strokeAction(t *testing.T) model.Action {
	t.Helper()
	red := model.Color{1, 0, 0, 1}
	return model.Action{
		ID: mustUUID(t, "6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11"),
		Payload: model.Stroke{Vertices: []model.Vertex{
			{Position: model.Vec2{-1, 1}, Color: red},
			{Position: model.Vec2{-0.9, 1}, Color: red},
			{Position: model.Vec2{-0.9, 0.8}, Color: red},
		}},
	}
}

func TestToStreamAction_Stroke(t *testing.T) {
	t.Parallel()

	a := strokeAction(t)
	sa := ToStreamAction(a)
	if sa.ID != a.ID.String() {
		t.Fatalf("id mismatch: %s", sa.ID)
	}
	if len(sa.Vertices) != 3 || sa.Text != nil || sa.Rectangle != nil {
		t.Fatalf("want only vertices, got %+v", sa)
	}
	if sa.Vertices[2].Position != [2]float32{-0.9, 0.8} {
		t.Fatalf("vertex order lost: %+v", sa.Vertices)
	}
}

func TestToStreamAction_TextWidensColor(t *testing.T) {
	t.Parallel()

	orig := mustUUID(t, "11111111-1111-4111-8111-111111111111")
	a := model.Action{
		ID: mustUUID(t, "22222222-2222-4222-8222-222222222222"),
		Payload: model.Text{
			Entry: model.TextEntry{
				Position: model.Vec2{40, 30},
				Color:    model.RGBA{255, 128, 0, 255},
				Text:     "hi",
				Bounds:   model.Rect{X: 40, Y: 30, Width: 29, Height: 29},
				FontSize: 24,
			},
			Replaces: orig,
		},
	}
	sa := ToStreamAction(a)
	if sa.Text == nil || len(sa.Vertices) != 0 || sa.Rectangle != nil {
		t.Fatalf("want only text, got %+v", sa)
	}
	if sa.Text.Color != [4]float32{255, 128, 0, 255} {
		t.Fatalf("colour must be widened, not rescaled: %v", sa.Text.Color)
	}
	if sa.Text.Bounds.Width != 29 || sa.Text.FontSize != 24 || sa.Text.Replaces != orig.String() {
		t.Fatalf("text fields lost: %+v", sa.Text)
	}

	back, err := FromStreamAction(sa)
	if err != nil {
		t.Fatalf("FromStreamAction: %v", err)
	}
	txt := back.Payload.(model.Text)
	if txt.Entry != a.Payload.(model.Text).Entry || txt.Replaces != orig {
		t.Fatalf("text mismatch: %+v", txt)
	}
}

func TestToStreamAction_Shape(t *testing.T) {
	t.Parallel()

	a := model.Action{
		ID:      mustUUID(t, "33333333-3333-4333-8333-333333333333"),
		Payload: model.Shape{Rectangle: model.Rectangle{First: model.Vec2{0, 0}, Last: model.Vec2{0.5, -0.5}, Color: model.Color{0, 0, 1, 1}}},
	}
	sa := ToStreamAction(a)
	if sa.Rectangle == nil || sa.Rectangle.Last != [2]float32{0.5, -0.5} {
		t.Fatalf("rectangle mismatch: %+v", sa.Rectangle)
	}
	if sa.Rectangle.Color != [4]float32{0, 0, 1, 1} {
		t.Fatalf("rectangle colour: %v", sa.Rectangle.Color)
	}
}

func TestToPaintEvent_OneGroupPerAction(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	a := strokeAction(t)
	b := a
	b.ID = mustUUID(t, "44444444-4444-4444-8444-444444444444")

	ev := ToPaintEvent("general", wire.KindActionRequest, []model.Action{a, b}, at)
	if ev.Room != "general" || ev.Kind != wire.KindActionRequest {
		t.Fatalf("header mismatch: %+v", ev)
	}
	if len(ev.Actions) != 2 || ev.Count() != 2 {
		t.Fatalf("want 2 groups of 1, got %+v", ev.Actions)
	}
	if ev.Actions[1].Actions[0].ID != b.ID.String() {
		t.Fatalf("order lost")
	}
	if !ev.Timestamp.AsTime().Equal(at) {
		t.Fatalf("timestamp mismatch: %v", ev.Timestamp.AsTime())
	}

	if ToPaintEvent("r", wire.KindIsDeleted, nil, time.Time{}).Timestamp != nil {
		t.Fatalf("zero time must give nil timestamp")
	}
}

func TestFromStreamAction_PayloadCount(t *testing.T) {
	t.Parallel()

	id := "55555555-5555-4555-8555-555555555555"
	cases := []wire.StreamAction{
		{ID: id},
		{ID: id, Vertices: []wire.Vertex{{}}, Rectangle: &wire.Rectangle{}},
		{ID: id, Text: &wire.Text{}, Rectangle: &wire.Rectangle{}},
	}
	for i, sa := range cases {
		if _, err := FromStreamAction(sa); !errors.Is(err, errs.ErrInvalidAction) {
			t.Fatalf("case %d: want ErrInvalidAction, got %v", i, err)
		}
	}
}

func TestFromStreamAction_InvalidIDs(t *testing.T) {
	t.Parallel()

	if _, err := FromStreamAction(wire.StreamAction{ID: "not-a-uuid", Rectangle: &wire.Rectangle{}}); !errors.Is(err, errs.ErrInvalidAction) {
		t.Fatalf("want ErrInvalidAction, got %v", err)
	}
	_, err := FromStreamAction(wire.StreamAction{
		ID:   "55555555-5555-4555-8555-555555555555",
		Text: &wire.Text{Replaces: "nope"},
	})
	if !errors.Is(err, errs.ErrInvalidAction) || !strings.Contains(err.Error(), "replaces") {
		t.Fatalf("want replaces error, got %v", err)
	}
}

func TestFromStreamAction_ClampsTextColor(t *testing.T) {
	t.Parallel()

	a, err := FromStreamAction(wire.StreamAction{
		ID:   "55555555-5555-4555-8555-555555555555",
		Text: &wire.Text{Color: [4]float32{-3, 300, 12.9, 255}},
	})
	if err != nil {
		t.Fatalf("FromStreamAction: %v", err)
	}
	if got := a.Payload.(model.Text).Entry.Color; got != (model.RGBA{0, 255, 12, 255}) {
		t.Fatalf("clamp mismatch: %v", got)
	}
}

func TestFromPaintEvent_RoundTripAndEarlyError(t *testing.T) {
	t.Parallel()

	a := strokeAction(t)
	ev := ToPaintEvent("general", wire.KindActionRequest, []model.Action{a}, time.Now())
	got, err := FromPaintEvent(ev)
	if err != nil {
		t.Fatalf("FromPaintEvent: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("mismatch: %+v", got)
	}
	if len(got[0].Payload.(model.Stroke).Vertices) != 3 {
		t.Fatalf("vertices lost")
	}

	ev.Actions = append(ev.Actions, wire.StreamActions{Actions: []wire.StreamAction{{ID: "bad"}}})
	_, err = FromPaintEvent(ev)
	if err == nil || !strings.Contains(err.Error(), "action[1]") {
		t.Fatalf("want indexed error, got %v", err)
	}

	if _, err := FromPaintEvent(nil); err == nil {
		t.Fatalf("nil event must fail")
	}
}

func TestIDsFromPaintEvent(t *testing.T) {
	t.Parallel()

	a := strokeAction(t)
	ids, err := IDsFromPaintEvent(ToPaintEvent("general", wire.KindIsDeleted, []model.Action{a}, time.Now()))
	if err != nil || len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("ids=%v err=%v", ids, err)
	}

	bad := &wire.PaintEvent{Actions: []wire.StreamActions{{Actions: []wire.StreamAction{{ID: "x"}}}}}
	if _, err := IDsFromPaintEvent(bad); !errors.Is(err, errs.ErrInvalidAction) {
		t.Fatalf("want ErrInvalidAction, got %v", err)
	}
}

func TestRoomSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	a := strokeAction(t)
	s := ToRoomSnapshot("general", []model.Action{a})
	if s.Room != "general" || len(s.Actions) != 1 {
		t.Fatalf("snapshot mismatch: %+v", s)
	}
	got, err := FromRoomSnapshot(s)
	if err != nil || len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("got=%+v err=%v", got, err)
	}

	s.Actions = append(s.Actions, wire.StreamAction{ID: "x"})
	if _, err := FromRoomSnapshot(s); err == nil || !strings.Contains(err.Error(), "action[1]") {
		t.Fatalf("want indexed error, got %v", err)
	}
	if _, err := FromRoomSnapshot(nil); err == nil {
		t.Fatalf("nil snapshot must fail")
	}
}
