package main

import (
	"fmt"

	"github.com/and161185/paintstream/internal/model"
)

type row struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Info string `json:"info,omitempty"`
}

// rows prints actions briefly: strokes by length, text by content.
func rows(actions []model.Action) []row {
	out := make([]row, 0, len(actions))
	for _, a := range actions {
		r := row{ID: a.ID.String(), Kind: string(a.Payload.Kind())}
		switch p := a.Payload.(type) {
		case model.Stroke:
			r.Info = fmt.Sprintf("%d vertices", len(p.Vertices))
		case model.Text:
			r.Info = p.Entry.Text
		}
		out = append(out, r)
	}
	return out
}
