package game

import "fmt"

// NoteKind selects how a note is drawn, judged and despawned.
type NoteKind uint8

const (
	Tap NoteKind = iota
	Flick
	DirectionalFlick
	HoldHead
	HoldTick
	HoldEnd
	HoldAnchor
)

var noteKindNames = [...]string{
	Tap:              "TAP",
	Flick:            "FLICK",
	DirectionalFlick: "DIRECTIONAL_FLICK",
	HoldHead:         "HOLD_HEAD",
	HoldTick:         "HOLD_TICK",
	HoldEnd:          "HOLD_END",
	HoldAnchor:       "HOLD_ANCHOR",
}

func (k NoteKind) String() string {
	if int(k) < len(noteKindNames) {
		return noteKindNames[k]
	}
	return fmt.Sprintf("NoteKind(%d)", uint8(k))
}

// Simultaneous reports whether notes of this kind take part in sim lines.
func (k NoteKind) Simultaneous() bool {
	return k != HoldTick && k != HoldAnchor
}

// InHold reports whether the kind only makes sense as part of a hold chain.
func (k NoteKind) InHold() bool {
	switch k {
	case HoldHead, HoldTick, HoldEnd, HoldAnchor:
		return true
	}
	return false
}

type Note struct {
	Kind      NoteKind  `json:"kind"`
	Beat      float64   `json:"beat"`
	Lane      float64   `json:"lane"`
	Direction int       `json:"direction,omitempty"` // Signed arrow count, directional flicks only
	Prev      EntityRef `json:"prev"`
	Next      EntityRef `json:"next"`
	Scored    bool      `json:"scored"`
}

// NewNote returns an unlinked note.
func NewNote(kind NoteKind, beat, lane float64) Note {
	return Note{
		Kind:   kind,
		Beat:   beat,
		Lane:   lane,
		Prev:   NoRef,
		Next:   NoRef,
		Scored: kind != HoldAnchor,
	}
}
