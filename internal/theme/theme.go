package theme

import (
	"image/color"

	"git.lost.host/meutraa/bandori/internal/game"
)

// Theme picks the glyphs and colours of everything drawn on the stage.
type Theme interface {
	Note(kind game.NoteKind, direction int) (string, color.RGBA)
	Connector(active bool) (string, color.RGBA)
	SimLine() (string, color.RGBA)
	Lane() string
	LaneEffect() (string, color.RGBA)
	Judgement(name string) color.RGBA
}
