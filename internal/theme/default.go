package theme

import (
	"image/color"

	"git.lost.host/meutraa/bandori/internal/game"
)

type DefaultTheme struct{}

func (t *DefaultTheme) Note(kind game.NoteKind, direction int) (string, color.RGBA) {
	c := getNoteColor(kind)
	switch {
	case kind == game.DirectionalFlick && direction < 0:
		return "◀", c
	case kind == game.DirectionalFlick:
		return "▶", c
	}
	sym, ok := syms[kind]
	if !ok {
		return "?", c
	}
	return sym, c
}

func (t *DefaultTheme) Connector(active bool) (string, color.RGBA) {
	if active {
		return "┃", color.RGBA{106, 236, 128, 255}
	}
	return "│", color.RGBA{106, 106, 106, 255}
}

func (t *DefaultTheme) SimLine() (string, color.RGBA) {
	return "─", color.RGBA{255, 255, 255, 255}
}

func (t *DefaultTheme) Lane() string {
	return "-"
}

func (t *DefaultTheme) LaneEffect() (string, color.RGBA) {
	return "○", color.RGBA{106, 106, 106, 255}
}

func (t *DefaultTheme) Judgement(name string) color.RGBA {
	col, ok := judgementColors[name]
	if !ok {
		return color.RGBA{255, 255, 255, 255}
	}
	return col
}

var (
	syms = map[game.NoteKind]string{
		game.Tap:        "⬤",
		game.Flick:      "▲",
		game.HoldHead:   "◆",
		game.HoldTick:   "◇",
		game.HoldEnd:    "◆",
		game.HoldAnchor: " ",
	}
	noteColors = map[game.NoteKind]color.RGBA{
		game.Tap:              {0, 118, 236, 255},  // blue
		game.Flick:            {236, 30, 0, 255},   // red
		game.DirectionalFlick: {106, 0, 236, 255},  // purple
		game.HoldHead:         {0, 236, 128, 255},  // green
		game.HoldTick:         {110, 147, 89, 255}, // olive
		game.HoldEnd:          {0, 236, 128, 255},
	}
	judgementColors = map[string]color.RGBA{
		"Perfect": {236, 195, 0, 255},
		"Great":   {236, 0, 106, 255},
		"Good":    {0, 118, 236, 255},
		"Bad":     {173, 236, 236, 255},
		"Miss":    {236, 30, 0, 255},
	}
)

func getNoteColor(kind game.NoteKind) color.RGBA {
	col, ok := noteColors[kind]
	if !ok {
		return color.RGBA{255, 255, 255, 255}
	}
	return col
}
