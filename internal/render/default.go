// Package render draws the stage on a terminal.
package render

import (
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/theme"
)

// DefaultRenderer keeps a cell buffer for the frame being drawn and writes
// only the cells that changed since the last flush.
type DefaultRenderer struct {
	Out     io.Writer
	Theme   theme.Theme
	Spacing int // Columns between lanes
	BarRow  int // Rows between the judgement line and the bottom

	width, height int
	front, back   []cell
	buffer        strings.Builder
	fd            int
	restoreState  *term.State
	decorations   []*decoration
}

type cell struct {
	s       string
	c       color.RGBA
	colored bool
}

type decoration struct {
	X, Y    int
	Content string
	Color   color.RGBA
	Frames  int // remaining frames until removed
}

func NewDefaultRenderer(th theme.Theme) *DefaultRenderer {
	return &DefaultRenderer{
		Out:     os.Stdout,
		Theme:   th,
		Spacing: 4,
		BarRow:  4,
	}
}

func (r *DefaultRenderer) Init() error {
	r.fd = int(os.Stdout.Fd())
	columns, rows, err := term.GetSize(r.fd)
	if nil != err {
		return errors.Wrap(err, "unable to get terminal size")
	}
	state, err := term.MakeRaw(r.fd)
	if nil != err {
		return errors.Wrap(err, "unable to make terminal raw")
	}
	r.restoreState = state
	r.Resize(columns, rows)

	io.WriteString(r.Out, "\033[?1049h"+ // Enable alternate buffer
		"\033[?25l"+ // Make the cursor invisible
		"\033[J", // Clear the screen
	)
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	io.WriteString(r.Out, "\033[?1049l"+ // Disable alternate buffer
		"\033[?25h", // Make the cursor visible
	)
	if nil == r.restoreState {
		return nil
	}
	return term.Restore(r.fd, r.restoreState)
}

func (r *DefaultRenderer) Resize(columns, rows int) {
	r.width, r.height = columns, rows
	r.front = make([]cell, columns*rows)
	r.back = make([]cell, columns*rows)
	for i := range r.front {
		r.front[i].s = " "
		r.back[i].s = " "
	}
}

// HitRow is the terminal row of the judgement line.
func (r *DefaultRenderer) HitRow() int {
	return r.height - r.BarRow
}

// Column maps a lane onto a terminal column.
func (r *DefaultRenderer) Column(lane float64) int {
	return r.width/2 + int(math.Round(lane*float64(r.Spacing)))
}

// Row maps a note's y onto a terminal row, 1 at the top.
func (r *DefaultRenderer) Row(y float64) int {
	return r.HitRow() - int(math.Round(y*float64(r.HitRow()-1)))
}

// SideColumn is where the statistics go.
func (r *DefaultRenderer) SideColumn() int {
	c := r.Column(-3) - 28
	if c < 2 {
		c = 2
	}
	return c
}

func (r *DefaultRenderer) AddDecoration(col, row int, content string, c color.RGBA, frames int) {
	r.decorations = append(r.decorations, &decoration{
		X:       col,
		Y:       row,
		Content: content,
		Color:   c,
		Frames:  frames,
	})
}

func (r *DefaultRenderer) tickDecorations() {
	nd := r.decorations[:0]
	for _, d := range r.decorations {
		if d.Frames == 0 {
			continue
		}
		r.FillColor(d.Y, d.X, d.Color, d.Content)
		d.Frames--
		nd = append(nd, d)
	}
	clear(r.decorations[len(nd):])
	r.decorations = nd
}

// RenderLoop calls render once per period until it returns false. The
// duration passed is the time since the start, negative during delay.
func (r *DefaultRenderer) RenderLoop(delay, period time.Duration, render func(duration time.Duration) bool) {
	startTime := time.Now().Add(delay)
	for {
		now := time.Now()
		deadline := now.Add(period)

		if !render(now.Sub(startTime)) {
			return
		}

		r.tickDecorations()
		r.flush()

		time.Sleep(time.Until(deadline))
	}
}

func (r *DefaultRenderer) Fill(row, column int, message string) {
	r.fill(row, column, cell{}, message)
}

func (r *DefaultRenderer) FillColor(row, column int, c color.RGBA, message string) {
	r.fill(row, column, cell{c: c, colored: true}, message)
}

func (r *DefaultRenderer) fill(row, column int, style cell, message string) {
	if row < 1 || row > r.height {
		return
	}
	for _, ch := range message {
		if column >= 1 && column <= r.width {
			style.s = string(ch)
			r.back[(row-1)*r.width+column-1] = style
		}
		column++
	}
}

func (r *DefaultRenderer) flush() {
	for i := range r.back {
		if r.back[i] != r.front[i] {
			r.buffer.WriteString("\033[")
			r.buffer.WriteString(strconv.Itoa(i/r.width + 1))
			r.buffer.WriteString(";")
			r.buffer.WriteString(strconv.Itoa(i%r.width + 1))
			r.buffer.WriteString("H")
			c := r.back[i]
			if c.colored {
				r.buffer.WriteString("\033[38;2;")
				r.buffer.WriteString(strconv.Itoa(int(c.c.R)))
				r.buffer.WriteString(";")
				r.buffer.WriteString(strconv.Itoa(int(c.c.G)))
				r.buffer.WriteString(";")
				r.buffer.WriteString(strconv.Itoa(int(c.c.B)))
				r.buffer.WriteString("m")
				r.buffer.WriteString(c.s)
				r.buffer.WriteString("\033[0m")
			} else {
				r.buffer.WriteString(c.s)
			}
		}
		r.front[i] = r.back[i]
		r.back[i] = cell{s: " "}
	}
	if r.buffer.Len() > 0 {
		io.WriteString(r.Out, r.buffer.String())
		r.buffer.Reset()
	}
}

// The methods below present a running level.

func (r *DefaultRenderer) DrawStage(lanes []float64) {
	for _, lane := range lanes {
		r.Fill(r.HitRow(), r.Column(lane), r.Theme.Lane())
	}
}

func (r *DefaultRenderer) DrawNote(kind game.NoteKind, lane, y float64, direction int) {
	sym, c := r.Theme.Note(kind, direction)
	r.FillColor(r.Row(y), r.Column(lane), c, sym)
}

func (r *DefaultRenderer) DrawHoldConnector(laneA, yA, laneB, yB float64, active bool) {
	sym, c := r.Theme.Connector(active)
	top, bottom := r.Row(yB), r.Row(yA)
	if top < 1 {
		top = 1
	}
	if bottom > r.HitRow() {
		bottom = r.HitRow()
	}
	for row := top + 1; row < bottom; row++ {
		y := float64(r.HitRow()-row) / float64(r.HitRow()-1)
		lane := laneA
		if yB != yA {
			lane = laneA + (laneB-laneA)*(y-yA)/(yB-yA)
		}
		r.FillColor(row, r.Column(lane), c, sym)
	}
}

func (r *DefaultRenderer) DrawSimLine(laneA, laneB, y float64) {
	sym, c := r.Theme.SimLine()
	a, b := r.Column(laneA), r.Column(laneB)
	if a > b {
		a, b = b, a
	}
	row := r.Row(y)
	for col := a + 1; col < b; col++ {
		r.FillColor(row, col, c, sym)
	}
}

func (r *DefaultRenderer) PlayLaneEffect(lane float64) {
	sym, c := r.Theme.LaneEffect()
	r.AddDecoration(r.Column(lane), r.HitRow()+1, sym, c, 12)
}

func (r *DefaultRenderer) PlayJudgement(lane float64, judgement game.Judgement) {
	col := r.Column(lane) - len(judgement.Name)/2
	r.AddDecoration(col, r.HitRow()+2, judgement.Name, r.Theme.Judgement(judgement.Name), 30)
}
