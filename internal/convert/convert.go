// Package convert turns parsed level records into the immutable entity graph
// consumed by the play scheduler.
package convert

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/parser"
)

// ErrMalformedChart aborts a conversion. No part of the graph is returned
// alongside it.
var ErrMalformedChart = errors.New("malformed chart")

// BeatEpsilon is the largest beat gap snapped together by the merge step.
const BeatEpsilon = 0.002

const (
	fieldBeat      = "#BEAT"
	fieldBpm       = "#BPM"
	fieldLane      = "lane"
	fieldDirection = "direction"
	fieldSize      = "size"
	fieldHead      = "head"
	fieldTail      = "tail"
)

var noteArchetypes = map[string]game.NoteKind{
	"TapNote":              game.Tap,
	"FlickNote":            game.Flick,
	"SlideEndFlickNote":    game.Flick,
	"DirectionalFlickNote": game.DirectionalFlick,
	"SlideStartNote":       game.HoldHead,
	"SlideEndNote":         game.HoldEnd,
	"SlideTickNote":        game.HoldTick,
	"IgnoredNote":          game.HoldAnchor,
}

func isConnector(archetype string) bool {
	return archetype == "CurvedSlideConnector" || archetype == "StraightSlideConnector"
}

// Convert builds a level from a level data document.
func Convert(doc *parser.Document) (*game.Level, error) {
	entities := parser.ParseEntities(doc.Entities)

	level := &game.Level{
		BgmOffset:  doc.BgmOffset,
		BpmChanges: []game.BpmChange{},
		Notes:      []game.Note{},
		Connectors: []game.HoldConnector{},
		SimLines:   []game.SimLine{},
	}
	// Source record index to position in level.Notes
	byIndex := map[int]game.EntityRef{}

	for i, e := range entities {
		if kind, ok := noteArchetypes[e.Archetype]; ok {
			note, err := classify(kind, e)
			if nil != err {
				return nil, errors.Wrapf(err, "entity %d (%s)", i, e.Archetype)
			}
			byIndex[i] = game.EntityRef(len(level.Notes))
			level.Notes = append(level.Notes, note)
			continue
		}
		switch {
		case e.Archetype == "#BPM_CHANGE":
			beat, err := require(e, fieldBeat)
			if nil != err {
				return nil, errors.Wrapf(err, "entity %d (%s)", i, e.Archetype)
			}
			bpm, err := require(e, fieldBpm)
			if nil != err {
				return nil, errors.Wrapf(err, "entity %d (%s)", i, e.Archetype)
			}
			level.BpmChanges = append(level.BpmChanges, game.BpmChange{Beat: beat, Bpm: bpm})
		case isConnector(e.Archetype),
			e.Archetype == "Stage",
			e.Archetype == "Initialization",
			e.Archetype == "SimLine":
		default:
			return nil, errors.Wrapf(ErrMalformedChart, "entity %d: unknown archetype %q", i, e.Archetype)
		}
	}

	for i, e := range entities {
		if !isConnector(e.Archetype) {
			continue
		}
		first, err := noteRef(e, fieldHead, byIndex)
		if nil != err {
			return nil, errors.Wrapf(err, "entity %d (%s)", i, e.Archetype)
		}
		second, err := noteRef(e, fieldTail, byIndex)
		if nil != err {
			return nil, errors.Wrapf(err, "entity %d (%s)", i, e.Archetype)
		}
		level.Connectors = append(level.Connectors, game.HoldConnector{First: first, Second: second})
		level.Notes[second].Prev = first
		level.Notes[first].Next = second
	}

	sortByBeat(level)
	mergeBeats(level.Notes)
	level.SimLines = append(level.SimLines, simLines(level.Notes)...)

	return level, nil
}

func classify(kind game.NoteKind, e parser.Entity) (game.Note, error) {
	beat, err := require(e, fieldBeat)
	if nil != err {
		return game.Note{}, err
	}
	lane, err := require(e, fieldLane)
	if nil != err {
		return game.Note{}, err
	}
	note := game.NewNote(kind, beat, lane)
	if kind == game.DirectionalFlick {
		direction, err := require(e, fieldDirection)
		if nil != err {
			return game.Note{}, err
		}
		size, err := require(e, fieldSize)
		if nil != err {
			return game.Note{}, err
		}
		note.Direction = int(math.Round(direction * size))
	}
	return note, nil
}

func require(e parser.Entity, field string) (float64, error) {
	v, ok := e.Data[field]
	if !ok {
		return 0, errors.Wrapf(ErrMalformedChart, "missing field %q", field)
	}
	return v, nil
}

func noteRef(e parser.Entity, field string, byIndex map[int]game.EntityRef) (game.EntityRef, error) {
	v, err := require(e, field)
	if nil != err {
		return game.NoRef, err
	}
	ref, ok := byIndex[int(v)]
	if !ok {
		return game.NoRef, errors.Wrapf(ErrMalformedChart, "%s %d is not a note", field, int(v))
	}
	return ref, nil
}

// sortByBeat stably orders notes by beat and rewrites every reference to
// follow the new positions.
func sortByBeat(level *game.Level) {
	order := make([]int, len(level.Notes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return level.Notes[order[i]].Beat < level.Notes[order[j]].Beat
	})

	moved := make([]game.EntityRef, len(order))
	for to, from := range order {
		moved[from] = game.EntityRef(to)
	}
	remap := func(r game.EntityRef) game.EntityRef {
		if !r.Valid() {
			return r
		}
		return moved[r]
	}

	notes := make([]game.Note, len(level.Notes))
	for to, from := range order {
		n := level.Notes[from]
		n.Prev, n.Next = remap(n.Prev), remap(n.Next)
		notes[to] = n
	}
	level.Notes = notes
	for i, c := range level.Connectors {
		level.Connectors[i] = game.HoldConnector{First: remap(c.First), Second: remap(c.Second)}
	}
}

// mergeBeats snaps each note onto its left neighbour when their beats differ
// by less than BeatEpsilon. Only adjacent pairs are compared, left to right,
// so a run of near-equal beats is not necessarily unified.
func mergeBeats(notes []game.Note) {
	for i := 1; i < len(notes); i++ {
		a, b := &notes[i-1], &notes[i]
		if a.Beat != b.Beat && math.Abs(a.Beat-b.Beat) < BeatEpsilon {
			b.Beat = a.Beat
		}
	}
}

// simLines links lane-adjacent notes within each group of equal beats,
// leaving out ticks and anchors. Notes must already be sorted by beat.
func simLines(notes []game.Note) []game.SimLine {
	lines := []game.SimLine{}
	for start := 0; start < len(notes); {
		end := start + 1
		for end < len(notes) && notes[end].Beat == notes[start].Beat {
			end++
		}

		group := make([]game.EntityRef, 0, end-start)
		for i := start; i < end; i++ {
			if notes[i].Kind.Simultaneous() {
				group = append(group, game.EntityRef(i))
			}
		}
		sort.SliceStable(group, func(i, j int) bool {
			return notes[group[i]].Lane < notes[group[j]].Lane
		})
		for i := 1; i < len(group); i++ {
			lines = append(lines, game.SimLine{First: group[i-1], Second: group[i]})
		}

		start = end
	}
	return lines
}
