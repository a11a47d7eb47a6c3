package play

import (
	"math"

	"git.lost.host/meutraa/bandori/internal/game"
)

// holdConnector spans two consecutive notes of a hold chain. While the song
// is inside its span it is the only writer of the chain head's hold lane.
type holdConnector struct {
	entityBase
	first, second game.EntityRef
}

func (*holdConnector) kind() Kind        { return KindHoldConnector }
func (*holdConnector) preprocess(*Frame) {}

// Connectors claim held touches before any note looks for a tap or flick,
// and update the hold lane after the notes of the frame.
func (*holdConnector) priority() (Priority, bool) {
	return Priority{Sequential: 1, Touch: -1}, true
}

func (c *holdConnector) shouldSpawn(f *Frame) bool {
	return f.note(c.first).shouldSpawn(f)
}

func (c *holdConnector) spawnOrder(f *Frame) float64 {
	return f.note(c.first).spawnOrder(f)
}

func (c *holdConnector) updateSequential(f *Frame) {
	first, second := f.note(c.first), f.note(c.second)
	if f.Time >= second.target {
		c.Despawn()
		return
	}
	if f.Time < first.target {
		return
	}
	head := f.note(first.head)
	head.holdLane = remap(
		f.Layout.Y(first.target, f.Time),
		f.Layout.Y(second.target, f.Time),
		first.data.Lane,
		second.data.Lane,
		0,
	)
}

// touch keeps the held touch of the chain claimed and lets go of the hold
// once the touch ends, leaves the hold lane or is owned by something else.
func (c *holdConnector) touch(f *Frame) {
	if c.despawn {
		return
	}
	first := f.note(c.first)
	head := f.note(first.head)
	if !head.holding || (f.Time < first.target && c.first != first.head) {
		return
	}

	t, ok := f.Input.Touch(head.holdTouch)
	if !ok || t.Ended || f.Input.IsClaimed(t.ID) || !f.Input.Claim(t.ID) {
		head.release(f)
		return
	}
	if math.Abs(t.Lane-head.holdLane) > f.Options.HoldTolerance {
		head.release(f)
	}
}

func (c *holdConnector) updateParallel(f *Frame) {
	if c.despawn {
		return
	}
	first, second := f.note(c.first), f.note(c.second)
	active := f.note(first.head).holding
	if f.Mode == Watch {
		active = f.Streams.HoldActive(int(first.head), f.Time)
	}
	f.Out.DrawHoldConnector(
		first.data.Lane,
		f.Layout.Y(first.target, f.Time),
		second.data.Lane,
		f.Layout.Y(second.target, f.Time),
		active,
	)
}

// simLine marks two notes to be hit together and disappears with either.
type simLine struct {
	entityBase
	first, second game.EntityRef
}

func (*simLine) kind() Kind                 { return KindSimLine }
func (*simLine) priority() (Priority, bool) { return Priority{}, false }
func (*simLine) preprocess(*Frame)          {}
func (*simLine) updateSequential(*Frame)    {}
func (*simLine) touch(*Frame)               {}

func (l *simLine) shouldSpawn(f *Frame) bool {
	return f.note(l.first).shouldSpawn(f)
}

func (l *simLine) spawnOrder(f *Frame) float64 {
	return f.note(l.first).spawnOrder(f)
}

func (l *simLine) updateParallel(f *Frame) {
	first, second := f.note(l.first), f.note(l.second)
	if f.isDespawned(first) || f.isDespawned(second) {
		l.Despawn()
		return
	}
	f.Out.DrawSimLine(first.data.Lane, second.data.Lane, first.y)
}
