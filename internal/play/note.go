package play

import (
	"time"

	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/input"
)

type note struct {
	entityBase
	ref  game.EntityRef
	head game.EntityRef // First note of the hold chain, ref itself outside chains
	data game.Note      // Lane and direction are mirrored when asked to

	target time.Duration
	y      float64

	judged  bool
	pending *game.Judgement // Judged this frame, not yet presented

	// Hold heads only. Written by the head when hit, by the chain's
	// connectors while held, and by the end when released.
	holding   bool
	holdTouch int
	holdLane  float64
	holdDirty bool // holding changed this frame and is not yet recorded
}

func newNote(level *game.Level, ref game.EntityRef) *note {
	return &note{
		ref:  ref,
		head: level.Head(ref),
		data: *level.Note(ref),
	}
}

func (*note) kind() Kind                      { return KindNote }
func (*note) priority() (Priority, bool)      { return Priority{}, false }
func (n *note) spawnOrder(f *Frame) float64   { return f.Layout.SpawnTime(n.target).Seconds() }
func (n *note) shouldSpawn(f *Frame) bool     { return f.Time >= f.Layout.SpawnTime(n.target) }
func (n *note) window(f *Frame) time.Duration { return game.Window(f.Options.Judgements) }

func (n *note) preprocess(f *Frame) {
	if f.Options.Mirror {
		n.data.Lane = -n.data.Lane
		n.data.Direction = -n.data.Direction
	}
	n.target = f.Timing.Time(n.data.Beat)
	n.holdLane = n.data.Lane
	n.holdTouch = -1

	if n.target > f.LastTime {
		f.LastTime = n.target
	}
	if n.data.Beat > f.LastBeat {
		f.LastBeat = n.data.Beat
	}
}

func (n *note) updateSequential(f *Frame) {
	n.y = f.Layout.Y(n.target, f.Time)
	if n.judged {
		return
	}

	switch n.data.Kind {
	case game.Tap, game.Flick, game.DirectionalFlick, game.HoldHead:
		if f.Mode == Watch {
			if f.Time >= n.target {
				n.hit(f, 0)
			}
			return
		}
		if f.Time > n.target+n.window(f) {
			n.miss(f)
		}
	case game.HoldTick:
		if f.Time < n.target {
			return
		}
		held := f.note(n.head).holding
		if f.Mode == Watch {
			held = f.Streams.HoldActive(int(n.head), n.target)
		}
		if held {
			n.hit(f, 0)
		} else {
			n.miss(f)
		}
	case game.HoldAnchor:
		if f.Time >= n.target {
			n.judged = true
			n.Despawn()
		}
	case game.HoldEnd:
		if f.Time < n.target {
			return
		}
		head := f.note(n.head)
		switch {
		case f.Mode == Watch:
			n.hit(f, 0)
		case head.holding:
			n.hit(f, 0)
			head.release(f)
		case f.Time > n.target+n.window(f):
			n.miss(f)
		}
	}
}

func (n *note) touch(f *Frame) {
	if n.judged {
		return
	}
	d := f.Time - n.target
	if d < -n.window(f) || d > n.window(f) {
		return
	}

	switch n.data.Kind {
	case game.Tap, game.HoldHead:
		for tap := range f.Input.UnclaimedTaps() {
			if !f.Layout.InLane(tap.Lane, n.data.Lane) {
				continue
			}
			if !f.Input.Claim(tap.ID) {
				return
			}
			n.hit(f, d)
			if n.data.Kind == game.HoldHead {
				n.holding = true
				n.holdTouch = tap.ID
				f.markHold(n)
			}
			return
		}
	case game.Flick, game.DirectionalFlick:
		for t := range f.Input.UnclaimedTouches() {
			if !f.Layout.InLane(t.Lane, n.data.Lane) || !n.flicked(f, t) {
				continue
			}
			if !f.Input.Claim(t.ID) {
				return
			}
			n.hit(f, d)
			return
		}
	case game.HoldEnd:
		head := f.note(n.head)
		if !head.holding {
			return
		}
		if t, ok := f.Input.Touch(head.holdTouch); ok && !t.Ended {
			return
		}
		n.hit(f, d)
		head.release(f)
	case game.HoldTick, game.HoldAnchor:
	}
}

func (n *note) flicked(f *Frame, t input.Touch) bool {
	speed := t.Speed
	if speed < 0 {
		speed = -speed
	}
	if speed < f.Options.FlickSpeed {
		return false
	}
	if n.data.Kind == game.DirectionalFlick {
		return (t.Speed > 0) == (n.data.Direction > 0)
	}
	return true
}

func (n *note) updateParallel(f *Frame) {
	if nil != n.pending {
		f.Out.PlayJudgement(n.data.Lane, *n.pending)
		n.pending = nil
	}
	if n.despawn || n.data.Kind == game.HoldAnchor {
		return
	}
	f.Out.DrawNote(n.data.Kind, n.data.Lane, n.y, n.data.Direction)
}

func (n *note) hit(f *Frame, d time.Duration) {
	n.judged = true
	n.Despawn()
	if !n.data.Scored {
		return
	}
	j := f.Tally.Judgements[f.Tally.Hit(d)]
	n.pending = &j
}

func (n *note) miss(f *Frame) {
	n.judged = true
	n.Despawn()
	if !n.data.Scored {
		return
	}
	f.Tally.Miss()
	j := f.Tally.Judgements[len(f.Tally.Judgements)-1]
	n.pending = &j
}

// release ends the hold started on this head.
func (n *note) release(f *Frame) {
	if !n.holding {
		return
	}
	n.holding = false
	n.holdTouch = -1
	f.markHold(n)
}
