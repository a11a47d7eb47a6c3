package play

import (
	"git.lost.host/meutraa/bandori/internal/score"
	"git.lost.host/meutraa/bandori/internal/stream"
)

// stage draws the lanes and owns the per-frame and per-level setup.
type stage struct {
	entityBase
	effects stream.LaneSet // Lanes tapped this frame without hitting a note
}

func (*stage) kind() Kind { return KindStage }

// The stage resets input before anything else runs and looks at taps only
// after every note had its chance to claim them.
func (*stage) priority() (Priority, bool) {
	return Priority{Sequential: -1, Touch: 2}, true
}

func (*stage) preprocess(f *Frame) {
	f.Tally = score.NewTally(f.Options.Judgements)
	f.Input.Reset(nil)
	f.LastTime, f.LastBeat = 0, 0
}

func (*stage) shouldSpawn(*Frame) bool { return true }

func (*stage) spawnOrder(*Frame) float64 { return -1e8 }

func (s *stage) updateSequential(f *Frame) {
	f.Input.Reset(f.touches)
	s.effects = stream.LaneSet{}
}

func (s *stage) touch(f *Frame) {
	for tap := range f.Input.UnclaimedTaps() {
		lane, ok := f.Layout.StageLane(tap.Lane)
		if !ok {
			continue
		}
		if !f.Input.Claim(tap.ID) {
			break
		}
		s.effects.Add(lane)
	}
	if s.effects.Len() > 0 {
		f.Streams.RecordEffectLanes(f.Time, s.effects)
	}
}

func (s *stage) updateParallel(f *Frame) {
	f.Out.DrawStage(Lanes)
	switch f.Mode {
	case Live:
		for _, lane := range s.effects.Lanes() {
			f.Out.PlayLaneEffect(lane)
		}
	case Watch:
		for _, lanes := range f.Streams.EffectLanesBetween(f.Prev, f.Time) {
			for _, lane := range lanes.Lanes() {
				f.Out.PlayLaneEffect(lane)
			}
		}
	}
}
