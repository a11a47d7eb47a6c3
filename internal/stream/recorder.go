package stream

import (
	"iter"
	"math"
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// LaneCapacity bounds the lanes recorded for one instant.
const LaneCapacity = 16

// LaneSet is a small set of lanes.
type LaneSet struct {
	lanes [LaneCapacity]float64
	n     int
}

// Add inserts a lane, ignoring duplicates and lanes beyond capacity.
func (s *LaneSet) Add(lane float64) bool {
	if s.Contains(lane) {
		return true
	}
	if s.n == LaneCapacity {
		return false
	}
	s.lanes[s.n] = lane
	s.n++
	return true
}

func (s *LaneSet) Contains(lane float64) bool {
	for _, l := range s.lanes[:s.n] {
		if l == lane {
			return true
		}
	}
	return false
}

func (s *LaneSet) Len() int {
	return s.n
}

// Lanes returns the members in insertion order.
func (s LaneSet) Lanes() []float64 {
	out := make([]float64, s.n)
	copy(out, s.lanes[:s.n])
	return out
}

func LaneSetOf(lanes ...float64) LaneSet {
	var s LaneSet
	for _, l := range lanes {
		s.Add(l)
	}
	return s
}

// Recorder holds the streams written during a play.
//
// effect lanes: the lanes that were tapped without hitting a note, per time.
// hold activity: per hold head index, whether the hold was held at a time.
type Recorder struct {
	effectLanes  *Stream[LaneSet]
	holdActivity map[int]*Stream[bool]
}

func NewRecorder() *Recorder {
	return &Recorder{
		effectLanes:  NewStream[LaneSet](),
		holdActivity: map[int]*Stream[bool]{},
	}
}

func (r *Recorder) RecordEffectLanes(t time.Duration, lanes LaneSet) bool {
	return r.effectLanes.Set(t, lanes)
}

func (r *Recorder) EffectLanes(t time.Duration) (LaneSet, bool) {
	return r.effectLanes.Get(t)
}

// EffectLanesBetween yields the recorded effects in (from, to].
func (r *Recorder) EffectLanesBetween(from, to time.Duration) iter.Seq2[time.Duration, LaneSet] {
	return r.effectLanes.Between(from, to)
}

func (r *Recorder) RecordHoldActivity(head int, t time.Duration, active bool) bool {
	s, ok := r.holdActivity[head]
	if !ok {
		s = NewStream[bool]()
		r.holdActivity[head] = s
	}
	return s.Set(t, active)
}

// HoldActive reports the latest recorded activity of a hold at or before t.
func (r *Recorder) HoldActive(head int, t time.Duration) bool {
	s, ok := r.holdActivity[head]
	if !ok {
		return false
	}
	_, active, _ := s.PreviousInclusive(t)
	return active
}

type EffectEntry struct {
	Time  time.Duration `json:"t"`
	Lanes []float64     `json:"lanes"`
}

type HoldEntry struct {
	Time   time.Duration `json:"t"`
	Active bool          `json:"active"`
}

// Snapshot is the serialisable form of a Recorder.
type Snapshot struct {
	EffectLanes  []EffectEntry       `json:"effectLanes"`
	HoldActivity map[int][]HoldEntry `json:"holdActivity"`
}

func (r *Recorder) Snapshot() Snapshot {
	snap := Snapshot{
		EffectLanes:  make([]EffectEntry, 0, r.effectLanes.Len()),
		HoldActivity: make(map[int][]HoldEntry, len(r.holdActivity)),
	}
	for t, lanes := range r.effectLanes.Between(math.MinInt64, math.MaxInt64) {
		snap.EffectLanes = append(snap.EffectLanes, EffectEntry{Time: t, Lanes: lanes.Lanes()})
	}
	for head, s := range r.holdActivity {
		entries := make([]HoldEntry, 0, s.Len())
		for t, active := range s.Between(math.MinInt64, math.MaxInt64) {
			entries = append(entries, HoldEntry{Time: t, Active: active})
		}
		snap.HoldActivity[head] = entries
	}
	return snap
}

// FromSnapshot rebuilds a Recorder for replay.
func FromSnapshot(snap Snapshot) *Recorder {
	r := NewRecorder()
	for _, e := range snap.EffectLanes {
		r.RecordEffectLanes(e.Time, LaneSetOf(e.Lanes...))
	}
	for head, entries := range snap.HoldActivity {
		for _, e := range entries {
			r.RecordHoldActivity(head, e.Time, e.Active)
		}
	}
	return r
}

type RecorderState struct {
	EffectEntries int   `json:"effect_entries"`
	Holds         []int `json:"holds"`
}

// State implements introspection.Introspectable.
func (r *Recorder) State() any {
	holds := make([]int, 0, len(r.holdActivity))
	for head := range r.holdActivity {
		holds = append(holds, head)
	}
	sort.Ints(holds)
	return RecorderState{EffectEntries: r.effectLanes.Len(), Holds: holds}
}

// ComponentType implements introspection.Component.
func (r *Recorder) ComponentType() string {
	return "recorder"
}

var _ introspection.Introspectable = (*Recorder)(nil)
var _ introspection.Component = (*Recorder)(nil)
