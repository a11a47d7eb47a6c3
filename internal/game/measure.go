package game

import (
	"math"
	"sort"
	"time"
)

// DefaultBpm applies when a level declares no tempo at all.
const DefaultBpm = 60.0

type BpmChange struct {
	Beat float64 `json:"beat"`
	Bpm  float64 `json:"bpm"`
}

// Timing converts beats to song time using a level's BPM changes.
type Timing struct {
	changes []BpmChange
	starts  []time.Duration // Song time at which each change takes effect
}

// NewTiming orders the changes by beat. Changes at the same beat keep
// declaration order, so the last declared one is in effect after that beat.
func NewTiming(changes []BpmChange) *Timing {
	cs := make([]BpmChange, len(changes))
	copy(cs, changes)
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Beat < cs[j].Beat })
	if len(cs) == 0 {
		cs = append(cs, BpmChange{Beat: 0, Bpm: DefaultBpm})
	}

	t := &Timing{changes: cs, starts: make([]time.Duration, len(cs))}
	seconds := 0.0
	for i := 1; i < len(cs); i++ {
		seconds += (cs[i].Beat - cs[i-1].Beat) * 60 / cs[i-1].Bpm
		t.starts[i] = toDuration(seconds)
	}
	// Shift so that beat 0 is time 0 even when the first change is later.
	if cs[0].Beat != 0 {
		shift := toDuration(cs[0].Beat * 60 / cs[0].Bpm)
		for i := range t.starts {
			t.starts[i] += shift
		}
	}
	return t
}

// Time returns the song time of a beat.
func (t *Timing) Time(beat float64) time.Duration {
	i := sort.Search(len(t.changes), func(i int) bool { return t.changes[i].Beat > beat }) - 1
	if i < 0 {
		i = 0
	}
	c := t.changes[i]
	return t.starts[i] + toDuration((beat-c.Beat)*60/c.Bpm)
}

// Beat is the inverse of Time.
func (t *Timing) Beat(d time.Duration) float64 {
	i := sort.Search(len(t.starts), func(i int) bool { return t.starts[i] > d }) - 1
	if i < 0 {
		i = 0
	}
	c := t.changes[i]
	return c.Beat + (d-t.starts[i]).Seconds()*c.Bpm/60
}

// Bpm returns the tempo in effect at a beat.
func (t *Timing) Bpm(beat float64) float64 {
	i := sort.Search(len(t.changes), func(i int) bool { return t.changes[i].Beat > beat }) - 1
	if i < 0 {
		i = 0
	}
	return t.changes[i].Bpm
}

func toDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}
