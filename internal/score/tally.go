package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/bandori/internal/game"
)

// Tally accumulates the judgements of one play.
type Tally struct {
	Judgements []game.Judgement
	Counts     []int
	Combo      int
	MaxCombo   int

	hits []time.Duration // Signed hit errors, late is positive
}

func NewTally(judgements []game.Judgement) *Tally {
	return &Tally{
		Judgements: judgements,
		Counts:     make([]int, len(judgements)),
	}
}

// Hit judges a hit error and returns the judgement index. An error outside
// every window counts as a miss.
func (t *Tally) Hit(distance time.Duration) int {
	index, ok := game.Judge(t.Judgements, distance)
	if !ok {
		t.Miss()
		return index
	}
	t.Counts[index]++
	t.hits = append(t.hits, distance)
	t.Combo++
	if t.Combo > t.MaxCombo {
		t.MaxCombo = t.Combo
	}
	return index
}

func (t *Tally) Miss() {
	t.Counts[len(t.Counts)-1]++
	t.Combo = 0
}

// Mean hit error in nanoseconds.
func (t *Tally) Mean() float64 {
	if len(t.hits) == 0 {
		return 0
	}
	sum := 0.0
	for _, h := range t.hits {
		sum += float64(h)
	}
	return sum / float64(len(t.hits))
}

// Stdev is the sample standard deviation of the hit error in nanoseconds.
func (t *Tally) Stdev() float64 {
	if len(t.hits) < 2 {
		return 0
	}
	mean := t.Mean()
	stdev := 0.0
	for _, h := range t.hits {
		xi := float64(h) - mean
		stdev += xi * xi
	}
	stdev /= float64(len(t.hits) - 1)
	return math.Sqrt(stdev)
}

type Summary struct {
	Counts   []int   `json:"counts"`
	MaxCombo int     `json:"maxCombo"`
	Mean     float64 `json:"mean"`
	Stdev    float64 `json:"stdev"`
}

func (t *Tally) Summary() Summary {
	counts := make([]int, len(t.Counts))
	copy(counts, t.Counts)
	return Summary{Counts: counts, MaxCombo: t.MaxCombo, Mean: t.Mean(), Stdev: t.Stdev()}
}
