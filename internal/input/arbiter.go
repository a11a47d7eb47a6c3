package input

import (
	"iter"
	"time"
)

// Capacity bounds the number of touches that can be claimed in one frame.
const Capacity = 16

// Touch is one contact point as seen in the current frame. Positions are in
// lane units, centred on the middle lane.
type Touch struct {
	ID        int
	Started   bool // First frame of this touch
	Ended     bool // Last frame of this touch
	Lane      float64
	StartLane float64
	StartTime time.Duration
	Speed     float64 // Lanes per second, positive to the right
}

// Arbiter tracks which of this frame's touches have been consumed, so that
// no touch is acted on twice. Reset must run before any touch callback of a
// frame.
type Arbiter struct {
	touches []Touch
	claimed [Capacity]int
	n       int
}

// Reset forgets every claim and installs the touches of the new frame.
func (a *Arbiter) Reset(touches []Touch) {
	a.touches = touches
	a.n = 0
}

// Claim marks a touch as consumed. Claiming twice is a no-op. It reports
// false only when the table is full.
func (a *Arbiter) Claim(id int) bool {
	if a.IsClaimed(id) {
		return true
	}
	if a.n == Capacity {
		return false
	}
	a.claimed[a.n] = id
	a.n++
	return true
}

func (a *Arbiter) IsClaimed(id int) bool {
	for _, c := range a.claimed[:a.n] {
		if c == id {
			return true
		}
	}
	return false
}

// Claimed is the number of claims made this frame.
func (a *Arbiter) Claimed() int {
	return a.n
}

// Touches is every touch of the frame, claimed or not.
func (a *Arbiter) Touches() []Touch {
	return a.touches
}

// Touch looks up a touch of this frame by id.
func (a *Arbiter) Touch(id int) (Touch, bool) {
	for _, t := range a.touches {
		if t.ID == id {
			return t, true
		}
	}
	return Touch{}, false
}

// UnclaimedTaps yields touches that began this frame and are not yet
// claimed. Claims made while iterating are honoured by later elements.
func (a *Arbiter) UnclaimedTaps() iter.Seq[Touch] {
	return func(yield func(Touch) bool) {
		for _, t := range a.touches {
			if t.Started && !a.IsClaimed(t.ID) {
				if !yield(t) {
					return
				}
			}
		}
	}
}

// UnclaimedTouches yields every touch not yet claimed.
func (a *Arbiter) UnclaimedTouches() iter.Seq[Touch] {
	return func(yield func(Touch) bool) {
		for _, t := range a.touches {
			if !a.IsClaimed(t.ID) {
				if !yield(t) {
					return
				}
			}
		}
	}
}
