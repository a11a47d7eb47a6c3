package game

import (
	"time"
)

// Judgement is a named timing window. The last judgement of a list is the
// miss and its Time is ignored.
type Judgement struct {
	Time time.Duration
	Name string
}

// Judge returns the index of the first window containing the absolute
// distance d, or false if d is outside every window.
func Judge(judgements []Judgement, d time.Duration) (int, bool) {
	if d < 0 {
		d = -d
	}
	for i := 0; i < len(judgements)-1; i++ {
		if d <= judgements[i].Time {
			return i, true
		}
	}
	return len(judgements) - 1, false
}

// Window is the widest judgeable distance.
func Window(judgements []Judgement) time.Duration {
	if len(judgements) < 2 {
		return 0
	}
	return judgements[len(judgements)-2].Time
}
