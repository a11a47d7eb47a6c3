package play

import (
	"math"
	"time"
)

// Lanes are the stage lane centres, in lane units.
var Lanes = []float64{-3, -2, -1, 0, 1, 2, 3}

// Layout maps song time onto the vertical note axis: y is 1 where notes
// appear and 0 on the judgement line.
type Layout struct {
	NoteDuration time.Duration // Time from appearing to reaching the judgement line
	HitWidth     float64       // Half width of a note's touch area, in lanes
}

func (l Layout) Y(target, now time.Duration) float64 {
	return float64(target-now) / float64(l.NoteDuration)
}

func (l Layout) SpawnTime(target time.Duration) time.Duration {
	return target - l.NoteDuration
}

func (l Layout) InLane(touchLane, noteLane float64) bool {
	return math.Abs(touchLane-noteLane) <= l.HitWidth
}

// StageLane returns the stage lane under a touch position.
func (l Layout) StageLane(x float64) (float64, bool) {
	lane := math.Round(x)
	if lane < Lanes[0] || lane > Lanes[len(Lanes)-1] || math.Abs(x-lane) > 0.5 {
		return 0, false
	}
	return lane, true
}

// remap maps x from the range [a, b] onto [c, d].
func remap(a, b, c, d, x float64) float64 {
	if a == b {
		return c
	}
	return c + (d-c)*(x-a)/(b-a)
}
