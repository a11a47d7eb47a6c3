package score

import (
	"time"

	"git.lost.host/meutraa/bandori/internal/stream"
)

type Scorer interface {
	Init() error
	Deinit()

	// Save the outcome and recorded streams of a play
	Save(sum string, rate float64, tally *Tally, recorder *stream.Recorder) (string, error)

	// Load up previous plays of the level, oldest first
	Load(sum string) ([]History, error)
}

type History struct {
	ID       string
	Sum      string
	Rate     float64
	Summary  Summary
	Streams  stream.Snapshot
	PlayedAt time.Time
}
