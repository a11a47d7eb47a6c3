package play

import "git.lost.host/meutraa/bandori/internal/game"

// bpmChange only carries timing data and never spawns.
type bpmChange struct {
	entityBase
	change game.BpmChange
}

func (*bpmChange) kind() Kind                 { return KindBpmChange }
func (*bpmChange) priority() (Priority, bool) { return Priority{}, false }
func (*bpmChange) preprocess(*Frame)          {}
func (*bpmChange) shouldSpawn(*Frame) bool    { return false }
func (*bpmChange) spawnOrder(*Frame) float64  { return 0 }
func (*bpmChange) updateSequential(*Frame)    {}
func (*bpmChange) touch(*Frame)               {}
func (*bpmChange) updateParallel(*Frame)      {}
