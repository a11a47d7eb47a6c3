package play

import "git.lost.host/meutraa/bandori/internal/game"

// Presenter receives the computed drawing and sound work of the parallel
// phase. Implementations decide how anything looks or sounds.
type Presenter interface {
	DrawStage(lanes []float64)
	DrawNote(kind game.NoteKind, lane, y float64, direction int)
	DrawHoldConnector(laneA, yA, laneB, yB float64, active bool)
	DrawSimLine(laneA, laneB, y float64)
	PlayLaneEffect(lane float64)
	PlayJudgement(lane float64, judgement game.Judgement)
}

// Nop discards everything.
type Nop struct{}

func (Nop) DrawStage([]float64)                                        {}
func (Nop) DrawNote(game.NoteKind, float64, float64, int)              {}
func (Nop) DrawHoldConnector(float64, float64, float64, float64, bool) {}
func (Nop) DrawSimLine(float64, float64, float64)                      {}
func (Nop) PlayLaneEffect(float64)                                     {}
func (Nop) PlayJudgement(float64, game.Judgement)                      {}
