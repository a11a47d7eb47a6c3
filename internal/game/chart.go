package game

// EntityRef is a weak reference to a note by its position in Level.Notes.
// It owns nothing; Level is the only owner of entities.
type EntityRef int32

// NoRef marks an absent link.
const NoRef EntityRef = -1

func (r EntityRef) Valid() bool {
	return r >= 0
}

// HoldConnector joins two consecutive notes of a hold chain.
type HoldConnector struct {
	First  EntityRef `json:"first"`
	Second EntityRef `json:"second"`
}

// SimLine joins two lane-adjacent notes that share a beat.
type SimLine struct {
	First  EntityRef `json:"first"`
	Second EntityRef `json:"second"`
}

// Level is the immutable entity graph produced by chart conversion.
// Its declaration order is the stage, then BPM changes, notes,
// hold connectors and sim lines.
type Level struct {
	BgmOffset  float64         `json:"bgmOffset"`
	BpmChanges []BpmChange     `json:"bpmChanges"`
	Notes      []Note          `json:"notes"`
	Connectors []HoldConnector `json:"connectors"`
	SimLines   []SimLine       `json:"simLines"`
}

// Note resolves a reference. A dangling reference is a programming error
// and panics.
func (l *Level) Note(r EntityRef) *Note {
	return &l.Notes[r]
}

// Head walks prev links back to the first note of the chain containing r.
func (l *Level) Head(r EntityRef) EntityRef {
	for l.Notes[r].Prev.Valid() {
		r = l.Notes[r].Prev
	}
	return r
}

// EntityCount is the number of entities including the stage.
func (l *Level) EntityCount() int {
	return 1 + len(l.BpmChanges) + len(l.Notes) + len(l.Connectors) + len(l.SimLines)
}

// LastBeat is the greatest note beat, zero for an empty level.
func (l *Level) LastBeat() float64 {
	last := 0.0
	for _, n := range l.Notes {
		if n.Beat > last {
			last = n.Beat
		}
	}
	return last
}
