// Package play runs a converted level one frame at a time.
//
// Every frame admits newly eligible entities, then runs three passes over
// the active ones: the sequential pass, which may read and write state
// shared between entities; the touch pass, which consumes input; and the
// parallel pass, which only presents. Entities that asked to despawn during
// a frame are retired at its end and never come back.
package play

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/introspection"

	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/input"
	"git.lost.host/meutraa/bandori/internal/score"
	"git.lost.host/meutraa/bandori/internal/stream"
)

type Status uint8

const (
	Unspawned Status = iota
	Active
	Despawned
)

func (s Status) String() string {
	switch s {
	case Unspawned:
		return "unspawned"
	case Active:
		return "active"
	case Despawned:
		return "despawned"
	}
	return "unknown"
}

// Mode selects where secondary effects come from.
type Mode uint8

const (
	// Live play judges touches and writes the streams.
	Live Mode = iota
	// Watch replays the streams of an earlier play and ignores input.
	Watch
)

// Kind is the archetype of a runtime entity. Its value is the default
// ordering within a pass when no priority is given.
type Kind uint8

const (
	KindStage Kind = iota
	KindBpmChange
	KindNote
	KindHoldConnector
	KindSimLine
)

func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindBpmChange:
		return "bpm-change"
	case KindNote:
		return "note"
	case KindHoldConnector:
		return "hold-connector"
	case KindSimLine:
		return "sim-line"
	}
	return "unknown"
}

type Options struct {
	Mode          Mode
	Judgements    []game.Judgement
	NoteDuration  time.Duration
	HitWidth      float64 // Lanes either side of a note that still hit it
	HoldTolerance float64 // Lanes a held touch may stray from the hold
	FlickSpeed    float64 // Lanes per second
	Mirror        bool
	Logger        *slog.Logger
}

// Priority orders an entity within one pass. Entities without one sit at 0.
// Lower values run first, and at 0 an explicit priority runs before the
// per-kind default, so a positive value runs after every default entity.
type Priority struct {
	Sequential int
	Touch      int
}

// entity is implemented by each archetype.
type entity interface {
	kind() Kind
	// priority overrides the per-kind order when ok is true.
	priority() (p Priority, ok bool)
	preprocess(f *Frame)
	shouldSpawn(f *Frame) bool
	spawnOrder(f *Frame) float64
	updateSequential(f *Frame)
	touch(f *Frame)
	updateParallel(f *Frame)
	base() *entityBase
}

type entityBase struct {
	index   int
	despawn bool
}

func (b *entityBase) base() *entityBase { return b }

// Despawn asks for the entity to be retired at the end of the frame. It
// cannot be undone.
func (b *entityBase) Despawn() { b.despawn = true }

// Frame is the per-level context handed to every callback.
type Frame struct {
	Index   uint64
	Time    time.Duration // Song time of this frame
	Prev    time.Duration // Song time of the previous frame
	Mode    Mode
	Level   *game.Level
	Timing  *game.Timing
	Layout  Layout
	Options Options

	Input   *input.Arbiter
	Streams *stream.Recorder
	Tally   *score.Tally
	Out     Presenter

	// Latest note time and beat of the level, set during preprocessing.
	LastTime time.Duration
	LastBeat float64

	touches []input.Touch
	notes   []*note
	status  []Status
	holds   []*note // Heads whose holding changed this frame
}

func (f *Frame) markHold(head *note) {
	if head.holdDirty {
		return
	}
	head.holdDirty = true
	f.holds = append(f.holds, head)
}

// recordHolds writes the final hold state of the frame for each head that
// changed, so a hold taken and dropped in one frame is stored as dropped.
func (f *Frame) recordHolds() {
	for _, n := range f.holds {
		n.holdDirty = false
		f.Streams.RecordHoldActivity(int(n.ref), f.Time, n.holding)
	}
	clear(f.holds)
	f.holds = f.holds[:0]
}

// note returns the runtime state of a note.
func (f *Frame) note(r game.EntityRef) *note {
	return f.notes[r]
}

func (f *Frame) isDespawned(e entity) bool {
	return f.status[e.base().index] == Despawned
}

type Scheduler struct {
	frame    Frame
	entities []entity
	active   []entity
	started  bool
	log      *slog.Logger
}

// New builds the runtime entities of a level in declaration order: the
// stage, BPM changes, notes, hold connectors and sim lines.
func New(level *game.Level, opts Options, out Presenter, recorder *stream.Recorder) *Scheduler {
	if nil == out {
		out = Nop{}
	}
	if nil == recorder {
		recorder = stream.NewRecorder()
	}
	log := opts.Logger
	if nil == log {
		log = slog.Default()
	}

	s := &Scheduler{log: log}
	s.frame = Frame{
		Mode:    opts.Mode,
		Level:   level,
		Timing:  game.NewTiming(level.BpmChanges),
		Layout:  Layout{NoteDuration: opts.NoteDuration, HitWidth: opts.HitWidth},
		Options: opts,
		Input:   &input.Arbiter{},
		Streams: recorder,
		Out:     out,
		notes:   make([]*note, len(level.Notes)),
	}

	s.add(&stage{})
	for i := range level.BpmChanges {
		s.add(&bpmChange{change: level.BpmChanges[i]})
	}
	for i := range level.Notes {
		n := newNote(level, game.EntityRef(i))
		s.frame.notes[i] = n
		s.add(n)
	}
	for _, c := range level.Connectors {
		s.add(&holdConnector{first: c.First, second: c.Second})
	}
	for _, l := range level.SimLines {
		s.add(&simLine{first: l.First, second: l.Second})
	}
	s.frame.status = make([]Status, len(s.entities))
	return s
}

func (s *Scheduler) add(e entity) {
	e.base().index = len(s.entities)
	s.entities = append(s.entities, e)
}

// Start runs the one-time preprocessing of every entity, stage first.
// Step calls it on the first frame if it has not been called.
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true
	for _, e := range s.entities {
		e.preprocess(&s.frame)
	}
	s.log.Debug("level started",
		"entities", len(s.entities),
		"notes", len(s.frame.notes),
		"last_time", s.frame.LastTime,
	)
}

// Step advances one frame to song time now. touches are the touches of
// this frame and are ignored when watching.
func (s *Scheduler) Step(now time.Duration, touches []input.Touch) {
	s.Start()
	f := &s.frame
	f.Index++
	f.Prev, f.Time = f.Time, now
	f.touches = touches
	if f.Mode == Watch {
		f.touches = nil
	}

	s.spawn()

	s.sortActive(func(e entity, p Priority) int { return p.Sequential })
	for _, e := range s.active {
		e.updateSequential(f)
	}

	if f.Mode == Live {
		s.sortActive(func(e entity, p Priority) int { return p.Touch })
		for _, e := range s.active {
			e.touch(f)
		}
		f.recordHolds()
	}

	for _, e := range s.active {
		e.updateParallel(f)
	}

	s.retire()
}

func (s *Scheduler) spawn() {
	f := &s.frame
	type candidate struct {
		e     entity
		order float64
	}
	var admit []candidate
	for _, e := range s.entities {
		if f.status[e.base().index] != Unspawned || !e.shouldSpawn(f) {
			continue
		}
		admit = append(admit, candidate{e, e.spawnOrder(f)})
	}
	slices.SortFunc(admit, func(a, b candidate) int {
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(a.e.base().index, b.e.base().index)
	})
	for _, c := range admit {
		f.status[c.e.base().index] = Active
		s.active = append(s.active, c.e)
	}
}

func (s *Scheduler) sortActive(pick func(entity, Priority) int) {
	key := func(e entity) (int, int) {
		if p, ok := e.priority(); ok {
			return pick(e, p), -1
		}
		return 0, int(e.kind())
	}
	slices.SortFunc(s.active, func(a, b entity) int {
		pa, ka := key(a)
		pb, kb := key(b)
		if c := cmp.Compare(pa, pb); c != 0 {
			return c
		}
		if c := cmp.Compare(ka, kb); c != 0 {
			return c
		}
		return cmp.Compare(a.base().index, b.base().index)
	})
}

func (s *Scheduler) retire() {
	f := &s.frame
	active := s.active[:0]
	for _, e := range s.active {
		if e.base().despawn {
			f.status[e.base().index] = Despawned
			continue
		}
		active = append(active, e)
	}
	clear(s.active[len(active):])
	s.active = active
}

// Done reports whether every note has been retired.
func (s *Scheduler) Done() bool {
	for _, n := range s.frame.notes {
		if s.frame.status[n.index] != Despawned {
			return false
		}
	}
	return s.started
}

// Frame exposes the level context, mainly for the tally and streams.
func (s *Scheduler) Frame() *Frame {
	return &s.frame
}

// Status is the lifecycle state of the entity at a declaration index.
func (s *Scheduler) Status(index int) Status {
	return s.frame.status[index]
}

// Kind is the archetype of the entity at a declaration index.
func (s *Scheduler) Kind(index int) Kind {
	return s.entities[index].kind()
}

func (s *Scheduler) Len() int {
	return len(s.entities)
}

type SchedulerState struct {
	Frame     uint64        `json:"frame"`
	Time      time.Duration `json:"time"`
	Mode      Mode          `json:"mode"`
	Entities  int           `json:"entities"`
	Active    int           `json:"active"`
	Despawned int           `json:"despawned"`
	Claimed   int           `json:"claimed"`
}

// State implements introspection.Introspectable.
func (s *Scheduler) State() any {
	despawned := 0
	for _, st := range s.frame.status {
		if st == Despawned {
			despawned++
		}
	}
	return SchedulerState{
		Frame:     s.frame.Index,
		Time:      s.frame.Time,
		Mode:      s.frame.Mode,
		Entities:  len(s.entities),
		Active:    len(s.active),
		Despawned: despawned,
		Claimed:   s.frame.Input.Claimed(),
	}
}

// ComponentType implements introspection.Component.
func (s *Scheduler) ComponentType() string {
	return "scheduler"
}

var _ introspection.Introspectable = (*Scheduler)(nil)
var _ introspection.Component = (*Scheduler)(nil)
