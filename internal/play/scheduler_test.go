package play

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/bandori/internal/convert"
	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/input"
	"git.lost.host/meutraa/bandori/internal/stream"
	"git.lost.host/meutraa/bandori/internal/testdata"
)

var judgements = []game.Judgement{
	{Time: 50 * time.Millisecond, Name: "Perfect"},
	{Time: 100 * time.Millisecond, Name: "Great"},
	{Time: 130 * time.Millisecond, Name: "Bad"},
	{Name: "Miss"},
}

func options(mode Mode) Options {
	return Options{
		Mode:          mode,
		Judgements:    judgements,
		NoteDuration:  time.Second,
		HitWidth:      0.75,
		HoldTolerance: 1,
		FlickSpeed:    5,
	}
}

type connectorDraw struct {
	laneA, yA, laneB, yB float64
	active               bool
}

type presenter struct {
	Nop
	stages     int
	notes      []game.NoteKind
	connectors []connectorDraw
	simLines   int
	effects    []float64
	judged     []string
}

func (p *presenter) DrawStage([]float64) { p.stages++ }
func (p *presenter) DrawNote(kind game.NoteKind, lane, y float64, direction int) {
	p.notes = append(p.notes, kind)
}
func (p *presenter) DrawHoldConnector(laneA, yA, laneB, yB float64, active bool) {
	p.connectors = append(p.connectors, connectorDraw{laneA, yA, laneB, yB, active})
}
func (p *presenter) DrawSimLine(float64, float64, float64) { p.simLines++ }
func (p *presenter) PlayLaneEffect(lane float64)           { p.effects = append(p.effects, lane) }
func (p *presenter) PlayJudgement(lane float64, j game.Judgement) {
	p.judged = append(p.judged, j.Name)
}

// level is 120 BPM, so beat 1 is at 500ms.
func level(notes []game.Note, connectors []game.HoldConnector, simLines []game.SimLine) *game.Level {
	return &game.Level{
		BpmChanges: []game.BpmChange{{Beat: 0, Bpm: 120}},
		Notes:      notes,
		Connectors: connectors,
		SimLines:   simLines,
	}
}

func tap(id int, lane float64) input.Touch {
	return input.Touch{ID: id, Started: true, Lane: lane, StartLane: lane}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// noteIndex is the declaration index of a note.
func noteIndex(l *game.Level, r game.EntityRef) int {
	return 1 + len(l.BpmChanges) + int(r)
}

func TestStageSpawnsFirst(t *testing.T) {
	l := level([]game.Note{game.NewNote(game.Tap, 4, 0)}, nil, nil)
	s := New(l, options(Live), nil, nil)

	s.Step(0, nil)
	assert.Equal(t, Active, s.Status(0))
	assert.Equal(t, KindStage, s.Kind(0))
	assert.Equal(t, Unspawned, s.Status(1), "bpm changes never spawn")
	assert.Equal(t, Unspawned, s.Status(noteIndex(l, 0)))

	// Beat 4 is at 2s and notes appear one second early.
	s.Step(ms(999), nil)
	assert.Equal(t, Unspawned, s.Status(noteIndex(l, 0)))
	s.Step(ms(1000), nil)
	assert.Equal(t, Active, s.Status(noteIndex(l, 0)))
}

func TestTapHit(t *testing.T) {
	l := level([]game.Note{game.NewNote(game.Tap, 1, 0)}, nil, nil)
	p := &presenter{}
	s := New(l, options(Live), p, nil)

	s.Step(ms(100), nil)
	s.Step(ms(480), []input.Touch{tap(1, 0.2)})

	assert.Equal(t, Despawned, s.Status(noteIndex(l, 0)))
	assert.Equal(t, []string{"Perfect"}, p.judged)
	assert.Equal(t, []int{1, 0, 0, 0}, s.Frame().Tally.Counts)
	assert.Empty(t, p.effects, "claimed taps produce no lane effect")
	assert.Equal(t, 1, s.State().(SchedulerState).Claimed)
	assert.True(t, s.Done())

	s.Step(ms(500), nil)
	assert.Equal(t, 0, s.State().(SchedulerState).Claimed)
}

func TestTapMiss(t *testing.T) {
	l := level([]game.Note{game.NewNote(game.Tap, 1, 0)}, nil, nil)
	p := &presenter{}
	s := New(l, options(Live), p, nil)

	s.Step(ms(600), []input.Touch{tap(1, 3)})
	assert.Equal(t, Active, s.Status(noteIndex(l, 0)))
	s.Step(ms(631), nil)
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 0)))
	assert.Equal(t, []string{"Miss"}, p.judged)
	assert.Equal(t, 1, s.Frame().Tally.Counts[3])
}

func TestEmptyLaneTapsAreRecorded(t *testing.T) {
	l := level([]game.Note{game.NewNote(game.Tap, 1, 0)}, nil, nil)
	p := &presenter{}
	rec := stream.NewRecorder()
	s := New(l, options(Live), p, rec)

	s.Step(ms(200), []input.Touch{tap(1, -2.1), tap(2, 9), tap(3, 2)})

	lanes, ok := rec.EffectLanes(ms(200))
	require.True(t, ok)
	assert.Equal(t, []float64{-2, 2}, lanes.Lanes())
	assert.Equal(t, []float64{-2, 2}, p.effects)
	assert.Equal(t, Active, s.Status(noteIndex(l, 0)), "the note was out of its window")
}

func TestFlicks(t *testing.T) {
	d := game.NewNote(game.DirectionalFlick, 1, 0)
	d.Direction = -2
	l := level([]game.Note{game.NewNote(game.Flick, 1, -3), d}, nil, nil)
	p := &presenter{}
	s := New(l, options(Live), p, nil)

	s.Step(ms(500), []input.Touch{
		{ID: 1, Lane: -3, Speed: 1},  // too slow
		{ID: 2, Lane: 0, Speed: 10},  // wrong way
		{ID: 3, Lane: 0, Speed: -10}, // directional flick
	})
	assert.Equal(t, Active, s.Status(noteIndex(l, 0)))
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 1)))

	s.Step(ms(520), []input.Touch{{ID: 1, Lane: -3, Speed: 8}})
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 0)))
	assert.Equal(t, []string{"Perfect", "Perfect"}, p.judged)
}

func holdLevel() *game.Level {
	head := game.NewNote(game.HoldHead, 1, 0)
	end := game.NewNote(game.HoldEnd, 3, 2)
	head.Next, end.Prev = 1, 0
	return level([]game.Note{head, end}, []game.HoldConnector{{First: 0, Second: 1}}, nil)
}

func TestHoldFollowsConnector(t *testing.T) {
	l := holdLevel()
	p := &presenter{}
	rec := stream.NewRecorder()
	s := New(l, options(Live), p, rec)
	connector := noteIndex(l, 0) + len(l.Notes)
	require.Equal(t, KindHoldConnector, s.Kind(connector))

	s.Step(ms(500), []input.Touch{tap(1, 0)})
	head := s.Frame().note(0)
	assert.True(t, head.holding)
	assert.True(t, rec.HoldActive(0, ms(500)))
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 0)))
	assert.Equal(t, Active, s.Status(connector))

	s.Step(ms(1000), []input.Touch{{ID: 1, Lane: 1}})
	assert.InDelta(t, 1.0, head.holdLane, 1e-9)
	assert.True(t, head.holding)
	require.NotEmpty(t, p.connectors)
	assert.True(t, p.connectors[len(p.connectors)-1].active)

	s.Step(ms(1500), []input.Touch{{ID: 1, Lane: 2}})
	assert.False(t, head.holding)
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 1)))
	assert.Equal(t, Despawned, s.Status(connector))
	assert.False(t, rec.HoldActive(0, ms(1500)))
	assert.Equal(t, []string{"Perfect", "Perfect"}, p.judged)
	assert.True(t, s.Done())
}

func TestHoldReleasedOffLane(t *testing.T) {
	l := holdLevel()
	rec := stream.NewRecorder()
	s := New(l, options(Live), nil, rec)

	s.Step(ms(500), []input.Touch{tap(1, 0)})
	s.Step(ms(1000), []input.Touch{{ID: 1, Lane: -1}})
	assert.False(t, s.Frame().note(0).holding)
	assert.False(t, rec.HoldActive(0, ms(1000)))

	s.Step(ms(1500), nil)
	s.Step(ms(1700), nil)
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 1)))
	assert.Equal(t, 1, s.Frame().Tally.Counts[3])
}

func TestConnectorDespawnIsMonotonic(t *testing.T) {
	l := holdLevel()
	s := New(l, options(Live), nil, nil)
	connector := noteIndex(l, 0) + len(l.Notes)

	s.Step(ms(1600), nil)
	assert.Equal(t, Despawned, s.Status(connector))
	for _, now := range []time.Duration{ms(1700), ms(100), ms(1000), ms(5000)} {
		s.Step(now, nil)
		assert.Equal(t, Despawned, s.Status(connector), now)
	}
}

func TestSimLineFollowsNotes(t *testing.T) {
	l := level(
		[]game.Note{game.NewNote(game.Tap, 1, -1), game.NewNote(game.Tap, 1, 1)},
		nil,
		[]game.SimLine{{First: 0, Second: 1}},
	)
	p := &presenter{}
	s := New(l, options(Live), p, nil)
	line := noteIndex(l, 0) + len(l.Notes)

	s.Step(ms(400), nil)
	assert.Equal(t, Active, s.Status(line))
	assert.Equal(t, 1, p.simLines)

	s.Step(ms(500), []input.Touch{tap(1, 1)})
	assert.Equal(t, Active, s.Status(line))
	s.Step(ms(510), nil)
	assert.Equal(t, Despawned, s.Status(line))
	assert.Equal(t, 2, p.simLines)
}

// ordered records the order of sequential callbacks.
type ordered struct {
	entityBase
	name    string
	k       Kind
	over    *Priority
	calls   *[]string
	onTouch func(*Frame)
}

func (o *ordered) kind() Kind { return o.k }
func (o *ordered) priority() (Priority, bool) {
	if nil == o.over {
		return Priority{}, false
	}
	return *o.over, true
}
func (*ordered) preprocess(*Frame)         {}
func (*ordered) shouldSpawn(*Frame) bool   { return true }
func (*ordered) spawnOrder(*Frame) float64 { return 0 }
func (o *ordered) updateSequential(f *Frame) {
	if nil != o.calls {
		*o.calls = append(*o.calls, o.name)
	}
}
func (o *ordered) touch(f *Frame) {
	if nil != o.onTouch {
		o.onTouch(f)
	}
}
func (*ordered) updateParallel(*Frame) {}

func TestSequentialOrder(t *testing.T) {
	s := New(level(nil, nil, nil), options(Live), nil, nil)
	calls := []string{}
	s.add(&ordered{name: "line", k: KindSimLine, calls: &calls})
	s.add(&ordered{name: "note", k: KindNote, calls: &calls})
	s.add(&ordered{name: "first", k: KindSimLine, over: &Priority{Sequential: -5}, calls: &calls})
	s.add(&ordered{name: "late", k: KindStage, over: &Priority{Sequential: 1}, calls: &calls})
	s.add(&ordered{name: "note2", k: KindNote, calls: &calls})
	s.frame.status = make([]Status, len(s.entities))

	s.Step(0, nil)
	assert.Equal(t, []string{"first", "note", "note2", "line", "late"}, calls)
}

func TestHeldTouchIsNotSharedWithFlick(t *testing.T) {
	head := game.NewNote(game.HoldHead, 1, 0)
	end := game.NewNote(game.HoldEnd, 3, 0)
	head.Next, end.Prev = 1, 0
	l := level(
		[]game.Note{head, end, game.NewNote(game.Flick, 2, 1)},
		[]game.HoldConnector{{First: 0, Second: 1}},
		nil,
	)
	p := &presenter{}
	s := New(l, options(Live), p, nil)

	s.Step(ms(500), []input.Touch{tap(1, 0)})
	require.True(t, s.Frame().note(0).holding)

	// The held touch swipes into the flick's lane but stays within the
	// hold tolerance, so it keeps the hold and cannot hit the flick.
	s.Step(ms(1000), []input.Touch{{ID: 1, Lane: 1, Speed: 10}})
	assert.True(t, s.Frame().note(0).holding)
	assert.Equal(t, Active, s.Status(noteIndex(l, 2)))
	assert.Equal(t, []string{"Perfect"}, p.judged)
	assert.Equal(t, 1, s.State().(SchedulerState).Claimed)

	// A second touch is free to take it.
	s.Step(ms(1010), []input.Touch{
		{ID: 1, Lane: 1, Speed: 10},
		{ID: 2, Lane: 1, Speed: 10},
	})
	assert.True(t, s.Frame().note(0).holding)
	assert.Equal(t, Despawned, s.Status(noteIndex(l, 2)))
	assert.Equal(t, []string{"Perfect", "Perfect"}, p.judged)
}

func TestHeldTouchIsNotSharedWithTap(t *testing.T) {
	l := holdLevel()
	l.Notes = append(l.Notes, game.NewNote(game.Tap, 2, 1))
	s := New(l, options(Live), nil, nil)

	s.Step(ms(500), []input.Touch{tap(1, 0)})
	// Reusing the held id as a fresh tap must not hit the tap note.
	s.Step(ms(1000), []input.Touch{{ID: 1, Started: true, Lane: 1}})
	assert.True(t, s.Frame().note(0).holding)
	assert.Equal(t, Active, s.Status(noteIndex(l, 2)))
}

// slideLevel is a hold that moves three lanes in a quarter beat.
func slideLevel() *game.Level {
	head := game.NewNote(game.HoldHead, 1, 0)
	tick := game.NewNote(game.HoldTick, 1.25, 3)
	end := game.NewNote(game.HoldEnd, 1.5, 3)
	head.Next = 1
	tick.Prev, tick.Next = 0, 2
	end.Prev = 1
	return level(
		[]game.Note{head, tick, end},
		[]game.HoldConnector{{First: 0, Second: 1}, {First: 1, Second: 2}},
		nil,
	)
}

func TestLateHeadHitMatchesRecordedHold(t *testing.T) {
	l := slideLevel()
	rec := stream.NewRecorder()
	s := New(l, options(Live), nil, rec)
	head := s.Frame().note(0)

	// By 590ms the slide has left lane 0, but the head was hit this frame.
	s.Step(ms(590), []input.Touch{tap(1, 0)})
	assert.True(t, head.holding)
	assert.Equal(t, head.holding, rec.HoldActive(0, ms(590)))

	s.Step(ms(600), []input.Touch{{ID: 1, Lane: 0}})
	assert.InDelta(t, 2.4, head.holdLane, 1e-9)
	assert.False(t, head.holding)
	assert.Equal(t, head.holding, rec.HoldActive(0, ms(600)))

	s.Step(ms(625), nil)
	s.Step(ms(900), nil)
	assert.True(t, s.Done())
	assert.Equal(t, []int{0, 1, 0, 2}, s.Frame().Tally.Counts)

	p := &presenter{}
	w := New(l, options(Watch), p, rec)
	w.Step(ms(590), nil)
	w.Step(ms(610), nil)
	require.NotEmpty(t, p.connectors)
	assert.False(t, p.connectors[len(p.connectors)-1].active)
	assert.False(t, rec.HoldActive(0, ms(625)))
	w.Step(ms(625), nil)
	assert.Equal(t, []string{"Perfect", "Miss"}, p.judged)
}

func TestHoldTakenAndDroppedInOneFrame(t *testing.T) {
	l := holdLevel()
	rec := stream.NewRecorder()
	s := New(l, options(Live), nil, rec)
	// Drops the hold after every other touch callback has run.
	s.add(&ordered{k: KindStage, over: &Priority{Touch: 5}, onTouch: func(f *Frame) {
		f.note(0).release(f)
	}})
	s.frame.status = make([]Status, len(s.entities))

	s.Step(ms(500), []input.Touch{tap(1, 0)})
	assert.False(t, s.Frame().note(0).holding)
	assert.False(t, rec.HoldActive(0, ms(500)))
}

func TestClaimTableFull(t *testing.T) {
	l := level([]game.Note{game.NewNote(game.Tap, 1, 0)}, nil, nil)
	p := &presenter{}
	rec := stream.NewRecorder()
	s := New(l, options(Live), p, rec)
	s.add(&ordered{k: KindStage, over: &Priority{Touch: -5}, onTouch: func(f *Frame) {
		for id := 100; id < 100+input.Capacity; id++ {
			f.Input.Claim(id)
		}
	}})
	s.frame.status = make([]Status, len(s.entities))

	s.Step(ms(500), []input.Touch{tap(1, 0), tap(2, 3)})
	assert.Equal(t, input.Capacity, s.State().(SchedulerState).Claimed)
	assert.Equal(t, Active, s.Status(noteIndex(l, 0)), "an unclaimable tap cannot hit")
	assert.Empty(t, p.judged)
	assert.Empty(t, p.effects)
	_, ok := rec.EffectLanes(ms(500))
	assert.False(t, ok)
}

func TestWatchReplaysStreams(t *testing.T) {
	rec := stream.NewRecorder()
	rec.RecordEffectLanes(ms(300), stream.LaneSetOf(3))
	rec.RecordHoldActivity(0, ms(500), true)

	p := &presenter{}
	s := New(holdLevel(), options(Watch), p, rec)

	s.Step(ms(200), []input.Touch{tap(1, -3)})
	assert.Empty(t, p.effects)
	s.Step(ms(400), []input.Touch{tap(2, -3)})
	assert.Equal(t, []float64{3}, p.effects)

	s.Step(ms(500), nil)
	s.Step(ms(900), nil)
	require.NotEmpty(t, p.connectors)
	assert.True(t, p.connectors[len(p.connectors)-1].active)
	s.Step(ms(1500), nil)
	assert.True(t, s.Done())
}

func TestMirror(t *testing.T) {
	d := game.NewNote(game.DirectionalFlick, 1, 2)
	d.Direction = 1
	opts := options(Live)
	opts.Mirror = true
	s := New(level([]game.Note{d}, nil, nil), opts, nil, nil)

	s.Step(ms(500), []input.Touch{{ID: 1, Lane: -2, Speed: -10}})
	assert.True(t, s.Done())
}

func TestFixtureRunsToCompletion(t *testing.T) {
	doc, err := testdata.GetDocument()
	require.NoError(t, err)
	l, err := convert.Convert(doc)
	require.NoError(t, err)

	p := &presenter{}
	s := New(l, options(Live), p, nil)
	for now := time.Duration(0); now < 4*time.Second; now += 10 * time.Millisecond {
		s.Step(now, nil)
	}
	assert.True(t, s.Done())
	// Seven scored notes all missed; the anchor is never scored.
	assert.Equal(t, 7, s.Frame().Tally.Counts[3])
	assert.Equal(t, ms(2000), s.Frame().LastTime)
	assert.Equal(t, 4.0, s.Frame().LastBeat)
}
