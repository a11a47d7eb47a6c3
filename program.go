package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/audio"
	"git.lost.host/meutraa/bandori/internal/config"
	"git.lost.host/meutraa/bandori/internal/fetch"
	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/input"
	"git.lost.host/meutraa/bandori/internal/parser"
	"git.lost.host/meutraa/bandori/internal/play"
	"git.lost.host/meutraa/bandori/internal/render"
	"git.lost.host/meutraa/bandori/internal/score"
	"git.lost.host/meutraa/bandori/internal/stream"
	"git.lost.host/meutraa/bandori/internal/theme"
)

const (
	framePeriod = 4 * time.Millisecond
	// How long to keep going after the last note.
	tail = 2 * time.Second
)

// presenter sends drawing to the terminal and sounds to both the speaker
// and the terminal.
type presenter struct {
	*render.DefaultRenderer
	player *audio.Player
}

func (p presenter) PlayLaneEffect(lane float64) {
	p.DefaultRenderer.PlayLaneEffect(lane)
	p.player.PlayLaneEffect(lane)
}

func (p presenter) PlayJudgement(lane float64, judgement game.Judgement) {
	p.DefaultRenderer.PlayJudgement(lane, judgement)
	p.player.PlayJudgement(lane, judgement)
}

// Ensure our Default implementations are used as interfaces
var (
	_ parser.Parser   = (*parser.DefaultParser)(nil)
	_ play.Presenter  = presenter{}
	_ render.Renderer = (*render.DefaultRenderer)(nil)
	_ score.Scorer    = (*score.DefaultScorer)(nil)
	_ theme.Theme     = (*theme.DefaultTheme)(nil)
)

type Program struct {
	Config   *config.Config
	Mode     play.Mode
	Scorer   *score.DefaultScorer
	Renderer *render.DefaultRenderer
	Player   *audio.Player
	Keys     *input.KeySource

	pkg       *game.LevelPackage
	sum       string
	rate      float64
	recorder  *stream.Recorder
	scheduler *play.Scheduler
	started   bool
	quit      bool
	log       *slog.Logger
}

func runProgram(cfg *config.Config, mode play.Mode) error {
	p := &Program{Config: cfg, Mode: mode, log: slog.Default()}
	if err := p.Init(); nil != err {
		p.Deinit()
		if nil != p.Scorer {
			p.Scorer.Deinit()
		}
		return err
	}
	p.Renderer.RenderLoop(cfg.Delay, framePeriod, p.Update)
	p.Deinit()
	return p.Finish()
}

func (p *Program) Init() error {
	local, err := fetch.FindLocal(p.Config.Directory)
	if nil != err {
		return err
	}
	var data []byte
	if p.pkg, data, err = local.Load(); nil != err {
		return err
	}
	p.sum = score.Hash(data)

	p.Scorer = &score.DefaultScorer{Path: p.Config.Database}
	if err := p.Scorer.Init(); nil != err {
		return err
	}

	p.rate = p.Config.Rate
	p.recorder = stream.NewRecorder()
	if p.Mode == play.Watch {
		history, ok, err := p.Scorer.Latest(p.sum)
		if nil != err {
			return err
		}
		if !ok {
			return errors.Errorf("no plays of %v to watch", p.pkg.Name)
		}
		p.rate = history.Rate
		p.recorder = stream.FromSnapshot(history.Streams)
		p.log.Info("watching play", "play", history.ID, "played_at", history.PlayedAt)
	}

	offset := time.Duration(p.pkg.Data.BgmOffset * float64(time.Second))
	if p.Player, err = audio.Open(p.pkg.Bgm, offset, p.rate); nil != err {
		return err
	}
	if p.Keys, err = input.OpenKeySource(p.Config.KeyRunes(), play.Lanes, p.Config.KeyHold); nil != err {
		return errors.Wrap(err, "unable to open keyboard")
	}

	p.Renderer = render.NewDefaultRenderer(&theme.DefaultTheme{})
	if err := p.Renderer.Init(); nil != err {
		return err
	}

	p.scheduler = play.New(p.pkg.Data, play.Options{
		Mode:          p.Mode,
		Judgements:    p.Config.Judgements,
		NoteDuration:  p.Config.NoteDuration,
		HitWidth:      p.Config.HitWidth,
		HoldTolerance: p.Config.HoldTolerance,
		FlickSpeed:    p.Config.FlickSpeed,
		Mirror:        p.Config.Mirror,
		Logger:        p.log,
	}, presenter{p.Renderer, p.Player}, p.recorder)
	p.scheduler.Start()
	return nil
}

func (p *Program) Deinit() {
	if nil != p.Renderer {
		if err := p.Renderer.Deinit(); nil != err {
			p.log.Warn("unable to restore terminal", "err", err)
		}
	}
	if nil != p.Keys {
		if err := p.Keys.Close(); nil != err {
			p.log.Warn("unable to close keyboard", "err", err)
		}
	}
	if nil != p.Player {
		p.Player.Close()
	}
}

// songTime converts time since the start into level time.
func (p *Program) songTime(duration time.Duration) time.Duration {
	return time.Duration(float64(duration+p.Config.Offset) * p.rate)
}

// Update advances one frame and reports whether to keep going.
func (p *Program) Update(duration time.Duration) bool {
	now := p.songTime(duration)
	if !p.started {
		p.started = true
		if err := p.Player.Start(now); nil != err {
			p.log.Error("unable to start music", "err", err)
		}
	}

	touches, quit := p.Keys.Poll(now)
	if quit {
		p.quit = true
		return false
	}
	p.scheduler.Step(now, touches)
	p.Render(now)

	f := p.scheduler.Frame()
	if f.Index%1000 == 0 {
		p.log.Debug("frame", "scheduler", p.scheduler.State(), "recorder", p.recorder.State())
	}
	return !p.scheduler.Done() || now < f.LastTime+tail
}

func (p *Program) Render(now time.Duration) {
	r := p.Renderer
	f := p.scheduler.Frame()
	col := r.SideColumn()
	tally := f.Tally

	r.Fill(2, col, p.pkg.Title)
	r.Fill(3, col, p.pkg.Artists)
	r.Fill(5, col, fmt.Sprintf("       Beat:  %6.1f / %v", f.Timing.Beat(now), f.LastBeat))
	r.Fill(10, col, fmt.Sprintf("      Combo:  %6v", tally.Combo))
	r.Fill(11, col, fmt.Sprintf("      Stdev:  %6.2f ms", tally.Stdev()/float64(time.Millisecond)))
	r.Fill(12, col, fmt.Sprintf("       Mean:  %6.2f ms", tally.Mean()/float64(time.Millisecond)))
	r.Fill(13, col, fmt.Sprintf("      Notes:  %6v", len(p.pkg.Data.Notes)))
	for i, j := range tally.Judgements {
		r.FillColor(18+i, col, r.Theme.Judgement(j.Name), fmt.Sprintf("%10v:  %6v", j.Name, tally.Counts[i]))
	}
	if p.Mode == play.Watch {
		r.Fill(1, col, "Replay")
	}
}

// Finish stores a completed live play and prints its summary.
func (p *Program) Finish() error {
	defer p.Scorer.Deinit()
	tally := p.scheduler.Frame().Tally
	summary := tally.Summary()
	for i, j := range tally.Judgements {
		fmt.Printf("%10v: %6v\n", j.Name, summary.Counts[i])
	}
	fmt.Printf("%10v: %6v\n%10v: %6.2f ms\n%10v: %6.2f ms\n",
		"Max Combo", summary.MaxCombo,
		"Mean", summary.Mean/float64(time.Millisecond),
		"Stdev", summary.Stdev/float64(time.Millisecond),
	)

	if p.Mode != play.Live || p.quit {
		return nil
	}
	id, err := p.Scorer.Save(p.sum, p.rate, tally, p.recorder)
	if nil != err {
		return err
	}
	p.log.Info("play saved", "play", id, "level", p.pkg.Name)
	return nil
}
