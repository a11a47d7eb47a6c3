// Package audio plays the background music of a level and the short
// sounds of judgements and lane taps.
package audio

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/game"
)

var oggMagic = []byte("OggS")

// Decode reads Ogg Vorbis or MP3 data.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	rc := io.NopCloser(bytes.NewReader(data))
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	if bytes.HasPrefix(data, oggMagic) {
		streamer, format, err = vorbis.Decode(rc)
	} else {
		streamer, format, err = mp3.Decode(rc)
	}
	if nil != err {
		return nil, format, errors.Wrap(err, "unable to decode bgm")
	}
	return streamer, format, nil
}

type Player struct {
	Offset time.Duration // Position in the music at song time zero

	format beep.Format
	bgm    beep.StreamSeekCloser
	mixer  *beep.Mixer
	log    *slog.Logger
}

func NewPlayer(bgm beep.StreamSeekCloser, format beep.Format, offset time.Duration) *Player {
	return &Player{
		Offset: offset,
		format: format,
		bgm:    bgm,
		mixer:  &beep.Mixer{},
		log:    slog.Default(),
	}
}

// Open decodes the music and starts the speaker. rate speeds up playback
// by running the speaker faster than the music.
func Open(data []byte, offset time.Duration, rate float64) (*Player, error) {
	bgm, format, err := Decode(data)
	if nil != err {
		return nil, err
	}
	p := NewPlayer(bgm, format, offset)
	sr := beep.SampleRate(math.Round(float64(format.SampleRate) * rate))
	if err := speaker.Init(sr, format.SampleRate.N(time.Second/60)); nil != err {
		bgm.Close()
		return nil, errors.Wrap(err, "unable to start speaker")
	}
	speaker.Play(p.mixer)
	p.log.Debug("audio open", "sample_rate", format.SampleRate, "length", format.SampleRate.D(bgm.Len()))
	return p, nil
}

// Start plays the music so that it lines up with song time now, which is
// negative before the level begins.
func (p *Player) Start(now time.Duration) error {
	position := now + p.Offset
	var s beep.Streamer = p.bgm
	if position < 0 {
		s = beep.Seq(beep.Silence(p.format.SampleRate.N(-position)), p.bgm)
	} else if err := p.bgm.Seek(p.format.SampleRate.N(position)); nil != err {
		return errors.Wrap(err, "unable to seek bgm")
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	return nil
}

func (p *Player) Close() error {
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	return p.bgm.Close()
}

func (p *Player) PlayLaneEffect(lane float64) {
	p.add(click(p.format.SampleRate, 220, 40*time.Millisecond, 0.2))
}

func (p *Player) PlayJudgement(lane float64, judgement game.Judgement) {
	if judgement.Time == 0 {
		return
	}
	p.add(click(p.format.SampleRate, 880, 60*time.Millisecond, 0.3))
}

func (p *Player) add(s beep.Streamer) {
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// click is a decaying sine tone.
func click(sr beep.SampleRate, freq float64, d time.Duration, volume float64) beep.Streamer {
	total := sr.N(d)
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if i >= total {
			return 0, false
		}
		n := 0
		for ; n < len(samples) && i < total; n++ {
			t := float64(i) / float64(sr)
			decay := 1 - float64(i)/float64(total)
			v := volume * decay * math.Sin(2*math.Pi*freq*t)
			samples[n] = [2]float64{v, v}
			i++
		}
		return n, true
	})
}
