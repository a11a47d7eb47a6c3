package input

import (
	"math"
	"time"

	"github.com/eiannone/keyboard"
)

// KeyTouches turns key presses into touches. Each key stands for a lane. A
// touch stays alive while its key keeps repeating within the hold period,
// and follows presses on a neighbouring lane, which is how keys flick and
// slide.
type KeyTouches struct {
	lanes map[rune]float64
	hold  time.Duration

	next int
	live []*keyTouch
}

type keyTouch struct {
	touch    Touch
	lastSeen time.Duration
	moved    time.Duration
	fresh    bool
	seen     bool // Pressed during the current frame
}

// NewKeyTouches maps keys[i] to lanes[i].
func NewKeyTouches(keys []rune, lanes []float64, hold time.Duration) *KeyTouches {
	m := make(map[rune]float64, len(keys))
	for i, k := range keys {
		if i < len(lanes) {
			m[k] = lanes[i]
		}
	}
	return &KeyTouches{lanes: m, hold: hold}
}

// Press records a key press at song time now and reports whether the key is
// mapped to a lane.
func (k *KeyTouches) Press(r rune, now time.Duration) bool {
	lane, ok := k.lanes[r]
	if !ok {
		return false
	}

	var nearest *keyTouch
	for _, t := range k.live {
		if t.seen {
			continue
		}
		if d := math.Abs(t.touch.Lane - lane); d <= 1 && (nearest == nil || d < math.Abs(nearest.touch.Lane-lane)) {
			nearest = t
		}
	}

	if nearest == nil {
		k.live = append(k.live, &keyTouch{
			touch: Touch{
				ID:        k.next,
				Lane:      lane,
				StartLane: lane,
				StartTime: now,
			},
			lastSeen: now,
			moved:    now,
			fresh:    true,
			seen:     true,
		})
		k.next++
		return true
	}

	if nearest.touch.Lane != lane {
		dt := (now - nearest.moved).Seconds()
		if dt <= 0 {
			dt = time.Millisecond.Seconds()
		}
		nearest.touch.Speed = (lane - nearest.touch.Lane) / dt
		nearest.touch.Lane = lane
		nearest.moved = now
	} else {
		nearest.touch.Speed = 0
	}
	nearest.lastSeen = now
	nearest.seen = true
	return true
}

// Touches ends the frame at song time now and returns its touches. Touches
// not pressed again within the hold period are reported once more as ended
// and then dropped.
func (k *KeyTouches) Touches(now time.Duration) []Touch {
	out := make([]Touch, 0, len(k.live))
	live := k.live[:0]
	for _, t := range k.live {
		t.touch.Started = t.fresh
		t.touch.Ended = now-t.lastSeen > k.hold
		if !t.seen && !t.touch.Ended {
			t.touch.Speed = 0
		}
		out = append(out, t.touch)
		t.fresh, t.seen = false, false
		if !t.touch.Ended {
			live = append(live, t)
		}
	}
	k.live = live
	return out
}

// KeySource reads the terminal keyboard.
type KeySource struct {
	*KeyTouches
	events <-chan keyboard.KeyEvent
}

func OpenKeySource(keys []rune, lanes []float64, hold time.Duration) (*KeySource, error) {
	events, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, err
	}
	return &KeySource{KeyTouches: NewKeyTouches(keys, lanes, hold), events: events}, nil
}

// Poll drains pending key events and returns this frame's touches. quit is
// true once escape has been pressed.
func (s *KeySource) Poll(now time.Duration) (touches []Touch, quit bool) {
	for {
		select {
		case ev := <-s.events:
			if nil != ev.Err {
				continue
			}
			if ev.Key == keyboard.KeyEsc || ev.Key == keyboard.KeyCtrlC {
				quit = true
				continue
			}
			r := ev.Rune
			if ev.Key == keyboard.KeySpace {
				r = ' '
			}
			s.Press(r, now)
		default:
			return s.Touches(now), quit
		}
	}
}

func (s *KeySource) Close() error {
	return keyboard.Close()
}
