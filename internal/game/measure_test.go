package game

import (
	"math"
	"testing"
	"time"
)

var timingTests = []struct {
	changes  []BpmChange
	beat     float64
	expected time.Duration
}{
	{nil, 1, time.Second},
	{[]BpmChange{{0, 120}}, 1, 500 * time.Millisecond},
	{[]BpmChange{{0, 120}, {4, 60}}, 6, 4 * time.Second},
	{[]BpmChange{{4, 60}, {0, 120}}, 6, 4 * time.Second},
	{[]BpmChange{{0, 120}, {2, 240}, {2, 60}}, 3, 2 * time.Second},
	{[]BpmChange{{2, 60}}, 0, 0},
	{[]BpmChange{{2, 60}}, 3, 3 * time.Second},
}

func TestTiming(t *testing.T) {
	for _, test := range timingTests {
		got := NewTiming(test.changes).Time(test.beat)
		if got != test.expected {
			t.Log("changes ", test.changes)
			t.Log("beat    ", test.beat)
			t.Log("got     ", got)
			t.Log("expected", test.expected)
			t.Fail()
		}
	}
}

func TestBeat(t *testing.T) {
	for _, test := range timingTests {
		got := NewTiming(test.changes).Beat(test.expected)
		if math.Abs(got-test.beat) > 1e-9 {
			t.Log("changes ", test.changes)
			t.Log("time    ", test.expected)
			t.Log("got     ", got)
			t.Log("expected", test.beat)
			t.Fail()
		}
	}
}

func TestJudge(t *testing.T) {
	js := []Judgement{{Time: 50 * time.Millisecond}, {Time: 100 * time.Millisecond}, {Name: "Miss"}}
	if i, ok := Judge(js, -40*time.Millisecond); !ok || i != 0 {
		t.Fatal("expected first window", i, ok)
	}
	if i, ok := Judge(js, 100*time.Millisecond); !ok || i != 1 {
		t.Fatal("expected second window", i, ok)
	}
	if i, ok := Judge(js, 101*time.Millisecond); ok || i != 2 {
		t.Fatal("expected miss", i, ok)
	}
	if Window(js) != 100*time.Millisecond {
		t.Fatal("unexpected window", Window(js))
	}
}
