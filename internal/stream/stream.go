// Package stream records derived play events keyed by song time, so that a
// replay can reproduce them without re-running input handling.
package stream

import (
	"iter"
	"sort"
	"time"
)

// Stream is an append-only map from song time to a value. Each time key is
// written at most once.
type Stream[V any] struct {
	times  []time.Duration // Sorted
	values map[time.Duration]V
}

func NewStream[V any]() *Stream[V] {
	return &Stream[V]{values: map[time.Duration]V{}}
}

// Set stores v at t unless t already holds a value, in which case the
// existing value is kept and false is returned.
func (s *Stream[V]) Set(t time.Duration, v V) bool {
	if _, ok := s.values[t]; ok {
		return false
	}
	s.values[t] = v
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
	if i == len(s.times) {
		s.times = append(s.times, t)
	} else {
		s.times = append(s.times, 0)
		copy(s.times[i+1:], s.times[i:])
		s.times[i] = t
	}
	return true
}

func (s *Stream[V]) Get(t time.Duration) (V, bool) {
	v, ok := s.values[t]
	return v, ok
}

// PreviousInclusive returns the value at the greatest key not after t.
func (s *Stream[V]) PreviousInclusive(t time.Duration) (time.Duration, V, bool) {
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t }) - 1
	if i < 0 {
		var zero V
		return 0, zero, false
	}
	k := s.times[i]
	return k, s.values[k], true
}

// Between yields entries with from < key <= to in time order.
func (s *Stream[V]) Between(from, to time.Duration) iter.Seq2[time.Duration, V] {
	return func(yield func(time.Duration, V) bool) {
		i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > from })
		for ; i < len(s.times) && s.times[i] <= to; i++ {
			if !yield(s.times[i], s.values[s.times[i]]) {
				return
			}
		}
	}
}

func (s *Stream[V]) Len() int {
	return len(s.times)
}
