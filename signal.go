// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/radix"
)

// ValueChange records the value of a signal from Time on. Bits holds one
// character per bit, most significant bit first.
//
// Decoded values are memoized per radix. Bits must not be modified once a
// value has been decoded.
//
type ValueChange struct {
	Time  int64  `json:"time" yaml:"time" msgpack:"time"`
	Bits  string `json:"bits" yaml:"bits" msgpack:"bits"`
	cache map[radix.Radix]radix.Value
}

// Value returns the bits of vc decoded in radix r.
//
func (vc *ValueChange) Value(r radix.Radix) radix.Value {
	if v, ok := vc.cache[r]; ok {
		return v
	}
	v := r.Decode(vc.Bits)
	if vc.cache == nil {
		vc.cache = make(map[radix.Radix]radix.Value)
	}
	vc.cache[r] = v
	return v
}

// Signal is the timeline of a bit vector of fixed width.
//
type Signal struct {
	Width      int           `json:"width" yaml:"width" msgpack:"width"`
	References []string      `json:"references" yaml:"references" msgpack:"references"`
	ID         string        `json:"id" yaml:"id" msgpack:"id"`
	Type       string        `json:"type" yaml:"type" msgpack:"type"`
	Changes    []ValueChange `json:"changes" yaml:"changes" msgpack:"changes"`
}

// Name returns the first reference of the signal, or its ID if it has no
// reference.
//
func (s *Signal) Name() string {
	if len(s.References) > 0 {
		return s.References[0]
	}
	return s.ID
}

// Len returns the number of value changes.
//
func (s *Signal) Len() int { return len(s.Changes) }

// ChangeIndexAt returns the index of the last change at or before t, or -1 if t
// precedes the first change.
//
func (s *Signal) ChangeIndexAt(t int64) int {
	i := sort.Search(len(s.Changes), func(i int) bool {
		return s.Changes[i].Time > t
	})
	return i - 1
}

// ValueAtIndex returns the value of change i decoded in radix r. Indices past
// the end of the timeline return the last value.
//
func (s *Signal) ValueAtIndex(i int, r radix.Radix) (radix.Value, error) {
	if i < 0 {
		return radix.Value{}, ErrNegativeIndex
	}
	n := len(s.Changes)
	if n == 0 {
		return radix.Value{}, errors.Wrapf(ErrIndexOutOfRange, "signal %s has no value", s.Name())
	}
	if i >= n {
		i = n - 1
	}
	return s.Changes[i].Value(r), nil
}

// ValueAt returns the value of the signal at time t decoded in radix r.
//
func (s *Signal) ValueAt(t int64, r radix.Radix) (radix.Value, error) {
	return s.ValueAtIndex(s.ChangeIndexAt(t), r)
}

// ValueAtOr is like ValueAt but returns def if the signal has no value at time t.
//
func (s *Signal) ValueAtOr(t int64, r radix.Radix, def radix.Value) radix.Value {
	v, err := s.ValueAt(t, r)
	if err != nil {
		return def
	}
	return v
}

// TimeAtIndex returns the time of change i. Index Len() is the end of the
// simulation and returns now.
//
func (s *Signal) TimeAtIndex(i int, now int64) (int64, error) {
	switch {
	case i < 0:
		return 0, ErrNegativeIndex
	case i < len(s.Changes):
		return s.Changes[i].Time, nil
	case i == len(s.Changes):
		return now, nil
	}
	return 0, errors.Wrapf(ErrIndexOutOfRange, "index %d of signal %s with %d changes", i, s.Name(), len(s.Changes))
}

// CloneRange returns a new signal holding the part-select s[from:to]. Bit 0 is
// the least significant bit and bit from becomes the most significant bit of
// the result, so from may be lower than to. Consecutive equal values are
// merged.
//
func (s *Signal) CloneRange(from, to int) (*Signal, error) {
	return s.cloneRange(from, to, s.Name())
}

func (s *Signal) cloneRange(from, to int, name string) (*Signal, error) {
	if from < 0 || to < 0 || from >= s.Width || to >= s.Width {
		return nil, errors.Wrapf(ErrRangeTooWide, "cannot clone range [%d:%d] of signal %s with width %d", from, to, name, s.Width)
	}
	w := from - to + 1
	if from < to {
		w = to - from + 1
	}
	rng := "[" + strconv.Itoa(from) + ":" + strconv.Itoa(to) + "]"
	c := &Signal{
		Width:      w,
		References: append(append([]string(nil), s.References...), rng),
		ID:         s.ID + "-cloned" + rng,
		Type:       "bus",
	}
	if w == 1 {
		c.Type = "bit"
	}
	for i := range s.Changes {
		b := partSelect(s.Changes[i].Bits, s.Width, from, to)
		if n := len(c.Changes); n > 0 && c.Changes[n-1].Bits == b {
			continue
		}
		c.Changes = append(c.Changes, ValueChange{Time: s.Changes[i].Time, Bits: b})
	}
	return c, nil
}

// partSelect returns bits [from:to] of a width bit vector. The result's first
// character is bit from.
func partSelect(bits string, width, from, to int) string {
	if from >= to {
		return bits[width-1-from : width-to]
	}
	var sb strings.Builder
	sb.Grow(to - from + 1)
	for k := from; k <= to; k++ {
		sb.WriteByte(bits[width-1-k])
	}
	return sb.String()
}
