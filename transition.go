// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/radix"
)

// Predicate selects transitions. It receives the values before and after a
// change, decoded as unsigned integers (NaN for unknown bits).
//
type Predicate func(before, after float64) bool

// Predefined predicates. A nil Predicate accepts any change.
var (
	Rising  Predicate = func(before, after float64) bool { return before < after }
	Falling Predicate = func(before, after float64) bool { return before > after }
)

func (o *Object) logger() *slog.Logger {
	if o.db != nil {
		return o.db.log
	}
	return slog.Default()
}

// IsTransition returns true if change i is a transition matching pred. Change
// 0 has no previous value and only matches the nil predicate.
//
func (o *Object) IsTransition(i int, pred Predicate) bool {
	if !o.IsSignal() || i < 0 || i >= o.Signal.Len() {
		return false
	}
	if pred == nil {
		return true
	}
	if i == 0 {
		return false
	}
	ch := o.Signal.Changes
	return pred(ch[i-1].Value(radix.Unsigned).Float64(), ch[i].Value(radix.Unsigned).Float64())
}

// TransitionTime returns the time of the delta-th transition matching pred
// after t (delta > 0) or before t (delta < 0). When searching backward from the
// middle of an interval, the change starting that interval counts as the first
// step. A zero delta returns t.
//
// If the timeline ends before enough transitions are found, TransitionTime
// logs a warning and returns NotFound and ErrTransitionNotFound.
//
func (o *Object) TransitionTime(t int64, delta int, pred Predicate, now int64) (int64, error) {
	s, err := o.signal()
	if err != nil {
		return NotFound, err
	}
	if delta == 0 {
		return t, nil
	}
	idx := s.ChangeIndexAt(t)
	step, j := 1, idx+1
	if delta < 0 {
		step, j = -1, idx
		if idx >= 0 && s.Changes[idx].Time == t {
			j = idx - 1
		}
		delta = -delta
	}
	for ; j >= 0 && j < s.Len(); j += step {
		if !o.IsTransition(j, pred) {
			continue
		}
		if delta--; delta == 0 {
			return s.TimeAtIndex(j, now)
		}
	}
	o.logger().Warn("transition not found", "signal", o.Path(), "time", t, "step", step)
	return NotFound, errors.Wrapf(ErrTransitionNotFound, "from time %d in %s", t, o.Path())
}

// RisingTime is TransitionTime with the Rising predicate.
//
func (o *Object) RisingTime(t int64, delta int, now int64) (int64, error) {
	return o.TransitionTime(t, delta, Rising, now)
}

// FallingTime is TransitionTime with the Falling predicate.
//
func (o *Object) FallingTime(t int64, delta int, now int64) (int64, error) {
	return o.TransitionTime(t, delta, Falling, now)
}

// AnyTime is TransitionTime accepting any change.
//
func (o *Object) AnyTime(t int64, delta int, now int64) (int64, error) {
	return o.TransitionTime(t, delta, nil, now)
}
