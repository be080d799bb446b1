// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"math"

	"github.com/raczben/fliplot-sub000/radix"
)

// ItemKind is the kind of a WaveItem.
//
type ItemKind int

// Wave item kinds.
const (
	// Native items are plain value changes.
	Native ItemKind = iota
	// ZoomCompressed items summarize a run of changes too close to each other
	// to be drawn individually.
	ZoomCompressed
	// PhantomNow is the last value held until the end of the simulation.
	PhantomNow
)

func (k ItemKind) String() string {
	switch k {
	case Native:
		return "native"
	case ZoomCompressed:
		return "zoom-compressed"
	}
	return "phantom-now"
}

// Zoom controls zoom compression: a run of more than Changes changes within
// Pixels pixels is merged into a single item.
//
type Zoom struct {
	Changes int
	Pixels  float64
}

// DefaultZoom is the default zoom compression setting.
//
var DefaultZoom = Zoom{Changes: 6, Pixels: 6}

// WaveQuery describes a wave iteration.
//
type WaveQuery struct {
	From, To int64       // time window
	Scale    float64     // pixels per time unit. Zero or +Inf disables zoom compression.
	Now      int64       // end of simulation. A negative value disables the PhantomNow item.
	Radix    radix.Radix // radix of returned values
	Zoom     Zoom        // zero value means DefaultZoom
}

// WaveItem is one drawable element of a wave.
//
type WaveItem struct {
	Kind  ItemKind
	Index int // change index, Len() for PhantomNow items
	Time  int64
	Value radix.Value

	// ZoomCompressed only
	MinTime, MaxTime   int64
	MinValue, MaxValue float64
}

// WaveIterator iterates over the items of a wave. Typical use:
//
//	it := sig.Waves(q)
//	for it.Next() {
//		item := it.Item()
//		...
//	}
//
type WaveIterator struct {
	s       *Signal
	q       WaveQuery
	i       int
	item    WaveItem
	closing bool // the first change after To has been returned
	done    bool
}

// Waves returns an iterator over the items of s covering [q.From, q.To]: the
// change in effect at From, every change up to To and the first change after
// To, followed by a PhantomNow item once the end of the timeline is reached.
//
func (s *Signal) Waves(q WaveQuery) *WaveIterator {
	if q.Zoom.Changes <= 0 || q.Zoom.Pixels <= 0 {
		q.Zoom = DefaultZoom
	}
	i := s.ChangeIndexAt(q.From)
	if i < 0 {
		i = 0
	}
	return &WaveIterator{s: s, q: q, i: i}
}

func (it *WaveIterator) compress() bool {
	return it.q.Scale > 0 && !math.IsInf(it.q.Scale, 1)
}

func (it *WaveIterator) numeric(c *ValueChange) float64 {
	if it.q.Radix.Numeric() {
		return c.Value(it.q.Radix).Float64()
	}
	return c.Value(radix.Unsigned).Float64()
}

// Next advances to the next item and returns false when there are no more
// items.
//
func (it *WaveIterator) Next() bool {
	if it.done {
		return false
	}
	s := it.s
	n := s.Len()
	if it.closing || it.i >= n {
		it.done = true
		if it.q.Now < 0 || n == 0 || it.closing {
			return false
		}
		it.item = WaveItem{
			Kind:  PhantomNow,
			Index: n,
			Time:  it.q.Now,
			Value: s.Changes[n-1].Value(it.q.Radix),
		}
		return true
	}

	i := it.i
	c := &s.Changes[i]
	if c.Time > it.q.To {
		it.closing = true
	}
	it.item = WaveItem{Kind: Native, Index: i, Time: c.Time, Value: c.Value(it.q.Radix)}
	it.i = i + 1

	if it.compress() && !it.closing {
		j := s.ChangeIndexAt(c.Time + int64(it.q.Zoom.Pixels/it.q.Scale))
		if j-i > it.q.Zoom.Changes {
			it.item.Kind = ZoomCompressed
			it.item.MinTime = c.Time
			it.item.MaxTime = s.Changes[j-1].Time
			it.item.MinValue, it.item.MaxValue = math.Inf(1), math.Inf(-1)
			for k := i; k < j; k++ {
				v := it.numeric(&s.Changes[k])
				it.item.MinValue = math.Min(it.item.MinValue, v)
				it.item.MaxValue = math.Max(it.item.MaxValue, v)
			}
			it.i = j
		}
	}
	return true
}

// Item returns the current item.
//
func (it *WaveIterator) Item() WaveItem { return it.item }

// Items collects all remaining items.
//
func (it *WaveIterator) Items() []WaveItem {
	var out []WaveItem
	for it.Next() {
		out = append(out, it.Item())
	}
	return out
}
