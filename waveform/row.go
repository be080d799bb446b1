// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package waveform

import (
	"math"
	"strconv"

	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
)

// RowKind distinguishes signal rows from group rows.
//
type RowKind int

// Row kinds.
//
const (
	SignalRow RowKind = iota
	GroupRow
)

func (k RowKind) String() string {
	if k == GroupRow {
		return "group"
	}
	return "signal"
}

// MarshalText implements encoding.TextMarshaler.
//
func (k RowKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// WaveStyle is the drawing style of a row.
//
type WaveStyle int

// Wave styles.
//
const (
	Bit WaveStyle = iota
	Bus
	Analog
	Blank
)

var styleNames = [...]string{Bit: "bit", Bus: "bus", Analog: "analog", Blank: "blank"}

func (s WaveStyle) String() string {
	if s >= 0 && int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "WaveStyle(" + strconv.Itoa(int(s)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
//
func (s WaveStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseWaveStyle returns the style with the given name.
//
func ParseWaveStyle(name string) (WaveStyle, bool) {
	for i, n := range styleNames {
		if n == name {
			return WaveStyle(i), true
		}
	}
	return 0, false
}

// NA is the value displayed for rows without a value at a given time.
const NA = "- NA -"

// AnalogHeight is the height in pixels of analog rows.
const AnalogHeight = 60

// Row is a line of the waveform window. It displays either a signal object or
// a collapsible group of rows.
//
type Row struct {
	ID     string
	Kind   RowKind
	Object *fl.Object `json:"-" yaml:"-" msgpack:"-"`
	Name   string
	Radix  radix.Radix `json:"-" yaml:"-" msgpack:"-"`
	Prefix string
	Style  WaveStyle
	Height int        // -1 for the default height
	YRange [2]float64 // min and max values of analog rows
}

func newSignalRow(id string, o *fl.Object) *Row {
	r := &Row{ID: id, Kind: SignalRow, Object: o, Name: o.Path(), Height: -1, YRange: [2]float64{0, 1}}
	if !r.IsBit() {
		r.Name += "[" + strconv.Itoa(o.Width()-1) + ":0]"
	}
	r.Style = Bus
	if r.IsBit() {
		r.Style = Bit
	}
	return r
}

func newGroupRow(id, name string) *Row {
	return &Row{ID: id, Kind: GroupRow, Name: name, Style: Blank, Height: -1, YRange: [2]float64{0, 1}}
}

// IsGroup returns true for group rows.
//
func (r *Row) IsGroup() bool { return r.Kind == GroupRow }

// IsReal returns true for rows displaying a real variable.
//
func (r *Row) IsReal() bool {
	return r.Object != nil && r.Object.Signal != nil && r.Object.Signal.Type == "real"
}

// IsBit returns true for rows displaying a single bit signal.
//
func (r *Row) IsBit() bool {
	return r.Object != nil && r.Object.Width() == 1 && !r.IsReal()
}

// RadixName returns the name of the row radix, or "group" for group rows.
//
func (r *Row) RadixName() string {
	if r.IsGroup() {
		return "group"
	}
	return r.Radix.String()
}

// SetRadix sets the display radix of the row. name may be any radix name or
// alias accepted by radix.Alias. Single bit rows always use bin and real rows
// always use double. Group rows have no radix and are left unchanged.
//
func (r *Row) SetRadix(name string) error {
	switch {
	case r.IsGroup():
		return nil
	case r.IsReal():
		r.Radix, r.Prefix = radix.DoubleRadix, ""
		return nil
	case r.IsBit():
		r.Radix, r.Prefix = radix.BinRadix, ""
		return nil
	}
	n, prefix := radix.Alias(name)
	rd, err := radix.ParseRadix(n)
	if err != nil {
		return err
	}
	r.Radix, r.Prefix = rd, prefix
	return nil
}

// SetWaveStyle sets the wave style. Analog rows are taller, get their Y axis
// range from the signal values and switch to s0 if their radix is not numeric.
//
func (r *Row) SetWaveStyle(s WaveStyle) {
	if r.IsGroup() {
		return
	}
	r.Style = s
	if s != Analog {
		r.YRange = [2]float64{0, 1}
		r.Height = -1
		return
	}
	if !r.Radix.Numeric() {
		r.Radix, r.Prefix = radix.Signed, ""
	}
	r.Height = AnalogHeight
	lo, hi := math.Inf(1), math.Inf(-1)
	it := r.Waves(fl.WaveQuery{From: 0, To: math.MaxInt64, Scale: math.Inf(1), Now: -1})
	for it.Next() {
		v := it.Item().Value.Float64()
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	r.YRange = [2]float64{lo, hi}
}

// ValueAt returns the prefixed value of the row at time t, NA if the signal
// has no value at t or "" for groups.
//
func (r *Row) ValueAt(t int64) string {
	if r.IsGroup() {
		return ""
	}
	v, err := r.Object.ValueAt(t, r.Radix)
	if err != nil {
		return NA
	}
	return r.Prefix + v.String()
}

// Waves returns a wave iterator over the row signal using the row radix. It
// returns an empty iterator for group rows.
//
func (r *Row) Waves(q fl.WaveQuery) *fl.WaveIterator {
	q.Radix = r.Radix
	if r.IsGroup() || r.Object.Signal == nil {
		return (&fl.Signal{}).Waves(fl.WaveQuery{Now: -1})
	}
	return r.Object.Signal.Waves(q)
}
