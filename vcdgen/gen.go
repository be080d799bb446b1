// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdgen

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Scope is the module scope used by the generators.
const Scope = "test"

// Bin returns the width bits binary representation of v. Values that do not fit
// are truncated to their rightmost bits.
//
func Bin(v uint64, width int) string {
	s := strconv.FormatUint(v, 2)
	if n := len(s); n > width {
		return s[n-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

func header(w *Writer, typ string, width int, name string) *Var {
	w.Timescale("1ns")
	w.Scope("module", Scope)
	v := w.Var(typ, width, name)
	w.EndDefinitions()
	return v
}

// Clock writes a single clock signal named clk toggling every period time
// units, starting high at time 0, for the given number of cycles. The last
// change brings the clock high again at 2*period*cycles.
//
func Clock(out io.Writer, period int64, cycles int) error {
	if period <= 0 || cycles < 0 {
		return errors.Errorf("invalid clock period %d or cycle count %d", period, cycles)
	}
	w := NewWriter(out)
	clk := header(w, "wire", 1, "clk")
	for i := 0; i <= 2*cycles && w.Err() == nil; i++ {
		w.Time(int64(i) * period)
		if i%2 == 0 {
			w.Change(clk, "1")
		} else {
			w.Change(clk, "0")
		}
	}
	return w.Flush()
}

// Counter writes a width bits counter named cntr counting from from to to,
// incrementing every period time units starting at time 0.
//
func Counter(out io.Writer, width int, period int64, from, to uint64) error {
	if period <= 0 || width < 1 || width > 64 || to < from {
		return errors.Errorf("invalid counter parameters: width %d, period %d, range %d..%d", width, period, from, to)
	}
	w := NewWriter(out)
	cntr := header(w, "wire", width, "cntr")
	var t int64
	for i := from; w.Err() == nil; i++ {
		w.Time(t)
		w.Change(cntr, Bin(i, width))
		t += period
		if i == to {
			break
		}
	}
	return w.Flush()
}

// ZoomCompression writes a counter named cntr that runs bursts of increasing
// length: burst n counts from 0 to n, one step every period, and is followed
// by a pause of 100 periods. Such a waveform has dense regions that get
// compressed at low zoom levels and sparse ones that do not.
//
func ZoomCompression(out io.Writer, width int, period int64, bursts int) error {
	if period <= 0 || width < 1 || width > 64 || bursts < 0 {
		return errors.Errorf("invalid zoom compression parameters: width %d, period %d, bursts %d", width, period, bursts)
	}
	w := NewWriter(out)
	cntr := header(w, "wire", width, "cntr")
	var t int64
	for n := 1; n <= bursts && w.Err() == nil; n++ {
		for i := 0; i <= n; i++ {
			t += period
			w.Time(t)
			w.Change(cntr, Bin(uint64(i), width))
		}
		t += period * 100
	}
	return w.Flush()
}
