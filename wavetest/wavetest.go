// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wavetest provides utility functions for testing signal timelines.
//
// Timelines are written in a compact notation: a space or comma separated list
// of bits@time entries, like "0@0 1@10 x@20".
//
package wavetest

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
)

// ParseTimeline parses a timeline in compact notation.
//
func ParseTimeline(s string) ([]fl.ValueChange, error) {
	f := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	out := make([]fl.ValueChange, 0, len(f))
	for _, e := range f {
		at := strings.IndexByte(e, '@')
		if at <= 0 {
			return nil, errors.Errorf("in %q: missing bits@time in %q", s, e)
		}
		t, err := strconv.ParseInt(e[at+1:], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "in %q: bad time in %q", s, e)
		}
		out = append(out, fl.ValueChange{Time: t, Bits: strings.ToLower(e[:at])})
	}
	return out, nil
}

// Timeline is like ParseTimeline but panics on error.
//
func Timeline(s string) []fl.ValueChange {
	tl, err := ParseTimeline(s)
	if err != nil {
		panic(err)
	}
	return tl
}

// Format returns the compact notation of a timeline.
//
func Format(changes []fl.ValueChange) string {
	var b strings.Builder
	for _, c := range changes {
		if b.Len() > 0 {
			b.WriteRune(' ')
		}
		b.WriteString(c.Bits)
		b.WriteRune('@')
		b.WriteString(strconv.FormatInt(c.Time, 10))
	}
	return b.String()
}

// Signal returns a signal named name with the given timeline. The width is
// taken from the first change, or 1 for empty timelines.
//
func Signal(name string, timeline string) *fl.Signal {
	ch := Timeline(timeline)
	w := 1
	if len(ch) > 0 {
		w = len(ch[0].Bits)
	}
	return &fl.Signal{Width: w, References: []string{name}, ID: name, Type: "wire", Changes: ch}
}

// Object returns a standalone signal object at the dotted path with the given
// timeline.
//
func Object(path string, timeline string) *fl.Object {
	return fl.NewSignalObject(strings.Split(path, "."), Signal(path, timeline))
}

// CompareTimeline fails the test if got does not match the timeline want.
//
func CompareTimeline(t *testing.T, got []fl.ValueChange, want string) {
	t.Helper()
	if g, w := Format(got), Format(Timeline(want)); g != w {
		t.Fatalf("\nExpected %s\nGot      %s", w, g)
	}
}

// CompareRange checks that part-selecting bits [from:to] of s and decoding the
// result in binary matches the corresponding characters of the full value of
// s, at every change time, in the middle of every interval, before the first
// change and at a few random times.
//
func CompareRange(t *testing.T, s *fl.Signal, from, to int) {
	t.Helper()
	c, err := s.CloneRange(from, to)
	if err != nil {
		t.Fatal(err)
	}
	var times []int64
	for i, ch := range s.Changes {
		times = append(times, ch.Time, ch.Time-1)
		if i+1 < len(s.Changes) {
			times = append(times, (ch.Time+s.Changes[i+1].Time)/2)
		}
	}
	if n := len(s.Changes); n > 0 {
		last := s.Changes[n-1].Time
		for i := 0; i < 8; i++ {
			times = append(times, rand.Int63n(last+2))
		}
	}
	na := radix.Text("- NA -")
	for _, tm := range times {
		full := s.ValueAtOr(tm, radix.BinRadix, na).String()
		got := c.ValueAtOr(tm, radix.BinRadix, na).String()
		want := full
		if full != na.String() {
			want = bitRange(full, from, to)
		}
		if got != want {
			t.Fatalf("\n%s[%d:%d] at time %d: expected %s (from %s), got %s", s.Name(), from, to, tm, want, full, got)
		}
	}
}

func bitRange(bits string, from, to int) string {
	w := len(bits)
	var b strings.Builder
	step := -1
	if from < to {
		step = 1
	}
	for k := from; ; k += step {
		b.WriteByte(bits[w-1-k])
		if k == to {
			break
		}
	}
	return b.String()
}

// Values returns the values of o at the given times in radix r, formatted
// with fmt.Sprint. Missing values are reported as "-".
//
func Values(o *fl.Object, r radix.Radix, times ...int64) []string {
	out := make([]string, len(times))
	for i, tm := range times {
		v, err := o.ValueAt(tm, r)
		if err != nil {
			out[i] = "-"
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
