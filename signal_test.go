package fliplot_test

import (
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/raczben/fliplot-sub000/wavetest"
)

const (
	bitWave = "0@0 1@10 x@20 z@30"
	busWave = "0000000000000000@1000 0000000000000001@1010 0000000000000010@1020 " +
		"0000000000000011@1030 0000000000001011@1100 0101010101010101@1200 " +
		"1010101010101010@1300 1100110011001100@1400 1111111111111111@1500"
)

func TestSignal_ChangeIndexAt(t *testing.T) {
	bit := wavetest.Signal("sig", bitWave)
	bus := wavetest.Signal("bus", busWave)
	data := []struct {
		s    *fl.Signal
		t    int64
		want int
	}{
		{bit, 0, 0},
		{bit, 5, 0},
		{bit, 10, 1},
		{bit, 15, 1},
		{bit, 20, 2},
		{bit, 25, 2},
		{bit, 1000, 3},
		{bit, -1, -1},
		{bus, 0, -1},
		{bus, 1000, 0},
		{bus, 1499, 7},
	}
	for _, d := range data {
		if got := d.s.ChangeIndexAt(d.t); got != d.want {
			t.Errorf("%s.ChangeIndexAt(%d) = %d, expected %d", d.s.Name(), d.t, got, d.want)
		}
	}
}

func TestSignal_ChangeIndexAt_monotonic(t *testing.T) {
	s := wavetest.Signal("bus", busWave)
	for i, c := range s.Changes {
		if got := s.ChangeIndexAt(c.Time); got != i {
			t.Fatalf("ChangeIndexAt(%d) = %d, expected %d", c.Time, got, i)
		}
	}
	f := func(a, b uint16) bool {
		t0, t1 := int64(a), int64(b)
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		return s.ChangeIndexAt(t0) <= s.ChangeIndexAt(t1)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSignal_ValueAtIndex(t *testing.T) {
	bit := wavetest.Signal("sig", bitWave)
	for i, want := range []string{"0", "1", "x", "z", "z"} {
		v, err := bit.ValueAtIndex(i, radix.BinRadix)
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != want {
			t.Fatalf("index %d: got %v, expected %s", i, v, want)
		}
	}
	bus := wavetest.Signal("bus", busWave)
	for i, want := range []string{"0000", "0001", "0002", "0003", "000b", "5555", "aaaa", "cccc", "ffff"} {
		v, err := bus.ValueAtIndex(i, radix.HexRadix)
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != want {
			t.Fatalf("index %d: got %v, expected %s", i, v, want)
		}
	}
	// memoized value
	v, _ := bus.ValueAtIndex(8, radix.HexRadix)
	if v.String() != "ffff" {
		t.Fatalf("got %v", v)
	}
	if _, err := bit.ValueAtIndex(-1, radix.BinRadix); errors.Cause(err) != fl.ErrNegativeIndex {
		t.Fatalf("unexpected error %v", err)
	}
	empty := &fl.Signal{Width: 1}
	if _, err := empty.ValueAtIndex(0, radix.BinRadix); errors.Cause(err) != fl.ErrIndexOutOfRange {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignal_ValueAt(t *testing.T) {
	bit := wavetest.Signal("sig", bitWave)
	for _, d := range []struct {
		t    int64
		want string
	}{{0, "0"}, {10, "1"}, {15, "1"}, {25, "x"}, {100, "z"}} {
		v, err := bit.ValueAt(d.t, radix.BinRadix)
		if err != nil {
			t.Fatal(err)
		}
		if v.String() != d.want {
			t.Fatalf("time %d: got %v, expected %s", d.t, v, d.want)
		}
	}
	bus := wavetest.Signal("bus", busWave)
	if v := bus.ValueAtOr(10, radix.BinRadix, radix.Text("default")); v.String() != "default" {
		t.Fatalf("got %v", v)
	}
	if _, err := bus.ValueAt(10, radix.BinRadix); errors.Cause(err) != fl.ErrNegativeIndex {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignal_TimeAtIndex(t *testing.T) {
	const now = 1234
	bit := wavetest.Signal("sig", bitWave)
	for i, want := range []int64{0, 10, 20, 30, now} {
		got, err := bit.TimeAtIndex(i, now)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("index %d: got %d, expected %d", i, got, want)
		}
	}
	if _, err := bit.TimeAtIndex(-1, now); errors.Cause(err) != fl.ErrNegativeIndex {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := bit.TimeAtIndex(5, now); errors.Cause(err) != fl.ErrIndexOutOfRange {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSignal_CloneRange(t *testing.T) {
	bus := wavetest.Signal("bus", busWave)
	na := radix.Text("- NA -")

	c, err := bus.CloneRange(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Width != 1 || c.Type != "bit" || c.ID != "bus-cloned[0:0]" {
		t.Fatalf("got %+v", c)
	}
	for _, d := range []struct {
		t    int64
		want string
	}{{10, "- NA -"}, {1000, "0"}, {1015, "1"}, {1025, "0"}, {1035, "1"}} {
		if v := c.ValueAtOr(d.t, radix.BinRadix, na); v.String() != d.want {
			t.Fatalf("[0] at %d: got %v, expected %s", d.t, v, d.want)
		}
	}

	c, err = bus.CloneRange(15, 8)
	if err != nil {
		t.Fatal(err)
	}
	if c.Width != 8 || c.References[1] != "[15:8]" {
		t.Fatalf("got %+v", c)
	}
	wavetest.CompareTimeline(t, c.Changes, "00000000@1000 01010101@1200 10101010@1300 11001100@1400 11111111@1500")

	bit := wavetest.Signal("sig", bitWave)
	_, err = bit.CloneRange(1, 2)
	if errors.Cause(err) != fl.ErrRangeTooWide {
		t.Fatalf("unexpected error %v", err)
	}
	if msg := err.Error(); msg != "cannot clone range [1:2] of signal sig with width 1: bit range exceeds signal width" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSignal_CloneRange_commutes(t *testing.T) {
	bus := wavetest.Signal("bus", busWave)
	for _, r := range [][2]int{{15, 0}, {15, 8}, {7, 0}, {3, 3}, {0, 15}, {4, 9}} {
		wavetest.CompareRange(t, bus, r[0], r[1])
	}
	f := func(a, b uint8) bool {
		from, to := int(a%16), int(b%16)
		c, err := bus.CloneRange(from, to)
		if err != nil {
			return false
		}
		for i := 1; i < len(c.Changes); i++ {
			if c.Changes[i].Bits == c.Changes[i-1].Bits {
				return false
			}
		}
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}
