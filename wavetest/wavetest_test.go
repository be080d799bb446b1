package wavetest_test

import (
	"reflect"
	"testing"

	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/raczben/fliplot-sub000/wavetest"
)

func TestTimeline(t *testing.T) {
	tl, err := wavetest.ParseTimeline("0@0, 1@10 X@20")
	if err != nil {
		t.Fatal(err)
	}
	want := []fl.ValueChange{{Time: 0, Bits: "0"}, {Time: 10, Bits: "1"}, {Time: 20, Bits: "x"}}
	if !reflect.DeepEqual(tl, want) {
		t.Fatalf("got %v", tl)
	}
	if s := wavetest.Format(tl); s != "0@0 1@10 x@20" {
		t.Fatalf("got %q", s)
	}
	for _, bad := range []string{"0", "@3", "1@x"} {
		if _, err = wavetest.ParseTimeline(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestCompareRange(t *testing.T) {
	s := wavetest.Signal("bus", "0000@0 0101@10 1100@20 1111@35")
	wavetest.CompareRange(t, s, 3, 0)
	wavetest.CompareRange(t, s, 2, 1)
	wavetest.CompareRange(t, s, 0, 3)
	wavetest.CompareRange(t, s, 3, 3)
}

func TestValues(t *testing.T) {
	o := wavetest.Object("top.bus", "0001@5 0010@10")
	got := wavetest.Values(o, radix.Unsigned, 0, 5, 7, 10, 100)
	want := []string{"-", "1", "1", "2", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, expected %v", got, want)
	}
}
