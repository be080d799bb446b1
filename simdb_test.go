package fliplot_test

import (
	"testing"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/raczben/fliplot-sub000/vcd"
	"github.com/raczben/fliplot-sub000/wavetest"
)

const wikiVCD = `$timescale 1ps $end
$scope module logic $end
$var wire 8 # data $end
$var wire 1 $ data_valid $end
$var wire 1 % en $end
$scope module sub $end
$var wire 1 % en_alias $end
$upscope $end
$upscope $end
$enddefinitions $end
#0
b10000001 #
0$
1%
#2211
#2296
b0 #
1$
#2302
0$
#2303
`

func loadWiki(t *testing.T) *fl.SimDB {
	t.Helper()
	tr, err := vcd.ParseString(wikiVCD)
	if err != nil {
		t.Fatal(err)
	}
	db, err := fl.Load(tr)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func paths(objs []*fl.Object) []string {
	var out []string
	for _, o := range objs {
		out = append(out, o.Path())
	}
	return out
}

func expectPaths(t *testing.T, got []*fl.Object, want ...string) {
	t.Helper()
	g := paths(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, expected %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("got %v, expected %v", g, want)
		}
	}
}

func TestSimDB_Init(t *testing.T) {
	db := loadWiki(t)
	if db.Now != 2303 || db.Timescale != "1ps" {
		t.Fatalf("Now = %d, Timescale = %q", db.Now, db.Timescale)
	}
	expectPaths(t, db.AllSignals(), "logic.data", "logic.data_valid", "logic.en", "logic.sub.en_alias")
	expectPaths(t, db.Modules(), "logic", "logic.sub")
	expectPaths(t, db.Children("logic"), "logic.data", "logic.data_valid", "logic.en", "logic.sub")
	expectPaths(t, db.Children(), "logic")

	en, alias := db.Lookup("logic.en"), db.Lookup("logic", "sub", "en_alias")
	if en == nil || alias == nil {
		t.Fatal("missing signals")
	}
	if en.Signal == alias.Signal {
		t.Fatal("aliased references must have independent signals")
	}
	if db.Lookup("logic", "en") != en {
		t.Fatal("Lookup by segments and by dotted path differ")
	}
	if p := alias.Parent(); p == nil || p.Path() != "logic.sub" || p.Kind != fl.Module {
		t.Fatalf("bad parent %v", p)
	}
	if db.Lookup("logic.nope") != nil {
		t.Fatal("unexpected object")
	}
	v, err := db.Lookup("logic.data").ValueAt(2300, radix.HexRadix)
	if err != nil || v.String() != "00" {
		t.Fatalf("got %v, %v", v, err)
	}
}

func TestSimDB_PathExists(t *testing.T) {
	db := fl.New()
	if _, err := db.AddSignal([]string{"top", "sub", "a"}, wavetest.Signal("a", "0@0")); err != nil {
		t.Fatal(err)
	}
	for _, d := range []struct {
		hier      []string
		recursive bool
		want      bool
	}{
		{[]string{"top"}, true, true},
		{[]string{"top", "sub"}, true, true},
		{[]string{"top", "sub", "a"}, true, true},
		{[]string{"top", "sub", "a"}, false, true},
		{[]string{"top", "nope"}, true, false},
		{[]string{"sub", "a"}, false, false},
		{nil, false, false},
	} {
		if got := db.PathExists(d.hier, d.recursive); got != d.want {
			t.Errorf("PathExists(%v, %v) = %v", d.hier, d.recursive, got)
		}
	}
}

func TestSimDB_AddModule(t *testing.T) {
	db := fl.New()
	m, err := db.AddModule("top", "mod1")
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != fl.Module || db.Lookup("top.mod1") != m || db.Lookup("top") == nil {
		t.Fatal("module not indexed")
	}
	m2, err := db.AddModule("top", "mod1")
	if err != nil || m2 != m {
		t.Fatal("AddModule is not idempotent")
	}
	if db.Len() != 2 {
		t.Fatalf("Len() = %d", db.Len())
	}
}

func TestSimDB_AddSignal(t *testing.T) {
	db := fl.New()
	a, err := db.AddSignal([]string{"top", "a"}, wavetest.Signal("top.a", "0@0 1@10"))
	if err != nil {
		t.Fatal(err)
	}
	// last writer wins
	b, err := db.AddSignal([]string{"top", "a"}, wavetest.Signal("top.a", "1@0"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b || db.Lookup("top.a") != b {
		t.Fatal("second AddSignal should replace the first one")
	}
	if _, err = db.AddSignal([]string{"top", "a", "b"}, wavetest.Signal("b", "0@0")); errors.Cause(err) != fl.ErrPathConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err = db.AddModule("top", "a"); errors.Cause(err) != fl.ErrPathConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err = db.AddSignal([]string{"top"}, wavetest.Signal("top", "0@0")); errors.Cause(err) != fl.ErrPathConflict {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err = db.AddSignal(nil, wavetest.Signal("x", "0@0")); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSimDB_PadInitialValue(t *testing.T) {
	db := fl.New()
	add := func(name string, s *fl.Signal) *fl.Signal {
		if _, err := db.AddSignal([]string{"top", name}, s); err != nil {
			t.Fatal(err)
		}
		return s
	}
	late := add("late", wavetest.Signal("late", "0001@5 0010@10"))
	early := add("early", wavetest.Signal("early", "1@0 0@3"))
	empty := add("empty", &fl.Signal{Width: 3})

	db.PadInitialValue()
	wavetest.CompareTimeline(t, late.Changes, "xxxx@0 0001@5 0010@10")
	wavetest.CompareTimeline(t, early.Changes, "1@0 0@3")
	wavetest.CompareTimeline(t, empty.Changes, "xxx@0")

	db.PadInitialValue()
	wavetest.CompareTimeline(t, late.Changes, "xxxx@0 0001@5 0010@10")
	wavetest.CompareTimeline(t, early.Changes, "1@0 0@3")
	wavetest.CompareTimeline(t, empty.Changes, "xxx@0")
}
