package waveform_test

import (
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/radix"
	"github.com/raczben/fliplot-sub000/tree"
	"github.com/raczben/fliplot-sub000/waveform"
	"github.com/raczben/fliplot-sub000/wavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSim(t *testing.T) *fl.SimDB {
	t.Helper()
	sim := fl.New()
	add := func(path, timeline string) {
		s := wavetest.Signal(path, timeline)
		_, err := sim.AddSignal(strings.Split(path, "."), s)
		require.NoError(t, err)
	}
	add("top.clk", "0@0 1@10 0@20 1@30")
	add("top.b1", "0@0 1@10")
	add("top.b0", "1@0 0@20")
	add("top.data", "00000000@0 10100101@10 11111111@20")
	temp := wavetest.Signal("top.temp", "0011111111111000000000000000000000000000000000000000000000000000@0")
	temp.Type = "real"
	_, err := sim.AddSignal([]string{"top", "temp"}, temp)
	require.NoError(t, err)
	return sim
}

func ids(rows []*waveform.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func names(rows []*waveform.Row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestDB_InsertSignal(t *testing.T) {
	db := waveform.New(newSim(t))
	clk, err := db.InsertPath("top.clk", "", -1)
	require.NoError(t, err)
	data, err := db.InsertPath("top.data", "", 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(clk.ID, "wfr-"))
	assert.NotEqual(t, clk.ID, data.ID)
	assert.Equal(t, "top.clk", clk.Name)
	assert.Equal(t, "top.data[7:0]", data.Name)
	assert.Equal(t, waveform.Bit, clk.Style)
	assert.Equal(t, waveform.Bus, data.Style)
	assert.Equal(t, "bin", clk.RadixName())
	assert.Equal(t, "hex", data.RadixName())
	assert.Equal(t, "0x", data.Prefix)
	assert.Equal(t, []string{data.ID, clk.ID}, ids(db.Visible()))
	assert.Equal(t, 2, db.Len())

	_, err = db.InsertPath("top.nope", "", -1)
	assert.Error(t, err)
	m := db.SimDB().Lookup("top")
	_, err = db.InsertSignal(m, "", -1)
	assert.Equal(t, fl.ErrNotSignal, errors.Cause(err))
}

func TestDB_groups(t *testing.T) {
	db := waveform.New(newSim(t))
	g, err := db.InsertGroup("bits", "", -1)
	require.NoError(t, err)
	clk, err := db.InsertPath("top.clk", g.ID, -1)
	require.NoError(t, err)
	data, err := db.InsertPath("top.data", "", -1)
	require.NoError(t, err)

	assert.Equal(t, waveform.Blank, g.Style)
	assert.Equal(t, "group", g.RadixName())
	assert.Equal(t, []string{g.ID, data.ID}, ids(db.Visible()), "groups start closed")
	require.NoError(t, db.Open(g.ID))
	assert.Equal(t, []string{g.ID, clk.ID, data.ID}, ids(db.Visible()))
	require.NoError(t, db.Close(g.ID))
	assert.Equal(t, []string{g.ID, clk.ID, data.ID}, ids(db.Rows()))

	// move data into the group, before clk
	require.NoError(t, db.Move(data.ID, 0, g.ID))
	db.OpenAll()
	assert.Equal(t, []string{g.ID, data.ID, clk.ID}, ids(db.Visible()))
	p, err := db.Parent(data.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, p)

	assert.Error(t, db.Move(g.ID, 0, clk.ID), "signal rows cannot hold rows")
	assert.Equal(t, tree.ErrOwnAncestor, errors.Cause(db.Move(g.ID, 0, g.ID)))

	assert.Equal(t, tree.ErrNotEmpty, errors.Cause(db.Remove(g.ID, false)))
	require.NoError(t, db.Remove(g.ID, true))
	assert.Equal(t, 0, db.Len())
	assert.Nil(t, db.Get(clk.ID))
}

func TestDB_AddAll(t *testing.T) {
	db := waveform.New(newSim(t))
	_, err := db.InsertGroup("g", "", -1)
	require.NoError(t, err)
	rows, err := db.AddAll(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.b0", "top.b1", "top.clk", "top.data[7:0]", "top.temp[63:0]"}, names(rows))
	assert.Equal(t, 5, db.Len())

	_, err = db.AddAll(false)
	require.NoError(t, err)
	assert.Equal(t, 10, db.Len())
}

func TestDB_SetRadix(t *testing.T) {
	db := waveform.New(newSim(t))
	rows, err := db.AddAll(true)
	require.NoError(t, err)
	b0, data, temp := rows[0], rows[3], rows[4]

	for _, d := range []struct {
		in, radix, prefix, value string
	}{
		{"unsigned", "u0", "", "165"},
		{"u", "u0", "", "165"},
		{"signed", "s0", "", "-91"},
		{"decimal", "s0", "", "-91"},
		{"hex", "hex", "0x", "0xa5"},
		{"HEX", "hex", "0x", "0xa5"},
		{"binary", "bin", "0b", "0b10100101"},
		{"s4", "s4", "", "-5.6875"},
	} {
		require.NoError(t, db.SetRadix(d.in, data.ID, b0.ID, temp.ID), d.in)
		assert.Equal(t, d.radix, data.RadixName(), d.in)
		assert.Equal(t, d.prefix, data.Prefix, d.in)
		assert.Equal(t, d.value, data.ValueAt(15), d.in)
		assert.Equal(t, "bin", b0.RadixName(), "bit rows are always bin")
		assert.Equal(t, "double", temp.RadixName(), "real rows are always double")
	}
	assert.Equal(t, "1.5", temp.ValueAt(0))
	assert.Equal(t, radix.ErrUnknownRadix, errors.Cause(db.SetRadix("octal", data.ID)))
	assert.Equal(t, tree.ErrNotFound, errors.Cause(db.SetRadix("hex", "wfr-nope")))
}

func TestDB_Rename(t *testing.T) {
	db := waveform.New(newSim(t))
	r, err := db.InsertPath("top.clk", "", -1)
	require.NoError(t, err)
	require.NoError(t, db.Rename(r.ID, "clock"))
	assert.Equal(t, "clock", db.Get(r.ID).Name)
	assert.Equal(t, tree.ErrNotFound, errors.Cause(db.Rename("wfr-nope", "x")))
}

func TestDB_AddVirtualBus(t *testing.T) {
	db := waveform.New(newSim(t))
	clk, err := db.InsertPath("top.clk", "", -1)
	require.NoError(t, err)
	b1, err := db.InsertPath("top.b1", "", -1)
	require.NoError(t, err)
	b0, err := db.InsertPath("top.b0", "", -1)
	require.NoError(t, err)
	data, err := db.InsertPath("top.data", "", -1)
	require.NoError(t, err)

	bus, err := db.AddVirtualBus([]string{b1.ID, b0.ID}, "pair")
	require.NoError(t, err)
	assert.Equal(t, "pair", bus.Name)
	assert.Equal(t, []string{clk.ID, b1.ID, b0.ID, bus.ID, data.ID}, ids(db.Visible()))
	wavetest.CompareTimeline(t, bus.Object.Signal.Changes, "10@0 11@10 01@20")
	require.NoError(t, db.SetRadix("u", bus.ID))
	assert.Equal(t, "3", bus.ValueAt(15))

	_, err = db.AddVirtualBus([]string{b1.ID, data.ID}, "bad")
	assert.Equal(t, fl.ErrNotSingleBit, errors.Cause(err))
	g, err := db.InsertGroup("g", "", -1)
	require.NoError(t, err)
	_, err = db.AddVirtualBus([]string{g.ID}, "bad")
	assert.Equal(t, waveform.ErrGroup, errors.Cause(err))
}

func TestDB_Expand(t *testing.T) {
	db := waveform.New(newSim(t))
	data, err := db.InsertPath("top.data", "", -1)
	require.NoError(t, err)
	bits, err := db.Expand(data.ID)
	require.NoError(t, err)
	require.Len(t, bits, 8)
	assert.Equal(t, "[7]", bits[0].Name)
	assert.Equal(t, "[0]", bits[7].Name)
	assert.Equal(t, 9, len(db.Visible()))
	assert.Equal(t, "1", bits[0].ValueAt(15))
	assert.Equal(t, "0", bits[6].ValueAt(15))

	clk, err := db.InsertPath("top.clk", "", -1)
	require.NoError(t, err)
	_, err = db.Expand(clk.ID)
	assert.Error(t, err)
}

func TestDB_ValuesAt(t *testing.T) {
	db := waveform.New(newSim(t), waveform.WithDefaultRadix("u0"))
	g, err := db.InsertGroup("g", "", -1)
	require.NoError(t, err)
	_, err = db.InsertPath("top.clk", g.ID, -1)
	require.NoError(t, err)
	_, err = db.InsertPath("top.data", "", -1)
	require.NoError(t, err)
	require.NoError(t, db.Open(g.ID))

	var got []string
	for _, v := range db.ValuesAt(20) {
		got = append(got, v.Name+"="+v.Value)
	}
	assert.Equal(t, []string{"g=", "top.clk=0", "top.data[7:0]=255"}, got)

	got = got[:0]
	for _, v := range db.ValuesAt(-5) {
		got = append(got, v.Value)
	}
	assert.Equal(t, []string{"", waveform.NA, waveform.NA}, got)
}

func TestRow_SetWaveStyle(t *testing.T) {
	db := waveform.New(newSim(t))
	data, err := db.InsertPath("top.data", "", -1)
	require.NoError(t, err)
	require.NoError(t, db.SetWaveStyle(waveform.Analog, data.ID))
	assert.Equal(t, "s0", data.RadixName(), "hex is not numeric")
	assert.Equal(t, waveform.AnalogHeight, data.Height)
	assert.Equal(t, [2]float64{-91, 0}, data.YRange)

	require.NoError(t, db.SetRadix("u0", data.ID))
	data.SetWaveStyle(waveform.Analog)
	assert.Equal(t, [2]float64{0, 255}, data.YRange)

	data.SetWaveStyle(waveform.Bus)
	assert.Equal(t, -1, data.Height)
	assert.Equal(t, [2]float64{0, 1}, data.YRange)

	s, ok := waveform.ParseWaveStyle("analog")
	assert.True(t, ok)
	assert.Equal(t, waveform.Analog, s)
	_, ok = waveform.ParseWaveStyle("fancy")
	assert.False(t, ok)
	assert.False(t, math.IsInf(data.YRange[0], 0))
}
