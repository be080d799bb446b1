// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type busWrite struct {
	time int64
	bit  int
	val  byte
}

// SynthesizeVirtualBus builds a bus from single bit signals. bits[0] is the
// least significant bit of the bus. The bus value is all x until each bit's
// first change. The returned object is standalone: it has no parent and is not
// added to the database.
//
func (db *SimDB) SynthesizeVirtualBus(bits []*Object, name string) (*Object, error) {
	return SynthesizeVirtualBus(bits, name)
}

// SynthesizeVirtualBus is SimDB.SynthesizeVirtualBus without a database.
//
func SynthesizeVirtualBus(bits []*Object, name string) (*Object, error) {
	n := len(bits)
	if n == 0 {
		return nil, errors.New("virtual bus needs at least one bit")
	}
	var ws []busWrite
	for k, o := range bits {
		if !o.IsSignal() {
			return nil, errors.Wrap(ErrNotSignal, o.Path())
		}
		if o.Signal.Width != 1 {
			return nil, errors.Wrapf(ErrNotSingleBit, "%s has width %d", o.Path(), o.Signal.Width)
		}
		for _, c := range o.Signal.Changes {
			ws = append(ws, busWrite{time: c.Time, bit: k, val: c.Bits[0]})
		}
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].time < ws[j].time })

	cur := []byte(strings.Repeat("x", n))
	var changes []ValueChange
	for _, w := range ws {
		cur[n-1-w.bit] = w.val
		if l := len(changes); l > 0 && changes[l-1].Time == w.time {
			changes[l-1].Bits = string(cur)
			continue
		}
		changes = append(changes, ValueChange{Time: w.time, Bits: string(cur)})
	}
	// coalesce
	out := changes[:0]
	for _, c := range changes {
		if l := len(out); l > 0 && out[l-1].Bits == c.Bits {
			continue
		}
		out = append(out, c)
	}

	s := &Signal{
		Width:      n,
		References: []string{name},
		ID:         "virtual-bus-" + name,
		Type:       "bus",
		Changes:    out,
	}
	return NewSignalObject([]string{name}, s), nil
}
