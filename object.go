// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/internal/ref"
	"github.com/raczben/fliplot-sub000/radix"
)

// Kind is the kind of an Object.
//
type Kind int

// Object kinds.
const (
	Module Kind = iota
	SignalKind
)

func (k Kind) String() string {
	if k == Module {
		return "module"
	}
	return "signal"
}

// MarshalText implements encoding.TextMarshaler.
//
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Object is a node of the simulation hierarchy: either a module grouping other
// objects, or a signal.
//
// The parent of an object is not stored: it is looked up by path in the
// database the object belongs to. Objects built outside of a database have no
// parent.
//
type Object struct {
	Kind      Kind     `json:"kind" yaml:"kind" msgpack:"kind"`
	Hierarchy []string `json:"hierarchy" yaml:"hierarchy" msgpack:"hierarchy"`
	Signal    *Signal  `json:"signal,omitempty" yaml:"signal,omitempty" msgpack:"signal,omitempty"`
	db        *SimDB
}

// NewSignalObject returns a standalone signal object.
//
func NewSignalObject(hierarchy []string, s *Signal) *Object {
	return &Object{Kind: SignalKind, Hierarchy: hierarchy, Signal: s}
}

// Path returns the dotted hierarchy path of the object. Bit range segments of
// clones are appended without a dot, as in top.data[7:4].
//
func (o *Object) Path() string {
	var b strings.Builder
	for i, s := range o.Hierarchy {
		if i > 0 && !strings.HasPrefix(s, "[") {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}

// Name returns the last segment of the object hierarchy.
//
func (o *Object) Name() string {
	if len(o.Hierarchy) == 0 {
		return ""
	}
	return o.Hierarchy[len(o.Hierarchy)-1]
}

// IsSignal returns true for signal objects.
//
func (o *Object) IsSignal() bool { return o.Kind == SignalKind && o.Signal != nil }

// Parent returns the parent object, or nil for top level and standalone
// objects.
//
func (o *Object) Parent() *Object {
	if o.db == nil || len(o.Hierarchy) < 2 {
		return nil
	}
	return o.db.Lookup(o.Hierarchy[:len(o.Hierarchy)-1]...)
}

// DB returns the database the object belongs to, if any.
//
func (o *Object) DB() *SimDB { return o.db }

func (o *Object) signal() (*Signal, error) {
	if !o.IsSignal() {
		return nil, errors.Wrap(ErrNotSignal, o.Path())
	}
	return o.Signal, nil
}

// Width returns the signal width, or 0 for modules.
//
func (o *Object) Width() int {
	if !o.IsSignal() {
		return 0
	}
	return o.Signal.Width
}

// ChangeIndexAt is Signal.ChangeIndexAt. It returns -1 for modules.
//
func (o *Object) ChangeIndexAt(t int64) int {
	if !o.IsSignal() {
		return -1
	}
	return o.Signal.ChangeIndexAt(t)
}

// ValueAt is Signal.ValueAt.
//
func (o *Object) ValueAt(t int64, r radix.Radix) (radix.Value, error) {
	s, err := o.signal()
	if err != nil {
		return radix.Value{}, err
	}
	return s.ValueAt(t, r)
}

// ValueAtOr is Signal.ValueAtOr. Modules return def.
//
func (o *Object) ValueAtOr(t int64, r radix.Radix, def radix.Value) radix.Value {
	if !o.IsSignal() {
		return def
	}
	return o.Signal.ValueAtOr(t, r, def)
}

// ValueAtIndex is Signal.ValueAtIndex.
//
func (o *Object) ValueAtIndex(i int, r radix.Radix) (radix.Value, error) {
	s, err := o.signal()
	if err != nil {
		return radix.Value{}, err
	}
	return s.ValueAtIndex(i, r)
}

// TimeAtIndex is Signal.TimeAtIndex.
//
func (o *Object) TimeAtIndex(i int, now int64) (int64, error) {
	s, err := o.signal()
	if err != nil {
		return 0, err
	}
	return s.TimeAtIndex(i, now)
}

// CloneRange returns a new object wrapping the part-select [from:to] of the
// object's signal. Its hierarchy is the object's followed by a segment naming
// the range ("[3]" or "[7:0]") so that its parent resolves to o.
//
func (o *Object) CloneRange(from, to int) (*Object, error) {
	s, err := o.signal()
	if err != nil {
		return nil, err
	}
	cs, err := s.cloneRange(from, to, o.Path())
	if err != nil {
		return nil, err
	}
	seg := ref.Range{MSB: from, LSB: to}.String()
	h := make([]string, 0, len(o.Hierarchy)+1)
	h = append(h, o.Hierarchy...)
	return &Object{
		Kind:      o.Kind,
		Hierarchy: append(h, seg),
		Signal:    cs,
		db:        o.db,
	}, nil
}
