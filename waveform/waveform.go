// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package waveform implements the row model of a waveform window: an ordered
// forest of signal rows and collapsible groups over a simulation database.
//
package waveform

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/tree"
)

// Root is the ID of the invisible root of all rows.
const Root = tree.Root

// DefaultRadix is the radix of new bus rows.
const DefaultRadix = "hex"

// ErrGroup is returned when an operation needs a signal row but got a group.
var ErrGroup = errors.New("row is a group")

// DB holds the rows of a waveform window.
//
type DB struct {
	sim   *fl.SimDB
	rows  *tree.Forest[*Row]
	radix string
	log   *slog.Logger
}

// Option configures a DB.
//
type Option func(*DB)

// WithLogger sets the logger of a DB.
//
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) {
		if l != nil {
			db.log = l
		}
	}
}

// WithDefaultRadix sets the radix of new bus rows.
//
func WithDefaultRadix(name string) Option {
	return func(db *DB) {
		if name != "" {
			db.radix = name
		}
	}
}

// New returns an empty waveform over sim.
//
func New(sim *fl.SimDB, opts ...Option) *DB {
	db := &DB{sim: sim, rows: tree.New[*Row](), radix: DefaultRadix, log: slog.Default()}
	for _, o := range opts {
		o(db)
	}
	return db
}

// SimDB returns the simulation database used by db.
//
func (db *DB) SimDB() *fl.SimDB { return db.sim }

// Len returns the number of rows.
//
func (db *DB) Len() int { return db.rows.Len() - 1 }

func newID() string { return "wfr-" + uuid.NewString() }

// Get returns the row with the given ID or nil.
//
func (db *DB) Get(id string) *Row {
	r, _ := db.rows.Get(id)
	return r
}

func (db *DB) insert(r *Row, parent string, pos int) (*Row, error) {
	if parent == "" {
		parent = Root
	}
	if err := db.rows.Insert(r.ID, parent, pos, r); err != nil {
		return nil, errors.Wrapf(err, "insert row %s", r.Name)
	}
	return r, nil
}

// InsertSignal inserts a row for the signal object o under parent at pos. A
// negative pos appends the row. An empty parent means Root.
//
func (db *DB) InsertSignal(o *fl.Object, parent string, pos int) (*Row, error) {
	if o == nil || !o.IsSignal() {
		return nil, errors.Wrap(fl.ErrNotSignal, "insert row")
	}
	r := newSignalRow(newID(), o)
	if err := r.SetRadix(db.radix); err != nil {
		return nil, err
	}
	return db.insert(r, parent, pos)
}

// InsertPath inserts a row for the signal at the dotted path.
//
func (db *DB) InsertPath(path string, parent string, pos int) (*Row, error) {
	o := db.sim.Lookup(path)
	if o == nil {
		return nil, errors.Errorf("signal %s not found", path)
	}
	return db.InsertSignal(o, parent, pos)
}

// InsertGroup inserts an empty group row.
//
func (db *DB) InsertGroup(name string, parent string, pos int) (*Row, error) {
	return db.insert(newGroupRow(newID(), name), parent, pos)
}

// AddAll appends a row for every signal of the simulation database, in path
// order. If clear is true, all existing rows are removed first.
//
func (db *DB) AddAll(clear bool) ([]*Row, error) {
	if clear {
		db.rows = tree.New[*Row]()
	}
	sigs := db.sim.AllSignals()
	out := make([]*Row, 0, len(sigs))
	for _, o := range sigs {
		r, err := db.InsertSignal(o, Root, -1)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	db.log.Debug("added all signals", "rows", len(out))
	return out, nil
}

// Remove removes a row. Groups with rows are only removed if recursive is true.
//
func (db *DB) Remove(id string, recursive bool) error {
	return errors.Wrapf(db.rows.Remove(id, recursive), "remove row %s", id)
}

// Move moves a row to position pos of parent. An empty parent means Root.
//
func (db *DB) Move(id string, pos int, parent string) error {
	if parent == "" {
		parent = Root
	}
	if p := db.Get(parent); p != nil && !p.IsGroup() {
		return errors.Errorf("cannot move row %s into signal row %s", id, parent)
	}
	return errors.Wrapf(db.rows.Move(id, pos, parent), "move row %s", id)
}

// Open expands a group row.
//
func (db *DB) Open(id string) error { return db.rows.Open(id, true) }

// Close collapses a group row.
//
func (db *DB) Close(id string) error { return db.rows.Close(id) }

// OpenAll expands all rows.
//
func (db *DB) OpenAll() { db.rows.OpenAll() }

// CloseAll collapses all rows.
//
func (db *DB) CloseAll() { db.rows.CloseAll() }

// Parent returns the ID of the parent of a row.
//
func (db *DB) Parent(id string) (string, error) { return db.rows.Parent(id) }

// Children returns the rows directly under id.
//
func (db *DB) Children(id string) []*Row {
	return db.resolve(db.rows.Children(id))
}

// Rename sets the display name of a row.
//
func (db *DB) Rename(id, name string) error {
	r := db.Get(id)
	if r == nil {
		return errors.Wrapf(tree.ErrNotFound, "rename row %s", id)
	}
	r.Name = name
	return nil
}

// SetRadix sets the radix of the given rows. See Row.SetRadix.
//
func (db *DB) SetRadix(name string, ids ...string) error {
	for _, id := range ids {
		r := db.Get(id)
		if r == nil {
			return errors.Wrapf(tree.ErrNotFound, "set radix of row %s", id)
		}
		if err := r.SetRadix(name); err != nil {
			return errors.Wrapf(err, "set radix of row %s", id)
		}
	}
	return nil
}

// SetWaveStyle sets the wave style of the given rows.
//
func (db *DB) SetWaveStyle(s WaveStyle, ids ...string) error {
	for _, id := range ids {
		r := db.Get(id)
		if r == nil {
			return errors.Wrapf(tree.ErrNotFound, "set wave style of row %s", id)
		}
		r.SetWaveStyle(s)
	}
	return nil
}

func (db *DB) signalRows(ids []string) ([]*fl.Object, error) {
	objs := make([]*fl.Object, 0, len(ids))
	for _, id := range ids {
		r := db.Get(id)
		if r == nil {
			return nil, errors.Wrapf(tree.ErrNotFound, "row %s", id)
		}
		if r.IsGroup() {
			return nil, errors.Wrapf(ErrGroup, "row %s", id)
		}
		objs = append(objs, r.Object)
	}
	return objs, nil
}

// AddVirtualBus synthesizes a bus from the single bit signal rows ids, the
// first one being bit 0, and inserts it right after the last of them.
//
func (db *DB) AddVirtualBus(ids []string, name string) (*Row, error) {
	objs, err := db.signalRows(ids)
	if err != nil {
		return nil, err
	}
	bus, err := db.sim.SynthesizeVirtualBus(objs, name)
	if err != nil {
		return nil, err
	}
	last := ids[len(ids)-1]
	parent, err := db.rows.Parent(last)
	if err != nil {
		return nil, err
	}
	pos := indexOf(db.rows.Children(parent), last) + 1
	r, err := db.InsertSignal(bus, parent, pos)
	if err != nil {
		return nil, err
	}
	r.Name = name
	db.log.Debug("virtual bus added", "name", name, "width", bus.Width())
	return r, nil
}

// Expand inserts one child row per bit under the bus row id, MSB first, and
// opens it.
//
func (db *DB) Expand(id string) ([]*Row, error) {
	r := db.Get(id)
	if r == nil {
		return nil, errors.Wrapf(tree.ErrNotFound, "expand row %s", id)
	}
	if r.IsGroup() {
		return nil, errors.Wrapf(ErrGroup, "expand row %s", id)
	}
	if r.IsBit() || r.IsReal() {
		return nil, errors.Errorf("row %s has no bits to expand", id)
	}
	w := r.Object.Width()
	out := make([]*Row, 0, w)
	for i := w - 1; i >= 0; i-- {
		o, err := r.Object.CloneRange(i, i)
		if err != nil {
			return out, err
		}
		b, err := db.InsertSignal(o, id, -1)
		if err != nil {
			return out, err
		}
		b.Name = o.Name()
		out = append(out, b)
	}
	return out, db.rows.Open(id, true)
}

// RowValue is the value of a row at a given time.
//
type RowValue struct {
	ID    string `json:"id" yaml:"id" msgpack:"id"`
	Name  string `json:"name" yaml:"name" msgpack:"name"`
	Radix string `json:"radix" yaml:"radix" msgpack:"radix"`
	Value string `json:"value" yaml:"value" msgpack:"value"`
}

// ValuesAt returns the values of all visible rows at time t.
//
func (db *DB) ValuesAt(t int64) []RowValue {
	vis := db.Visible()
	out := make([]RowValue, len(vis))
	for i, r := range vis {
		out[i] = RowValue{ID: r.ID, Name: r.Name, Radix: r.RadixName(), Value: r.ValueAt(t)}
	}
	return out
}

// Visible returns the visible rows in display order.
//
func (db *DB) Visible() []*Row {
	return db.resolve(db.rows.Visible())
}

// Rows returns all rows in display order, including rows in closed groups.
//
func (db *DB) Rows() []*Row {
	return db.resolve(db.rows.Traverse(Root, tree.Preorder, true))
}

func (db *DB) resolve(ids []string) []*Row {
	out := make([]*Row, 0, len(ids))
	for _, id := range ids {
		if r := db.Get(id); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func indexOf(s []string, id string) int {
	for i, v := range s {
		if v == id {
			return i
		}
	}
	return -1
}
