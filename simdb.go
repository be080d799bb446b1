// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fliplot

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/vcd"
)

// SimDB indexes the modules and signals of a simulation trace by hierarchy
// path. Every proper prefix of an indexed path is a module object.
//
type SimDB struct {
	// Now is the simulation end time.
	Now int64
	// Timescale is the trace timescale, like "1ns".
	Timescale string

	objects map[string]*Object
	log     *slog.Logger
}

// Option configures a SimDB.
//
type Option func(*SimDB)

// WithLogger sets the logger used to report recoverable conditions.
//
func WithLogger(l *slog.Logger) Option {
	return func(db *SimDB) {
		if l != nil {
			db.log = l
		}
	}
}

// New returns an empty database.
//
func New(opts ...Option) *SimDB {
	db := &SimDB{
		objects: make(map[string]*Object),
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Load returns a database initialized from trace t.
//
func Load(t *vcd.Trace, opts ...Option) (*SimDB, error) {
	db := New(opts...)
	if err := db.Init(t); err != nil {
		return nil, err
	}
	return db, nil
}

// Init resets the database and fills it from trace t. Each reference of each
// variable becomes an independent signal object.
//
func (db *SimDB) Init(t *vcd.Trace) error {
	db.objects = make(map[string]*Object)
	db.Now = t.Now
	db.Timescale = t.Timescale
	for _, v := range t.Vars {
		for _, r := range v.References {
			s := &Signal{
				Width:      v.Width,
				References: []string{r},
				ID:         v.ID,
				Type:       v.Type,
				Changes:    make([]ValueChange, len(v.Changes)),
			}
			for i, c := range v.Changes {
				s.Changes[i] = ValueChange{Time: c.Time, Bits: c.Bits}
			}
			if _, err := db.AddSignal(strings.Split(r, "."), s); err != nil {
				return err
			}
		}
	}
	db.log.Debug("database loaded", "objects", len(db.objects), "now", db.Now)
	return nil
}

func key(hier []string) string { return strings.Join(hier, ".") }

// Len returns the number of objects in the database.
//
func (db *SimDB) Len() int { return len(db.objects) }

// hasChildren returns true if any object lives below path k.
func (db *SimDB) hasChildren(k string) bool {
	p := k + "."
	for o := range db.objects {
		if strings.HasPrefix(o, p) {
			return true
		}
	}
	return false
}

// AddModule returns the module object at hier, creating it and its parent
// modules as needed.
//
func (db *SimDB) AddModule(hier ...string) (*Object, error) {
	if len(hier) == 0 {
		return nil, errors.New("empty module path")
	}
	k := key(hier)
	if o := db.objects[k]; o != nil {
		if o.Kind != Module {
			return nil, errors.Wrapf(ErrPathConflict, "%s is a signal", k)
		}
		return o, nil
	}
	if len(hier) > 1 {
		if _, err := db.AddModule(hier[:len(hier)-1]...); err != nil {
			return nil, err
		}
	}
	o := &Object{Kind: Module, Hierarchy: append([]string(nil), hier...), db: db}
	db.objects[k] = o
	return o, nil
}

// AddSignal inserts a signal object at hier, creating parent modules as needed.
// An existing signal at the same path is replaced.
//
func (db *SimDB) AddSignal(hier []string, s *Signal) (*Object, error) {
	if len(hier) == 0 {
		return nil, errors.New("empty signal path")
	}
	if s == nil || s.Width < 1 {
		return nil, errors.Errorf("invalid signal at %s", key(hier))
	}
	k := key(hier)
	if o := db.objects[k]; o != nil && o.Kind == Module && db.hasChildren(k) {
		return nil, errors.Wrapf(ErrPathConflict, "%s is a module", k)
	}
	if len(hier) > 1 {
		if _, err := db.AddModule(hier[:len(hier)-1]...); err != nil {
			return nil, err
		}
	}
	o := &Object{Kind: SignalKind, Hierarchy: append([]string(nil), hier...), Signal: s, db: db}
	db.objects[k] = o
	return o, nil
}

// Lookup returns the object at the given path or nil if not found. The path may
// be given as a single dotted string or as segments: Lookup("top.a") and
// Lookup("top", "a") are equivalent.
//
func (db *SimDB) Lookup(path ...string) *Object {
	return db.objects[key(path)]
}

// PathExists returns true if an object exists at hier. If recursive is true,
// all its proper prefixes must exist too.
//
func (db *SimDB) PathExists(hier []string, recursive bool) bool {
	if len(hier) == 0 {
		return false
	}
	if _, ok := db.objects[key(hier)]; !ok {
		return false
	}
	if recursive && len(hier) > 1 {
		return db.PathExists(hier[:len(hier)-1], true)
	}
	return true
}

func (db *SimDB) collect(f func(*Object) bool) []*Object {
	var out []*Object
	for _, o := range db.objects {
		if f(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// AllSignals returns all signal objects sorted by path.
//
func (db *SimDB) AllSignals() []*Object {
	return db.collect(func(o *Object) bool { return o.Kind == SignalKind })
}

// Modules returns all module objects sorted by path.
//
func (db *SimDB) Modules() []*Object {
	return db.collect(func(o *Object) bool { return o.Kind == Module })
}

// Children returns the objects directly below hier, sorted by path. An empty
// hier returns the top level objects.
//
func (db *SimDB) Children(hier ...string) []*Object {
	n := len(hier)
	p := key(hier)
	return db.collect(func(o *Object) bool {
		return len(o.Hierarchy) == n+1 && (n == 0 || key(o.Hierarchy[:n]) == p)
	})
}

// PadInitialValue makes sure that every signal has a value at time 0 by
// prepending an all x change where needed. It is idempotent.
//
func (db *SimDB) PadInitialValue() {
	for _, o := range db.objects {
		if o.IsSignal() {
			padSignal(o.Signal)
		}
	}
}

func padSignal(s *Signal) {
	if len(s.Changes) > 0 && s.Changes[0].Time == 0 {
		return
	}
	x := ValueChange{Time: 0, Bits: strings.Repeat("x", s.Width)}
	s.Changes = append([]ValueChange{x}, s.Changes...)
}
