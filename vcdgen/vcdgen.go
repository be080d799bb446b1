// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcdgen writes Value Change Dump files.
//
// A Writer emits the declaration section (timescale, scopes and variables)
// followed by time markers and value changes. It also provides a few
// generators for the synthetic waveforms used in tests and benchmarks.
//
// Errors are sticky: the first error is kept and returned by Err and Flush,
// and all subsequent calls are no-ops.
//
package vcdgen

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Identifier codes are allocated from this range of printable characters.
const (
	idFirst = '!'
	idLast  = '~'
	idBase  = idLast - idFirst + 1
)

// Var is a declared variable.
//
type Var struct {
	ID    string
	Type  string
	Width int
	Name  string
}

// Writer writes VCD text to an underlying io.Writer.
//
type Writer struct {
	w       *bufio.Writer
	err     error
	nextID  int
	depth   int
	defined bool
	started bool
	now     int64
}

// NewWriter returns a new Writer writing to w.
//
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// identifier returns the n-th identifier code ("!", "\"", ..., "~", "!!", ...).
func identifier(n int) string {
	var b []byte
	for {
		b = append(b, byte(idFirst+n%idBase))
		n = n/idBase - 1
		if n < 0 {
			return string(b)
		}
	}
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) line(s ...string) {
	if w.err != nil {
		return
	}
	for _, p := range s {
		if _, err := w.w.WriteString(p); err != nil {
			w.setErr(errors.Wrap(err, "write VCD"))
			return
		}
	}
	if err := w.w.WriteByte('\n'); err != nil {
		w.setErr(errors.Wrap(err, "write VCD"))
	}
}

func (w *Writer) declaring(what string) bool {
	if w.err != nil {
		return false
	}
	if w.defined {
		w.setErr(errors.Errorf("%s after $enddefinitions", what))
		return false
	}
	return true
}

// Comment writes a $comment section.
//
func (w *Writer) Comment(text string) {
	w.line("$comment ", text, " $end")
}

// Date writes a $date section.
//
func (w *Writer) Date(text string) {
	if w.declaring("$date") {
		w.line("$date ", text, " $end")
	}
}

// Version writes a $version section.
//
func (w *Writer) Version(text string) {
	if w.declaring("$version") {
		w.line("$version ", text, " $end")
	}
}

// Timescale writes a $timescale section. ts is a time unit like "1ns".
//
func (w *Writer) Timescale(ts string) {
	if w.declaring("$timescale") {
		w.line("$timescale ", ts, " $end")
	}
}

// Scope opens a new scope of the given kind (module, task, function, begin,
// fork).
//
func (w *Writer) Scope(kind, name string) {
	if !w.declaring("$scope") {
		return
	}
	if name == "" || strings.ContainsAny(name, " \t\n") {
		w.setErr(errors.Errorf("invalid scope name %q", name))
		return
	}
	w.depth++
	w.line("$scope ", kind, " ", name, " $end")
}

// Upscope closes the current scope.
//
func (w *Writer) Upscope() {
	if !w.declaring("$upscope") {
		return
	}
	if w.depth == 0 {
		w.setErr(errors.New("$upscope at top level"))
		return
	}
	w.depth--
	w.line("$upscope $end")
}

// Var declares a new variable in the current scope and returns it. The name may
// include a dimension, like "data[7:0]". Variables of type real are always 64
// bits wide.
//
func (w *Writer) Var(typ string, width int, name string) *Var {
	if !w.declaring("$var") {
		return nil
	}
	if typ == "real" {
		width = 64
	}
	if width < 1 {
		w.setErr(errors.Errorf("invalid width %d for variable %s", width, name))
		return nil
	}
	if name == "" || strings.ContainsAny(name, " \t\n") {
		w.setErr(errors.Errorf("invalid variable name %q", name))
		return nil
	}
	v := &Var{ID: identifier(w.nextID), Type: typ, Width: width, Name: name}
	w.nextID++
	w.line("$var ", typ, " ", strconv.Itoa(width), " ", v.ID, " ", name, " $end")
	return v
}

// Alias declares a variable sharing the identifier code of v.
//
func (w *Writer) Alias(v *Var, name string) *Var {
	if !w.declaring("$var") || v == nil {
		return nil
	}
	a := &Var{ID: v.ID, Type: v.Type, Width: v.Width, Name: name}
	w.line("$var ", a.Type, " ", strconv.Itoa(a.Width), " ", a.ID, " ", name, " $end")
	return a
}

// EndDefinitions closes any open scope and ends the declaration section.
//
func (w *Writer) EndDefinitions() {
	if !w.declaring("$enddefinitions") {
		return
	}
	for w.depth > 0 {
		w.Upscope()
	}
	w.line("$enddefinitions $end")
	w.defined = true
}

func (w *Writer) changing() bool {
	if w.err != nil {
		return false
	}
	if !w.defined {
		w.EndDefinitions()
	}
	return w.err == nil
}

// Time writes a time marker. Times must be non-decreasing. Writing the current
// time again is a no-op.
//
func (w *Writer) Time(t int64) {
	if !w.changing() {
		return
	}
	switch {
	case t < 0:
		w.setErr(errors.Errorf("negative time %d", t))
		return
	case w.started && t < w.now:
		w.setErr(errors.Errorf("time %d before current time %d", t, w.now))
		return
	case w.started && t == w.now:
		return
	}
	w.started = true
	w.now = t
	w.line("#", strconv.FormatInt(t, 10))
}

// Now returns the last written time.
//
func (w *Writer) Now() int64 { return w.now }

func (w *Writer) change(v *Var, bits string) {
	if v == nil {
		w.setErr(errors.New("value change for undeclared variable"))
		return
	}
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '0', '1', 'x', 'X', 'z', 'Z', 'u', 'U':
		default:
			w.setErr(errors.Errorf("invalid value %q for variable %s", bits, v.Name))
			return
		}
	}
	switch {
	case bits == "":
		w.setErr(errors.Errorf("empty value for variable %s", v.Name))
	case v.Width == 1 && len(bits) == 1:
		w.line(bits, v.ID)
	default:
		w.line("b", bits, " ", v.ID)
	}
}

// Change writes a value change for v at the current time.
//
func (w *Writer) Change(v *Var, bits string) {
	if w.changing() {
		w.change(v, bits)
	}
}

// ChangeReal writes a real value change for v at the current time.
//
func (w *Writer) ChangeReal(v *Var, f float64) {
	if !w.changing() {
		return
	}
	if v == nil {
		w.setErr(errors.New("value change for undeclared variable"))
		return
	}
	w.line("r", strconv.FormatFloat(f, 'g', -1, 64), " ", v.ID)
}

// Value is a variable and its bits.
//
type Value struct {
	Var  *Var
	Bits string
}

// DumpVars writes a $dumpvars block with the given initial values.
//
func (w *Writer) DumpVars(vals ...Value) {
	if !w.changing() {
		return
	}
	w.line("$dumpvars")
	for _, v := range vals {
		w.change(v.Var, v.Bits)
	}
	w.line("$end")
}

// Err returns the first error that occurred.
//
func (w *Writer) Err() error { return w.err }

// Flush writes any buffered data to the underlying io.Writer and returns the
// first error that occurred.
//
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.setErr(errors.Wrap(err, "flush VCD"))
	}
	return w.err
}
