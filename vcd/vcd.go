// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd parses Value Change Dump files (IEEE 1364) into a flat list of
// variables with their value change timelines.
//
// Only the subset of the format needed to build an in-memory signal database is
// supported: header sections, scopes, variable declarations, time markers,
// scalar, vector and real value changes. Other directives are ignored.
//
package vcd

import (
	"fmt"
	"strings"
)

// Change is a single value change.
//
type Change struct {
	Time int64
	Bits string
}

// Var is a declared variable together with its value changes.
//
// Several variables may share the same identifier code, in which case they all
// receive the same changes.
//
type Var struct {
	ID         string   // identifier code
	Type       string   // wire, reg, real, ...
	Width      int      // number of bits
	Name       string   // declared name without dimension
	Dimension  string   // declared dimension, "[7:0]", or empty
	Scope      []string // enclosing scopes, outermost first
	References []string // full dotted names
	Changes    []Change
}

// Path returns the hierarchy path of the variable: its scope followed by its
// name.
//
func (v *Var) Path() []string {
	p := make([]string, 0, len(v.Scope)+1)
	p = append(p, v.Scope...)
	return append(p, v.Name)
}

// Trace is the result of parsing a VCD file.
//
type Trace struct {
	Vars      []*Var
	Now       int64 // last time marker
	Timescale string
	Date      string
	Version   string
	Comments  []string
}

// Var returns the first variable declared with the given dotted reference or
// nil if not found.
//
func (t *Trace) Var(reference string) *Var {
	for _, v := range t.Vars {
		for _, r := range v.References {
			if r == reference {
				return v
			}
		}
	}
	return nil
}

// ParseError is returned for malformed declarations and time markers.
//
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, strings.TrimSpace(e.Text))
}
