// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package ref parses signal references: dotted hierarchy paths optionally
// followed by a bit index or a part-select, like top.cpu.data[7:0].
//
package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Range is a Verilog style bit range [MSB:LSB]. MSB may be lower than LSB for
// ascending ranges. A single bit has MSB == LSB.
//
type Range struct {
	MSB int
	LSB int
}

// Width returns the number of bits in the range.
//
func (r Range) Width() int {
	if r.MSB >= r.LSB {
		return r.MSB - r.LSB + 1
	}
	return r.LSB - r.MSB + 1
}

// String returns [i] for single bits and [msb:lsb] otherwise.
//
func (r Range) String() string {
	if r.MSB == r.LSB {
		return "[" + strconv.Itoa(r.MSB) + "]"
	}
	return "[" + strconv.Itoa(r.MSB) + ":" + strconv.Itoa(r.LSB) + "]"
}

// Ref is a parsed reference.
//
type Ref struct {
	Path  []string
	Range *Range
}

// Name returns the dotted path.
//
func (r *Ref) Name() string {
	return strings.Join(r.Path, ".")
}

// String returns the reference in its canonical form.
//
func (r *Ref) String() string {
	if r.Range == nil {
		return r.Name()
	}
	return r.Name() + r.Range.String()
}

// Parser parses a single input string.
//
type Parser struct {
	Input string
	l     *Lexer
	i     Item
}

func (p *Parser) next() {
	if p.l == nil {
		p.l = Lex(p.Input)
	}
	p.i = p.l.Lex()
}

func (p *Parser) errorf(msg string, args ...interface{}) error {
	return errors.Errorf("in %q at pos %d: %s", p.Input, p.i.Pos+1, fmt.Sprintf(msg, args...))
}

// path parses ident ('.' ident)*.
func (p *Parser) path() ([]string, error) {
	var segs []string
	for {
		if p.i.Type != Ident {
			return nil, p.errorf("expected identifier, got %s", p.i)
		}
		segs = append(segs, p.i.Value.(string))
		p.next()
		if p.i.Type != Dot {
			return segs, nil
		}
		p.next()
	}
}

// rng parses int (':' int)? up to, but not including, a closing bracket.
func (p *Parser) rng() (*Range, error) {
	if p.i.Type != Int {
		return nil, p.errorf("integer value expected, got %s", p.i)
	}
	msb := p.i.Value.(int)
	lsb := msb
	p.next()
	if p.i.Type == Colon {
		p.next()
		if p.i.Type != Int {
			return nil, p.errorf("integer value expected after ':', got %s", p.i)
		}
		lsb = p.i.Value.(int)
		p.next()
	}
	return &Range{MSB: msb, LSB: lsb}, nil
}

func (p *Parser) bracketRange() (*Range, error) {
	if p.i.Type != BracketOpen {
		return nil, p.errorf("expected '[', got %s", p.i)
	}
	p.next()
	r, err := p.rng()
	if err != nil {
		return nil, err
	}
	if p.i.Type != BracketClose {
		return nil, p.errorf("closing ']' expected after index or range")
	}
	p.next()
	return r, nil
}

func (p *Parser) expectEOF() error {
	if p.i.Type != EOF {
		return p.errorf("unexpected %s", p.i)
	}
	return nil
}

// Ref parses the whole input as a reference.
//
func (p *Parser) Ref() (*Ref, error) {
	p.next()
	path, err := p.path()
	if err != nil {
		return nil, err
	}
	r := &Ref{Path: path}
	if p.i.Type == BracketOpen {
		if r.Range, err = p.bracketRange(); err != nil {
			return nil, err
		}
	}
	if err = p.expectEOF(); err != nil {
		return nil, err
	}
	return r, nil
}

// Range parses the whole input as a range, with or without brackets.
//
func (p *Parser) Range() (*Range, error) {
	p.next()
	var (
		r   *Range
		err error
	)
	if p.i.Type == BracketOpen {
		r, err = p.bracketRange()
	} else {
		r, err = p.rng()
	}
	if err != nil {
		return nil, err
	}
	if err = p.expectEOF(); err != nil {
		return nil, err
	}
	return r, nil
}

// Parse parses a reference like "top.data[7:0]".
//
func Parse(s string) (*Ref, error) {
	p := Parser{Input: s}
	return p.Ref()
}

// ParseRange parses a range like "7:0", "[7:0]", "3" or "[3]".
//
func ParseRange(s string) (*Range, error) {
	p := Parser{Input: s}
	return p.Range()
}

// SplitPath splits a dotted hierarchy path into its segments.
//
func SplitPath(s string) ([]string, error) {
	p := Parser{Input: s}
	p.next()
	path, err := p.path()
	if err != nil {
		return nil, err
	}
	if err = p.expectEOF(); err != nil {
		return nil, err
	}
	return path, nil
}

// SplitDimension splits a declared variable name like "data[7:0]" into its base
// name and its dimension ("[7:0]"). Names that do not carry a valid trailing
// dimension are returned unchanged with an empty dimension.
//
func SplitDimension(name string) (base string, dim string) {
	i := strings.IndexByte(name, '[')
	if i <= 0 {
		return name, ""
	}
	if _, err := ParseRange(name[i:]); err != nil {
		return name, ""
	}
	return strings.TrimSpace(name[:i]), name[i:]
}
