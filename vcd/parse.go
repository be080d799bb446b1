// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/raczben/fliplot-sub000/internal/ref"
	"github.com/raczben/fliplot-sub000/radix"
)

// Parser holds parsing options. The zero value is ready to use.
//
type Parser struct {
	// KeepDuplicates keeps value changes identical to the previous value of a
	// variable. By default, they are dropped.
	KeepDuplicates bool
	// Logger receives warnings about ignored input. Defaults to slog.Default().
	Logger *slog.Logger
}

// Parse parses the VCD text read from r.
//
func Parse(r io.Reader) (*Trace, error) {
	var p Parser
	return p.Parse(r)
}

// ParseString parses VCD text.
//
func ParseString(s string) (*Trace, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses the named VCD file.
//
func ParseFile(name string) (*Trace, error) {
	var p Parser
	return p.ParseFile(name)
}

// ParseFile parses the named VCD file.
//
func (p *Parser) ParseFile(name string) (*Trace, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open VCD file")
	}
	defer f.Close()
	t, err := p.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return t, nil
}

// header sections whose content is captured as text.
const (
	secNone = iota
	secComment
	secTimescale
	secDate
	secVersion
	secDump
)

var sections = map[string]int{
	"$comment":   secComment,
	"$timescale": secTimescale,
	"$date":      secDate,
	"$version":   secVersion,
	"$dumpvars":  secDump,
	"$dumpall":   secDump,
	"$dumpon":    secDump,
	"$dumpoff":   secDump,
}

type state struct {
	*Parser
	log     *slog.Logger
	t       *Trace
	scope   []string
	time    int64
	ids     map[string][]*Var
	section int
	text    []string
	line    int
	raw     string
}

// Parse parses the VCD text read from r.
//
func (p *Parser) Parse(r io.Reader) (*Trace, error) {
	s := &state{
		Parser: p,
		log:    p.Logger,
		t:      &Trace{},
		ids:    make(map[string][]*Var),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			s.line++
			s.raw = line
			if perr := s.parseLine(strings.TrimSpace(line)); perr != nil {
				return nil, perr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read VCD")
		}
	}
	if s.section != secNone {
		s.log.Warn("unterminated section at end of input", "line", s.line)
	}
	return s.t, nil
}

func (s *state) errorf(msg string, args ...interface{}) error {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &ParseError{Line: s.line, Text: s.raw, Msg: msg}
}

func (s *state) parseLine(line string) error {
	if line == "" {
		return nil
	}
	if s.section != secNone && s.section != secDump {
		return s.sectionText(line)
	}
	if line[0] == '$' {
		return s.directive(line)
	}
	if line[0] == '#' {
		return s.timeMarker(line)
	}
	s.valueChange(line)
	return nil
}

// sectionText accumulates the content of a multi-line header section.
func (s *state) sectionText(line string) error {
	end := strings.Index(line, "$end")
	if end < 0 {
		s.text = append(s.text, line)
		return nil
	}
	if txt := strings.TrimSpace(line[:end]); txt != "" {
		s.text = append(s.text, txt)
	}
	s.closeSection()
	return nil
}

func (s *state) closeSection() {
	txt := strings.Join(s.text, " ")
	switch s.section {
	case secComment:
		s.t.Comments = append(s.t.Comments, txt)
	case secTimescale:
		s.t.Timescale = strings.Join(strings.Fields(txt), "")
	case secDate:
		s.t.Date = txt
	case secVersion:
		s.t.Version = txt
	}
	s.section = secNone
	s.text = s.text[:0]
}

func (s *state) directive(line string) error {
	fields := strings.Fields(line)
	kw := fields[0]
	switch kw {
	case "$end":
		if s.section == secDump {
			s.section = secNone
			return nil
		}
		s.log.Warn("unmatched $end", "line", s.line)
		return nil
	case "$scope":
		if len(fields) < 3 || fields[2] == "$end" {
			return s.errorf("missing scope name")
		}
		s.scope = append(s.scope, fields[2])
		return nil
	case "$upscope":
		if len(s.scope) == 0 {
			s.log.Warn("$upscope at top level", "line", s.line)
			return nil
		}
		s.scope = s.scope[:len(s.scope)-1]
		return nil
	case "$var":
		return s.declare(fields)
	case "$enddefinitions":
		if s.section != secNone {
			s.log.Warn("unterminated section before $enddefinitions", "line", s.line)
			s.section = secNone
		}
		return nil
	}
	sec, ok := sections[kw]
	if !ok {
		s.log.Debug("ignoring directive", "line", s.line, "directive", kw)
		return nil
	}
	s.section = sec
	rest := fields[1:]
	if sec == secDump {
		var closed bool
		if n := len(rest); n > 0 && rest[n-1] == "$end" {
			rest, closed = rest[:n-1], true
		}
		for i := 0; i < len(rest); i++ {
			v := rest[i]
			if (v[0] == 'b' || v[0] == 'B' || v[0] == 'r' || v[0] == 'R') && i+1 < len(rest) {
				v += " " + rest[i+1]
				i++
			}
			s.valueChange(v)
		}
		if closed {
			s.section = secNone
		}
		return nil
	}
	if len(rest) == 0 {
		return nil
	}
	return s.sectionText(strings.Join(rest, " "))
}

// declare handles "$var type width id name [dim] $end".
func (s *state) declare(fields []string) error {
	if n := len(fields); n > 0 && fields[n-1] == "$end" {
		fields = fields[:n-1]
	}
	if len(fields) < 5 {
		return s.errorf("malformed $var declaration")
	}
	width, err := strconv.Atoi(fields[2])
	if err != nil || width < 1 {
		return s.errorf("invalid variable width %q", fields[2])
	}
	v := &Var{
		Type:  fields[1],
		Width: width,
		ID:    fields[3],
		Scope: append([]string(nil), s.scope...),
	}
	if v.Type == "real" {
		// real values are stored as their IEEE-754 double bit pattern
		v.Width = 64
	}
	v.Name, v.Dimension = ref.SplitDimension(fields[4])
	if v.Dimension == "" && len(fields) > 5 {
		v.Dimension = strings.Join(fields[5:], "")
	}
	v.References = []string{strings.Join(v.Path(), ".")}
	s.t.Vars = append(s.t.Vars, v)
	s.ids[v.ID] = append(s.ids[v.ID], v)
	return nil
}

func (s *state) timeMarker(line string) error {
	t, err := strconv.ParseInt(strings.TrimSpace(line[1:]), 10, 64)
	if err != nil || t < 0 {
		return s.errorf("invalid time marker")
	}
	s.time = t
	if t > s.t.Now {
		s.t.Now = t
	}
	return nil
}

func (s *state) valueChange(line string) {
	var bits, id string
	switch c := line[0]; c {
	case '0', '1', 'x', 'X', 'z', 'Z', 'u', 'U':
		bits, id = line[:1], strings.TrimSpace(line[1:])
	case 'b', 'B':
		f := strings.Fields(line[1:])
		if len(f) != 2 {
			s.log.Warn("malformed vector value change", "line", s.line, "text", line)
			return
		}
		bits, id = f[0], f[1]
	case 'r', 'R':
		f := strings.Fields(line[1:])
		if len(f) != 2 {
			s.log.Warn("malformed real value change", "line", s.line, "text", line)
			return
		}
		r, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			s.log.Warn("malformed real value", "line", s.line, "text", line)
			return
		}
		bits, id = radix.FromFloat64(r), f[1]
	default:
		s.log.Debug("ignoring line", "line", s.line, "text", line)
		return
	}
	vars, ok := s.ids[id]
	if !ok || id == "" {
		s.log.Warn("value change for unknown identifier", "line", s.line, "id", id, "time", s.time)
		return
	}
	bits = strings.ToLower(bits)
	for _, v := range vars {
		b := extend(bits, v.Width)
		if n := len(v.Changes); n > 0 && !s.KeepDuplicates && v.Changes[n-1].Bits == b {
			continue
		}
		v.Changes = append(v.Changes, Change{Time: s.time, Bits: b})
	}
}

// extend resizes bits to width. Shorter vectors are left-extended with x or z
// if their leftmost bit is x or z, with 0 otherwise. Longer vectors keep their
// rightmost bits.
//
func extend(bits string, width int) string {
	n := len(bits)
	switch {
	case n == width:
		return bits
	case n > width:
		return bits[n-width:]
	}
	pad := "0"
	if bits[0] == 'x' || bits[0] == 'z' {
		pad = bits[:1]
	}
	return strings.Repeat(pad, width-n) + bits
}
