// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ref

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Type is the type of a lexical item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	Int
	BracketOpen
	BracketClose
	Colon
	Dot
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "character",
	Ident:        "identifier",
	Int:          "integer",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Colon:        "':'",
	Dot:          "'.'",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Item is a lexical item. Value is a string for identifiers and raw
// characters, and an int for integers.
//
type Item struct {
	Type  Type
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident, Int, Raw:
		return fmt.Sprintf("%s %v", i.Type, i.Value)
	}
	return i.Type.String()
}

// StateFn is a lexer state function. It returns the next state, or nil to
// return to the initial state.
//
type StateFn func(l *Lexer) StateFn

// Lexer is a state function driven lexer over a string.
//
type Lexer struct {
	input string
	pos   int // read position
	start int // start of the current rune
	width int
	cur   rune
	items []Item
	state StateFn
	init  StateFn
}

const eof = -1

// NewLexer returns a lexer for input starting in state init.
//
func NewLexer(input string, init StateFn) *Lexer {
	return &Lexer{input: input, init: init}
}

// Next consumes and returns the next rune, or -1 at end of input.
//
func (l *Lexer) Next() rune {
	l.start = l.pos
	if l.pos >= len(l.input) {
		l.width = 0
		l.cur = eof
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	l.cur = r
	return r
}

// Backup steps back one rune. It can be called only once per call of Next.
//
func (l *Lexer) Backup() {
	l.pos -= l.width
	l.width = 0
}

// Current returns the last rune returned by Next.
//
func (l *Lexer) Current() rune { return l.cur }

// Pos returns the byte offset of the current rune.
//
func (l *Lexer) Pos() int { return l.start }

// AcceptWhile consumes runes while f returns true.
//
func (l *Lexer) AcceptWhile(f func(rune) bool) {
	for r := l.Next(); r != eof && f(r); r = l.Next() {
	}
	if l.cur != eof {
		l.Backup()
	}
}

// Emit queues an item of type t at the current rune position.
//
func (l *Lexer) Emit(t Type, value interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.start, Value: value})
}

// EmitAt queues an item at an explicit position.
//
func (l *Lexer) EmitAt(t Type, pos int, value interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: pos, Value: value})
}

// Lex returns the next item.
//
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.state = l.init
		}
		l.state = l.state(l)
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$' || r == '\\'
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// Lexer states for references.

func lexInit(l *Lexer) StateFn {
	r := l.Next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
	case isIdentStart(r):
		return lexIdent
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '[':
		l.Emit(BracketOpen, "[")
	case r == ']':
		l.Emit(BracketClose, "]")
	case r == ':':
		l.Emit(Colon, ":")
	case r == '.':
		l.Emit(Dot, ".")
	default:
		l.Emit(Raw, string(r))
		return lexEOF
	}
	return nil
}

func lexNumber(l *Lexer) StateFn {
	pos := l.Pos()
	i := int(l.Current() - '0')
	r := l.Next()
	for '0' <= r && r <= '9' {
		i = i*10 + int(r-'0')
		r = l.Next()
	}
	if r != eof {
		l.Backup()
	}
	l.EmitAt(Int, pos, i)
	return nil
}

func lexIdent(l *Lexer) StateFn {
	pos := l.Pos()
	r := l.Next()
	for r != eof && isIdentRune(r) {
		r = l.Next()
	}
	if r != eof {
		l.Backup()
	}
	l.EmitAt(Ident, pos, l.input[pos:l.pos])
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *Lexer) StateFn {
	l.EmitAt(EOF, len(l.input), "end of input")
	return lexEOF
}

// Lex returns a lexer for references, ranges and hierarchy paths.
//
func Lex(input string) *Lexer {
	return NewLexer(input, lexInit)
}
