// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package radix converts raw simulation bit vectors into human readable values.
//
// A bit vector is a string over the 4-state alphabet {0, 1, x, z} (plus u for
// VHDL-style undefined bits), most significant bit first. Decoding never fails
// on the bit content itself: unknown bits propagate as x/u/z hex digits or as
// NaN for numeric radixes.
//
package radix

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownRadix is returned by ParseRadix for unsupported radix names.
var ErrUnknownRadix = errors.New("unknown radix")

// Kind identifies the family of a Radix.
//
type Kind int

// Radix families.
const (
	Bin Kind = iota
	Hex
	Fixed
	Float
	Double
)

// A Radix is a parsed radix specification.
//
type Radix struct {
	Kind     Kind
	Signed   bool // Fixed only
	FracBits uint // Fixed only
}

// Predefined radixes.
var (
	BinRadix    = Radix{Kind: Bin}
	HexRadix    = Radix{Kind: Hex}
	Unsigned    = Radix{Kind: Fixed}
	Signed      = Radix{Kind: Fixed, Signed: true}
	FloatRadix  = Radix{Kind: Float}
	DoubleRadix = Radix{Kind: Double}
)

// ParseRadix parses a radix name: "bin", "hex", "float", "double" or a
// fixed-point specification "[su]<fractional bits>" such as "u0" or "s8".
//
func ParseRadix(s string) (Radix, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "bin":
		return BinRadix, nil
	case "hex":
		return HexRadix, nil
	case "float":
		return FloatRadix, nil
	case "double":
		return DoubleRadix, nil
	}
	if len(name) >= 2 && (name[0] == 's' || name[0] == 'u') {
		n, err := strconv.ParseUint(name[1:], 10, 16)
		if err == nil {
			return Radix{Kind: Fixed, Signed: name[0] == 's', FracBits: uint(n)}, nil
		}
	}
	return Radix{}, errors.Wrapf(ErrUnknownRadix, "%q", s)
}

// String returns the canonical radix name. ParseRadix(r.String()) == r.
//
func (r Radix) String() string {
	switch r.Kind {
	case Bin:
		return "bin"
	case Hex:
		return "hex"
	case Float:
		return "float"
	case Double:
		return "double"
	}
	p := "u"
	if r.Signed {
		p = "s"
	}
	return p + strconv.FormatUint(uint64(r.FracBits), 10)
}

// Numeric returns true if values decoded with r are numbers.
//
func (r Radix) Numeric() bool {
	return r.Kind == Fixed || r.Kind == Float || r.Kind == Double
}

// Decode decodes bits according to r.
//
func (r Radix) Decode(bits string) Value {
	switch r.Kind {
	case Bin:
		return Text(strings.ToLower(bits))
	case Hex:
		return Text(ToHex(bits))
	case Fixed:
		return Number(ToFixed(bits, r.Signed, r.FracBits))
	case Float:
		return Number(ToFloat32(bits))
	case Double:
		return Number(ToFloat64(bits))
	}
	return Text(bits)
}

// Decode is a shorthand for parsing radix and decoding bits with it.
//
func Decode(bits string, radix string) (Value, error) {
	r, err := ParseRadix(radix)
	if err != nil {
		return Value{}, err
	}
	return r.Decode(bits), nil
}

// A Value is a decoded bit vector. It holds either text (bin and hex radixes)
// or a number.
//
type Value struct {
	text    string
	num     float64
	numeric bool
}

// Text returns a text Value.
//
func Text(s string) Value { return Value{text: s} }

// Number returns a numeric Value.
//
func Number(f float64) Value { return Value{num: f, numeric: true} }

// IsNumber returns true if v holds a number.
//
func (v Value) IsNumber() bool { return v.numeric }

// Float64 returns the numeric value of v, or NaN for text values.
//
func (v Value) Float64() float64 {
	if !v.numeric {
		return math.NaN()
	}
	return v.num
}

// String formats v. Numbers use the shortest representation that round-trips.
//
func (v Value) String() string {
	if !v.numeric {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// Equal reports whether v and w hold the same value. NaN equals NaN.
//
func (v Value) Equal(w Value) bool {
	if v.numeric != w.numeric {
		return false
	}
	if !v.numeric {
		return v.text == w.text
	}
	return v.num == w.num || math.IsNaN(v.num) && math.IsNaN(w.num)
}

// Alias resolves the user facing radix aliases found in waveform viewers to a
// radix name and the display prefix that goes with it:
//
//	unsigned, u        -> u0
//	signed, s, decimal -> s0
//	h...               -> hex, "0x"
//	b...               -> bin, "0b"
//
// Other names are returned lower-cased with an empty prefix.
//
func Alias(s string) (name string, prefix string) {
	name = strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "unsigned", "u":
		return "u0", ""
	case "signed", "s", "decimal":
		return "s0", ""
	case "float", "double":
		return name, ""
	}
	switch {
	case strings.HasPrefix(name, "h"):
		return "hex", "0x"
	case strings.HasPrefix(name, "b"):
		return "bin", "0b"
	}
	return name, ""
}
