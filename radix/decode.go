// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package radix

import (
	"math"
	"math/big"
	"strings"
)

const hexDigits = "0123456789abcdef"

// ToHex converts bits to hexadecimal, one digit per 4-bit group counted from the
// least significant end. A group holding unknown bits becomes x, u or z (in
// this order of priority). Symbols other than 0, 1, x, u and z count as x.
//
func ToHex(bits string) string {
	if bits == "" {
		return ""
	}
	bits = strings.ToLower(bits)
	if pad := len(bits) % 4; pad != 0 {
		bits = strings.Repeat("0", 4-pad) + bits
	}
	out := make([]byte, len(bits)/4)
	for i := range out {
		out[i] = hexGroup(bits[i*4 : i*4+4])
	}
	return string(out)
}

func hexGroup(g string) byte {
	var d byte
	var x, u, z bool
	for i := 0; i < len(g); i++ {
		switch g[i] {
		case '0':
			d <<= 1
		case '1':
			d = d<<1 | 1
		case 'u':
			u = true
		case 'z':
			z = true
		default:
			x = true
		}
	}
	switch {
	case x:
		return 'x'
	case u:
		return 'u'
	case z:
		return 'z'
	}
	return hexDigits[d]
}

func isBinary(bits string) bool {
	if bits == "" {
		return false
	}
	for i := 0; i < len(bits); i++ {
		if bits[i] != '0' && bits[i] != '1' {
			return false
		}
	}
	return true
}

// ToFixed interprets bits as a fixed-point number with fracBits fractional
// bits. If signed is true, bits is in two's complement. Any non-binary bit
// yields NaN.
//
func ToFixed(bits string, signed bool, fracBits uint) float64 {
	if !isBinary(bits) {
		return math.NaN()
	}
	if len(bits) <= 53 && fracBits < 1024 {
		v := float64(bitsToUint(bits))
		if signed && bits[0] == '1' {
			v -= math.Ldexp(1, len(bits))
		}
		return math.Ldexp(v, -int(fracBits))
	}
	// wide vectors
	m, _ := new(big.Int).SetString(bits, 2)
	if signed && bits[0] == '1' {
		m.Sub(m, new(big.Int).Lsh(big.NewInt(1), uint(len(bits))))
	}
	f := new(big.Float).SetInt(m)
	f.SetMantExp(f, -int(fracBits))
	v, _ := f.Float64()
	return v
}

func bitsToUint(bits string) uint64 {
	var m uint64
	for i := 0; i < len(bits); i++ {
		m = m<<1 | uint64(bits[i]-'0')
	}
	return m
}

// ToFloat32 interprets a 32 bit vector as an IEEE-754 single precision
// number (1 sign bit, 8 exponent bits, 23 mantissa bits). Any other length or a
// non-binary bit yields NaN.
//
func ToFloat32(bits string) float64 {
	if len(bits) != 32 || !isBinary(bits) {
		return math.NaN()
	}
	return float64(math.Float32frombits(uint32(bitsToUint(bits))))
}

// ToFloat64 interprets a 64 bit vector as an IEEE-754 double precision
// number (1 sign bit, 11 exponent bits, 52 mantissa bits). Any other length or
// a non-binary bit yields NaN.
//
func ToFloat64(bits string) float64 {
	if len(bits) != 64 || !isBinary(bits) {
		return math.NaN()
	}
	return math.Float64frombits(bitsToUint(bits))
}

// FromFloat64 returns the 64 bit IEEE-754 pattern of f, msb first. It is the
// inverse of ToFloat64 and is used to store real valued signals as bit vectors.
//
func FromFloat64(f float64) string {
	const zeros = "0000000000000000000000000000000000000000000000000000000000000000"
	s := new(big.Int).SetUint64(math.Float64bits(f)).Text(2)
	return zeros[len(s):] + s
}
