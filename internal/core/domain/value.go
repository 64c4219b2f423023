package domain

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

// Kind tags the scalar type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a typed scalar read from a result file. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func Null() Value              { return Value{} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) Int64() int64   { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Str() string    { return v.s }

// ParseValue converts a raw CSV field to the most specific scalar type:
// integer, then float, then string. The field is trimmed first; an empty
// field stays an empty string. Parsing never fails.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return String("")
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if isDecimalFloat(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(f)
		}
	}
	return String(s)
}

// isDecimalFloat rejects the hex and underscore forms strconv accepts but a
// plain decimal/exponent literal never contains.
func isDecimalFloat(s string) bool {
	if strings.ContainsRune(s, '_') {
		return false
	}
	t := strings.TrimLeft(s, "+-")
	return !(len(t) > 1 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X'))
}

// Normalize makes a value stable for cross-backend equality: NaN becomes
// the string "NaN" and other floats are rounded to one decimal place.
func (v Value) Normalize() Value {
	if v.kind != KindFloat {
		return v
	}
	if math.IsNaN(v.f) {
		return String("NaN")
	}
	// From 1e15 up a float64 has no fractional digit left to round, and
	// scaling by 10 could overflow to Inf.
	if math.IsInf(v.f, 0) || math.Abs(v.f) >= 1e15 {
		return v
	}
	return Float(math.Round(v.f*10) / 10)
}

// Text renders the value the way it is written back to a CSV field.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindString:
		return v.s
	default:
		return ""
	}
}

func (v Value) String() string { return v.Text() }

// FormatFloat renders f as the shortest round-tripping decimal, always with
// a fractional part ("3.0", not "3"), switching to exponent notation for
// very large and very small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// identity returns a canonical encoding used for set membership. Integers
// and integral floats share an encoding so 3 and 3.0 are the same member.
func (v Value) identity() string {
	switch v.kind {
	case KindInt:
		return "n" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		if v.f == math.Trunc(v.f) && math.Abs(v.f) < 1<<63 {
			return "n" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return "s" + strconv.Itoa(len(v.s)) + ":" + v.s
	default:
		return "z"
	}
}

// CompareValues orders values: null first, then numbers (ints and floats
// compared numerically, NaN lowest), then strings.
func CompareValues(a, b Value) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 1:
		if a.kind == KindInt && b.kind == KindInt {
			return cmp.Compare(a.i, b.i)
		}
		return cmp.Compare(a.number(), b.number())
	case 2:
		return strings.Compare(a.s, b.s)
	}
	return 0
}

func (v Value) number() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

func rank(k Kind) int {
	switch k {
	case KindInt, KindFloat:
		return 1
	case KindString:
		return 2
	default:
		return 0
	}
}
