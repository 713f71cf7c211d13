package frame

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the scalar type held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
)

// Value is one typed cell of a Frame. The zero value is the null marker.
// Absence of data is always represented as a null Value, never as zero.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	t    time.Time
}

func Null() Value           { return Value{} }
func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Date(t time.Time) Value {
	y, m, d := t.UTC().Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Numeric reports the value as a float64. Only Int and Float values are
// numeric; dates and strings are not.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Str returns the string payload, empty for non-string values.
func (v Value) Str() string { return v.str }

// Time returns the date payload, zero for non-date values.
func (v Value) Time() time.Time { return v.t }

// Equal compares two values for join and group purposes. Int and Float
// compare numerically, so Int(5) matches Float(5).
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == o.kind
	}
	if a, ok := v.Numeric(); ok {
		if b, bok := o.Numeric(); bok {
			return a == b
		}
		return false
	}
	switch v.kind {
	case KindString:
		return o.kind == KindString && v.str == o.str
	case KindDate:
		return o.kind == KindDate && v.t.Equal(o.t)
	}
	return false
}

// Less imposes a total order: null first, then numerics, dates and strings.
func (v Value) Less(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return v.kind == KindNull && o.kind != KindNull
	}
	a, aok := v.Numeric()
	b, bok := o.Numeric()
	if aok && bok {
		return a < b
	}
	if v.kind == KindDate && o.kind == KindDate {
		return v.t.Before(o.t)
	}
	if v.kind == KindString && o.kind == KindString {
		return v.str < o.str
	}
	return kindRank(v.kind) < kindRank(o.kind)
}

func kindRank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindInt, KindFloat:
		return 1
	case KindDate:
		return 2
	}
	return 3
}

// key returns a canonical encoding used for hash joins and grouping.
// It must agree with Equal: values that Equal produce the same key.
func (v Value) key() string {
	switch v.kind {
	case KindNull:
		return "\x00"
	case KindInt:
		return "n" + strconv.FormatFloat(float64(v.i), 'g', -1, 64)
	case KindFloat:
		return "n" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDate:
		return "d" + v.t.Format("2006-01-02")
	}
	return "s" + v.str
}

// String renders the value the way it is persisted to CSV: nulls as the empty
// string, dates as YYYY-MM-DD.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		return v.t.Format("2006-01-02")
	}
	return v.str
}

// ParseValue infers a typed value from a raw CSV cell. Empty cells become
// null; integers and floats are detected, everything else stays a string.
func ParseValue(s string) Value {
	if s == "" {
		return Null()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f)
	}
	return String(s)
}

// ParseDate parses a date cell with the given layout into a Date value.
func ParseDate(s string, layout string) (Value, error) {
	if s == "" {
		return Null(), nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Null(), fmt.Errorf("cannot parse %q as date: %w", s, err)
	}
	return Date(t), nil
}
