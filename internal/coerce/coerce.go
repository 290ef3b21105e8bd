// Package coerce converts raw CSV cell values into typed values.
//
// Coercion is deliberately strict and deterministic: a value either parses
// under the requested type or it does not, and heuristic type inference is a
// fixed cascade (int → float → bool → date → string) so the same value can
// never be accepted as two different types depending on evaluation order.
package coerce

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type is a declared or inferred column type.
type Type string

const (
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeString Type = "string"
	TypeDate   Type = "date"
	TypeBool   Type = "bool"
)

// KnownType reports whether t is one of the supported column types.
func KnownType(t Type) bool {
	switch t {
	case TypeInt, TypeFloat, TypeString, TypeDate, TypeBool:
		return true
	}
	return false
}

// numericRegex validates that a string is a valid numeric format.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are assumed
// to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02T15:04:05Z07:00",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// missingMarkers are trimmed, lowercased cell values treated as null in
// addition to the empty string.
var missingMarkers = map[string]struct{}{
	"na": {}, "n/a": {}, "null": {}, "nan": {}, "none": {},
}

// IsMissing reports whether a raw cell value represents a null/missing cell.
func IsMissing(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return true
	}
	_, ok := missingMarkers[strings.ToLower(s)]
	return ok
}

// Value is a typed cell value. Null values carry only the Null flag; exactly
// one of the typed fields is meaningful otherwise, selected by Type.
type Value struct {
	Type Type
	Null bool

	Int   int64
	Float float64
	Bool  bool
	Time  time.Time
	Str   string
}

// Null returns the null value of the given type.
func Null(t Type) Value { return Value{Type: t, Null: true} }

// ParseInt parses a strict integer value. Unlike ParseFloat it rejects
// fractional input, so "1.5" is not an int but "3" and "+3" are.
func ParseInt(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Accept float forms with a zero fraction ("3.0"), matching the
		// behavior of integer columns loaded from spreadsheet exports.
		f, ok := ParseFloat(s)
		if !ok || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// ParseFloat parses a numeric value. Scientific notation is accepted;
// currency symbols and separators are not, values must already be plain.
func ParseFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool parses common boolean spellings: true/false, t/f, yes/no, y/n, 1/0.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

// ParseDate parses a date value. Four-digit-year layouts are tried first
// (unambiguous); two-digit years are then resolved with the pivot rule.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// Coerce converts a raw cell to a typed Value. Missing cells and values that
// fail to parse under t both come back null; callers that need to tell the
// two apart should test IsMissing first.
func Coerce(raw string, t Type) Value {
	if IsMissing(raw) {
		return Null(t)
	}
	switch t {
	case TypeInt:
		if n, ok := ParseInt(raw); ok {
			return Value{Type: TypeInt, Int: n}
		}
	case TypeFloat:
		if f, ok := ParseFloat(raw); ok {
			return Value{Type: TypeFloat, Float: f}
		}
	case TypeBool:
		if b, ok := ParseBool(raw); ok {
			return Value{Type: TypeBool, Bool: b}
		}
	case TypeDate:
		if d, ok := ParseDate(raw); ok {
			return Value{Type: TypeDate, Time: d}
		}
	case TypeString:
		return Value{Type: TypeString, Str: strings.TrimSpace(raw)}
	}
	return Null(t)
}

// Infer returns the type of a single non-missing value under the fixed
// cascade int → float → bool → date → string.
func Infer(raw string) Type {
	if _, ok := ParseInt(raw); ok {
		return TypeInt
	}
	if _, ok := ParseFloat(raw); ok {
		return TypeFloat
	}
	if _, ok := ParseBool(raw); ok {
		return TypeBool
	}
	if _, ok := ParseDate(raw); ok {
		return TypeDate
	}
	return TypeString
}

// inferThreshold is the fraction of non-missing values that must agree for a
// column-level inference to pick a type narrower than string.
const inferThreshold = 0.9

// InferColumn infers a column type from its raw values. A type wins when at
// least 90% of the non-missing values parse as it, tried in cascade order.
// Columns with no non-missing values infer as string.
func InferColumn(values []string) Type {
	var total, ints, floats, bools, dates int
	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		total++
		if _, ok := ParseInt(raw); ok {
			ints++
		}
		if _, ok := ParseFloat(raw); ok {
			floats++
		}
		if _, ok := ParseBool(raw); ok {
			bools++
		}
		if _, ok := ParseDate(raw); ok {
			dates++
		}
	}
	if total == 0 {
		return TypeString
	}
	threshold := int(inferThreshold*float64(total) + 0.5)
	if threshold < 1 {
		threshold = 1
	}
	switch {
	case ints >= threshold:
		return TypeInt
	case floats >= threshold:
		return TypeFloat
	case bools >= threshold:
		return TypeBool
	case dates >= threshold:
		return TypeDate
	}
	return TypeString
}

// Numeric reports whether t is a numeric column type.
func Numeric(t Type) bool { return t == TypeInt || t == TypeFloat }
