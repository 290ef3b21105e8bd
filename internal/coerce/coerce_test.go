package coerce

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseInt / ParseFloat Tests
// ----------------------------------------------------------------------------

func TestParseInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantOK  bool
	}{
		{name: "plain integer", input: "42", want: 42, wantOK: true},
		{name: "negative", input: "-7", want: -7, wantOK: true},
		{name: "explicit plus", input: "+3", want: 3, wantOK: true},
		{name: "whitespace padded", input: "  19 ", want: 19, wantOK: true},
		{name: "zero fraction float", input: "3.0", want: 3, wantOK: true},
		{name: "fractional", input: "1.5", wantOK: false},
		{name: "text", input: "abc", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInt(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseInt(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "decimal", input: "12.5", want: 12.5, wantOK: true},
		{name: "integer form", input: "12", want: 12, wantOK: true},
		{name: "scientific", input: "1e3", want: 1000, wantOK: true},
		{name: "leading dot", input: ".5", want: 0.5, wantOK: true},
		{name: "currency rejected", input: "$12.50", wantOK: false},
		{name: "thousands separator rejected", input: "1,234", wantOK: false},
		{name: "text", input: "twelve", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseFloat(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseBool / ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	truthy := []string{"true", "TRUE", "t", "yes", "Y", "1"}
	falsy := []string{"false", "f", "no", "N", "0"}
	invalid := []string{"", "2", "maybe", "truthy"}

	for _, s := range truthy {
		if b, ok := ParseBool(s); !ok || !b {
			t.Errorf("ParseBool(%q) = (%v, %v), want (true, true)", s, b, ok)
		}
	}
	for _, s := range falsy {
		if b, ok := ParseBool(s); !ok || b {
			t.Errorf("ParseBool(%q) = (%v, %v), want (false, true)", s, b, ok)
		}
	}
	for _, s := range invalid {
		if _, ok := ParseBool(s); ok {
			t.Errorf("ParseBool(%q) accepted, want rejection", s)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string // expected date in 2006-01-02 form
		wantOK bool
	}{
		{name: "iso", input: "2024-03-15", want: "2024-03-15", wantOK: true},
		{name: "us slashes", input: "3/15/2024", want: "2024-03-15", wantOK: true},
		{name: "compact", input: "20240315", want: "2024-03-15", wantOK: true},
		{name: "iso datetime", input: "2024-03-15 10:30:00", want: "2024-03-15", wantOK: true},
		{name: "month name", input: "Mar 15, 2024", want: "2024-03-15", wantOK: true},
		{name: "two digit year past", input: "3/15/98", want: "1998-03-15", wantOK: true},
		{name: "not a date", input: "yesterday", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.Format(time.DateOnly) != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(time.DateOnly), tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Missing markers and Coerce
// ----------------------------------------------------------------------------

func TestIsMissing(t *testing.T) {
	missing := []string{"", "  ", "NA", "n/a", "null", "NaN", "None"}
	present := []string{"0", "false", "-", "x"}

	for _, s := range missing {
		if !IsMissing(s) {
			t.Errorf("IsMissing(%q) = false, want true", s)
		}
	}
	for _, s := range present {
		if IsMissing(s) {
			t.Errorf("IsMissing(%q) = true, want false", s)
		}
	}
}

func TestCoerce(t *testing.T) {
	if v := Coerce("42", TypeInt); v.Null || v.Int != 42 {
		t.Errorf("Coerce int: got %+v", v)
	}
	if v := Coerce("abc", TypeInt); !v.Null {
		t.Errorf("Coerce unparseable int should be null, got %+v", v)
	}
	if v := Coerce("", TypeFloat); !v.Null {
		t.Errorf("Coerce missing should be null, got %+v", v)
	}
	if v := Coerce(" hello ", TypeString); v.Null || v.Str != "hello" {
		t.Errorf("Coerce string: got %+v", v)
	}
	if v := Coerce("2024-01-01", TypeDate); v.Null || v.Time.Year() != 2024 {
		t.Errorf("Coerce date: got %+v", v)
	}
}

// ----------------------------------------------------------------------------
// Inference cascade
// ----------------------------------------------------------------------------

func TestInferCascadeOrder(t *testing.T) {
	tests := []struct {
		input string
		want  Type
	}{
		// "1" is ambiguous (int, float, bool all accept); the cascade must
		// resolve it as int every time.
		{input: "1", want: TypeInt},
		{input: "3.14", want: TypeFloat},
		{input: "yes", want: TypeBool},
		{input: "2024-01-31", want: TypeDate},
		{input: "hello", want: TypeString},
		{input: "20240131", want: TypeInt}, // numeric wins over compact date
	}

	for _, tt := range tests {
		if got := Infer(tt.input); got != tt.want {
			t.Errorf("Infer(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   Type
	}{
		{name: "clean ints", values: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, want: TypeInt},
		{name: "ints with one straggler", values: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "x"}, want: TypeInt},
		{name: "floats", values: []string{"1.5", "2.5", "3.5"}, want: TypeFloat},
		{name: "bools", values: []string{"yes", "no", "yes"}, want: TypeBool},
		{name: "dates", values: []string{"2024-01-01", "2024-01-02", "2024-01-03"}, want: TypeDate},
		{name: "mixed", values: []string{"1", "hello", "2024-01-01"}, want: TypeString},
		{name: "all missing", values: []string{"", "NA", ""}, want: TypeString},
		{name: "empty", values: nil, want: TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferColumn(tt.values); got != tt.want {
				t.Errorf("InferColumn = %s, want %s", got, tt.want)
			}
		})
	}
}
