package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
)

const sampleRules = `
columns:
  id:
    type: int
    required: true
  age:
    type: int
    required: true
    min: 0
    max: 130
  email:
    type: string
    regex: '^[^@\s]+@[^@\s]+\.[a-z]+$'
  status:
    allowed: [active, inactive]
  signup_date:
    type: date
    not_future: true
unique_keys:
  - id
  - [id, email]
row_rules:
  - name: start_before_end
    expr: start_date <= end_date
`

var sampleHeader = []string{"id", "age", "email", "status", "signup_date", "start_date", "end_date"}

func TestLoadAndCompile(t *testing.T) {
	f, err := Load(strings.NewReader(sampleRules))
	if err != nil {
		t.Fatal(err)
	}
	cfg, absent, err := Compile(f, sampleHeader, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(absent) != 0 {
		t.Errorf("unexpected absent columns: %v", absent)
	}

	age, ok := cfg.Column("age")
	if !ok {
		t.Fatal("age rule missing")
	}
	if age.Type != coerce.TypeInt || !age.Required || *age.Min != 0 || *age.Max != 130 {
		t.Errorf("age rule = %+v", age)
	}

	email, _ := cfg.Column("email")
	if email.Pattern == nil || !email.Pattern.MatchString("a@b.com") {
		t.Errorf("email pattern not compiled: %+v", email)
	}

	status, _ := cfg.Column("status")
	if len(status.Allowed) != 2 || status.Allowed[0] != "active" {
		t.Errorf("status allowed = %v", status.Allowed)
	}

	keys := cfg.UniqueKeys()
	if len(keys) != 2 || keys[0].Name != "unique_key_1" || len(keys[1].Columns) != 2 {
		t.Errorf("unique keys = %+v", keys)
	}

	if len(cfg.RowRules()) != 1 || cfg.RowRules()[0].Name != "start_before_end" {
		t.Errorf("row rules = %+v", cfg.RowRules())
	}

	if cfg.Weights().Sum() != 100 {
		t.Errorf("weights sum = %d, want 100", cfg.Weights().Sum())
	}
}

func TestCompileIDColsBecomeUniqueKey(t *testing.T) {
	cfg, _, err := Compile(&File{}, sampleHeader, []string{"id", "email"})
	if err != nil {
		t.Fatal(err)
	}
	keys := cfg.UniqueKeys()
	if len(keys) != 1 || keys[0].Name != "id_cols" || len(keys[0].Columns) != 2 {
		t.Errorf("keys = %+v", keys)
	}
}

func TestCompileAbsentColumnsAreSkipped(t *testing.T) {
	f, err := Load(strings.NewReader("columns:\n  nothere:\n    type: int\n"))
	if err != nil {
		t.Fatal(err)
	}
	cfg, absent, err := Compile(f, []string{"id"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(absent) != 1 || absent[0] != "nothere" {
		t.Errorf("absent = %v", absent)
	}
	if _, ok := cfg.Column("nothere"); ok {
		t.Error("absent column rule should not be kept")
	}
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		idCols    []string
		wantField string
	}{
		{
			name:      "unknown type",
			yaml:      "columns:\n  id:\n    type: uuid\n",
			wantField: "columns.id.type",
		},
		{
			name:      "invalid regex",
			yaml:      "columns:\n  id:\n    type: string\n    regex: '['\n",
			wantField: "columns.id.regex",
		},
		{
			name:      "regex on int column",
			yaml:      "columns:\n  id:\n    type: int\n    regex: 'x'\n",
			wantField: "columns.id.regex",
		},
		{
			name:      "non numeric min",
			yaml:      "columns:\n  age:\n    type: int\n    min: abc\n",
			wantField: "columns.age.min",
		},
		{
			name:      "min above max",
			yaml:      "columns:\n  age:\n    type: int\n    min: 10\n    max: 1\n",
			wantField: "columns.age.min",
		},
		{
			name:      "bad date bound",
			yaml:      "columns:\n  signup_date:\n    type: date\n    min: soon\n",
			wantField: "columns.signup_date.min",
		},
		{
			name:      "not_future on int",
			yaml:      "columns:\n  id:\n    type: int\n    not_future: true\n",
			wantField: "columns.id.not_future",
		},
		{
			name:      "unique key unknown column",
			yaml:      "unique_keys:\n  - [id, nope]\n",
			wantField: "unique_keys.unique_key_1",
		},
		{
			name:      "unique key duplicate column",
			yaml:      "unique_keys:\n  - [id, id]\n",
			wantField: "unique_keys.unique_key_1",
		},
		{
			name:      "id cols unknown column",
			yaml:      "",
			idCols:    []string{"ghost"},
			wantField: "unique_keys.id_cols",
		},
		{
			name:      "row rule missing name",
			yaml:      "row_rules:\n  - expr: age > 0\n",
			wantField: "row_rules[0].name",
		},
		{
			name:      "row rule duplicate name",
			yaml:      "row_rules:\n  - name: r\n    expr: age > 0\n  - name: r\n    expr: age > 1\n",
			wantField: "row_rules[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(strings.NewReader(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = Compile(f, sampleHeader, tt.idCols)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestCompileRowRuleExpressionError(t *testing.T) {
	f, err := Load(strings.NewReader("row_rules:\n  - name: bad\n    expr: exec('x')\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = Compile(f, sampleHeader, nil)
	var exprErr *ExpressionError
	if !errors.As(err, &exprErr) {
		t.Fatalf("want ExpressionError, got %v", err)
	}
	if exprErr.Rule != "bad" {
		t.Errorf("Rule = %q, want bad", exprErr.Rule)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, err := Load(strings.NewReader("colunms: {}\n")); err == nil {
		t.Fatal("expected error for misspelled top-level key")
	}
}

func TestLoadEmptyDocument(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Compile(f, sampleHeader, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Columns()) != 0 || len(cfg.UniqueKeys()) != 0 || len(cfg.RowRules()) != 0 {
		t.Errorf("empty rules produced non-empty config")
	}
}
