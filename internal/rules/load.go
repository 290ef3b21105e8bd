package rules

// load.go reads a rules file (YAML) and compiles it into a Config.
//
// Loading is split in two: Load decodes the document into its raw shape, and
// Compile validates it against a concrete dataset header. The split exists
// because expression identifiers are checked against the dataset's columns,
// which are only known once the CSV header has been read.

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
)

// File is the raw decoded shape of a rules document.
type File struct {
	Columns    map[string]columnSpec `yaml:"columns"`
	UniqueKeys []uniqueKeySpec       `yaml:"unique_keys"`
	RowRules   []rowRuleSpec         `yaml:"row_rules"`
}

type columnSpec struct {
	Type      string `yaml:"type"`
	Required  bool   `yaml:"required"`
	Min       any    `yaml:"min"`
	Max       any    `yaml:"max"`
	Regex     string `yaml:"regex"`
	Allowed   []any  `yaml:"allowed"`
	NotFuture bool   `yaml:"not_future"`
}

type rowRuleSpec struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// uniqueKeySpec accepts either a single column name or a list of columns.
type uniqueKeySpec struct {
	columns []string
}

func (u *uniqueKeySpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		u.columns = []string{s}
		return nil
	case yaml.SequenceNode:
		return node.Decode(&u.columns)
	}
	return fmt.Errorf("unique_keys entries must be a column name or a list of column names")
}

// Load decodes a rules document. Structural YAML problems (bad indentation,
// wrong value kinds) surface here; semantic validation happens in Compile.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &File{}, nil
		}
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return &f, nil
}

// Compile validates the raw file against the dataset header and builds the
// immutable Config. idCols, when non-empty, becomes one extra unique key.
//
// The returned string slice lists rule columns that are absent from the
// dataset; their rules are skipped, and the caller is expected to warn.
func Compile(f *File, header []string, idCols []string) (*Config, []string, error) {
	columnTypes := make(map[string]coerce.Type, len(header))
	for _, name := range header {
		columnTypes[name] = ""
	}

	columns := make(map[string]ColumnRule, len(f.Columns))
	var absent []string

	// Sort for deterministic error and warning ordering.
	for _, name := range sortedKeys(f.Columns) {
		spec := f.Columns[name]
		rule, err := compileColumnRule(name, spec)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := columnTypes[name]; !ok {
			absent = append(absent, name)
			continue
		}
		columns[name] = rule
		columnTypes[name] = rule.Type
	}

	var keys []UniqueKeySpec
	for i, entry := range f.UniqueKeys {
		name := fmt.Sprintf("unique_key_%d", i+1)
		spec, err := compileUniqueKey(name, entry.columns, columnTypes)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, spec)
	}
	if len(idCols) > 0 {
		spec, err := compileUniqueKey("id_cols", idCols, columnTypes)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, spec)
	}

	var rowRules []RowRule
	seen := make(map[string]struct{}, len(f.RowRules))
	for i, spec := range f.RowRules {
		field := fmt.Sprintf("row_rules[%d]", i)
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, nil, &ConfigError{Field: field + ".name", Msg: "is required"}
		}
		if _, dup := seen[name]; dup {
			return nil, nil, &ConfigError{Field: field + ".name", Msg: fmt.Sprintf("duplicate rule name %q", name)}
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(spec.Expr) == "" {
			return nil, nil, &ConfigError{Field: field + ".expr", Msg: "is required"}
		}
		root, err := compileExpr(name, spec.Expr, columnTypes)
		if err != nil {
			return nil, nil, err
		}
		rowRules = append(rowRules, RowRule{Name: name, Source: spec.Expr, root: root})
	}

	return newConfig(columns, keys, rowRules), absent, nil
}

func compileColumnRule(name string, spec columnSpec) (ColumnRule, error) {
	field := func(sub string) string { return fmt.Sprintf("columns.%s.%s", name, sub) }

	rule := ColumnRule{
		Column:     name,
		Required:   spec.Required,
		NotFuture:  spec.NotFuture,
		PatternSrc: spec.Regex,
	}

	if spec.Type != "" {
		t := coerce.Type(strings.ToLower(strings.TrimSpace(spec.Type)))
		if !coerce.KnownType(t) {
			return rule, &ConfigError{Field: field("type"), Msg: fmt.Sprintf("unknown type %q", spec.Type)}
		}
		rule.Type = t
	}

	if spec.Regex != "" {
		if rule.Type != "" && rule.Type != coerce.TypeString {
			return rule, &ConfigError{Field: field("regex"), Msg: "regex applies only to string columns"}
		}
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			return rule, &ConfigError{Field: field("regex"), Msg: fmt.Sprintf("invalid pattern: %v", err)}
		}
		rule.Pattern = re
	}

	if spec.NotFuture && rule.Type != "" && rule.Type != coerce.TypeDate {
		return rule, &ConfigError{Field: field("not_future"), Msg: "not_future applies only to date columns"}
	}

	if spec.Min != nil || spec.Max != nil {
		if rule.Type == coerce.TypeDate {
			var err error
			if rule.MinDate, err = boundDate(spec.Min, field("min")); err != nil {
				return rule, err
			}
			if rule.MaxDate, err = boundDate(spec.Max, field("max")); err != nil {
				return rule, err
			}
			if rule.MinDate != nil && rule.MaxDate != nil && rule.MinDate.After(*rule.MaxDate) {
				return rule, &ConfigError{Field: field("min"), Msg: "min is later than max"}
			}
		} else {
			var err error
			if rule.Min, err = boundFloat(spec.Min, field("min")); err != nil {
				return rule, err
			}
			if rule.Max, err = boundFloat(spec.Max, field("max")); err != nil {
				return rule, err
			}
			if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
				return rule, &ConfigError{Field: field("min"), Msg: "min is greater than max"}
			}
		}
	}

	for i, v := range spec.Allowed {
		s, err := cast.ToStringE(v)
		if err != nil {
			return rule, &ConfigError{Field: fmt.Sprintf("%s[%d]", field("allowed"), i), Msg: "must be a scalar"}
		}
		rule.Allowed = append(rule.Allowed, s)
	}

	return rule, nil
}

func boundFloat(v any, field string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, &ConfigError{Field: field, Msg: "must be numeric"}
	}
	return &f, nil
}

func boundDate(v any, field string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, &ConfigError{Field: field, Msg: "must be a date"}
	}
	t, ok := coerce.ParseDate(s)
	if !ok {
		return nil, &ConfigError{Field: field, Msg: fmt.Sprintf("unparseable date %q", s)}
	}
	return &t, nil
}

func compileUniqueKey(name string, cols []string, columnTypes map[string]coerce.Type) (UniqueKeySpec, error) {
	field := "unique_keys." + name
	if len(cols) == 0 {
		return UniqueKeySpec{}, &ConfigError{Field: field, Msg: "must name at least one column"}
	}
	seen := make(map[string]struct{}, len(cols))
	for _, col := range cols {
		col = strings.TrimSpace(col)
		if col == "" {
			return UniqueKeySpec{}, &ConfigError{Field: field, Msg: "contains an empty column name"}
		}
		if _, dup := seen[col]; dup {
			return UniqueKeySpec{}, &ConfigError{Field: field, Msg: fmt.Sprintf("duplicate column %q", col)}
		}
		seen[col] = struct{}{}
		if _, ok := columnTypes[col]; !ok {
			return UniqueKeySpec{}, &ConfigError{Field: field, Msg: fmt.Sprintf("unknown column %q", col)}
		}
	}
	return UniqueKeySpec{Name: name, Columns: cols}, nil
}

func sortedKeys(m map[string]columnSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
