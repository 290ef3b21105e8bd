// Package rules holds the validated rule configuration for a quality run:
// per-column rules, composite unique keys, row-level boolean expressions, and
// the dimension weight table.
//
// A Config is built once (Load + Compile), validated eagerly, and then only
// read. Row-rule expressions are parsed at compile time against the dataset
// header, so an expression that references an undeclared column or unknown
// function can never reach row evaluation.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
)

// ConfigError reports a structurally invalid rule configuration. It names
// the offending field so the user can find it in the rules file.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rules: %s: %s", e.Field, e.Msg)
}

// ColumnRule is the validated rule set for one column.
type ColumnRule struct {
	Column   string
	Type     coerce.Type // empty when no type is declared
	Required bool

	// Numeric bounds; set only for int/float columns.
	Min *float64
	Max *float64

	// Date bounds; set only for date columns.
	MinDate *time.Time
	MaxDate *time.Time

	Pattern    *regexp.Regexp // set only for string columns
	PatternSrc string

	Allowed   []string
	NotFuture bool // date columns: value must not be later than the run reference time
}

// HasValidityChecks reports whether the rule constrains values beyond
// presence, i.e. whether the column participates in the validity dimension.
func (r ColumnRule) HasValidityChecks() bool {
	return r.Type != "" || r.Min != nil || r.Max != nil ||
		r.MinDate != nil || r.MaxDate != nil ||
		r.Pattern != nil || len(r.Allowed) > 0 || r.NotFuture
}

// UniqueKeySpec names an ordered set of columns whose combined values must be
// unique across rows.
type UniqueKeySpec struct {
	Name    string
	Columns []string
}

// RowRule is a named, compiled row-level boolean expression.
type RowRule struct {
	Name   string
	Source string
	root   boolNode
}

// Weights is the dimension weight table. Weights always sum to 100.
type Weights struct {
	Completeness int
	Validity     int
	Uniqueness   int
	Consistency  int
	Outliers     int
}

// DefaultWeights returns the fixed weight table: 25/25/20/20/10.
func DefaultWeights() Weights {
	return Weights{Completeness: 25, Validity: 25, Uniqueness: 20, Consistency: 20, Outliers: 10}
}

// Sum returns the total weight.
func (w Weights) Sum() int {
	return w.Completeness + w.Validity + w.Uniqueness + w.Consistency + w.Outliers
}

// Config is the immutable, validated rule configuration for one run.
type Config struct {
	columns    map[string]ColumnRule
	order      []string // column names with rules, sorted
	uniqueKeys []UniqueKeySpec
	rowRules   []RowRule
	weights    Weights
}

// Column returns the rule for the named column, if any.
func (c *Config) Column(name string) (ColumnRule, bool) {
	r, ok := c.columns[name]
	return r, ok
}

// Columns returns all column rules in deterministic (name-sorted) order.
func (c *Config) Columns() []ColumnRule {
	out := make([]ColumnRule, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.columns[name])
	}
	return out
}

// UniqueKeys returns all unique-key specs in declaration order.
func (c *Config) UniqueKeys() []UniqueKeySpec { return c.uniqueKeys }

// RowRules returns all compiled row rules in declaration order.
func (c *Config) RowRules() []RowRule { return c.rowRules }

// Weights returns the dimension weight table.
func (c *Config) Weights() Weights { return c.weights }

// Empty returns a Config with no rules, used when analysis runs without a
// rules file. Completeness, uniqueness, and outlier checks still apply.
func Empty() *Config {
	return &Config{columns: map[string]ColumnRule{}, weights: DefaultWeights()}
}

func newConfig(columns map[string]ColumnRule, keys []UniqueKeySpec, rowRules []RowRule) *Config {
	order := make([]string, 0, len(columns))
	for name := range columns {
		order = append(order, name)
	}
	sort.Strings(order)
	return &Config{
		columns:    columns,
		order:      order,
		uniqueKeys: keys,
		rowRules:   rowRules,
		weights:    DefaultWeights(),
	}
}
