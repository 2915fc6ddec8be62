// Package query builds the grouped aggregation statements run against the warehouse.
//
// An Aggregation describes a star-schema join, the grouping keys, the aggregate
// functions and the sort order. SQL renders it without bind parameters using only
// constructs shared by PostgreSQL, MySQL, SQLite and DuckDB.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidAggregation = errors.New("invalid aggregation")

type Func string

const (
	Count Func = "COUNT"
	Sum   Func = "SUM"
)

type Table struct {
	Name  string
	Alias string
}

// Join is an inner join on a single equality key.
type Join struct {
	Table Table
	Left  string
	Right string
}

type Aggregate struct {
	Func   Func
	Column string
	Alias  string
}

// Order references a group-by column or an aggregate alias.
type Order struct {
	Expr string
	Desc bool
}

type Aggregation struct {
	From       Table
	Joins      []Join
	GroupBy    []string
	Aggregates []Aggregate
	OrderBy    []Order
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAggregation, fmt.Sprintf(format, args...))
}

func (a Aggregation) validate() error {
	if !nameRe.MatchString(a.From.Name) {
		return invalid("from table %q", a.From.Name)
	}
	if a.From.Alias != "" && !nameRe.MatchString(a.From.Alias) {
		return invalid("from alias %q", a.From.Alias)
	}
	for _, j := range a.Joins {
		if !nameRe.MatchString(j.Table.Name) || (j.Table.Alias != "" && !nameRe.MatchString(j.Table.Alias)) {
			return invalid("join table %q", j.Table.Name)
		}
		if !identRe.MatchString(j.Left) || !identRe.MatchString(j.Right) {
			return invalid("join key %q = %q", j.Left, j.Right)
		}
	}
	if len(a.Aggregates) == 0 {
		return invalid("at least one aggregate is required")
	}

	selected := make(map[string]bool, len(a.GroupBy)+len(a.Aggregates))
	for _, col := range a.GroupBy {
		if !identRe.MatchString(col) {
			return invalid("group by column %q", col)
		}
		selected[col] = true
	}
	for _, agg := range a.Aggregates {
		if agg.Func != Count && agg.Func != Sum {
			return invalid("aggregate function %q", agg.Func)
		}
		if !identRe.MatchString(agg.Column) {
			return invalid("aggregate column %q", agg.Column)
		}
		if !nameRe.MatchString(agg.Alias) {
			return invalid("aggregate alias %q", agg.Alias)
		}
		if selected[agg.Alias] {
			return invalid("duplicate output name %q", agg.Alias)
		}
		selected[agg.Alias] = true
	}
	for _, o := range a.OrderBy {
		if !selected[o.Expr] {
			return invalid("order by %q is not a selected column", o.Expr)
		}
	}
	return nil
}

func (t Table) String() string {
	if t.Alias == "" {
		return t.Name
	}
	return t.Name + " " + t.Alias
}

// SQL renders the aggregation as a single SELECT statement.
func (a Aggregation) SQL() (string, error) {
	if err := a.validate(); err != nil {
		return "", err
	}

	cols := make([]string, 0, len(a.GroupBy)+len(a.Aggregates))
	cols = append(cols, a.GroupBy...)
	for _, agg := range a.Aggregates {
		cols = append(cols, fmt.Sprintf("%s(%s) AS %s", agg.Func, agg.Column, agg.Alias))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(a.From.String())
	for _, j := range a.Joins {
		fmt.Fprintf(&sb, " INNER JOIN %s ON %s = %s", j.Table, j.Left, j.Right)
	}
	if len(a.GroupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(a.GroupBy, ", "))
	}
	if len(a.OrderBy) > 0 {
		order := make([]string, len(a.OrderBy))
		for i, o := range a.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			order[i] = o.Expr + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}
	return sb.String(), nil
}
