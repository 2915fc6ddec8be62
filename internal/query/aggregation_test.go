package query

import (
	"errors"
	"testing"
)

func departmentAggregation() Aggregation {
	return Aggregation{
		From:    Table{Name: "fact_sales", Alias: "f"},
		Joins:   []Join{{Table: Table{Name: "dim_organization", Alias: "o"}, Left: "f.org_id", Right: "o.org_id"}},
		GroupBy: []string{"o.region", "o.department_name"},
		Aggregates: []Aggregate{
			{Func: Count, Column: "f.sale_id", Alias: "total_transactions"},
			{Func: Sum, Column: "f.revenue", Alias: "total_revenue"},
		},
		OrderBy: []Order{{Expr: "total_revenue", Desc: true}, {Expr: "o.department_name"}},
	}
}

func TestAggregationSQL(t *testing.T) {
	got, err := departmentAggregation().SQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT o.region, o.department_name, COUNT(f.sale_id) AS total_transactions, SUM(f.revenue) AS total_revenue" +
		" FROM fact_sales f INNER JOIN dim_organization o ON f.org_id = o.org_id" +
		" GROUP BY o.region, o.department_name ORDER BY total_revenue DESC, o.department_name ASC"
	if got != want {
		t.Errorf("unexpected SQL\n got: %s\nwant: %s", got, want)
	}
}

func TestAggregationSQL_WithoutGroupingOrAlias(t *testing.T) {
	a := Aggregation{
		From:       Table{Name: "fact_sales"},
		Aggregates: []Aggregate{{Func: Sum, Column: "revenue", Alias: "revenue_total"}},
	}
	got, err := a.SQL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "SELECT SUM(revenue) AS revenue_total FROM fact_sales"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAggregationSQL_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Aggregation)
	}{
		{"empty from", func(a *Aggregation) { a.From.Name = "" }},
		{"injected table", func(a *Aggregation) { a.From.Name = "fact_sales; DROP TABLE x" }},
		{"bad join key", func(a *Aggregation) { a.Joins[0].Left = "f.org_id OR 1=1" }},
		{"no aggregates", func(a *Aggregation) { a.Aggregates = nil }},
		{"unknown function", func(a *Aggregation) { a.Aggregates[0].Func = "AVG" }},
		{"bad alias", func(a *Aggregation) { a.Aggregates[0].Alias = "o.total" }},
		{"duplicate alias", func(a *Aggregation) { a.Aggregates[1].Alias = "total_transactions" }},
		{"order by unselected", func(a *Aggregation) { a.OrderBy = []Order{{Expr: "f.margin"}} }},
		{"bad group by", func(a *Aggregation) { a.GroupBy[0] = "a.b.c" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := departmentAggregation()
			tt.mutate(&a)
			_, err := a.SQL()
			if !errors.Is(err, ErrInvalidAggregation) {
				t.Errorf("expected ErrInvalidAggregation, got %v", err)
			}
		})
	}
}
