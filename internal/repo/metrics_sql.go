package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/models"
	"github.com/rogerio-castellano/enterprise-bi/internal/query"
	"github.com/rogerio-castellano/enterprise-bi/internal/telemetry"
)

var departmentAggregation = query.Aggregation{
	From: query.Table{Name: models.FactSalesTable, Alias: "f"},
	Joins: []query.Join{
		{Table: query.Table{Name: models.DimOrganizationTable, Alias: "o"}, Left: "f.org_id", Right: "o.org_id"},
	},
	GroupBy: []string{"o.region", "o.department_name"},
	Aggregates: []query.Aggregate{
		{Func: query.Count, Column: "f.sale_id", Alias: "total_transactions"},
		{Func: query.Sum, Column: "f.revenue", Alias: "total_revenue"},
		{Func: query.Sum, Column: "f.margin", Alias: "total_margin"},
	},
	// Name ties follow the warehouse collation; binary on SQLite and DuckDB.
	OrderBy: []query.Order{
		{Expr: "total_revenue", Desc: true},
		{Expr: "o.department_name"},
		{Expr: "o.region"},
	},
}

var timeSeriesAggregation = query.Aggregation{
	From: query.Table{Name: models.FactSalesTable, Alias: "f"},
	Joins: []query.Join{
		{Table: query.Table{Name: models.DimTimeTable, Alias: "t"}, Left: "f.date_key", Right: "t.date_key"},
	},
	GroupBy: []string{"t.year", "t.month"},
	Aggregates: []query.Aggregate{
		{Func: query.Sum, Column: "f.revenue", Alias: "revenue"},
		{Func: query.Sum, Column: "f.margin", Alias: "margin"},
	},
	OrderBy: []query.Order{{Expr: "t.year"}, {Expr: "t.month"}},
}

// SQLMetricsRepository runs the aggregations on the session it is given.
type SQLMetricsRepository struct {
	departmentsSQL string
	timeSeriesSQL  string
	queryTimeout   time.Duration
}

// NewSQLMetricsRepository renders both statements once. queryTimeout of zero adds no deadline.
func NewSQLMetricsRepository(queryTimeout time.Duration) (*SQLMetricsRepository, error) {
	departmentsSQL, err := departmentAggregation.SQL()
	if err != nil {
		return nil, fmt.Errorf("department aggregation: %w", err)
	}
	timeSeriesSQL, err := timeSeriesAggregation.SQL()
	if err != nil {
		return nil, fmt.Errorf("time series aggregation: %w", err)
	}
	return &SQLMetricsRepository{
		departmentsSQL: departmentsSQL,
		timeSeriesSQL:  timeSeriesSQL,
		queryTimeout:   queryTimeout,
	}, nil
}

func (r *SQLMetricsRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *SQLMetricsRepository) DepartmentMetrics(ctx context.Context, q db.Querier) (result []DepartmentMetrics, err error) {
	start := time.Now()
	defer func() { telemetry.ObserveQuery("departments", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx, r.departmentsSQL)
	if err != nil {
		return nil, fmt.Errorf("department metrics query: %w", err)
	}
	defer rows.Close()

	result = []DepartmentMetrics{}
	for rows.Next() {
		var (
			region, department sql.NullString
			transactions       sql.NullInt64
			revenue, margin    amount
		)
		if err := rows.Scan(&region, &department, &transactions, &revenue, &margin); err != nil {
			return nil, fmt.Errorf("department metrics scan: %w", err)
		}
		if !region.Valid || !department.Valid || !transactions.Valid || !revenue.valid || !margin.valid {
			return nil, fmt.Errorf("department metrics (%s, %s): %w", region.String, department.String, ErrUnexpectedNull)
		}
		result = append(result, DepartmentMetrics{
			Region:            region.String,
			DepartmentName:    department.String,
			TotalTransactions: transactions.Int64,
			TotalRevenue:      revenue.value,
			TotalMargin:       margin.value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department metrics rows: %w", err)
	}
	return result, nil
}

func (r *SQLMetricsRepository) TimeSeriesMetrics(ctx context.Context, q db.Querier) (result []TimeSeriesMetrics, err error) {
	start := time.Now()
	defer func() { telemetry.ObserveQuery("timeseries", start, err) }()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := q.QueryContext(ctx, r.timeSeriesSQL)
	if err != nil {
		return nil, fmt.Errorf("time series metrics query: %w", err)
	}
	defer rows.Close()

	result = []TimeSeriesMetrics{}
	for rows.Next() {
		var (
			year, month     sql.NullInt64
			revenue, margin amount
		)
		if err := rows.Scan(&year, &month, &revenue, &margin); err != nil {
			return nil, fmt.Errorf("time series metrics scan: %w", err)
		}
		if !year.Valid || !month.Valid || !revenue.valid || !margin.valid {
			return nil, fmt.Errorf("time series metrics (%d-%02d): %w", year.Int64, month.Int64, ErrUnexpectedNull)
		}
		result = append(result, TimeSeriesMetrics{
			Year:    int(year.Int64),
			Month:   int(month.Int64),
			Revenue: revenue.value,
			Margin:  margin.value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("time series metrics rows: %w", err)
	}
	return result, nil
}
