package repo

import (
	"context"
	"errors"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
)

var (
	// ErrUnexpectedNull means a row had NULL where the metrics contract requires a value.
	ErrUnexpectedNull   = errors.New("unexpected null in aggregation row")
	ErrUnsupportedValue = errors.New("unsupported numeric value")
)

// DepartmentMetrics aggregates sales for one (region, department) pair.
type DepartmentMetrics struct {
	Region            string
	DepartmentName    string
	TotalTransactions int64
	TotalRevenue      float64
	TotalMargin       float64
}

// TimeSeriesMetrics aggregates sales for one calendar month.
type TimeSeriesMetrics struct {
	Year    int
	Month   int
	Revenue float64
	Margin  float64
}

// MetricsRepository runs the warehouse aggregations. Implementations must not mutate the
// warehouse and must be safe for concurrent use.
type MetricsRepository interface {
	// DepartmentMetrics is ordered by total revenue descending, then department name and region ascending.
	DepartmentMetrics(ctx context.Context, q db.Querier) ([]DepartmentMetrics, error)
	// TimeSeriesMetrics is ordered by year then month, ascending.
	TimeSeriesMetrics(ctx context.Context, q db.Querier) ([]TimeSeriesMetrics, error)
}
