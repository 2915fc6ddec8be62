package repo

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/models"
)

// InMemoryMetricsRepository aggregates warehouse rows held in memory. The session argument is ignored.
type InMemoryMetricsRepository struct {
	mu            sync.RWMutex
	organizations map[int]models.DimOrganization
	dates         map[int]models.DimTime
	sales         []models.FactSales
}

func NewInMemoryMetricsRepository() *InMemoryMetricsRepository {
	return &InMemoryMetricsRepository{
		organizations: map[int]models.DimOrganization{},
		dates:         map[int]models.DimTime{},
	}
}

// Load replaces the warehouse contents.
func (i *InMemoryMetricsRepository) Load(orgs []models.DimOrganization, dates []models.DimTime, sales []models.FactSales) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.organizations = make(map[int]models.DimOrganization, len(orgs))
	for _, o := range orgs {
		i.organizations[o.OrgID] = o
	}
	i.dates = make(map[int]models.DimTime, len(dates))
	for _, d := range dates {
		i.dates[d.DateKey] = d
	}
	i.sales = slices.Clone(sales)
}

func (i *InMemoryMetricsRepository) Clear() {
	i.Load(nil, nil, nil)
}

func (i *InMemoryMetricsRepository) DepartmentMetrics(ctx context.Context, _ db.Querier) ([]DepartmentMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	type key struct{ region, department string }
	groups := map[key]*DepartmentMetrics{}
	for _, s := range i.sales {
		org, ok := i.organizations[s.OrgID]
		if !ok {
			continue
		}
		k := key{org.Region, org.DepartmentName}
		g, ok := groups[k]
		if !ok {
			g = &DepartmentMetrics{Region: org.Region, DepartmentName: org.DepartmentName}
			groups[k] = g
		}
		g.TotalTransactions++
		g.TotalRevenue += s.Revenue
		g.TotalMargin += s.Margin
	}

	result := make([]DepartmentMetrics, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	// Names compare byte-wise, like a binary collation.
	slices.SortFunc(result, func(a, b DepartmentMetrics) int {
		return cmp.Or(
			cmp.Compare(b.TotalRevenue, a.TotalRevenue),
			cmp.Compare(a.DepartmentName, b.DepartmentName),
			cmp.Compare(a.Region, b.Region),
		)
	})
	return result, nil
}

func (i *InMemoryMetricsRepository) TimeSeriesMetrics(ctx context.Context, _ db.Querier) ([]TimeSeriesMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()

	type key struct{ year, month int }
	groups := map[key]*TimeSeriesMetrics{}
	for _, s := range i.sales {
		d, ok := i.dates[s.DateKey]
		if !ok {
			continue
		}
		k := key{d.Year, d.Month}
		g, ok := groups[k]
		if !ok {
			g = &TimeSeriesMetrics{Year: d.Year, Month: d.Month}
			groups[k] = g
		}
		g.Revenue += s.Revenue
		g.Margin += s.Margin
	}

	result := make([]TimeSeriesMetrics, 0, len(groups))
	for _, g := range groups {
		result = append(result, *g)
	}
	slices.SortFunc(result, func(a, b TimeSeriesMetrics) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})
	return result, nil
}
