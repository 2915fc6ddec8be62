package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/sony/gobreaker/v2"
)

type failingRepo struct {
	calls int
	err   error
}

func (f *failingRepo) DepartmentMetrics(context.Context, db.Querier) ([]DepartmentMetrics, error) {
	f.calls++
	return nil, f.err
}

func (f *failingRepo) TimeSeriesMetrics(context.Context, db.Querier) ([]TimeSeriesMetrics, error) {
	f.calls++
	return nil, f.err
}

func TestBreakerMetricsRepository_PassesThrough(t *testing.T) {
	w := scenarioWarehouse()
	memory := NewInMemoryMetricsRepository()
	memory.Load(w.Organizations, w.Dates, w.Sales)

	b := NewBreakerMetricsRepository(memory, 3, time.Minute)

	departments, err := b.DepartmentMetrics(context.Background(), nil)
	if err != nil || len(departments) != 2 {
		t.Fatalf("expected 2 departments, got %d (%v)", len(departments), err)
	}
	series, err := b.TimeSeriesMetrics(context.Background(), nil)
	if err != nil || len(series) != 2 {
		t.Fatalf("expected 2 months, got %d (%v)", len(series), err)
	}
}

func TestBreakerMetricsRepository_OpensWithoutRetrying(t *testing.T) {
	dbErr := errors.New("connection refused")
	next := &failingRepo{err: dbErr}
	b := NewBreakerMetricsRepository(next, 2, time.Minute)

	for range 2 {
		if _, err := b.DepartmentMetrics(context.Background(), nil); !errors.Is(err, dbErr) {
			t.Fatalf("expected the warehouse error, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected one call per request, got %d", next.calls)
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", b.State())
	}

	if _, err := b.TimeSeriesMetrics(context.Background(), nil); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if next.calls != 2 {
		t.Errorf("open breaker should not reach the warehouse, got %d calls", next.calls)
	}
}

func TestBreakerMetricsRepository_IgnoresCanceledRequests(t *testing.T) {
	next := &failingRepo{err: context.Canceled}
	b := NewBreakerMetricsRepository(next, 1, time.Minute)

	for range 3 {
		_, _ = b.DepartmentMetrics(context.Background(), nil)
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker, got %v", b.State())
	}
}
