package handlers_test_suite

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/db/dbtest"
	handler "github.com/rogerio-castellano/enterprise-bi/internal/http/handlers"
	"github.com/rogerio-castellano/enterprise-bi/internal/http/router"
	"github.com/rogerio-castellano/enterprise-bi/internal/models"
	"github.com/rogerio-castellano/enterprise-bi/internal/repo"
)

const frontendOrigin = "http://localhost:3000"

// countingSessions records how many sessions were handed out and released.
type countingSessions struct {
	inner  db.SessionFactory
	opened atomic.Int64
	closed atomic.Int64
}

type countedSession struct {
	db.Session
	owner *countingSessions
}

func (c *countedSession) Close() error {
	c.owner.closed.Add(1)
	return c.Session.Close()
}

func (c *countingSessions) Open(ctx context.Context) (db.Session, error) {
	s, err := c.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	c.opened.Add(1)
	return &countedSession{Session: s, owner: c}, nil
}

type unavailableSessions struct{}

func (unavailableSessions) Open(context.Context) (db.Session, error) {
	return nil, errors.New("connection refused")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return errors.New("connection refused")
}

type testEnv struct {
	router   http.Handler
	database *sql.DB
	sessions *countingSessions
}

// setupWarehouse loads w into a fresh SQLite warehouse and wires the handlers to it.
func setupWarehouse(t *testing.T, w dbtest.Warehouse) *testEnv {
	t.Helper()

	database := dbtest.OpenSQLite(t)
	dbtest.Load(t, database, w)

	metricsRepo, err := repo.NewSQLMetricsRepository(0)
	if err != nil {
		t.Fatalf("failed to build repository: %v", err)
	}

	pool := db.NewPoolSessions(database)
	sessions := &countingSessions{inner: pool}
	handler.SetMetricsRepo(metricsRepo)
	handler.SetSessionFactory(sessions)
	handler.SetDatabasePinger(pool)
	handler.SetRedisService(nil)

	return &testEnv{
		router:   router.NewRouter(router.Options{AllowedOrigin: frontendOrigin}),
		database: database,
		sessions: sessions,
	}
}

func (e *testEnv) assertSessionsReleased(t *testing.T) {
	t.Helper()
	if opened, closed := e.sessions.opened.Load(), e.sessions.closed.Load(); opened != closed {
		t.Errorf("expected every session released, opened %d closed %d", opened, closed)
	}
	if inUse := e.database.Stats().InUse; inUse != 0 {
		t.Errorf("expected no connections in use, got %d", inUse)
	}
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func scenarioWarehouse() dbtest.Warehouse {
	return dbtest.Warehouse{
		Organizations: []models.DimOrganization{
			{OrgID: 1, Region: "East", DepartmentName: "Sales"},
			{OrgID: 2, Region: "West", DepartmentName: "IT"},
		},
		Dates: []models.DimTime{
			{DateKey: 20230101, Year: 2023, Month: 1},
			{DateKey: 20230201, Year: 2023, Month: 2},
		},
		Sales: []models.FactSales{
			{SaleID: 1, OrgID: 1, DateKey: 20230101, Revenue: 100, Margin: 20},
			{SaleID: 2, OrgID: 1, DateKey: 20230101, Revenue: 50, Margin: 5},
			{SaleID: 3, OrgID: 2, DateKey: 20230201, Revenue: 200, Margin: 80},
		},
	}
}
