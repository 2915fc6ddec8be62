//go:build integration

package handlers_integrated_test_suite

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/config"
	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/db/dbtest"
	handler "github.com/rogerio-castellano/enterprise-bi/internal/http/handlers"
	"github.com/rogerio-castellano/enterprise-bi/internal/redissvc"
	"github.com/rogerio-castellano/enterprise-bi/internal/repo"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func terminate(t *testing.T, c testcontainers.Container) {
	t.Helper()
	if err := c.Terminate(context.Background()); err != nil {
		t.Logf("Warning: failed to terminate container: %v", err)
	}
}

// startPostgres runs a disposable PostgreSQL warehouse and returns a pool connected to it.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "bi",
				"POSTGRES_PASSWORD": "bi",
				"POSTGRES_DB":       "warehouse",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	t.Cleanup(func() { terminate(t, container) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	database, err := db.Connect(config.DatabaseConfig{
		Driver:       "pgx",
		URL:          fmt.Sprintf("postgres://bi:bi@%s:%s/warehouse?sslmode=disable", host, port.Port()),
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	if err != nil {
		t.Fatalf("could not connect to database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	dbtest.CreateSchema(t, database)
	return database
}

// startRedis runs a disposable Redis and returns a service connected to it.
func startRedis(t *testing.T) *redissvc.RedisService {
	t.Helper()
	skipIfNoDocker(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	t.Cleanup(func() { terminate(t, container) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	rs := redissvc.Connect(config.RedisConfig{Addr: endpoint})
	if err := rs.Ping(ctx); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}
	t.Cleanup(func() { rs.Close() })
	return rs
}

func wireHandlers(t *testing.T, database *sql.DB) {
	t.Helper()
	metricsRepo, err := repo.NewSQLMetricsRepository(5 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	sessions := db.NewPoolSessions(database)
	handler.SetMetricsRepo(metricsRepo)
	handler.SetSessionFactory(sessions)
	handler.SetDatabasePinger(sessions)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
