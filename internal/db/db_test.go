package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rogerio-castellano/enterprise-bi/internal/config"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:          "sqlite",
		URL:             filepath.Join(t.TempDir(), "warehouse.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle", URL: "x"})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestConnect_MissingURL(t *testing.T) {
	if _, err := Connect(config.DatabaseConfig{Driver: "pgx"}); err == nil {
		t.Fatal("expected an error for an empty url")
	}
}

func TestPoolSessions_OpenAndRelease(t *testing.T) {
	database, err := Connect(sqliteConfig(t))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer database.Close()

	sessions := NewPoolSessions(database)
	ctx := context.Background()

	for range 5 {
		s, err := sessions.Open(ctx)
		if err != nil {
			t.Fatalf("failed to open session: %v", err)
		}

		rows, err := s.QueryContext(ctx, "SELECT 1")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		rows.Close()

		if err := s.Close(); err != nil {
			t.Fatalf("failed to release session: %v", err)
		}
	}

	if inUse := database.Stats().InUse; inUse != 0 {
		t.Errorf("expected every session released, %d still in use", inUse)
	}
	if err := sessions.Ping(ctx); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestPoolSessions_OpenCanceled(t *testing.T) {
	database, err := Connect(sqliteConfig(t))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPoolSessions(database).Open(ctx); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}
