package handlers

import (
	"context"

	"github.com/rogerio-castellano/enterprise-bi/internal/db"
	"github.com/rogerio-castellano/enterprise-bi/internal/redissvc"
	repo "github.com/rogerio-castellano/enterprise-bi/internal/repo"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	metricsRepo repo.MetricsRepository
	sessions    db.SessionFactory

	databasePinger Pinger
	redisService   *redissvc.RedisService
)

func SetMetricsRepo(r repo.MetricsRepository) {
	metricsRepo = r
}

func SetSessionFactory(f db.SessionFactory) {
	sessions = f
}

func SetDatabasePinger(p Pinger) {
	databasePinger = p
}

func SetRedisService(rs *redissvc.RedisService) {
	redisService = rs
}
