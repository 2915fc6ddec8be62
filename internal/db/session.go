package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the read surface the aggregation queries need.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Session is a connection held for the lifetime of one request.
// Close returns it to the pool and must always be called.
type Session interface {
	Querier
	Close() error
}

type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// PoolSessions hands out dedicated connections from a database/sql pool.
type PoolSessions struct {
	db *sql.DB
}

func NewPoolSessions(db *sql.DB) *PoolSessions {
	return &PoolSessions{db: db}
}

func (p *PoolSessions) Open(ctx context.Context) (Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database session: %w", err)
	}
	return conn, nil
}

// Ping checks the pool without holding a session.
func (p *PoolSessions) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
