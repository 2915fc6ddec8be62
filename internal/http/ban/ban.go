// Package ban tracks rate-limit strikes per client and bans repeat offenders for a while.
package ban

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rogerio-castellano/enterprise-bi/internal/redissvc"
	"github.com/rs/zerolog/log"
)

const (
	DailyBanLogKey  = "ratelimit:banlog:daily"
	strikeKeyPrefix = "ratelimit:strikes:"
	banKeyPrefix    = "ratelimit:ban:"
)

type Policy struct {
	MaxStrikes   int
	BanTTL       time.Duration
	StrikeWindow time.Duration
}

type Store interface {
	IsBanned(ctx context.Context, target string) (bool, error)
	// AddStrike records one rejected request and reports whether the target is now banned.
	AddStrike(ctx context.Context, target, route string) (strikes int, banned bool, err error)
}

type BanLogEntry struct {
	Target  string    `json:"target"`
	Route   string    `json:"route"`
	Strikes int       `json:"strikes"`
	Time    time.Time `json:"time"`
}

func logBanEvent(entry BanLogEntry) {
	log.Warn().
		Str("target", entry.Target).
		Str("route", entry.Route).
		Int("strikes", entry.Strikes).
		Msg("client banned")
}

// RedisStore keeps strikes and bans in Redis so they are shared between replicas.
type RedisStore struct {
	rdb    *redis.Client
	policy Policy
}

func NewRedisStore(rs *redissvc.RedisService, policy Policy) *RedisStore {
	return &RedisStore{rdb: rs.Rdb(), policy: policy}
}

func (s *RedisStore) IsBanned(ctx context.Context, target string) (bool, error) {
	n, err := s.rdb.Exists(ctx, banKeyPrefix+target).Result()
	if err != nil {
		return false, fmt.Errorf("ban lookup: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) AddStrike(ctx context.Context, target, route string) (int, bool, error) {
	key := strikeKeyPrefix + target

	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, s.policy.StrikeWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, fmt.Errorf("strike: %w", err)
	}

	strikes := int(incr.Val())
	if strikes < s.policy.MaxStrikes {
		return strikes, false, nil
	}

	entry := BanLogEntry{Target: target, Route: route, Strikes: strikes, Time: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return strikes, false, fmt.Errorf("ban log entry: %w", err)
	}

	pipe = s.rdb.TxPipeline()
	pipe.Set(ctx, banKeyPrefix+target, route, s.policy.BanTTL)
	pipe.Del(ctx, key)
	pipe.RPush(ctx, DailyBanLogKey, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return strikes, false, fmt.Errorf("ban: %w", err)
	}

	logBanEvent(entry)
	return strikes, true, nil
}

// BanLog returns the recorded ban events, oldest first.
func (s *RedisStore) BanLog(ctx context.Context) ([]BanLogEntry, error) {
	items, err := s.rdb.LRange(ctx, DailyBanLogKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	logs := make([]BanLogEntry, 0, len(items))
	for _, item := range items {
		var entry BanLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err == nil {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}

type strikeCounter struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the single-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	policy  Policy
	now     func() time.Time
	strikes map[string]*strikeCounter
	bans    map[string]time.Time
	log     []BanLogEntry
}

func NewMemoryStore(policy Policy) *MemoryStore {
	return &MemoryStore{
		policy:  policy,
		now:     time.Now,
		strikes: map[string]*strikeCounter{},
		bans:    map[string]time.Time{},
	}
}

func (s *MemoryStore) IsBanned(_ context.Context, target string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.bans[target]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.bans, target)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) AddStrike(_ context.Context, target, route string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.strikes[target]
	if !ok || !now.Before(c.resetAt) {
		c = &strikeCounter{resetAt: now.Add(s.policy.StrikeWindow)}
		s.strikes[target] = c
	}
	c.count++
	if c.count < s.policy.MaxStrikes {
		return c.count, false, nil
	}

	strikes := c.count
	delete(s.strikes, target)
	s.bans[target] = now.Add(s.policy.BanTTL)
	entry := BanLogEntry{Target: target, Route: route, Strikes: strikes, Time: now}
	s.log = append(s.log, entry)
	logBanEvent(entry)
	return strikes, true, nil
}

func (s *MemoryStore) BanLog() []BanLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BanLogEntry, len(s.log))
	copy(out, s.log)
	return out
}
