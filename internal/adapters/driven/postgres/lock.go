package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL session-level
// advisory locks. Each held lock pins one pooled connection until Release,
// since advisory locks belong to the session that took them.
//
// The TTL is ignored: a lock lives until Release or until its connection
// drops. Used for the retention job when Redis is not configured.
type AdvisoryLock struct {
	db *DB

	mu    sync.Mutex
	conns map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db, conns: make(map[string]*sql.Conn)}
}

// hashLockName maps a lock name to the 64-bit key advisory locks take (FNV-1a)
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("phonematch:lock:" + name))
	return int64(h.Sum64())
}

// Acquire tries the lock without blocking.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.conns[name]; held {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockName(name)).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conns[name] = conn
	return true, nil
}

// Release unlocks on the session that holds the lock and returns the
// connection to the pool. Releasing a lock that is not held is a no-op.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, held := l.conns[name]
	delete(l.conns, name)
	l.mu.Unlock()

	if !held {
		return nil
	}
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		return err
	}
	return nil
}

// Extend only checks that the lock is still held by this instance.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	conn, held := l.conns[name]
	l.mu.Unlock()

	if !held {
		return fmt.Errorf("lock %s not held", name)
	}
	return conn.PingContext(ctx)
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
