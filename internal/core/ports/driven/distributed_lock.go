package driven

import (
	"context"
	"time"
)

// DistributedLock serialises periodic jobs, such as the analytics retention
// purge, across instances sharing one database.
type DistributedLock interface {
	// Acquire takes the named lock for ttl.
	// Returns false, nil when another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops the named lock. Releasing a lock that is not held is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock out by ttl.
	// Backends without expiry (PostgreSQL advisory locks) only check ownership.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks the lock backend
	Ping(ctx context.Context) error
}
