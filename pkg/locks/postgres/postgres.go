// Package postgres provides a Locker shared among processes, with PostgreSQL advisory locks.
package postgres

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4/pgxpool"
	xe "github.com/youwol/backends/pkg/errors"
)

type Locker struct {
	pool *pgxpool.Pool
}

// Connect creates a Locker with a new connection pool to url.
func Connect(ctx context.Context, url string) (*Locker, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.WrapWithNote("connecting to path lock database", err)
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

// Lock takes a session-level advisory lock for key on a dedicated connection.
//
// The connection is held until the lock is released.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, `select pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
		conn.Release()
		return nil, err
	}

	once := sync.Once{}
	return func() {
		once.Do(func() {
			defer conn.Release()
			ctx := context.Background()
			if _, err := conn.Exec(ctx, `select pg_advisory_unlock(hashtextextended($1, 0))`, key); err != nil {
				// closing the session releases its locks.
				conn.Conn().Close(ctx)
			}
		})
	}, nil
}

func (l *Locker) Close() {
	l.pool.Close()
}
