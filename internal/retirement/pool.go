package retirement

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DBURLEnvName is the environment variable the connection string is read
// from. Its absence is fatal at startup (the caller decides that, not this
// package).
const DBURLEnvName = "GAME_DB_URL"

// Pool is a fixed-capacity pool of *pgx.Conn. Acquire blocks until a
// connection is free; the returned handle's Release (deferred on every exit
// path by callers) returns it to the pool. This is the only place the core
// waits on a true shared resource.
type Pool struct {
	slots chan *pgx.Conn
}

// NewPool opens capacity connections to url and returns a ready pool.
func NewPool(ctx context.Context, url string, capacity int) (*Pool, error) {
	slots := make(chan *pgx.Conn, capacity)
	for i := 0; i < capacity; i++ {
		conn, err := pgx.Connect(ctx, url)
		if err != nil {
			// Close whatever we already opened before failing the whole pool.
			close(slots)
			for c := range slots {
				_ = c.Close(ctx)
			}
			return nil, fmt.Errorf("retirement: open connection %d/%d: %w", i+1, capacity, err)
		}
		slots <- conn
	}
	return &Pool{slots: slots}, nil
}

// ConnHandle is a scoped handle to one pooled connection. Release must be
// called exactly once, on every exit path (including error paths).
type ConnHandle struct {
	conn *pgx.Conn
	pool *Pool
}

// Conn returns the underlying connection.
func (h *ConnHandle) Conn() *pgx.Conn { return h.conn }

// Release returns the connection to the pool. Safe to defer immediately
// after Acquire.
func (h *ConnHandle) Release() {
	h.pool.slots <- h.conn
}

// Acquire blocks until a connection is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*ConnHandle, error) {
	select {
	case conn := <-p.slots:
		return &ConnHandle{conn: conn, pool: p}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes every pooled connection. The pool must be idle (all handles
// released) before calling this.
func (p *Pool) Close(ctx context.Context) {
	close(p.slots)
	for conn := range p.slots {
		_ = conn.Close(ctx)
	}
}
