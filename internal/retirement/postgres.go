package retirement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore is the production Store: a fixed connection pool plus the
// two queries the session tick pipeline and the records endpoint need.
type PostgresStore struct {
	pool *Pool
}

// NewPostgresStore opens poolCapacity connections to dbURL and ensures the
// retired_players table and its leaderboard index exist.
func NewPostgresStore(ctx context.Context, dbURL string, poolCapacity int) (*PostgresStore, error) {
	pool, err := NewPool(ctx, dbURL, poolCapacity)
	if err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close(ctx)
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	handle, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("retirement: migrate: acquire connection: %w", err)
	}
	defer handle.Release()

	_, err = handle.Conn().Exec(ctx, `
		CREATE TABLE IF NOT EXISTS retired_players (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			score INTEGER NOT NULL,
			play_time_ms INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("retirement: create table: %w", err)
	}

	_, err = handle.Conn().Exec(ctx, `
		CREATE INDEX IF NOT EXISTS retired_players_score_play_time_name_idx
		ON retired_players (score DESC, play_time_ms, name)`)
	if err != nil {
		return fmt.Errorf("retirement: create index: %w", err)
	}

	return nil
}

// Save inserts a fresh retired-player record under a new UUID.
func (s *PostgresStore) Save(ctx context.Context, name string, score int, playTimeMs int64) error {
	handle, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("retirement: save: acquire connection: %w", err)
	}
	defer handle.Release()

	_, err = handle.Conn().Exec(ctx,
		`INSERT INTO retired_players (id, name, score, play_time_ms) VALUES ($1, $2, $3, $4)`,
		uuid.New(), name, score, playTimeMs)
	if err != nil {
		return fmt.Errorf("retirement: save: %w", err)
	}
	return nil
}

// Top returns the leaderboard page ordered by score DESC, play_time_ms ASC,
// name ASC.
func (s *PostgresStore) Top(ctx context.Context, offset, limit int) ([]RetiredPlayer, error) {
	handle, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("retirement: top: acquire connection: %w", err)
	}
	defer handle.Release()

	rows, err := handle.Conn().Query(ctx,
		`SELECT id, name, score, play_time_ms FROM retired_players
		 ORDER BY score DESC, play_time_ms ASC, name ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("retirement: top: %w", err)
	}
	defer rows.Close()

	var out []RetiredPlayer
	for rows.Next() {
		var rp RetiredPlayer
		if err := rows.Scan(&rp.ID, &rp.Name, &rp.Score, &rp.PlayTimeMs); err != nil {
			return nil, fmt.Errorf("retirement: top: scan: %w", err)
		}
		out = append(out, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("retirement: top: %w", err)
	}
	return out, nil
}

// Close releases the pool's connections.
func (s *PostgresStore) Close(ctx context.Context) {
	s.pool.Close(ctx)
}
