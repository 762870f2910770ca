// Package retirement persists retired players (dogs retired for inactivity)
// and serves the high-score leaderboard. It is specified here only as a
// contract - the session core depends on the Store interface, never on a
// concrete database.
package retirement

import (
	"context"

	"github.com/google/uuid"
)

// RetiredPlayer is one leaderboard row.
type RetiredPlayer struct {
	ID         uuid.UUID
	Name       string
	Score      int
	PlayTimeMs int64
}

// Store is the persistence contract the session tick pipeline calls into
// once per retired dog. Save is idempotent relative to a fresh UUID minted
// per call - calling it twice for the same logical retirement simply
// records two rows, by design (the caller is responsible for calling it
// exactly once per retirement).
type Store interface {
	Save(ctx context.Context, name string, score int, playTimeMs int64) error

	// Top returns up to limit rows starting at offset, ordered by
	// score DESC, play_time_ms ASC, name ASC.
	Top(ctx context.Context, offset, limit int) ([]RetiredPlayer, error)
}
