package retirement

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests in place of a real
// Postgres connection (cmd/gameserver/main.go requires GAME_DB_URL and
// exits fatally without it, so this is never reached from the CLI). It
// keeps the same ordering contract as PostgresStore.
type MemoryStore struct {
	mu   sync.Mutex
	rows []RetiredPlayer
}

// NewMemoryStore constructs an empty in-memory leaderboard.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, name string, score int, playTimeMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, RetiredPlayer{ID: uuid.New(), Name: name, Score: score, PlayTimeMs: playTimeMs})
	return nil
}

func (m *MemoryStore) Top(_ context.Context, offset, limit int) ([]RetiredPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]RetiredPlayer(nil), m.rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.PlayTimeMs != b.PlayTimeMs {
			return a.PlayTimeMs < b.PlayTimeMs
		}
		return a.Name < b.Name
	})

	if offset >= len(sorted) {
		return nil, nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], nil
}
