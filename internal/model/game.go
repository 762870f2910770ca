package model

import (
	"fmt"
	"math/rand"

	"github.com/avdanilov/dogwalk-server/internal/lootgen"
)

// ErrMapNotFound is returned when a map id has no registered map.
type ErrMapNotFound struct{ ID string }

func (e *ErrMapNotFound) Error() string { return fmt.Sprintf("map not found: %q", e.ID) }

// Game is the registry of maps and their lazily-created sessions, plus the
// global defaults every session is built from.
type Game struct {
	maps      []*Map
	mapByID   map[string]*Map
	sessions  map[string]*Session
	sessionRNG func() *rand.Rand

	DefaultSpeed       float64
	DefaultBagCapacity int
	LootGeneratorCfg   lootgen.Config
	RetirementMs       int64
}

// NewGame constructs an empty registry. rngFactory mints the per-session
// RNG - inject a deterministic one in tests, crypto-seeded math/rand in
// production.
func NewGame(rngFactory func() *rand.Rand) *Game {
	return &Game{
		mapByID:    make(map[string]*Map),
		sessions:   make(map[string]*Session),
		sessionRNG: rngFactory,
	}
}

// AddMap registers a map, failing with ErrDuplicateID if its id is already
// taken.
func (g *Game) AddMap(m *Map) error {
	if _, exists := g.mapByID[m.ID]; exists {
		return &ErrDuplicateID{Kind: "map", ID: m.ID}
	}
	g.maps = append(g.maps, m)
	g.mapByID[m.ID] = m
	return nil
}

// Maps returns every registered map, in registration order.
func (g *Game) Maps() []*Map { return g.maps }

// FindMap looks up a map by id.
func (g *Game) FindMap(id string) (*Map, bool) {
	m, ok := g.mapByID[id]
	return m, ok
}

// Sessions returns the live session set, keyed by map id. Callers must not
// mutate the returned map.
func (g *Game) Sessions() map[string]*Session { return g.sessions }

// FindOrCreateSession returns the session for mapID, creating it (and its
// backing map lookup) on first use. Returns ErrMapNotFound if no such map
// is registered.
func (g *Game) FindOrCreateSession(mapID string) (*Session, error) {
	if s, ok := g.sessions[mapID]; ok {
		return s, nil
	}
	m, ok := g.mapByID[mapID]
	if !ok {
		return nil, &ErrMapNotFound{ID: mapID}
	}
	s := NewSession(mapID, m, g.LootGeneratorCfg, g.RetirementMs, g.sessionRNG())
	g.sessions[mapID] = s
	return s, nil
}
