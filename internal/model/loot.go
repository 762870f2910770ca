package model

import "github.com/avdanilov/dogwalk-server/internal/geom"

// LootHalfWidth is the collection radius of a loot item: zero, meaning a
// dog must pass through the exact point to collect it.
const LootHalfWidth = 0.0

// Loot is one scattered item: a position and an index into the owning
// map's loot type catalogue. Its id is unique within the owning session
// and monotonically allocated.
type Loot struct {
	ID        uint64
	Position  geom.Point2D
	TypeIndex int
}
