package model

import (
	"math/rand"

	"github.com/avdanilov/dogwalk-server/internal/collision"
	"github.com/avdanilov/dogwalk-server/internal/geom"
	"github.com/avdanilov/dogwalk-server/internal/lootgen"
)

// Session is the per-map simulation container: it exclusively owns its
// dogs and loots and runs the tick pipeline over them. Its id is the
// owning map's id string - exactly one session per map, created lazily.
type Session struct {
	ID  string
	Map *Map

	dogs     map[uint64]*Dog
	dogOrder []uint64
	nextDog  uint64

	loots     map[uint64]*Loot
	lootOrder []uint64
	nextLoot  uint64

	lootGen      *lootgen.Generator
	retirementMs int64
	rng          *rand.Rand
}

// NewSession constructs an empty session over m. rng must be supplied by
// the caller (the game root) so tests can inject a seeded source and get
// reproducible loot placement.
func NewSession(id string, m *Map, lootCfg lootgen.Config, retirementMs int64, rng *rand.Rand) *Session {
	return &Session{
		ID:           id,
		Map:          m,
		dogs:         make(map[uint64]*Dog),
		loots:        make(map[uint64]*Loot),
		lootGen:      lootgen.New(lootCfg),
		retirementMs: retirementMs,
		rng:          rng,
	}
}

// Dogs returns the live dog set, keyed by id. Callers must not mutate the
// returned map.
func (s *Session) Dogs() map[uint64]*Dog { return s.dogs }

// Loots returns the live loot set, keyed by id. Callers must not mutate the
// returned map.
func (s *Session) Loots() map[uint64]*Loot { return s.loots }

// AddDog allocates a new dog with a monotonically increasing id. If
// randomize is false the dog spawns at the start of the map's first road;
// otherwise it spawns at a uniformly random point on a uniformly chosen
// road.
func (s *Session) AddDog(name string, randomize bool) *Dog {
	id := s.nextDog
	s.nextDog++

	var pos geom.Point2D
	if randomize {
		pos = s.randomRoadPosition()
	} else if len(s.Map.Roads) > 0 {
		start := s.Map.Roads[0].Start
		pos = geom.Point2D{X: float64(start.X), Y: float64(start.Y)}
	}

	dog := NewDog(id, name, pos, s.Map.DogSpeed, s.Map.BagCapacity)
	s.dogs[id] = dog
	s.dogOrder = append(s.dogOrder, id)
	return dog
}

// RestoreDog reinserts a fully-formed dog (position, bag, score and all)
// into the session, used by the snapshot codec. The caller must also call
// RestoreCounters so nextDog/nextLoot stay past every restored id.
func (s *Session) RestoreDog(d *Dog) {
	s.dogs[d.ID] = d
	s.dogOrder = append(s.dogOrder, d.ID)
}

// DeletePlayer removes a dog from the session outright (not via retirement -
// e.g. an explicit disconnect), if the caller's use case ever needs that.
func (s *Session) DeletePlayer(dog *Dog) {
	s.removeDog(dog.ID)
}

func (s *Session) removeDog(id uint64) {
	delete(s.dogs, id)
	for i, existing := range s.dogOrder {
		if existing == id {
			s.dogOrder = append(s.dogOrder[:i], s.dogOrder[i+1:]...)
			break
		}
	}
}

// AddLoot inserts an externally constructed loot (used by the snapshot
// codec when restoring a session). The caller is responsible for id
// uniqueness and for keeping nextLoot consistent via RestoreCounters.
func (s *Session) AddLoot(l *Loot) {
	s.loots[l.ID] = l
	s.lootOrder = append(s.lootOrder, l.ID)
}

func (s *Session) removeLoot(id uint64) {
	delete(s.loots, id)
	for i, existing := range s.lootOrder {
		if existing == id {
			s.lootOrder = append(s.lootOrder[:i], s.lootOrder[i+1:]...)
			break
		}
	}
}

// RestoreCounters sets the next-id counters after a snapshot restore.
func (s *Session) RestoreCounters(nextDogID, nextLootID uint64) {
	s.nextDog = nextDogID
	s.nextLoot = nextLootID
}

// NextDogID and NextLootID expose the counters for the snapshot codec.
func (s *Session) NextDogID() uint64  { return s.nextDog }
func (s *Session) NextLootID() uint64 { return s.nextLoot }

func (s *Session) randomRoadPosition() geom.Point2D {
	if len(s.Map.Roads) == 0 {
		return geom.Point2D{}
	}
	road := s.Map.Roads[s.rng.Intn(len(s.Map.Roads))]
	b := road.catchment()
	x := b.MinX + s.rng.Float64()*(b.MaxX-b.MinX)
	y := b.MinY + s.rng.Float64()*(b.MaxY-b.MinY)
	return geom.Point2D{X: x, Y: y}
}

// movement pairs a dog with the segment it walked this tick, in the order
// dogs were visited - the order the collision detector sees gatherers in.
type movement struct {
	dog         *Dog
	start, stop geom.Point2D
}

// sessionProvider adapts one tick's dogs, loots and offices to the generic
// collision.Provider: loot items come first (stable insertion order), then
// offices (map declaration order), so ItemIdx can be mapped straight back
// to "which loot id" or "which office".
type sessionProvider struct {
	movements []movement
	loots     []*Loot
	offices   []Office
}

func (p sessionProvider) GatherersCount() int { return len(p.movements) }

func (p sessionProvider) Gatherer(idx int) collision.Gatherer {
	m := p.movements[idx]
	return collision.Gatherer{
		Start:  collision.Point{X: m.start.X, Y: m.start.Y},
		Stop:   collision.Point{X: m.stop.X, Y: m.stop.Y},
		Radius: DogHalfWidth,
	}
}

func (p sessionProvider) ItemsCount() int { return len(p.loots) + len(p.offices) }

func (p sessionProvider) Item(idx int) collision.Item {
	if idx < len(p.loots) {
		pos := p.loots[idx].Position
		return collision.Item{Position: collision.Point{X: pos.X, Y: pos.Y}, Radius: LootHalfWidth}
	}
	office := p.offices[idx-len(p.loots)]
	pos := office.Pos2D()
	return collision.Item{Position: collision.Point{X: pos.X, Y: pos.Y}, Radius: OfficeHalfWidth}
}

// Update runs one tick of the simulation: loot generation, movement,
// collision-driven pickup/deposit, and inactivity/retirement. It returns
// the dogs retired this tick (already removed from the session).
func (s *Session) Update(deltaMs int64) []*Dog {
	deltaSeconds := float64(deltaMs) / 1000.0

	s.generateLoot(deltaSeconds)

	movements := make([]movement, 0, len(s.dogOrder))
	var retiring []*Dog
	for _, id := range s.dogOrder {
		dog := s.dogs[id]
		start, stop := dog.Move(deltaSeconds, s.Map)
		movements = append(movements, movement{dog: dog, start: start, stop: stop})
		if dog.UpdateIdleClock(deltaMs, s.retirementMs) {
			retiring = append(retiring, dog)
		}
	}

	s.resolveCollisions(movements)

	for _, dog := range retiring {
		s.removeDog(dog.ID)
	}

	return retiring
}

func (s *Session) generateLoot(deltaSeconds float64) {
	typeCount := s.Map.LootTypeCount()
	if typeCount == 0 {
		return
	}
	n := s.lootGen.Generate(deltaSeconds, len(s.loots), len(s.dogs))
	for i := 0; i < n; i++ {
		id := s.nextLoot
		s.nextLoot++
		loot := &Loot{
			ID:        id,
			Position:  s.randomRoadPosition(),
			TypeIndex: s.rng.Intn(typeCount),
		}
		s.loots[id] = loot
		s.lootOrder = append(s.lootOrder, id)
	}
}

func (s *Session) resolveCollisions(movements []movement) {
	loots := make([]*Loot, 0, len(s.lootOrder))
	for _, id := range s.lootOrder {
		loots = append(loots, s.loots[id])
	}

	provider := sessionProvider{movements: movements, loots: loots, offices: s.Map.Offices}
	events := collision.FindEvents(provider)

	for _, ev := range events {
		dog := movements[ev.GathererIdx].dog
		if ev.ItemIdx < len(loots) {
			loot := loots[ev.ItemIdx]
			if _, stillThere := s.loots[loot.ID]; !stillThere {
				continue // already collected earlier this tick
			}
			if dog.Bag.IsFull() {
				continue
			}
			dog.Bag.AddItem(loot.ID, loot.TypeIndex)
			s.removeLoot(loot.ID)
		} else {
			if dog.Bag.Size() == 0 {
				continue
			}
			for _, item := range dog.Bag.Items() {
				dog.Score += s.Map.PointsForType(item.TypeIndex)
			}
			dog.Bag.Clear()
		}
	}
}
