package model

import "github.com/avdanilov/dogwalk-server/internal/geom"

// DogHalfWidth is a dog's collection radius, used by the collision detector
// as the "gatherer" radius.
const DogHalfWidth = 0.3

// Direction is a dog's last commanded heading. Speed may drop to zero
// (stopped, or halted by a road edge) while Direction keeps its prior value.
type Direction string

const (
	DirNorth Direction = "N"
	DirSouth Direction = "S"
	DirWest  Direction = "W"
	DirEast  Direction = "E"
	DirNone  Direction = "NONE"
)

// Move is a client-commanded heading: one of U, D, L, R or "" (stop).
type Move string

const (
	MoveUp    Move = "U"
	MoveDown  Move = "D"
	MoveLeft  Move = "L"
	MoveRight Move = "R"
	MoveStop  Move = ""
)

// Dog is a mutable avatar: position, heading, bag and score. Its id is
// unique within the owning session. After spawn its position must always
// lie on some road of the map.
type Dog struct {
	ID           uint64
	Name         string
	Position     geom.Point2D
	Speed        geom.Vec2D
	Direction    Direction
	DefaultSpeed float64
	Bag          *Bag
	Score        int
	InGameMs     int64
	IdleMs       int64
}

// NewDog constructs a dog at the given position with an empty bag of the
// given capacity and the map's default speed.
func NewDog(id uint64, name string, position geom.Point2D, defaultSpeed float64, bagCapacity int) *Dog {
	return &Dog{
		ID:           id,
		Name:         name,
		Position:     position,
		Direction:    DirNorth,
		DefaultSpeed: defaultSpeed,
		Bag:          NewBag(bagCapacity),
	}
}

// SetMove applies a client-commanded heading, setting Direction and Speed
// from the dog's default speed. MoveStop zeroes speed and sets Direction
// to DirNone.
func (d *Dog) SetMove(m Move) {
	v := d.DefaultSpeed
	switch m {
	case MoveUp:
		d.Direction = DirNorth
		d.Speed = geom.Vec2D{X: 0, Y: -v}
	case MoveDown:
		d.Direction = DirSouth
		d.Speed = geom.Vec2D{X: 0, Y: v}
	case MoveLeft:
		d.Direction = DirWest
		d.Speed = geom.Vec2D{X: -v, Y: 0}
	case MoveRight:
		d.Direction = DirEast
		d.Speed = geom.Vec2D{X: v, Y: 0}
	case MoveStop:
		d.Direction = DirNone
		d.Speed = geom.Vec2D{}
	}
}

// Move advances the dog by deltaSeconds along the map's roads, clamping the
// resulting position into whichever road catchment it is currently inside,
// and halting the dog (zeroing speed, keeping direction) if the clamp cut
// the move short - including the T-junction case where no single road's
// catchment covers the whole intended step. It returns the segment the dog
// actually walked this tick, for collision detection.
func (d *Dog) Move(deltaSeconds float64, m *Map) (start, stop geom.Point2D) {
	start = d.Position
	next := geom.Point2D{
		X: d.Position.X + d.Speed.X*deltaSeconds,
		Y: d.Position.Y + d.Speed.Y*deltaSeconds,
	}
	clamped := d.Position

	for _, r := range m.RoadsInClampOrder() {
		if clamped == next {
			break
		}
		if r.IsPointOnRoad(clamped) {
			clamped = r.clampInto(next)
		}
	}

	if clamped != next {
		d.Speed = geom.Vec2D{}
	}
	d.Position = clamped
	return start, clamped
}

// UpdateIdleClock advances the in-game and idle clocks by deltaMs, resetting
// the idle clock whenever the dog is moving. It reports whether the dog has
// now been idle for at least retirementMs, i.e. should be retired.
func (d *Dog) UpdateIdleClock(deltaMs int64, retirementMs int64) bool {
	d.InGameMs += deltaMs
	if d.Speed.X == 0 && d.Speed.Y == 0 {
		d.IdleMs += deltaMs
	} else {
		d.IdleMs = 0
	}
	return d.IdleMs >= retirementMs
}
