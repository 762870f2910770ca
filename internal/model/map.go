package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/avdanilov/dogwalk-server/internal/geom"
)

// OfficeHalfWidth is the radius of an office's deposit circle.
const OfficeHalfWidth = 0.25

// ErrDuplicateID is returned when a map-level id (an office, or a map in the
// registry) is added twice.
type ErrDuplicateID struct {
	Kind string
	ID   string
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate %s id: %q", e.Kind, e.ID)
}

// Building is a purely descriptive axis-aligned rectangle; the physics core
// never tests against it.
type Building struct {
	Position geom.Point
	Width    int
	Height   int
}

// Office is a deposit point. Its id is unique within the owning map.
type Office struct {
	ID       string
	Position geom.Point
	OffsetX  int
	OffsetY  int
}

// Pos2D returns the office's position as a continuous point, for collision
// detection against moving dogs.
func (o Office) Pos2D() geom.Point2D {
	return geom.Point2D{X: float64(o.Position.X), Y: float64(o.Position.Y)}
}

// LootType is an opaque, JSON-shaped catalogue entry: it carries at least a
// point Value, plus whatever other presentation fields the config supplies
// (name, file, type, rotation...). Extra fields round-trip untouched.
type LootType struct {
	Value int
	Extra map[string]json.RawMessage
}

func (lt LootType) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(lt.Extra)+1)
	for k, v := range lt.Extra {
		out[k] = v
	}
	raw, err := json.Marshal(lt.Value)
	if err != nil {
		return nil, err
	}
	out["value"] = raw
	return json.Marshal(out)
}

func (lt *LootType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, ok := raw["value"]
	if !ok {
		return fmt.Errorf("loot type missing required %q field", "value")
	}
	if err := json.Unmarshal(value, &lt.Value); err != nil {
		return fmt.Errorf("loot type value: %w", err)
	}
	delete(raw, "value")
	lt.Extra = raw
	return nil
}

// Map is immutable static data loaded once at startup: roads, buildings,
// offices, loot type catalogue, and the per-map defaults for dog speed and
// bag capacity. The two road indices are built once via BuildRoadIndexes,
// after which Map is read-only.
type Map struct {
	ID            string
	Name          string
	Roads         []Road
	Buildings     []Building
	Offices       []Office
	LootTypes     []LootType
	DogSpeed      float64
	BagCapacity   int

	officeIDSet        map[string]struct{}
	horizontalByY      []RoadIndexEntry
	verticalByX        []RoadIndexEntry
}

// NewMap constructs a map with its static data; BuildRoadIndexes must be
// called once all roads have been added (AddRoad or the Roads field set
// directly by a loader) and before the map is used for movement.
func NewMap(id, name string, dogSpeed float64, bagCapacity int) *Map {
	return &Map{
		ID:          id,
		Name:        name,
		DogSpeed:    dogSpeed,
		BagCapacity: bagCapacity,
		officeIDSet: make(map[string]struct{}),
	}
}

// AddRoad appends a road. BuildRoadIndexes must be (re-)run afterward.
func (m *Map) AddRoad(r Road) {
	m.Roads = append(m.Roads, r)
}

// AddBuilding appends a purely descriptive building.
func (m *Map) AddBuilding(b Building) {
	m.Buildings = append(m.Buildings, b)
}

// AddOffice appends an office, failing with ErrDuplicateID if its id is
// already present on this map.
func (m *Map) AddOffice(o Office) error {
	if m.officeIDSet == nil {
		m.officeIDSet = make(map[string]struct{})
	}
	if _, exists := m.officeIDSet[o.ID]; exists {
		return &ErrDuplicateID{Kind: "office", ID: o.ID}
	}
	m.officeIDSet[o.ID] = struct{}{}
	m.Offices = append(m.Offices, o)
	return nil
}

// BuildRoadIndexes (re)builds the sorted horizontal/vertical road indices
// from the current Roads slice. Idempotent: safe to call again after more
// roads are added.
func (m *Map) BuildRoadIndexes() {
	horizontal := make([]RoadIndexEntry, 0, len(m.Roads))
	vertical := make([]RoadIndexEntry, 0, len(m.Roads))

	for i, r := range m.Roads {
		if r.IsHorizontal() {
			horizontal = append(horizontal, RoadIndexEntry{RoadIndex: i, Coord: float64(r.Start.Y)})
		} else {
			vertical = append(vertical, RoadIndexEntry{RoadIndex: i, Coord: float64(r.Start.X)})
		}
	}

	sort.SliceStable(horizontal, func(i, j int) bool { return horizontal[i].Coord < horizontal[j].Coord })
	sort.SliceStable(vertical, func(i, j int) bool { return vertical[i].Coord < vertical[j].Coord })

	m.horizontalByY = horizontal
	m.verticalByX = vertical
}

// HorizontalRoadsByY returns the horizontal roads in sorted-by-y order.
func (m *Map) HorizontalRoadsByY() []RoadIndexEntry { return m.horizontalByY }

// VerticalRoadsByX returns the vertical roads in sorted-by-x order.
func (m *Map) VerticalRoadsByX() []RoadIndexEntry { return m.verticalByX }

// PointsForType returns the score value of the given loot type index, or 0
// if the index is out of range.
func (m *Map) PointsForType(typeIndex int) int {
	if typeIndex < 0 || typeIndex >= len(m.LootTypes) {
		return 0
	}
	return m.LootTypes[typeIndex].Value
}

// LootTypeCount returns how many loot types this map's catalogue has.
func (m *Map) LootTypeCount() int { return len(m.LootTypes) }

// RoadsInClampOrder returns every road in the order movement clamping walks
// them: horizontal roads sorted by y, then vertical roads sorted by x.
func (m *Map) RoadsInClampOrder() []Road {
	out := make([]Road, 0, len(m.horizontalByY)+len(m.verticalByX))
	for _, e := range m.horizontalByY {
		out = append(out, m.Roads[e.RoadIndex])
	}
	for _, e := range m.verticalByX {
		out = append(out, m.Roads[e.RoadIndex])
	}
	return out
}
