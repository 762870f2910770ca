package collision

import "testing"

// fakeProvider lets a test hand-build a tick's gatherers and items directly,
// the way the session builds its sessionProvider each tick.
type fakeProvider struct {
	gatherers []Gatherer
	items     []Item
}

func (p fakeProvider) GatherersCount() int       { return len(p.gatherers) }
func (p fakeProvider) Gatherer(idx int) Gatherer { return p.gatherers[idx] }
func (p fakeProvider) ItemsCount() int           { return len(p.items) }
func (p fakeProvider) Item(idx int) Item         { return p.items[idx] }

func TestFindEvents_StraightLinePickup(t *testing.T) {
	// A gatherer walks straight over an item sitting on its path.
	provider := fakeProvider{
		gatherers: []Gatherer{{Start: Point{X: 0, Y: 0}, Stop: Point{X: 10, Y: 0}, Radius: 0.3}},
		items:     []Item{{Position: Point{X: 5, Y: 0}, Radius: 0}},
	}

	events := FindEvents(provider)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].GathererIdx != 0 || events[0].ItemIdx != 0 {
		t.Errorf("unexpected event indices: %+v", events[0])
	}
}

func TestFindEvents_MissesWhenFarAway(t *testing.T) {
	provider := fakeProvider{
		gatherers: []Gatherer{{Start: Point{X: 0, Y: 0}, Stop: Point{X: 10, Y: 0}, Radius: 0.3}},
		items:     []Item{{Position: Point{X: 5, Y: 5}, Radius: 0}},
	}
	if events := FindEvents(provider); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestFindEvents_StationaryGathererContributesNothing(t *testing.T) {
	// A dog that didn't move this tick shouldn't pick up an item it's
	// sitting right on top of.
	provider := fakeProvider{
		gatherers: []Gatherer{{Start: Point{X: 5, Y: 0}, Stop: Point{X: 5, Y: 0}, Radius: 0.3}},
		items:     []Item{{Position: Point{X: 5, Y: 0}, Radius: 0}},
	}
	if events := FindEvents(provider); len(events) != 0 {
		t.Errorf("expected no events for a stationary gatherer, got %d", len(events))
	}
}

func TestFindEvents_OrderedByT(t *testing.T) {
	// Two items on the same path; the nearer one (smaller t) must sort first.
	provider := fakeProvider{
		gatherers: []Gatherer{{Start: Point{X: 0, Y: 0}, Stop: Point{X: 10, Y: 0}, Radius: 0.3}},
		items: []Item{
			{Position: Point{X: 8, Y: 0}, Radius: 0},
			{Position: Point{X: 2, Y: 0}, Radius: 0},
		},
	}
	events := FindEvents(provider)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ItemIdx != 1 || events[1].ItemIdx != 0 {
		t.Errorf("expected events ordered by T (item 1 then item 0), got %+v", events)
	}
}

func TestFindEvents_OutOfSegmentRangeMisses(t *testing.T) {
	// An item beyond the gatherer's Stop (t > 1) is not collected this tick.
	provider := fakeProvider{
		gatherers: []Gatherer{{Start: Point{X: 0, Y: 0}, Stop: Point{X: 5, Y: 0}, Radius: 0.3}},
		items:     []Item{{Position: Point{X: 8, Y: 0}, Radius: 0}},
	}
	if events := FindEvents(provider); len(events) != 0 {
		t.Errorf("expected no events for an item past Stop, got %d", len(events))
	}
}
