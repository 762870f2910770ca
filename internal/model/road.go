package model

import "github.com/avdanilov/dogwalk-server/internal/geom"

// RoadHalfWidth is how far a road's catchment rectangle extends past the
// segment on either side; a dog is "on the road" anywhere inside it.
const RoadHalfWidth = 0.4

// pointEpsilon absorbs float round-off at a catchment's edge.
const pointEpsilon = 1e-6

// Road is an oriented horizontal or vertical segment. Exactly one of
// IsHorizontal/IsVertical holds - Start and End always share one coordinate.
type Road struct {
	Start geom.Point
	End   geom.Point
}

// NewHorizontalRoad builds a road spanning from start to (endX, start.Y).
func NewHorizontalRoad(start geom.Point, endX int) Road {
	return Road{Start: start, End: geom.Point{X: endX, Y: start.Y}}
}

// NewVerticalRoad builds a road spanning from start to (start.X, endY).
func NewVerticalRoad(start geom.Point, endY int) Road {
	return Road{Start: start, End: geom.Point{X: start.X, Y: endY}}
}

// IsHorizontal reports whether the road runs along the X axis.
func (r Road) IsHorizontal() bool { return r.Start.Y == r.End.Y }

// IsVertical reports whether the road runs along the Y axis.
func (r Road) IsVertical() bool { return r.Start.X == r.End.X }

// bounds is the catchment rectangle: the segment inflated by RoadHalfWidth.
type bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

func (r Road) catchment() bounds {
	minX, maxX := float64(r.Start.X), float64(r.End.X)
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := float64(r.Start.Y), float64(r.End.Y)
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return bounds{
		MinX: minX - RoadHalfWidth,
		MaxX: maxX + RoadHalfWidth,
		MinY: minY - RoadHalfWidth,
		MaxY: maxY + RoadHalfWidth,
	}
}

// IsPointOnRoad reports whether pos lies within this road's catchment
// rectangle, epsilon-inflated to absorb float round-off at the edges.
func (r Road) IsPointOnRoad(pos geom.Point2D) bool {
	b := r.catchment()
	return pos.X >= b.MinX-pointEpsilon && pos.X <= b.MaxX+pointEpsilon &&
		pos.Y >= b.MinY-pointEpsilon && pos.Y <= b.MaxY+pointEpsilon
}

// clampInto pulls next into this road's catchment rectangle, axis by axis.
// For a horizontal road the y-axis is clamped first (the narrow axis), then
// x; for a vertical road the order is reversed. An axis already equal to
// its clamped value is left untouched, matching the source's "don't rewrite
// axes you didn't need to" behavior.
func (r Road) clampInto(next geom.Point2D) geom.Point2D {
	b := r.catchment()
	out := next
	if r.IsHorizontal() {
		out.Y = clamp(out.Y, b.MinY, b.MaxY)
		out.X = clamp(out.X, b.MinX, b.MaxX)
	} else {
		out.X = clamp(out.X, b.MinX, b.MaxX)
		out.Y = clamp(out.Y, b.MinY, b.MaxY)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoadIndexEntry pairs a road's position in Map.Roads with the coordinate
// the per-axis index is keyed on (y for horizontal, x for vertical).
type RoadIndexEntry struct {
	RoadIndex int
	Coord     float64
}
