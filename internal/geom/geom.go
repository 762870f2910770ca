// Package geom holds the small vector/point primitives shared by the map,
// the dogs and the collision detector.
package geom

// Point is an integer grid coordinate, used for road endpoints and for
// building and office positions in the map's static data.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Vec2D is a 2D double-precision vector used for speed and displacement.
type Vec2D struct {
	X float64
	Y float64
}

func (v Vec2D) Add(o Vec2D) Vec2D      { return Vec2D{v.X + o.X, v.Y + o.Y} }
func (v Vec2D) Sub(o Vec2D) Vec2D      { return Vec2D{v.X - o.X, v.Y - o.Y} }
func (v Vec2D) Scale(k float64) Vec2D  { return Vec2D{v.X * k, v.Y * k} }
func (v Vec2D) Dot(o Vec2D) float64    { return v.X*o.X + v.Y*o.Y }

// Point2D is a double-precision point, used for dog position and collision
// geometry. It is a distinct type from Vec2D to keep "a point" and "a
// displacement" from being accidentally interchanged, even though the
// underlying math is identical.
type Point2D struct {
	X float64
	Y float64
}

func (p Point2D) Sub(o Point2D) Vec2D    { return Vec2D{p.X - o.X, p.Y - o.Y} }
func (p Point2D) Add(v Vec2D) Point2D    { return Point2D{p.X + v.X, p.Y + v.Y} }
func (p Point2D) Equal(o Point2D) bool   { return p.X == o.X && p.Y == o.Y }
