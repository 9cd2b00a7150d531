package navmesh

import (
	"math"
)

// Point is a location on the walkable ground plane.
type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// Obstacle is a circular blocker on the plane.
type Obstacle struct {
	X      float64 `json:"x"`
	Z      float64 `json:"z"`
	Radius float64 `json:"radius"`
}

func (o Obstacle) center() Point { return Point{X: o.X, Z: o.Z} }

// Model is the navigation model: a bounded square walkable area with circular
// obstacles. It answers point queries for the local path planner.
type Model struct {
	extent    float64 // half-side of the walkable square
	obstacles []Obstacle
}

// New creates a navigation model for a square area of half-side extent
// centered at the origin.
func New(extent float64, obstacles []Obstacle) *Model {
	m := &Model{extent: extent}
	m.obstacles = append(m.obstacles, obstacles...)
	return m
}

// Extent returns the half-side of the walkable square.
func (m *Model) Extent() float64 { return m.extent }

// Obstacles returns the registered obstacles.
func (m *Model) Obstacles() []Obstacle { return m.obstacles }

// AddObstacle registers a circular blocker.
func (m *Model) AddObstacle(o Obstacle) {
	m.obstacles = append(m.obstacles, o)
}

// IsBlocked reports whether p lies within margin of any obstacle.
func (m *Model) IsBlocked(p Point, margin float64) bool {
	for _, o := range m.obstacles {
		if p.Dist(o.center()) < o.Radius+margin {
			return true
		}
	}
	return false
}

// closestFreeDirections is the number of directions sampled around a blocked
// point when searching for a nearby free one.
const closestFreeDirections = 8

// ClosestFree returns p when it is already free; otherwise it samples eight
// directions at increasing radii up to maxSearchRadius and returns the first
// free sample. When no free sample is found, p is returned unchanged: callers
// must treat that as "no better point found", not as success.
func (m *Model) ClosestFree(p Point, maxSearchRadius float64) Point {
	const margin = 0.0
	if !m.IsBlocked(p, margin) {
		return p
	}
	const step = 0.5
	for r := step; r <= maxSearchRadius; r += step {
		for i := 0; i < closestFreeDirections; i++ {
			angle := 2 * math.Pi * float64(i) / closestFreeDirections
			candidate := Point{
				X: p.X + math.Cos(angle)*r,
				Z: p.Z + math.Sin(angle)*r,
			}
			if !m.IsBlocked(candidate, margin) {
				return candidate
			}
		}
	}
	return p
}

// Clamp constrains a point to the walkable square.
func (m *Model) Clamp(p Point) Point {
	return Point{
		X: math.Max(-m.extent, math.Min(m.extent, p.X)),
		Z: math.Max(-m.extent, math.Min(m.extent, p.Z)),
	}
}
