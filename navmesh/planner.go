package navmesh

import (
	"errors"
	"math"
)

// ErrUnreachable is returned when no acceptable point near a requested
// destination exists. It is reported to the caller, never silently replaced
// by a different destination.
var ErrUnreachable = errors.New("destination unreachable")

// smoothingMargin is the tight obstacle margin used when sampling a segment
// for line of sight during path smoothing.
const smoothingMargin = 0.1

// FindPath computes a waypoint sequence from start to end. When the straight
// segment's midpoint is free the direct path [end] is returned; otherwise a
// single perpendicular detour around the nearest blocking obstacle is
// inserted. Returns nil only when the model itself is missing.
func FindPath(m *Model, start, end Point, clearance float64) []Point {
	if m == nil {
		return nil
	}

	mid := Point{X: (start.X + end.X) / 2, Z: (start.Z + end.Z) / 2}
	if !m.IsBlocked(mid, 0) {
		return []Point{end}
	}

	blocker, ok := m.nearestBlocker(mid, start)
	if !ok {
		return []Point{end}
	}

	dx := end.X - start.X
	dz := end.Z - start.Z
	norm := math.Sqrt(dx*dx + dz*dz)
	if norm == 0 {
		return []Point{end}
	}
	// Perpendicular to the travel direction, one detour point per side.
	px, pz := -dz/norm, dx/norm
	offset := blocker.Radius + clearance
	left := Point{X: blocker.X + px*offset, Z: blocker.Z + pz*offset}
	right := Point{X: blocker.X - px*offset, Z: blocker.Z - pz*offset}

	detour := left
	if start.Dist(right)+right.Dist(end) < start.Dist(left)+left.Dist(end) {
		detour = right
	}
	return []Point{m.Clamp(detour), end}
}

// nearestBlocker finds the obstacle covering p that is closest to from.
func (m *Model) nearestBlocker(p, from Point) (Obstacle, bool) {
	var best Obstacle
	bestDist := math.Inf(1)
	found := false
	for _, o := range m.obstacles {
		if p.Dist(o.center()) >= o.Radius {
			continue
		}
		if d := from.Dist(o.center()); d < bestDist {
			best, bestDist, found = o, d, true
		}
	}
	if !found {
		// The midpoint was blocked only by margin-free rounding; pick the
		// obstacle nearest to it instead.
		for _, o := range m.obstacles {
			if d := p.Dist(o.center()); d < bestDist {
				best, bestDist, found = o, d, true
			}
		}
	}
	return best, found
}

// Smooth pulls a path taut: from each waypoint it scans backward from the
// path's end for the farthest waypoint reachable in a straight, unobstructed
// line, jumps there and repeats. Waypoint count never grows, and no shortcut
// cuts through an obstacle.
func Smooth(m *Model, path []Point) []Point {
	if m == nil || len(path) <= 2 {
		return path
	}
	out := []Point{path[0]}
	i := 0
	for i < len(path)-1 {
		next := i + 1
		for j := len(path) - 1; j > i+1; j-- {
			if m.lineOfSight(path[i], path[j]) {
				next = j
				break
			}
		}
		out = append(out, path[next])
		i = next
	}
	return out
}

// lineOfSight samples the segment a-b at unit-length steps and reports
// whether every sample clears all obstacles by a tight margin.
func (m *Model) lineOfSight(a, b Point) bool {
	dist := a.Dist(b)
	if dist == 0 {
		return true
	}
	steps := int(math.Ceil(dist))
	for s := 1; s < steps; s++ {
		t := float64(s) / float64(steps)
		sample := Point{X: a.X + (b.X-a.X)*t, Z: a.Z + (b.Z-a.Z)*t}
		if m.IsBlocked(sample, smoothingMargin) {
			return false
		}
	}
	return !m.IsBlocked(b, smoothingMargin)
}

// ResolveDestination snaps a requested destination to the nearest free point.
// When even the snapped point remains farther than tolerance from the request
// the destination is reported unreachable rather than silently moved.
func ResolveDestination(m *Model, requested Point, maxSearchRadius, tolerance float64) (Point, error) {
	if m == nil {
		return requested, nil
	}
	clamped := m.Clamp(requested)
	snapped := m.ClosestFree(clamped, maxSearchRadius)
	// ClosestFree hands the original point back when its search fails, so a
	// still-blocked result means no free point exists within reach.
	if m.IsBlocked(snapped, 0) || snapped.Dist(clamped) > tolerance {
		return Point{}, ErrUnreachable
	}
	return snapped, nil
}
