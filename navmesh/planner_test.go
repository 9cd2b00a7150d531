package navmesh

import (
	"errors"
	"testing"
)

func TestFindPathDirectWhenClear(t *testing.T) {
	m := New(25, []Obstacle{{X: 20, Z: 20, Radius: 2}})
	start := Point{X: -10, Z: 0}
	end := Point{X: 10, Z: 0}

	path := FindPath(m, start, end, 0.8)
	if len(path) != 1 || path[0] != end {
		t.Fatalf("expected direct path [end], got %+v", path)
	}
}

func TestFindPathDetoursAroundBlocker(t *testing.T) {
	m := New(25, []Obstacle{{X: 0, Z: 0, Radius: 3}})
	start := Point{X: -10, Z: 0}
	end := Point{X: 10, Z: 0}

	path := FindPath(m, start, end, 0.8)
	if len(path) != 2 {
		t.Fatalf("expected detour plus end, got %+v", path)
	}
	detour := path[0]
	if m.IsBlocked(detour, 0) {
		t.Fatalf("detour point %+v lies inside the blocker", detour)
	}
	if path[1] != end {
		t.Fatalf("final waypoint = %+v, want %+v", path[1], end)
	}
	// The detour sits perpendicular to the travel direction, off to one side.
	if detour.Z > -3 && detour.Z < 3 {
		t.Fatalf("detour %+v did not clear the obstacle laterally", detour)
	}
}

func TestFindPathNilModel(t *testing.T) {
	if path := FindPath(nil, Point{}, Point{X: 1}, 0.8); path != nil {
		t.Fatalf("expected nil path without a model, got %+v", path)
	}
}

func TestSmoothPullsTautWithoutCuttingObstacles(t *testing.T) {
	m := New(25, []Obstacle{{X: 0, Z: 0, Radius: 3}})
	// A staircase of waypoints skirting the obstacle.
	path := []Point{
		{X: -10, Z: 0},
		{X: -6, Z: 5},
		{X: 0, Z: 6},
		{X: 6, Z: 5},
		{X: 10, Z: 0},
	}
	out := Smooth(m, path)

	if len(out) > len(path) {
		t.Fatalf("smoothing grew the path: %d -> %d", len(path), len(out))
	}
	if out[0] != path[0] || out[len(out)-1] != path[len(path)-1] {
		t.Fatalf("smoothing moved the endpoints: %+v", out)
	}
	// Every surviving segment must keep line of sight.
	for i := 0; i+1 < len(out); i++ {
		if !m.lineOfSight(out[i], out[i+1]) {
			t.Fatalf("smoothed segment %+v -> %+v cuts an obstacle", out[i], out[i+1])
		}
	}
}

func TestSmoothShortPathUnchanged(t *testing.T) {
	m := New(25, nil)
	path := []Point{{X: 0, Z: 0}, {X: 5, Z: 5}}
	out := Smooth(m, path)
	if len(out) != 2 || out[0] != path[0] || out[1] != path[1] {
		t.Fatalf("two-point path changed: %+v", out)
	}
}

func TestResolveDestinationClampsOutOfBounds(t *testing.T) {
	m := New(25, nil)
	got, err := ResolveDestination(m, Point{X: 100, Z: 0}, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Point{X: 25, Z: 0}) {
		t.Fatalf("got %+v, want clamped boundary point", got)
	}
}

func TestResolveDestinationSnapsOffObstacle(t *testing.T) {
	m := New(25, []Obstacle{{X: 0, Z: 0, Radius: 3}})
	got, err := ResolveDestination(m, Point{X: 0, Z: 0}, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.IsBlocked(got, 0) {
		t.Fatalf("resolved destination %+v is blocked", got)
	}
}

func TestResolveDestinationUnreachable(t *testing.T) {
	// A huge obstacle: the closest free point is farther than the tolerance.
	m := New(25, []Obstacle{{X: 0, Z: 0, Radius: 12}})
	_, err := ResolveDestination(m, Point{X: 0, Z: 0}, 2, 5)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}
