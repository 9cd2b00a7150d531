package navmesh

// DefaultObstacles is the static layout of the shared space: planters, desks
// and pillars modeled as circles. Both the authority (spawn placement) and
// every client (path planning) build their model from the same list.
var DefaultObstacles = []Obstacle{
	{X: 8, Z: 8, Radius: 2.0},
	{X: -8, Z: 8, Radius: 2.0},
	{X: 8, Z: -8, Radius: 2.0},
	{X: -8, Z: -8, Radius: 2.0},
	{X: 0, Z: 0, Radius: 3.0},
	{X: 16, Z: 0, Radius: 1.5},
	{X: -16, Z: 0, Radius: 1.5},
	{X: 0, Z: 16, Radius: 1.5},
	{X: 0, Z: -16, Radius: 1.5},
}
