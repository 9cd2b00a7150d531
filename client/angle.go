package client

import "math"

// shortestAngle normalizes an angular delta to (-π, π] so interpolation
// always turns the short way around.
func shortestAngle(delta float64) float64 {
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}
	return delta
}
