package config

import "time"

// World Dimensions
const (
	// WORLD_EXTENT is the half-side of the square walkable area. Positions are
	// clamped to [-WORLD_EXTENT, WORLD_EXTENT] on the X and Z axes.
	WORLD_EXTENT = 25.0
	// WORLD_SIDE is the full side length of the walkable square.
	WORLD_SIDE = WORLD_EXTENT * 2
)

// Movement
const (
	// DefaultWalkSpeed is the avatar movement speed in world units per second.
	DefaultWalkSpeed = 2.0
	// WaypointArriveThreshold is how close an avatar must be to a waypoint
	// before advancing to the next one.
	WaypointArriveThreshold = 0.5
	// UnreachableTolerance is the maximum distance between a requested
	// destination and its nearest free point before the request is rejected.
	UnreachableTolerance = 5.0
	// ObstacleClearance is the extra margin added around obstacle radii when
	// computing detour points.
	ObstacleClearance = 0.8
)

// Replication Cadence
const (
	// POSE_SEND_INTERVAL rate-limits outbound pose updates from a moving
	// local avatar (20 Hz).
	POSE_SEND_INTERVAL = 50 * time.Millisecond
	// ROOM_CLOCK_INTERVAL advances the diagnostic room clock (10 Hz).
	ROOM_CLOCK_INTERVAL = 100 * time.Millisecond
)

// Interpolation
const (
	// RemoteSmoothing is the fraction of the remaining distance a remote
	// avatar's rendered transform covers each frame.
	RemoteSmoothing = 0.15
	// StaleAfter is how long a remote avatar may go without a pose update
	// before dead reckoning kicks in.
	StaleAfter = 100 * time.Millisecond
	// MinExtrapolationSpeed is the estimated speed below which a stale remote
	// avatar is held in place instead of extrapolated.
	MinExtrapolationSpeed = 0.1
)

// Room
const (
	// DefaultRoomCapacity is the maximum number of concurrent sessions per room.
	DefaultRoomCapacity = 20
	// ChatHistoryLimit caps the number of chat messages replayed to joiners.
	ChatHistoryLimit = 100
)
