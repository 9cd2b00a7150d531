package client

import (
	"math"
	"time"

	"plaza-server/config"
	"plaza-server/navmesh"
	"plaza-server/protocol"
)

// yawTurnRate controls how fast the local avatar's facing converges on its
// movement direction, in radians of remaining delta per second.
const yawTurnRate = 10.0

// destinationSearchRadius bounds the ClosestFree search when snapping a
// clicked destination off an obstacle.
const destinationSearchRadius = 10.0

// intentSender is the outbound half of the session as seen by the mover.
type intentSender interface {
	sendPose(p protocol.PoseUpdate, forced bool)
	sendMove(x, z float64)
	sendStop()
}

// Mover is the local movement controller: it turns a clicked target into a
// smoothed waypoint path and walks it with a fixed-speed steering loop,
// emitting throttled pose updates plus forced edge updates at move start and
// stop. It runs inside the per-frame render callback and never blocks.
type Mover struct {
	nav    *navmesh.Model
	sender intentSender

	pos  navmesh.Point
	alt  float64 // vertical coordinate, constant on the ground plane
	yaw  float64
	anim protocol.Animation

	path     []navmesh.Point
	moving   bool
	speed    float64
	throttle *Throttle
}

// NewMover creates a movement controller at the given spawn point.
func NewMover(nav *navmesh.Model, spawn navmesh.Point, sender intentSender) *Mover {
	return &Mover{
		nav:      nav,
		sender:   sender,
		pos:      spawn,
		anim:     protocol.AnimIdle,
		speed:    config.DefaultWalkSpeed,
		throttle: NewThrottle(config.POSE_SEND_INTERVAL),
	}
}

// Position returns the current local position on the ground plane.
func (m *Mover) Position() navmesh.Point { return m.pos }

// Yaw returns the current facing angle.
func (m *Mover) Yaw() float64 { return m.yaw }

// Anim returns the current animation state.
func (m *Mover) Anim() protocol.Animation { return m.anim }

// Moving reports whether a path is being walked.
func (m *Mover) Moving() bool { return m.moving }

// Path returns the remaining waypoints.
func (m *Mover) Path() []navmesh.Point { return m.path }

// SetDestination plans a path to the requested point and starts walking it.
// A destination inside an obstacle is snapped to the closest free point; when
// even that point is too far from the request, navmesh.ErrUnreachable is
// returned and the avatar stays put.
func (m *Mover) SetDestination(now time.Time, x, z float64) error {
	target, err := navmesh.ResolveDestination(m.nav, navmesh.Point{X: x, Z: z},
		destinationSearchRadius, config.UnreachableTolerance)
	if err != nil {
		return err
	}

	waypoints := navmesh.FindPath(m.nav, m.pos, target, config.ObstacleClearance)
	if waypoints == nil {
		waypoints = []navmesh.Point{target}
	}
	full := append([]navmesh.Point{m.pos}, waypoints...)
	m.path = navmesh.Smooth(m.nav, full)[1:]

	wasMoving := m.moving
	m.moving = true
	m.anim = protocol.AnimWalk

	m.sender.sendMove(target.X, target.Z)
	if !wasMoving {
		m.emitPose(now, true)
	}
	return nil
}

// Stop aborts the current path, if any, and reports the final pose.
func (m *Mover) Stop(now time.Time) {
	if !m.moving {
		return
	}
	m.finishMove(now)
}

// Halt clears movement state without emitting network traffic. Used when the
// transport is already gone.
func (m *Mover) Halt() {
	m.moving = false
	m.path = nil
	m.anim = protocol.AnimIdle
}

// Update advances the steering loop by one frame: walk toward the current
// waypoint at fixed speed, advance within the arrive threshold, and emit a
// throttled pose update while moving.
func (m *Mover) Update(now time.Time, dt float64) {
	if !m.moving || dt <= 0 {
		return
	}
	if len(m.path) == 0 {
		m.finishMove(now)
		return
	}

	target := m.path[0]
	dx := target.X - m.pos.X
	dz := target.Z - m.pos.Z
	dist := math.Sqrt(dx*dx + dz*dz)

	if dist > 1e-9 {
		desiredYaw := math.Atan2(dx, dz)
		turn := yawTurnRate * dt
		if turn > 1 {
			turn = 1
		}
		m.yaw += shortestAngle(desiredYaw-m.yaw) * turn

		step := m.speed * dt
		if step >= dist {
			m.pos = target
		} else {
			m.pos.X += dx / dist * step
			m.pos.Z += dz / dist * step
		}
	}

	if m.pos.Dist(target) <= config.WaypointArriveThreshold {
		m.path = m.path[1:]
		if len(m.path) == 0 {
			m.finishMove(now)
			return
		}
	}

	if m.throttle.Allow(now) {
		m.emitPose(now, false)
	}
}

// finishMove stops at the current position, flushes a final forced pose so
// observers see the exact resting transform, and sends the stop intent.
func (m *Mover) finishMove(now time.Time) {
	m.moving = false
	m.path = nil
	m.anim = protocol.AnimIdle
	m.emitPose(now, true)
	m.sender.sendStop()
}

func (m *Mover) emitPose(now time.Time, forced bool) {
	if forced {
		m.throttle.Force(now)
	}
	m.sender.sendPose(protocol.PoseUpdate{
		X:         m.pos.X,
		Y:         m.alt,
		Z:         m.pos.Z,
		Yaw:       m.yaw,
		Anim:      m.anim,
		Timestamp: now.UnixMilli(),
	}, forced)
}
