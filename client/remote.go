package client

import (
	"math"
	"time"

	"plaza-server/config"
	"plaza-server/protocol"
)

// AnimationSink receives animation state changes for one remote avatar. The
// render layer attaches one once the avatar's asset has finished loading;
// requests arriving before that are remembered, never dropped.
type AnimationSink interface {
	Play(anim protocol.Animation)
}

// RemoteView is the client-side interpolated view of one remote player. It
// consumes authoritative pose snapshots and produces a smoothed transform
// each frame, extrapolating briefly when updates stall (dead reckoning).
// Duplicate or out-of-order snapshots are harmless: only the latest target
// matters.
type RemoteView struct {
	player protocol.PlayerInfo

	renderX, renderY, renderZ float64
	renderYaw                 float64

	targetX, targetY, targetZ float64
	targetYaw                 float64

	velX, velY, velZ float64
	lastRecv         time.Time

	anim        protocol.Animation
	pendingAnim *protocol.Animation
	sink        AnimationSink
}

// NewRemoteView creates a view seeded with the player's replicated spawn
// state.
func NewRemoteView(p protocol.PlayerInfo) *RemoteView {
	return &RemoteView{
		player:    p,
		renderX:   p.X,
		renderY:   p.Y,
		renderZ:   p.Z,
		renderYaw: p.Yaw,
		targetX:   p.X,
		targetY:   p.Y,
		targetZ:   p.Z,
		targetYaw: p.Yaw,
		anim:      p.Anim,
	}
}

// Player returns the remote player's public identity fields.
func (r *RemoteView) Player() protocol.PlayerInfo { return r.player }

// Position returns the smoothed render position.
func (r *RemoteView) Position() (x, y, z float64) { return r.renderX, r.renderY, r.renderZ }

// Yaw returns the smoothed render facing.
func (r *RemoteView) Yaw() float64 { return r.renderYaw }

// Anim returns the currently applied animation state.
func (r *RemoteView) Anim() protocol.Animation { return r.anim }

// Observe ingests an authoritative pose snapshot. Velocity is estimated from
// the delta between the new report and the previous target (not the rendered
// position) over wall-clock receive time.
func (r *RemoteView) Observe(p protocol.PoseUpdate, now time.Time) {
	if !r.lastRecv.IsZero() {
		if dt := now.Sub(r.lastRecv).Seconds(); dt > 0 {
			r.velX = (p.X - r.targetX) / dt
			r.velY = (p.Y - r.targetY) / dt
			r.velZ = (p.Z - r.targetZ) / dt
		}
	}
	r.targetX, r.targetY, r.targetZ = p.X, p.Y, p.Z
	r.targetYaw = p.Yaw
	r.lastRecv = now

	if p.Anim != r.anim || r.pendingAnim != nil {
		r.requestAnim(p.Anim)
	}
}

// AttachAvatar connects the loaded avatar asset. Any animation requested
// while the asset was still loading is applied immediately.
func (r *RemoteView) AttachAvatar(sink AnimationSink) {
	r.sink = sink
	if r.pendingAnim != nil {
		anim := *r.pendingAnim
		r.pendingAnim = nil
		r.anim = anim
		sink.Play(anim)
		return
	}
	sink.Play(r.anim)
}

func (r *RemoteView) requestAnim(anim protocol.Animation) {
	if r.sink == nil {
		r.pendingAnim = &anim
		return
	}
	r.pendingAnim = nil
	r.anim = anim
	r.sink.Play(anim)
}

// speed returns the magnitude of the estimated velocity.
func (r *RemoteView) speed() float64 {
	return math.Sqrt(r.velX*r.velX + r.velY*r.velY + r.velZ*r.velZ)
}

// Update advances the view by one render frame: extrapolate the target when
// updates have stalled, then move the rendered transform a fixed fraction of
// the remaining distance toward it (exponential smoothing, monotone and
// overshoot-free), with shortest-angle interpolation for yaw.
func (r *RemoteView) Update(now time.Time, dt float64) {
	if dt > 0 && !r.lastRecv.IsZero() &&
		now.Sub(r.lastRecv) > config.StaleAfter && r.speed() > config.MinExtrapolationSpeed {
		r.targetX += r.velX * dt
		r.targetY += r.velY * dt
		r.targetZ += r.velZ * dt
	}

	r.renderX += (r.targetX - r.renderX) * config.RemoteSmoothing
	r.renderY += (r.targetY - r.renderY) * config.RemoteSmoothing
	r.renderZ += (r.targetZ - r.renderZ) * config.RemoteSmoothing
	r.renderYaw += shortestAngle(r.targetYaw-r.renderYaw) * config.RemoteSmoothing
}
