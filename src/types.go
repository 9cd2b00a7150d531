package game

import (
	"errors"
	"time"

	"plaza-server/protocol"
)

// Errors surfaced by the room authority.
var (
	// ErrRoomFull rejects a join once the configured capacity is reached.
	ErrRoomFull = errors.New("room is full")
	// ErrUnknownPlayer marks a message referencing a session that is not in
	// the canonical map, usually a race between leave and an in-flight frame.
	ErrUnknownPlayer = errors.New("unknown player")
)

// Conn is the outbound half of a connected session, as seen by the room.
// Send carries reliable frames and reports delivery failure; TrySend carries
// best-effort frames and may shed them when the peer is backed up.
type Conn interface {
	Send(b []byte) error
	TrySend(b []byte) bool
	Close() error
}

// PlayerState is the canonical replicated state of one connected session.
// It is owned exclusively by the room goroutine and never mutated elsewhere.
type PlayerState struct {
	ID          string
	Name        string
	Avatar      string
	ProfileSlot int

	X, Y, Z float64
	Yaw     float64
	Anim    protocol.Animation

	DestX, DestZ float64
	HasDest      bool
	Moving       bool

	// LastUpdate strictly increases across accepted mutations for this player.
	LastUpdate time.Time

	conn Conn
}

// Info returns the public, replicated view of the player.
func (p *PlayerState) Info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		ID:          p.ID,
		Name:        p.Name,
		Avatar:      p.Avatar,
		ProfileSlot: p.ProfileSlot,
		X:           p.X,
		Y:           p.Y,
		Z:           p.Z,
		Yaw:         p.Yaw,
		Anim:        p.Anim,
		Moving:      p.Moving,
	}
}

// Room commands. All mutations funnel through the room inbox so the canonical
// player map is only ever touched by the room goroutine.

type joinCmd struct {
	name   string
	avatar string
	conn   Conn
	reply  chan joinResult
}

type joinResult struct {
	self protocol.PlayerInfo
	err  error
}

type moveCmd struct {
	id      string
	targetX float64
	targetZ float64
}

type poseCmd struct {
	id   string
	pose protocol.PoseUpdate
}

type stopCmd struct{ id string }

type leaveCmd struct{ id string }

type chatCmd struct {
	id   string
	text string
}

type statsCmd struct{ reply chan Stats }

// Stats is a point-in-time summary of the room, served by the metrics API.
type Stats struct {
	Players   int           `json:"players"`
	Moving    int           `json:"moving"`
	Capacity  int           `json:"capacity"`
	Tick      uint64        `json:"tick"`
	Uptime    time.Duration `json:"-"`
	UptimeSec int64         `json:"uptime_sec"`
}
