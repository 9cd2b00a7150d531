package protocol

import (
	"encoding/json"
)

// Message kinds. Every wire message is an Envelope whose T field is one of
// these tags; anything else is rejected by the codec.
const (
	MsgJoin         = "join"
	MsgJoinAccepted = "join_accepted"
	MsgPlayerJoined = "player_joined"
	MsgMoveIntent   = "move_intent"
	MsgPoseUpdate   = "pose_update"
	MsgStopIntent   = "stop_intent"
	MsgPlayerLeft   = "player_left"
	MsgClock        = "clock"
	MsgChat         = "chat"
	MsgChatHistory  = "chat_history"
)

// Channel is the reliability class of a message kind. Structural events ride
// the reliable channel; high-frequency pose data is best-effort and may be
// dropped under pressure, since only the latest value matters.
type Channel int

const (
	Reliable Channel = iota
	BestEffort
)

// ClassOf reports the reliability class for a message kind. Unknown kinds are
// treated as reliable so they are never silently shed before being rejected.
func ClassOf(kind string) Channel {
	switch kind {
	case MsgPoseUpdate, MsgClock:
		return BestEffort
	default:
		return Reliable
	}
}

// Animation is the closed set of replicated animation states.
type Animation int

const (
	AnimIdle Animation = iota
	AnimWalk
)

// String returns the stable name used in logs and asset clip lookup.
func (a Animation) String() string {
	switch a {
	case AnimWalk:
		return "walk"
	default:
		return "idle"
	}
}

// Envelope is the outer frame of every message: a tag plus raw payload bytes.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

// Join is the first message a client sends after connecting.
type Join struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PlayerInfo carries the public, replicated fields of one player.
type PlayerInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Avatar      string    `json:"avatar"`
	ProfileSlot int       `json:"profileSlot"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Z           float64   `json:"z"`
	Yaw         float64   `json:"yaw"`
	Anim        Animation `json:"anim"`
	Moving      bool      `json:"moving"`
}

// JoinAccepted is the authority's reply to Join. Peers lists players already
// in the room so the joiner can build its remote views; it never includes the
// joiner itself.
type JoinAccepted struct {
	Player PlayerInfo   `json:"player"`
	Peers  []PlayerInfo `json:"peers"`
	Tick   uint64       `json:"tick"`
}

// PlayerJoined notifies existing sessions about a new player.
type PlayerJoined struct {
	Player PlayerInfo `json:"player"`
}

// MoveIntent asks the authority to walk the sender toward a target point on
// the ground plane.
type MoveIntent struct {
	TargetX float64 `json:"targetX"`
	TargetZ float64 `json:"targetZ"`
}

// PoseUpdate reports a transform sample. Client to authority it carries the
// sender's own pose (ID empty); authority to clients it is stamped with the
// owning player's id and timestamp.
type PoseUpdate struct {
	ID        string    `json:"id,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Yaw       float64   `json:"yaw"`
	Anim      Animation `json:"anim"`
	Timestamp int64     `json:"ts"` // unix milliseconds
}

// StopIntent tells the authority the sender finished or aborted its move.
type StopIntent struct{}

// PlayerLeft notifies remaining sessions that a player disconnected.
type PlayerLeft struct {
	ID string `json:"id"`
}

// Clock carries the diagnostic room tick, advanced at a fixed server cadence.
type Clock struct {
	Tick uint64 `json:"tick"`
}

// Chat is a room-wide text message. The authority stamps ID, Name and
// Timestamp before broadcasting.
type Chat struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"ts,omitempty"`
}

// ChatHistory replays recent chat to a joining session.
type ChatHistory struct {
	Messages []Chat `json:"messages"`
}
