package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"plaza-server/config"
	"plaza-server/navmesh"
	"plaza-server/protocol"
)

// ErrConnectFailed is returned when the transport handshake (dial plus the
// join round trip) does not complete within the configured timeout.
var ErrConnectFailed = errors.New("connect failed")

const defaultHandshakeTimeout = 5 * time.Second

// EventKind identifies entries on the session's notification stream.
type EventKind int

const (
	EventPlayerJoined EventKind = iota
	EventPlayerLeft
	EventChat
	EventDisconnected
)

// Event is a structural notification for the UI layer. The session exposes a
// single typed channel instead of per-callback registration lists.
type Event struct {
	Kind   EventKind
	Player protocol.PlayerInfo
	Chat   protocol.Chat
}

// Options configures Connect.
type Options struct {
	URL              string // e.g. ws://localhost:8080/ws
	Name             string
	Avatar           string // optional explicit avatar request
	Log              *zap.SugaredLogger
	Nav              *navmesh.Model
	HandshakeTimeout time.Duration
}

// Session is one client's connection to a room: the local movement
// controller, the remote views it interpolates, and the event stream the UI
// subscribes to. Update must be called from a single goroutine (the per-frame
// render callback); network reads and writes happen on their own goroutines
// and never block it.
type Session struct {
	log    *zap.SugaredLogger
	conn   *websocket.Conn
	sendCh chan []byte
	inbox  chan inboundFrame
	events chan Event

	self    protocol.PlayerInfo
	mover   *Mover
	remotes map[string]*RemoteView

	tick         uint64
	lastFrame    time.Time
	disconnected bool
}

type inboundFrame struct {
	env protocol.Envelope
	err error
}

// Connect dials the room, performs the join handshake within a bounded
// timeout, and returns a running session. A handshake that cannot complete
// surfaces ErrConnectFailed instead of hanging.
func Connect(opts Options) (*Session, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop().Sugar()
	}
	if opts.Nav == nil {
		opts.Nav = navmesh.New(config.WORLD_EXTENT, navmesh.DefaultObstacles)
	}
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.Dial(opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectFailed, opts.URL, err)
	}

	joinFrame, err := protocol.Encode(protocol.MsgJoin, protocol.Join{Name: opts.Name, Avatar: opts.Avatar})
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(timeout))
	if err := conn.WriteMessage(websocket.TextMessage, joinFrame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: sending join: %v", ErrConnectFailed, err)
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	_, reply, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: awaiting join reply: %v", ErrConnectFailed, err)
	}
	env, err := protocol.DecodeEnvelope(reply)
	if err != nil || env.T != protocol.MsgJoinAccepted {
		conn.Close()
		return nil, fmt.Errorf("%w: unexpected join reply %q", ErrConnectFailed, env.T)
	}
	accepted, err := protocol.DecodePayload[protocol.JoinAccepted](env)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: malformed join reply: %v", ErrConnectFailed, err)
	}

	s := &Session{
		log:     opts.Log,
		conn:    conn,
		sendCh:  make(chan []byte, 256),
		inbox:   make(chan inboundFrame, 256),
		events:  make(chan Event, 64),
		self:    accepted.Player,
		remotes: make(map[string]*RemoteView),
		tick:    accepted.Tick,
	}
	s.mover = NewMover(opts.Nav, navmesh.Point{X: accepted.Player.X, Z: accepted.Player.Z}, s)
	for _, peer := range accepted.Peers {
		s.remotes[peer.ID] = NewRemoteView(peer)
	}

	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

// Self returns the local player's assigned fields.
func (s *Session) Self() protocol.PlayerInfo { return s.self }

// Mover returns the local movement controller.
func (s *Session) Mover() *Mover { return s.mover }

// Events returns the session's notification stream. Subscribe once.
func (s *Session) Events() <-chan Event { return s.events }

// ServerTick returns the last observed diagnostic room tick.
func (s *Session) ServerTick() uint64 { return s.tick }

// Remote returns the interpolated view of a remote player, if present.
func (s *Session) Remote(id string) (*RemoteView, bool) {
	rv, ok := s.remotes[id]
	return rv, ok
}

// HasRemotePlayer reports whether a remote view exists for id.
func (s *Session) HasRemotePlayer(id string) bool {
	_, ok := s.remotes[id]
	return ok
}

// Remotes returns all current remote views keyed by player id.
func (s *Session) Remotes() map[string]*RemoteView { return s.remotes }

// Disconnected reports whether the transport has been lost.
func (s *Session) Disconnected() bool { return s.disconnected }

// SendChat posts a chat line to the room.
func (s *Session) SendChat(text string) {
	frame, err := protocol.Encode(protocol.MsgChat, protocol.Chat{Text: text})
	if err != nil {
		s.log.Errorf("Session: encoding chat: %v", err)
		return
	}
	s.enqueueReliable(frame)
}

// Close tears the session down. Remote state is cleaned up by the authority's
// leave handling; there are no in-flight requests to cancel.
func (s *Session) Close() error {
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}

// Update runs one frame of the client core: it drains inbound frames, steps
// the local movement controller, and advances every remote interpolation.
// Call it from the render loop with the current time.
func (s *Session) Update(now time.Time) {
	dt := 0.0
	if !s.lastFrame.IsZero() {
		dt = now.Sub(s.lastFrame).Seconds()
	}
	s.lastFrame = now

	s.drainInbox(now)
	if !s.disconnected {
		s.mover.Update(now, dt)
	}
	for _, rv := range s.remotes {
		rv.Update(now, dt)
	}
}

func (s *Session) drainInbox(now time.Time) {
	for {
		select {
		case f := <-s.inbox:
			if f.err != nil {
				s.handleDisconnect(f.err)
				return
			}
			s.handleFrame(f.env, now)
		default:
			return
		}
	}
}

func (s *Session) handleFrame(env protocol.Envelope, now time.Time) {
	switch env.T {
	case protocol.MsgPlayerJoined:
		joined, err := protocol.DecodePayload[protocol.PlayerJoined](env)
		if err != nil {
			s.log.Warnf("Session: dropping bad player_joined: %v", err)
			return
		}
		rv := NewRemoteView(joined.Player)
		s.remotes[joined.Player.ID] = rv
		s.emit(Event{Kind: EventPlayerJoined, Player: joined.Player})
	case protocol.MsgPlayerLeft:
		left, err := protocol.DecodePayload[protocol.PlayerLeft](env)
		if err != nil {
			s.log.Warnf("Session: dropping bad player_left: %v", err)
			return
		}
		if rv, ok := s.remotes[left.ID]; ok {
			delete(s.remotes, left.ID)
			s.emit(Event{Kind: EventPlayerLeft, Player: rv.Player()})
		}
	case protocol.MsgPoseUpdate:
		pose, err := protocol.DecodePayload[protocol.PoseUpdate](env)
		if err != nil {
			s.log.Warnf("Session: dropping bad pose update: %v", err)
			return
		}
		if rv, ok := s.remotes[pose.ID]; ok {
			rv.Observe(pose, now)
		}
	case protocol.MsgClock:
		clock, err := protocol.DecodePayload[protocol.Clock](env)
		if err != nil {
			return
		}
		s.tick = clock.Tick
	case protocol.MsgChat:
		chat, err := protocol.DecodePayload[protocol.Chat](env)
		if err != nil {
			return
		}
		s.emit(Event{Kind: EventChat, Chat: chat})
	case protocol.MsgChatHistory:
		history, err := protocol.DecodePayload[protocol.ChatHistory](env)
		if err != nil {
			return
		}
		for _, chat := range history.Messages {
			s.emit(Event{Kind: EventChat, Chat: chat})
		}
	default:
		s.log.Warnf("Session: dropping unexpected %q frame", env.T)
	}
}

// handleDisconnect clears all remote views and surfaces a distinct
// disconnected state to the UI layer.
func (s *Session) handleDisconnect(err error) {
	if s.disconnected {
		return
	}
	s.disconnected = true
	s.remotes = make(map[string]*RemoteView)
	s.mover.Halt()
	s.log.Warnf("Session: disconnected: %v", err)
	s.emit(Event{Kind: EventDisconnected})
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		s.log.Warnf("Session: event buffer full, dropping %d", e.Kind)
	}
}

// ---------- intentSender (used by the Mover) ----------

// sendPose ships a transform sample on the best-effort channel. Loss under
// local backpressure is acceptable: only the latest sample matters.
func (s *Session) sendPose(p protocol.PoseUpdate, forced bool) {
	frame, err := protocol.Encode(protocol.MsgPoseUpdate, p)
	if err != nil {
		s.log.Errorf("Session: encoding pose: %v", err)
		return
	}
	select {
	case s.sendCh <- frame:
	default:
		if forced {
			// Edge updates (move start/stop) must not be shed locally; block
			// briefly rather than losing the movement boundary.
			s.sendCh <- frame
		}
	}
}

func (s *Session) sendMove(x, z float64) {
	frame, err := protocol.Encode(protocol.MsgMoveIntent, protocol.MoveIntent{TargetX: x, TargetZ: z})
	if err != nil {
		s.log.Errorf("Session: encoding move intent: %v", err)
		return
	}
	s.enqueueReliable(frame)
}

func (s *Session) sendStop() {
	frame, err := protocol.Encode(protocol.MsgStopIntent, protocol.StopIntent{})
	if err != nil {
		s.log.Errorf("Session: encoding stop intent: %v", err)
		return
	}
	s.enqueueReliable(frame)
}

func (s *Session) enqueueReliable(frame []byte) {
	select {
	case s.sendCh <- frame:
	default:
		s.log.Warnf("Session: send buffer full, reliable frame delayed")
		s.sendCh <- frame
	}
}

// ---------- Pumps ----------

func (s *Session) readLoop() {
	defer s.conn.Close()
	s.conn.SetReadDeadline(time.Time{})
	s.conn.SetPingHandler(func(appData string) error {
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.inbox <- inboundFrame{err: err}
			return
		}
		env, err := protocol.DecodeEnvelope(message)
		if err != nil {
			s.log.Warnf("Session: dropping malformed frame: %v", err)
			continue
		}
		select {
		case s.inbox <- inboundFrame{env: env}:
		default:
			// Inbox overflow: shed the frame. Pose updates are loss-tolerant
			// and structural events are rare enough that this only triggers
			// when Update has stopped being called.
			s.log.Warnf("Session: inbox full, dropping %q frame", env.T)
		}
	}
}

func (s *Session) writeLoop() {
	broken := false
	for frame := range s.sendCh {
		if broken {
			continue
		}
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			// A send failure is logged but never stalls the render loop; the
			// read loop surfaces the disconnect. Keep draining so enqueuers
			// never block on a dead transport.
			s.log.Warnf("Session: write failed: %v", err)
			broken = true
		}
	}
}

const writeTimeout = 10 * time.Second
