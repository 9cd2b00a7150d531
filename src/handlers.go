package game

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"plaza-server/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	joinWait       = 10 * time.Second
	maxMessageSize = 1024
	sendBufferSize = 256
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// Server upgrades HTTP requests to websocket sessions and binds them to the
// room authority.
type Server struct {
	log      *zap.SugaredLogger
	room     *Room
	upgrader websocket.Upgrader
}

// NewServer creates the websocket front end for a room.
func NewServer(log *zap.SugaredLogger, room *Room) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{
		log:  log,
		room: room,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnections upgrades the request and runs the session handshake: the
// first frame must be a join, answered by the room before the pumps start.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WS: upgrade failed: %v", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(joinWait))
	_, first, err := conn.ReadMessage()
	if err != nil {
		s.log.Warnf("WS: no join frame from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	env, err := protocol.DecodeEnvelope(first)
	if err != nil || env.T != protocol.MsgJoin {
		s.log.Warnf("WS: expected join from %s, got %q", conn.RemoteAddr(), env.T)
		conn.Close()
		return
	}
	join, err := protocol.DecodePayload[protocol.Join](env)
	if err != nil {
		s.log.Warnf("WS: malformed join from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	wc := newWSConn(conn)
	go wc.writePump(s.log)

	self, err := s.room.Join(join.Name, join.Avatar, wc)
	if err != nil {
		s.log.Warnf("WS: join for %s rejected: %v", conn.RemoteAddr(), err)
		wc.closeWith(websocket.CloseTryAgainLater, err.Error())
		return
	}

	go wc.readPump(s.log, s.room, self.ID)
}

// wsConn adapts a gorilla connection to the room's Conn interface. Reliable
// sends fail when the buffer is full (the room then drops the session);
// best-effort sends are shed silently.
type wsConn struct {
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(b []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	case c.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) TrySend(b []byte) bool {
	select {
	case <-c.closed:
		return false
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *wsConn) closeWith(code int, reason string) {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.Close()
}

// readPump reads frames for the session's lifetime. Malformed frames are
// logged and dropped; they never take the room down. On any read error the
// session leaves the room.
func (c *wsConn) readPump(log *zap.SugaredLogger, room *Room, playerID string) {
	defer func() {
		room.Leave(playerID)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("WS: read error for %s: %v", playerID, err)
			}
			return
		}

		env, err := protocol.DecodeEnvelope(message)
		if err != nil {
			log.Warnf("WS: dropping malformed frame from %s: %v", playerID, err)
			continue
		}

		switch env.T {
		case protocol.MsgMoveIntent:
			intent, err := protocol.DecodePayload[protocol.MoveIntent](env)
			if err != nil {
				log.Warnf("WS: dropping bad move intent from %s: %v", playerID, err)
				continue
			}
			room.ApplyMoveIntent(playerID, intent.TargetX, intent.TargetZ)
		case protocol.MsgPoseUpdate:
			pose, err := protocol.DecodePayload[protocol.PoseUpdate](env)
			if err != nil {
				log.Warnf("WS: dropping bad pose update from %s: %v", playerID, err)
				continue
			}
			room.ApplyPoseIntent(playerID, pose)
		case protocol.MsgStopIntent:
			room.ApplyStop(playerID)
		case protocol.MsgChat:
			chat, err := protocol.DecodePayload[protocol.Chat](env)
			if err != nil {
				log.Warnf("WS: dropping bad chat from %s: %v", playerID, err)
				continue
			}
			room.PostChat(playerID, chat.Text)
		default:
			log.Warnf("WS: dropping unexpected %q frame from %s", env.T, playerID)
		}
	}
}

// writePump drains the send buffer to the socket and keeps the heartbeat
// alive. A dead transport is detected by the peer's pong timeout; there is no
// application-level idle timeout.
func (c *wsConn) writePump(log *zap.SugaredLogger) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
