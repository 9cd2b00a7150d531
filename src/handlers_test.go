package game

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"plaza-server/protocol"
)

func newWSTestServer(t *testing.T, capacity int) (*httptest.Server, *Room) {
	t.Helper()
	room := NewRoom(RoomConfig{Capacity: capacity, Seed: 1})
	go room.Run()
	t.Cleanup(room.Close)

	srv := NewServer(nil, room)
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleConnections))
	t.Cleanup(ts.Close)
	return ts, room
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	b, err := protocol.Encode(kind, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", kind, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

// awaitKind reads frames until one of the wanted kind arrives, skipping the
// clock ticks interleaved by the room.
func awaitKind(t *testing.T, conn *websocket.Conn, kind string) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("awaiting %s: %v", kind, err)
		}
		env, err := protocol.DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode while awaiting %s: %v", kind, err)
		}
		if env.T == kind {
			return env
		}
	}
}

func joinWS(t *testing.T, ts *httptest.Server, name string) (*websocket.Conn, protocol.JoinAccepted) {
	t.Helper()
	conn := dialWS(t, ts)
	sendFrame(t, conn, protocol.MsgJoin, protocol.Join{Name: name})
	env := awaitKind(t, conn, protocol.MsgJoinAccepted)
	accepted, err := protocol.DecodePayload[protocol.JoinAccepted](env)
	if err != nil {
		t.Fatalf("decode join_accepted: %v", err)
	}
	return conn, accepted
}

func TestWebsocketJoinHandshake(t *testing.T) {
	ts, _ := newWSTestServer(t, 4)

	_, accepted := joinWS(t, ts, "alice")
	if accepted.Player.ID == "" || accepted.Player.Name != "alice" {
		t.Fatalf("accepted player = %+v", accepted.Player)
	}
	if len(accepted.Peers) != 0 {
		t.Fatalf("first joiner has peers: %+v", accepted.Peers)
	}
}

func TestWebsocketPeersSeeEachOther(t *testing.T) {
	ts, _ := newWSTestServer(t, 4)

	connA, a := joinWS(t, ts, "alice")
	_, b := joinWS(t, ts, "bob")

	if len(b.Peers) != 1 || b.Peers[0].ID != a.Player.ID {
		t.Fatalf("bob's peers = %+v, want alice", b.Peers)
	}

	env := awaitKind(t, connA, protocol.MsgPlayerJoined)
	joined, err := protocol.DecodePayload[protocol.PlayerJoined](env)
	if err != nil {
		t.Fatalf("decode player_joined: %v", err)
	}
	if joined.Player.ID != b.Player.ID {
		t.Fatalf("alice saw joiner %q, want %q", joined.Player.ID, b.Player.ID)
	}
}

func TestWebsocketPoseReachesPeers(t *testing.T) {
	ts, _ := newWSTestServer(t, 4)

	connA, a := joinWS(t, ts, "alice")
	connB, _ := joinWS(t, ts, "bob")
	awaitKind(t, connA, protocol.MsgPlayerJoined)

	sendFrame(t, connA, protocol.MsgPoseUpdate, protocol.PoseUpdate{
		X: 1.5, Z: -2.5, Yaw: 0.25, Anim: protocol.AnimWalk,
	})

	env := awaitKind(t, connB, protocol.MsgPoseUpdate)
	pose, err := protocol.DecodePayload[protocol.PoseUpdate](env)
	if err != nil {
		t.Fatalf("decode pose: %v", err)
	}
	if pose.ID != a.Player.ID || pose.X != 1.5 || pose.Z != -2.5 {
		t.Fatalf("pose = %+v", pose)
	}
}

func TestWebsocketLeaveOnClose(t *testing.T) {
	ts, room := newWSTestServer(t, 4)

	connA, _ := joinWS(t, ts, "alice")
	connB, _ := joinWS(t, ts, "bob")
	awaitKind(t, connA, protocol.MsgPlayerJoined)

	connB.Close()

	env := awaitKind(t, connA, protocol.MsgPlayerLeft)
	if _, err := protocol.DecodePayload[protocol.PlayerLeft](env); err != nil {
		t.Fatalf("decode player_left: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for room.Stats().Players != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("room never dropped the closed session")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebsocketJoinRejectedWhenFull(t *testing.T) {
	ts, _ := newWSTestServer(t, 1)

	joinWS(t, ts, "alice")

	conn := dialWS(t, ts)
	sendFrame(t, conn, protocol.MsgJoin, protocol.Join{Name: "bob"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Fatalf("expected try-again-later close, got %v", err)
	}
}

func TestWebsocketRejectsNonJoinFirstFrame(t *testing.T) {
	ts, room := newWSTestServer(t, 4)

	conn := dialWS(t, ts)
	sendFrame(t, conn, protocol.MsgPoseUpdate, protocol.PoseUpdate{X: 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to be closed")
	}
	if got := room.Stats().Players; got != 0 {
		t.Fatalf("players = %d after rejected handshake, want 0", got)
	}
}
