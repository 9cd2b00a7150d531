package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"plaza-server/config"
	"plaza-server/navmesh"
	"plaza-server/protocol"
)

// RoomConfig configures a room authority.
type RoomConfig struct {
	Log      *zap.SugaredLogger
	Capacity int
	Catalog  Catalog
	Nav      *navmesh.Model
	Seed     int64
}

// Room is the single authority for one shared space. It owns the canonical
// player map and processes every join/move/pose/stop/leave command on one
// goroutine, in receipt order, so the map is never touched concurrently.
type Room struct {
	log      *zap.SugaredLogger
	inbox    chan any
	quit     chan struct{}
	players  map[string]*PlayerState
	capacity int
	catalog  Catalog
	nav      *navmesh.Model
	slotCtr  int
	tick     uint64
	chat     []protocol.Chat
	rng      *rand.Rand
	started  time.Time
}

// NewRoom creates a room authority. Call Run to start processing commands.
func NewRoom(cfg RoomConfig) *Room {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = config.DefaultRoomCapacity
	}
	if len(cfg.Catalog) == 0 {
		cfg.Catalog = DefaultCatalog
	}
	if cfg.Nav == nil {
		cfg.Nav = navmesh.New(config.WORLD_EXTENT, navmesh.DefaultObstacles)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Room{
		log:      cfg.Log,
		inbox:    make(chan any, 256),
		quit:     make(chan struct{}),
		players:  make(map[string]*PlayerState),
		capacity: cfg.Capacity,
		catalog:  cfg.Catalog,
		nav:      cfg.Nav,
		chat:     make([]protocol.Chat, 0, config.ChatHistoryLimit),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		started:  time.Now(),
	}
}

// Run processes commands and advances the diagnostic room clock until Close
// is called. It is the only goroutine that mutates room state.
func (r *Room) Run() {
	ticker := time.NewTicker(config.ROOM_CLOCK_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case <-ticker.C:
			r.tick++
			r.broadcastBestEffort(protocol.MsgClock, protocol.Clock{Tick: r.tick}, "")
		}
	}
}

// Close stops the room goroutine.
func (r *Room) Close() {
	close(r.quit)
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- r.handleJoin(c)
	case moveCmd:
		r.handleMove(c)
	case poseCmd:
		r.handlePose(c)
	case stopCmd:
		r.handleStop(c.id)
	case leaveCmd:
		r.handleLeave(c.id)
	case chatCmd:
		r.handleChat(c)
	case statsCmd:
		c.reply <- r.stats()
	default:
		r.log.Warnf("Room: dropping unknown command %T", cmd)
	}
}

// ---------- Public command API ----------

// Join admits a new session. It blocks until the room goroutine has processed
// the command and returns the assigned player state fields.
func (r *Room) Join(requestedName, requestedAvatar string, conn Conn) (protocol.PlayerInfo, error) {
	reply := make(chan joinResult, 1)
	r.inbox <- joinCmd{name: requestedName, avatar: requestedAvatar, conn: conn, reply: reply}
	res := <-reply
	return res.self, res.err
}

// ApplyMoveIntent records a validated movement destination for a player.
func (r *Room) ApplyMoveIntent(id string, targetX, targetZ float64) {
	r.inbox <- moveCmd{id: id, targetX: targetX, targetZ: targetZ}
}

// ApplyPoseIntent records a client-reported transform sample.
func (r *Room) ApplyPoseIntent(id string, pose protocol.PoseUpdate) {
	r.inbox <- poseCmd{id: id, pose: pose}
}

// ApplyStop marks a player as no longer moving.
func (r *Room) ApplyStop(id string) {
	r.inbox <- stopCmd{id: id}
}

// Leave removes a player from the room.
func (r *Room) Leave(id string) {
	r.inbox <- leaveCmd{id: id}
}

// PostChat broadcasts a chat line from the given player to the whole room.
func (r *Room) PostChat(id, text string) {
	r.inbox <- chatCmd{id: id, text: text}
}

// Stats returns a point-in-time summary of the room.
func (r *Room) Stats() Stats {
	reply := make(chan Stats, 1)
	r.inbox <- statsCmd{reply: reply}
	return <-reply
}

// ---------- Command handlers (room goroutine only) ----------

func (r *Room) handleJoin(c joinCmd) joinResult {
	if len(r.players) >= r.capacity {
		r.log.Warnf("Room: join rejected for %q: %v", c.name, ErrRoomFull)
		return joinResult{err: ErrRoomFull}
	}

	id := uuid.New().String()
	slot := r.slotCtr % len(r.catalog)
	r.slotCtr++

	avatar := r.catalog[slot].Ref
	if c.avatar != "" && r.catalog.Has(c.avatar) {
		avatar = c.avatar
	}

	name := c.name
	if name == "" {
		name = fmt.Sprintf("guest-%d", r.slotCtr)
	}

	spawn := r.randomSpawn()
	p := &PlayerState{
		ID:          id,
		Name:        name,
		Avatar:      avatar,
		ProfileSlot: slot,
		X:           spawn.X,
		Z:           spawn.Z,
		// Preset to walk so the avatar never renders in a bind pose while
		// the first real animation state arrives.
		Anim:       protocol.AnimWalk,
		Moving:     false,
		LastUpdate: time.Now(),
		conn:       c.conn,
	}

	peers := make([]protocol.PlayerInfo, 0, len(r.players))
	for _, other := range r.players {
		peers = append(peers, other.Info())
	}
	r.players[id] = p

	accepted, err := protocol.Encode(protocol.MsgJoinAccepted, protocol.JoinAccepted{
		Player: p.Info(),
		Peers:  peers,
		Tick:   r.tick,
	})
	if err != nil {
		delete(r.players, id)
		return joinResult{err: err}
	}
	if err := c.conn.Send(accepted); err != nil {
		delete(r.players, id)
		return joinResult{err: err}
	}

	r.sendChatHistory(p)
	r.broadcastReliable(protocol.MsgPlayerJoined, protocol.PlayerJoined{Player: p.Info()}, id)
	r.log.Infof("Room: player %s (%q) joined at (%.1f, %.1f), slot %d", id, name, spawn.X, spawn.Z, slot)
	return joinResult{self: p.Info()}
}

func (r *Room) handleMove(c moveCmd) {
	p, ok := r.players[c.id]
	if !ok {
		r.log.Warnf("Room: move intent from %s: %v", c.id, ErrUnknownPlayer)
		return
	}
	// Out-of-range targets are silently clamped per axis, never rejected.
	target := r.nav.Clamp(navmesh.Point{X: c.targetX, Z: c.targetZ})
	p.DestX, p.DestZ = target.X, target.Z
	p.HasDest = true
	p.Moving = true
	p.Anim = protocol.AnimWalk
	r.stampUpdate(p)
}

func (r *Room) handlePose(c poseCmd) {
	p, ok := r.players[c.id]
	if !ok {
		r.log.Warnf("Room: pose update from %s: %v", c.id, ErrUnknownPlayer)
		return
	}
	// Client-reported transforms are trusted verbatim. This is a documented
	// trust boundary of the design, not missing validation.
	p.X, p.Y, p.Z = c.pose.X, c.pose.Y, c.pose.Z
	p.Yaw = c.pose.Yaw
	p.Anim = c.pose.Anim
	r.stampUpdate(p)

	r.broadcastBestEffort(protocol.MsgPoseUpdate, protocol.PoseUpdate{
		ID:        p.ID,
		X:         p.X,
		Y:         p.Y,
		Z:         p.Z,
		Yaw:       p.Yaw,
		Anim:      p.Anim,
		Timestamp: p.LastUpdate.UnixMilli(),
	}, p.ID)
}

func (r *Room) handleStop(id string) {
	p, ok := r.players[id]
	if !ok {
		r.log.Warnf("Room: stop intent from %s: %v", id, ErrUnknownPlayer)
		return
	}
	p.Moving = false
	p.HasDest = false
	p.Anim = protocol.AnimIdle
	r.stampUpdate(p)
}

func (r *Room) handleLeave(id string) {
	p, ok := r.players[id]
	if !ok {
		return
	}
	delete(r.players, id)
	_ = p.conn.Close()
	r.broadcastReliable(protocol.MsgPlayerLeft, protocol.PlayerLeft{ID: id}, "")
	r.log.Infof("Room: player %s left (%d remaining)", id, len(r.players))
}

func (r *Room) handleChat(c chatCmd) {
	p, ok := r.players[c.id]
	if !ok {
		r.log.Warnf("Room: chat from %s: %v", c.id, ErrUnknownPlayer)
		return
	}
	if c.text == "" {
		return
	}
	msg := protocol.Chat{
		ID:        p.ID,
		Name:      p.Name,
		Text:      c.text,
		Timestamp: time.Now().UnixMilli(),
	}
	r.chat = append(r.chat, msg)
	if len(r.chat) > config.ChatHistoryLimit {
		r.chat = r.chat[len(r.chat)-config.ChatHistoryLimit:]
	}
	r.broadcastReliable(protocol.MsgChat, msg, "")
}

func (r *Room) stats() Stats {
	moving := 0
	for _, p := range r.players {
		if p.Moving {
			moving++
		}
	}
	uptime := time.Since(r.started)
	return Stats{
		Players:   len(r.players),
		Moving:    moving,
		Capacity:  r.capacity,
		Tick:      r.tick,
		Uptime:    uptime,
		UptimeSec: int64(uptime.Seconds()),
	}
}

// ---------- Internals ----------

// stampUpdate advances the player's update timestamp, keeping it strictly
// increasing even when the wall clock does not move between mutations.
func (r *Room) stampUpdate(p *PlayerState) {
	now := time.Now()
	if !now.After(p.LastUpdate) {
		now = p.LastUpdate.Add(time.Nanosecond)
	}
	p.LastUpdate = now
}

// randomSpawn picks a random in-bounds point, nudged off any obstacle.
func (r *Room) randomSpawn() navmesh.Point {
	extent := r.nav.Extent()
	p := navmesh.Point{
		X: (r.rng.Float64()*2 - 1) * (extent - 1),
		Z: (r.rng.Float64()*2 - 1) * (extent - 1),
	}
	return r.nav.Clamp(r.nav.ClosestFree(p, extent))
}

func (r *Room) sendChatHistory(p *PlayerState) {
	if len(r.chat) == 0 {
		return
	}
	history := protocol.ChatHistory{Messages: append([]protocol.Chat(nil), r.chat...)}
	b, err := protocol.Encode(protocol.MsgChatHistory, history)
	if err != nil {
		r.log.Errorf("Room: encoding chat history: %v", err)
		return
	}
	if err := p.conn.Send(b); err != nil {
		r.log.Warnf("Room: sending chat history to %s: %v", p.ID, err)
	}
}

// broadcastReliable fans a reliable frame out to every player except the one
// named by except. A session that cannot take a reliable frame is removed:
// selective drops would break ordering guarantees for it.
func (r *Room) broadcastReliable(kind string, payload any, except string) {
	b, err := protocol.Encode(kind, payload)
	if err != nil {
		r.log.Errorf("Room: encoding %s broadcast: %v", kind, err)
		return
	}
	var failed []string
	for id, p := range r.players {
		if id == except {
			continue
		}
		if err := p.conn.Send(b); err != nil {
			r.log.Warnf("Room: reliable send to %s failed: %v", id, err)
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		r.handleLeave(id)
	}
}

// broadcastBestEffort fans a loss-tolerant frame out, shedding it for any
// session whose buffer is full. Only the latest value matters on this channel.
func (r *Room) broadcastBestEffort(kind string, payload any, except string) {
	if len(r.players) == 0 {
		return
	}
	b, err := protocol.Encode(kind, payload)
	if err != nil {
		r.log.Errorf("Room: encoding %s broadcast: %v", kind, err)
		return
	}
	for id, p := range r.players {
		if id == except {
			continue
		}
		p.conn.TrySend(b)
	}
}
