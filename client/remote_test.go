package client

import (
	"math"
	"testing"
	"time"

	"plaza-server/config"
	"plaza-server/protocol"
)

type fakeSink struct {
	played []protocol.Animation
}

func (f *fakeSink) Play(anim protocol.Animation) {
	f.played = append(f.played, anim)
}

func TestRemoteViewConvergesWithoutOvershoot(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1"})

	rv.Observe(protocol.PoseUpdate{X: 10}, base)

	prevDist := math.Inf(1)
	for i := 0; i < 200; i++ {
		rv.Update(base, 0.016)
		x, _, _ := rv.Position()
		if x > 10 {
			t.Fatalf("render position %v overshot the target at frame %d", x, i)
		}
		dist := 10 - x
		if dist > prevDist {
			t.Fatalf("distance to target grew at frame %d: %v -> %v", i, prevDist, dist)
		}
		prevDist = dist
	}
	if prevDist > 0.01 {
		t.Fatalf("render position did not converge, still %v away", prevDist)
	}
}

func TestRemoteViewSmoothingFraction(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1"})
	rv.Observe(protocol.PoseUpdate{X: 10}, base)

	rv.Update(base, 0.016)
	x, _, _ := rv.Position()
	want := 10 * config.RemoteSmoothing
	if math.Abs(x-want) > 1e-9 {
		t.Fatalf("one frame moved to %v, want fraction %v of the gap", x, want)
	}
}

func TestRemoteViewDeadReckonsWhenStale(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1"})

	// Two samples 100ms apart establish a velocity of 10 units per second.
	rv.Observe(protocol.PoseUpdate{X: 0}, base)
	rv.Observe(protocol.PoseUpdate{X: 1}, base.Add(100*time.Millisecond))

	stale := base.Add(100 * time.Millisecond).Add(config.StaleAfter + 50*time.Millisecond)
	before := rv.targetX
	rv.Update(stale, 0.05)
	wantTarget := before + 10*0.05
	if math.Abs(rv.targetX-wantTarget) > 1e-9 {
		t.Fatalf("stale target = %v, want extrapolated %v", rv.targetX, wantTarget)
	}
}

func TestRemoteViewNoExtrapolationWhenFresh(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1"})

	rv.Observe(protocol.PoseUpdate{X: 0}, base)
	rv.Observe(protocol.PoseUpdate{X: 1}, base.Add(100*time.Millisecond))

	fresh := base.Add(100 * time.Millisecond).Add(config.StaleAfter / 2)
	rv.Update(fresh, 0.05)
	if rv.targetX != 1 {
		t.Fatalf("fresh target moved to %v, want 1", rv.targetX)
	}
}

func TestRemoteViewNoExtrapolationWhenNearlyStill(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1"})

	// Two nearly identical samples: estimated speed is below the floor.
	rv.Observe(protocol.PoseUpdate{X: 1.0}, base)
	rv.Observe(protocol.PoseUpdate{X: 1.001}, base.Add(time.Second))

	stale := base.Add(time.Second).Add(config.StaleAfter * 3)
	rv.Update(stale, 0.05)
	if rv.targetX != 1.001 {
		t.Fatalf("near-still target extrapolated to %v", rv.targetX)
	}
}

func TestRemoteViewYawTakesShortWay(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1", Yaw: -3.0})
	rv.Observe(protocol.PoseUpdate{Yaw: 3.0}, base)

	rv.Update(base, 0.016)
	// The short way from -3.0 to 3.0 crosses the -pi boundary, so the render
	// yaw decreases instead of sweeping up through zero.
	if rv.Yaw() >= -3.0 {
		t.Fatalf("yaw %v swept the long way around", rv.Yaw())
	}
}

func TestRemoteViewBuffersAnimationUntilAvatarLoads(t *testing.T) {
	base := time.Unix(100, 0)
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1", Anim: protocol.AnimIdle})

	// Animation change arrives before the asset finished loading.
	rv.Observe(protocol.PoseUpdate{Anim: protocol.AnimWalk}, base)
	if rv.Anim() != protocol.AnimIdle {
		t.Fatalf("anim applied before a sink was attached")
	}

	sink := &fakeSink{}
	rv.AttachAvatar(sink)
	if len(sink.played) != 1 || sink.played[0] != protocol.AnimWalk {
		t.Fatalf("pending animation not replayed on attach: %v", sink.played)
	}
	if rv.Anim() != protocol.AnimWalk {
		t.Fatalf("anim = %v after attach, want walk", rv.Anim())
	}

	// Subsequent changes reach the sink directly.
	rv.Observe(protocol.PoseUpdate{Anim: protocol.AnimIdle}, base.Add(time.Second))
	if len(sink.played) != 2 || sink.played[1] != protocol.AnimIdle {
		t.Fatalf("live animation change not forwarded: %v", sink.played)
	}
}

func TestRemoteViewAttachWithoutPendingPlaysCurrent(t *testing.T) {
	rv := NewRemoteView(protocol.PlayerInfo{ID: "p1", Anim: protocol.AnimWalk})
	sink := &fakeSink{}
	rv.AttachAvatar(sink)
	if len(sink.played) != 1 || sink.played[0] != protocol.AnimWalk {
		t.Fatalf("attach did not play the current state: %v", sink.played)
	}
}
