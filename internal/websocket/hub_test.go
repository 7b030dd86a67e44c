package websocket

import (
	"testing"
	"time"
)

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SurfaceCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("surface count never reached %d (at %d)", want, hub.SurfaceCount())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcastReachesRegisteredSurfaces(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	surface := NewSurface("app")
	hub.Register(surface)
	waitForCount(t, hub, 1)

	hub.Broadcast([]byte("hello"))

	select {
	case msg := <-surface.Send():
		if string(msg) != "hello" {
			t.Errorf("got %q, want hello", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never delivered")
	}
}

func TestTrySendAfterTeardownDoesNotPanic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	surface := NewSurface("widget")
	hub.Register(surface)
	waitForCount(t, hub, 1)

	// The hub tears the surface down (slow consumer or disconnect) while a
	// read-side reply may still be in flight.
	hub.Unregister(surface)
	waitForCount(t, hub, 0)

	if surface.TrySend([]byte(`{"type":"pong"}`)) {
		t.Error("TrySend succeeded on a torn-down surface")
	}
}

func TestSlowSurfaceIsDroppedWithoutBlockingOthers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := NewSurface("widget")
	healthy := NewSurface("app")
	hub.Register(slow)
	hub.Register(healthy)
	waitForCount(t, hub, 2)

	// Fill the slow surface's buffer so the next broadcast drops it.
	for i := 0; i < 256; i++ {
		if !slow.TrySend([]byte("x")) {
			t.Fatalf("buffer filled early at %d", i)
		}
	}

	hub.Broadcast([]byte("reload"))
	waitForCount(t, hub, 1)

	// The healthy surface still receives the message.
	select {
	case msg := <-healthy.Send():
		if string(msg) != "reload" {
			t.Errorf("got %q, want reload", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("healthy surface never received the broadcast")
	}

	// Late replies to the dropped surface are discarded, not a panic.
	if slow.TrySend([]byte("late")) {
		t.Error("TrySend succeeded on the dropped surface")
	}
}
