package ecs

import (
	"testing"

	"github.com/phanxgames/nodegl"
	"github.com/phanxgames/nodegl/gpu/headless"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func newContext(t *testing.T, world donburi.World) *nodegl.Context {
	t.Helper()
	cfg := nodegl.DefaultConfig()
	cfg.LogFunc = func(nodegl.LogLevel, string, string) {}
	cfg.Events = NewDonburiStore(world)
	ctx := nodegl.NewContext(&cfg)
	if err := ctx.SetDevice(headless.New()); err != nil {
		t.Fatal(err)
	}
	return ctx
}

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []nodegl.LifecycleEvent
	LifecycleEventType.Subscribe(world, func(w donburi.World, e nodegl.LifecycleEvent) {
		received = append(received, e)
	})

	store.EmitEvent(nodegl.LifecycleEvent{Type: nodegl.EventInit, Class: nodegl.ClassTexture, NodeID: 42, Name: "tex"})
	store.EmitEvent(nodegl.LifecycleEvent{Type: nodegl.EventUninit, Class: nodegl.ClassTexture, NodeID: 42})

	// Events are queued; process them.
	LifecycleEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e0 := received[0]; e0.Type != nodegl.EventInit || e0.NodeID != 42 || e0.Name != "tex" {
		t.Errorf("event 0: %+v", e0)
	}
	if received[1].Type != nodegl.EventUninit {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiStore_ImplementsEventStore(t *testing.T) {
	world := donburi.NewWorld()
	var store nodegl.EventStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MirrorsResources(t *testing.T) {
	world := donburi.NewWorld()
	ctx := newContext(t, world)

	g := nodegl.MustNewNode(nodegl.ClassGroup)
	tex := nodegl.MustNewNode(nodegl.ClassTexture)
	tex.SetName("albedo")
	if err := g.Add("children", tex, nodegl.MustNewNode(nodegl.ClassIdentity)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetScene(g); err != nil {
		t.Fatal(err)
	}
	if LiveResources(world) != 0 {
		t.Errorf("LiveResources = %d before the first draw, want 0", LiveResources(world))
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}
	if got := LiveResources(world); got != 3 {
		t.Errorf("LiveResources = %d, want 3", got)
	}

	found := false
	EachResource(world, func(r ResourceData) {
		if r.NodeID == tex.ID() && r.Class == nodegl.ClassTexture && r.Name == "albedo" {
			found = true
		}
	})
	if !found {
		t.Error("texture entity not found")
	}

	ctx.Release()
	if got := LiveResources(world); got != 0 {
		t.Errorf("LiveResources = %d after Release, want 0", got)
	}
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	LifecycleEventType.Subscribe(world, func(w donburi.World, e nodegl.LifecycleEvent) {
		count1++
	})
	LifecycleEventType.Subscribe(world, func(w donburi.World, e nodegl.LifecycleEvent) {
		count2++
	})

	store.EmitEvent(nodegl.LifecycleEvent{Type: nodegl.EventAttach})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
