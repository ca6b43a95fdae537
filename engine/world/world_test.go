package world

import (
	"testing"

	"github.com/nathoo/inkwell/engine/dispatch"
)

func dispatchMethod(name string, fn func() (any, error)) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		return fn()
	}}
}

func newTestWorld(t *testing.T) (*World, Id, Id) {
	t.Helper()
	w := New()
	if err := w.NewEntity("lobby", KindRoom); err != nil {
		t.Fatal(err)
	}
	if err := w.NewEntity("hall", KindRoom); err != nil {
		t.Fatal(err)
	}
	return w, "lobby", "hall"
}

func TestIsAWalksKindTree(t *testing.T) {
	w := New()
	w.NewEntity("plain_door", KindDoor)
	if !w.IsA("plain_door", KindDoor) {
		t.Fatal("expected door IsA door")
	}
	if !w.IsA("plain_door", KindThing) {
		t.Fatal("expected door IsA thing (ancestor)")
	}
	if w.IsA("plain_door", KindContainer) {
		t.Fatal("door should not be a container")
	}
}

func TestRelateMaintainsReverseIndex(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	w.NewEntity("ball", KindThing)
	if err := w.Relate("ball", lobby, ContainedBy); err != nil {
		t.Fatal(err)
	}
	related := w.RelatedTo(lobby)
	if len(related) != 1 || related[0] != "ball" {
		t.Fatalf("RelatedTo(lobby) = %v", related)
	}

	w.ClearFor("ball")
	if related := w.RelatedTo(lobby); len(related) != 0 {
		t.Fatalf("expected empty after ClearFor, got %v", related)
	}
}

func TestRelateThenClearIsIdempotent(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	w.NewEntity("ball", KindThing)

	before := w.RelatedTo(lobby)
	w.Relate("ball", lobby, ContainedBy)
	w.ClearFor("ball")
	after := w.RelatedTo(lobby)

	if len(before) != len(after) {
		t.Fatalf("relate;clear changed RelatedTo: before=%v after=%v", before, after)
	}
}

func TestRoomCannotBeLocationSource(t *testing.T) {
	w, lobby, hall := newTestWorld(t)
	if err := w.Relate(lobby, hall, ContainedBy); err == nil {
		t.Fatal("expected error relating a room as location source")
	}
}

func TestContainsIsReflexiveFreeTransitiveClosure(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	w.NewEntity("box", KindContainer)
	w.NewEntity("key", KindThing)
	w.Relate("box", lobby, ContainedBy)
	w.Relate("key", "box", ContainedBy)

	if w.Contains("box", "box") {
		t.Fatal("box should not contain itself")
	}
	if !w.Contains(lobby, "key") {
		t.Fatal("lobby should transitively contain key")
	}
	if !w.Contains("box", "key") {
		t.Fatal("box should directly contain key")
	}
	if w.Contains("key", lobby) {
		t.Fatal("key should not contain lobby")
	}
}

func TestConnectRoomsWiresInverseExit(t *testing.T) {
	w, lobby, hall := newTestWorld(t)
	if err := w.ConnectRooms(lobby, "north", hall, false); err != nil {
		t.Fatal(err)
	}
	if obj, ok := w.exits.Get(hall, "south"); !ok || obj != lobby {
		t.Fatalf("expected hall.south == lobby, got %v ok=%v", obj, ok)
	}
}

func TestDoorOtherSideFromIsInvolution(t *testing.T) {
	w, lobby, hall := newTestWorld(t)
	w.NewEntity("plain_door", KindDoor)
	w.SetExit("plain_door", "side_a", lobby)
	w.SetExit("plain_door", "side_b", hall)

	other, ok := w.DoorOtherSideFrom("plain_door", lobby)
	if !ok || other != hall {
		t.Fatalf("DoorOtherSideFrom(door, lobby) = %v, %v", other, ok)
	}
	back, ok := w.DoorOtherSideFrom("plain_door", other)
	if !ok || back != lobby {
		t.Fatalf("involution failed: got %v", back)
	}
}

func TestRoomIsOwnVisibleAndEffectiveContainer(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	if w.EffectiveContainer(lobby) != lobby {
		t.Fatal("room should be its own effective container")
	}
	if w.VisibleContainer(lobby) != lobby {
		t.Fatal("room should be its own visible container")
	}
}

func TestPropertySetThenGetRoundTrips(t *testing.T) {
	w := New()
	w.NewEntity("ball", KindThing)
	w.Property("color").Set("red", "ball")
	v, ok := w.Property("color").Get("ball")
	if !ok || v != "red" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestPropertyFallsThroughToRuleWhenUnset(t *testing.T) {
	w := New()
	w.NewEntity("ball", KindThing)
	prop := w.Property("weight")
	prop.Rules().Prepend(dispatchMethod("default-weight", func() (any, error) { return 1, nil }))

	v, ok := prop.Get("ball")
	if !ok || v != 1 {
		t.Fatalf("expected rule fallback, got %v %v", v, ok)
	}

	prop.Set(5, "ball")
	v, ok = prop.Get("ball")
	if !ok || v != 5 {
		t.Fatalf("expected explicit override, got %v %v", v, ok)
	}
}

func TestAccessibleImpliesVisible(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	w.NewEntity("player", KindPerson)
	w.NewEntity("ball", KindThing)
	w.Relate("player", lobby, ContainedBy)
	w.Relate("ball", lobby, ContainedBy)
	w.Property("makes_light").Set(true, lobby)

	if !w.AccessibleTo("ball", "player") {
		t.Fatal("ball should be accessible to player in same room")
	}
	if !w.VisibleTo("ball", "player") {
		t.Fatal("accessible implies visible")
	}
}

func TestClosedOpaqueContainerHidesContents(t *testing.T) {
	w, lobby, _ := newTestWorld(t)
	w.NewEntity("player", KindPerson)
	w.NewEntity("box", KindContainer)
	w.NewEntity("key", KindThing)
	w.Property("openable").Set(true, "box")
	w.Property("open").Set(false, "box")
	w.Property("opaque").Set(true, "box")
	w.Property("makes_light").Set(true, lobby)
	w.Relate("player", lobby, ContainedBy)
	w.Relate("box", lobby, ContainedBy)
	w.Relate("key", "box", ContainedBy)

	if w.VisibleTo("key", "player") {
		t.Fatal("key inside a closed box should not be visible")
	}
	if w.AccessibleTo("key", "player") {
		t.Fatal("key inside a closed box should not be accessible")
	}
}
