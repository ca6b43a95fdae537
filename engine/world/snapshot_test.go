package world

import "testing"

func TestPropertySnapshotRestoreRoundTrips(t *testing.T) {
	w := New()
	w.NewEntity("lamp", KindThing)
	w.Property("name").Set("brass lamp", "lamp")
	w.Property("lit").Set(true, "lamp")

	snap := w.Property("name").Snapshot()

	w2 := New()
	w2.Property("name").Restore(snap)
	if v, ok := w2.Property("name").Get("lamp"); !ok || v != "brass lamp" {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestLocationSnapshotRestoreRoundTrips(t *testing.T) {
	w := New()
	w.NewEntity("lobby", KindRoom)
	w.NewEntity("ball", KindThing)
	if err := w.Relate("ball", "lobby", ContainedBy); err != nil {
		t.Fatal(err)
	}

	snap := w.LocationSnapshot()

	w2 := New()
	w2.RestoreLocation(snap)
	target, tag, ok := w2.Location("ball")
	if !ok || target != "lobby" || tag != ContainedBy {
		t.Fatalf("got (%q, %q, %v)", target, tag, ok)
	}
	if got := w2.RelatedTo("lobby"); len(got) != 1 || got[0] != "ball" {
		t.Fatalf("reverse index not rebuilt: %v", got)
	}
}

func TestExitsSnapshotRestoreRoundTrips(t *testing.T) {
	w := New()
	w.NewEntity("lobby", KindRoom)
	w.NewEntity("hall", KindRoom)
	w.SetExit("lobby", "north", "hall")

	snap := w.ExitsSnapshot()

	w2 := New()
	w2.RestoreExits(snap)
	obj, ok := w2.exits.Get("lobby", "north")
	if !ok || obj != "hall" {
		t.Fatalf("got (%q, %v)", obj, ok)
	}
}

func TestPropertyNamesListsTouchedProperties(t *testing.T) {
	w := New()
	w.Property("name").Set("x", "lamp")
	w.Property("open").Set(true, "door")
	names := w.PropertyNames()
	if len(names) != 2 || names[0] != "name" || names[1] != "open" {
		t.Fatalf("got %v", names)
	}
}
