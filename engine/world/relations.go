package world

import "sort"

// edge is one forward location edge: o -> (target, tag).
type edge struct {
	target Id
	tag    LocationTag
}

// ManyToOne is the many-to-one, optionally tagged location relation:
// exactly one forward edge per source, with a maintained reverse
// index. related_to(o') yields every o currently pointing at o'.
type ManyToOne struct {
	forward map[Id]edge
	reverse map[Id]map[Id]bool // target -> set of sources
}

func newManyToOne() *ManyToOne {
	return &ManyToOne{
		forward: map[Id]edge{},
		reverse: map[Id]map[Id]bool{},
	}
}

// Relate sets o's single forward edge to (target, tag), updating both
// indexes atomically — there is never an externally visible state in
// which only one side is updated.
func (m *ManyToOne) Relate(o, target Id, tag LocationTag) {
	m.ClearFor(o)
	m.forward[o] = edge{target: target, tag: tag}
	if m.reverse[target] == nil {
		m.reverse[target] = map[Id]bool{}
	}
	m.reverse[target][o] = true
}

// ClearFor removes o's forward edge (if any) and its corresponding
// reverse-index entry.
func (m *ManyToOne) ClearFor(o Id) {
	e, ok := m.forward[o]
	if !ok {
		return
	}
	delete(m.forward, o)
	if set, ok := m.reverse[e.target]; ok {
		delete(set, o)
		if len(set) == 0 {
			delete(m.reverse, e.target)
		}
	}
}

// Get returns o's forward edge, if any.
func (m *ManyToOne) Get(o Id) (target Id, tag LocationTag, ok bool) {
	e, ok := m.forward[o]
	if !ok {
		return "", "", false
	}
	return e.target, e.tag, true
}

// RelatedTo returns every o with a forward edge to target, sorted for
// determinism.
func (m *ManyToOne) RelatedTo(target Id) []Id {
	set := m.reverse[target]
	out := make([]Id, 0, len(set))
	for o := range set {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// --- location relation convenience wrappers -------------------------------

// Location returns o's location and tag.
func (w *World) Location(o Id) (target Id, tag LocationTag, ok bool) {
	return w.location.Get(o)
}

// Relate sets o's location. A room is never the source of a location
// edge; callers violating this get an error.
func (w *World) Relate(o, target Id, tag LocationTag) error {
	if w.IsA(o, KindRoom) {
		return errRoomSourceOfLocation(o)
	}
	w.location.Relate(o, target, tag)
	return nil
}

// ClearFor removes o's location edge, if any (the "remove_obj" op:
// the id persists, it is just not located anywhere).
func (w *World) ClearFor(o Id) {
	w.location.ClearFor(o)
}

// RelatedTo returns every entity whose location points at target
// (the location relation's reverse index), regardless of tag.
func (w *World) RelatedTo(target Id) []Id {
	return w.location.RelatedTo(target)
}

// LocationEdge is one exported {target, tag} pair, for snapshotting.
type LocationEdge struct {
	Target Id
	Tag    LocationTag
}

// LocationSnapshot returns every current location edge, for save.
func (w *World) LocationSnapshot() map[Id]LocationEdge {
	out := make(map[Id]LocationEdge, len(w.location.forward))
	for o, e := range w.location.forward {
		out[o] = LocationEdge{Target: e.target, Tag: e.tag}
	}
	return out
}

// RestoreLocation replaces the location relation wholesale, rebuilding
// the reverse index, for load.
func (w *World) RestoreLocation(edges map[Id]LocationEdge) {
	w.location = newManyToOne()
	for o, e := range edges {
		w.location.Relate(o, e.Target, e.Tag)
	}
}

// ExitsSnapshot returns every exits edge as source -> tag -> target, for save.
func (w *World) ExitsSnapshot() map[Id]map[string]Id {
	out := make(map[Id]map[string]Id, len(w.exits.edges))
	for source, tags := range w.exits.edges {
		m := make(map[string]Id, len(tags))
		for tag, obj := range tags {
			m[tag] = obj
		}
		out[source] = m
	}
	return out
}

// RestoreExits replaces the exits relation wholesale, for load.
func (w *World) RestoreExits(edges map[Id]map[string]Id) {
	w.exits = newTaggedManyToMany()
	for source, tags := range edges {
		for tag, obj := range tags {
			w.exits.Set(source, tag, obj)
		}
	}
}

func errRoomSourceOfLocation(o Id) error {
	return &InvariantError{Msg: "room " + o + " cannot be the source of a location edge"}
}

// InvariantError signals a violated world invariant.
type InvariantError struct{ Msg string }

func (e *InvariantError) Error() string { return e.Msg }

// Contains is the reflexive-free transitive closure of location,
// ignoring tag: outer contains inner if inner's location chain
// eventually reaches outer. An object never contains itself.
func (w *World) Contains(outer, inner Id) bool {
	if outer == inner {
		return false
	}
	cur := inner
	seen := map[Id]bool{inner: true}
	for {
		target, _, ok := w.location.Get(cur)
		if !ok {
			return false
		}
		if target == outer {
			return true
		}
		if seen[target] {
			return false // defensive: location graph is a chain by invariant, never a cycle
		}
		seen[target] = true
		cur = target
	}
}

// --- exits: tagged many-to-many -------------------------------------------

// ExitEdge is one entry in a room's exits: a destination (room or
// door) reached via a direction tag.
type ExitEdge struct {
	Obj Id
	Tag string // direction
}

// TaggedManyToMany is the exits relation: exits(room) -> list of
// {obj, tag}, at most one edge per (source, tag).
type TaggedManyToMany struct {
	edges map[Id]map[string]Id // source -> tag -> obj
}

func newTaggedManyToMany() *TaggedManyToMany {
	return &TaggedManyToMany{edges: map[Id]map[string]Id{}}
}

func (t *TaggedManyToMany) Set(source Id, tag string, obj Id) {
	if t.edges[source] == nil {
		t.edges[source] = map[string]Id{}
	}
	t.edges[source][tag] = obj
}

func (t *TaggedManyToMany) Unset(source Id, tag string) {
	delete(t.edges[source], tag)
}

func (t *TaggedManyToMany) Get(source Id, tag string) (Id, bool) {
	obj, ok := t.edges[source][tag]
	return obj, ok
}

func (t *TaggedManyToMany) List(source Id) []ExitEdge {
	tags := make([]string, 0, len(t.edges[source]))
	for tag := range t.edges[source] {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	out := make([]ExitEdge, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ExitEdge{Obj: t.edges[source][tag], Tag: tag})
	}
	return out
}

// inverse direction table for ConnectRooms' two-way default.
var inverseDirection = map[string]string{
	"north": "south", "south": "north",
	"east": "west", "west": "east",
	"northeast": "southwest", "southwest": "northeast",
	"northwest": "southeast", "southeast": "northwest",
	"up": "down", "down": "up",
	"in": "out", "out": "in",
}

// InverseOf returns the opposite of a direction tag, or "" if unknown.
func InverseOf(dir string) string {
	return inverseDirection[dir]
}

// Exits returns room's exits, sorted by direction.
func (w *World) Exits(room Id) []ExitEdge {
	return w.exits.List(room)
}

// SetExit sets a single exit edge. Doors appear only in exits, never
// in location — callers wire a door's two endpoints with SetExit on
// both sides, not with Relate.
func (w *World) SetExit(room Id, dir string, target Id) {
	w.exits.Set(room, dir, target)
}

// UnsetExit removes a single exit edge, if present.
func (w *World) UnsetExit(room Id, dir string) {
	w.exits.Unset(room, dir)
}

// ConnectRooms wires a two-way connection between two rooms via dir
// and its inverse, unless oneWay is true.
func (w *World) ConnectRooms(a Id, dir string, b Id, oneWay bool) error {
	inv := InverseOf(dir)
	if inv == "" && !oneWay {
		return &InvariantError{Msg: "direction " + dir + " has no known inverse; pass oneWay"}
	}
	w.SetExit(a, dir, b)
	if !oneWay {
		w.SetExit(b, inv, a)
	}
	return nil
}

// DoorOtherSideFrom returns the endpoint of door opposite from, given
// the two rooms door connects. exits(door) must have exactly length 2;
// this is an involution on those two endpoints.
func (w *World) DoorOtherSideFrom(door, from Id) (Id, bool) {
	edges := w.exits.List(door)
	if len(edges) != 2 {
		return "", false
	}
	if edges[0].Obj == from {
		return edges[1].Obj, true
	}
	if edges[1].Obj == from {
		return edges[0].Obj, true
	}
	return "", false
}
