// Package world implements the entity/kind/relation/property substrate:
// entities identified by stable string ids, a single-inheritance kind
// tree, tagged relations with maintained reverse indexes, and
// properties/activities backed by engine/dispatch so content authors
// can layer rules over entity properties.
package world

import (
	"fmt"
	"sort"

	"github.com/nathoo/inkwell/engine/dispatch"
)

// Id identifies an entity. It is a stable string, never reused for a
// different entity within one world's lifetime.
type Id = string

// Kind is a class-like tag. Kinds form a single-inheritance tree via
// the kind_of relation.
type Kind = string

// Predeclared kinds.
const (
	KindRoot      Kind = "kind"
	KindRoom      Kind = "room"
	KindThing     Kind = "thing"
	KindDoor      Kind = "door"
	KindContainer Kind = "container"
	KindSupporter Kind = "supporter"
	KindPerson    Kind = "person"
	KindBackdrop  Kind = "backdrop"
	KindRegion    Kind = "region"
)

// LocationTag is the fixed alphabet of tags on the location relation.
type LocationTag string

const (
	ContainedBy LocationTag = "contained_by"
	SupportedBy LocationTag = "supported_by"
	OwnedBy     LocationTag = "owned_by"
	PartOf      LocationTag = "part_of"
	WornBy      LocationTag = "worn_by"
)

// World is the mutable world model: entities, kinds, relations,
// properties, and activities, plus the actor/player viewpoint ids.
type World struct {
	kindOf map[Id]Kind  // entity id -> its kind
	parent map[Kind]Kind // kind -> parent kind, root has no entry

	location *ManyToOne
	exits    *TaggedManyToMany

	properties map[string]*Property
	activities map[string]*Activity

	actor  Id
	player Id

	// order records creation order for deterministic iteration/listing.
	order []Id
	known map[Id]bool
}

// New creates a world with the predeclared kind tree wired in.
func New() *World {
	w := &World{
		kindOf:     map[Id]Kind{},
		parent:     map[Kind]Kind{},
		properties: map[string]*Property{},
		activities: map[string]*Activity{},
		known:      map[Id]bool{},
	}
	w.location = newManyToOne()
	w.exits = newTaggedManyToMany()

	w.parent[KindRoom] = KindRoot
	w.parent[KindThing] = KindRoot
	w.parent[KindRegion] = KindRoot
	w.parent[KindDoor] = KindThing
	w.parent[KindContainer] = KindThing
	w.parent[KindSupporter] = KindThing
	w.parent[KindPerson] = KindThing
	w.parent[KindBackdrop] = KindThing

	w.Activity("effective_container").Rules().Prepend(dispatch.Method{
		Name: "default-effective-container",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			x, _ := args[0].(Id)
			return w.defaultEffectiveContainer(x), nil
		},
	})
	return w
}

// DeclareKind adds a new kind as a child of parent. parent must already
// be declared (or be one of the predeclared kinds).
func (w *World) DeclareKind(kind Kind, parent Kind) error {
	if kind == KindRoot {
		return fmt.Errorf("world: cannot redeclare root kind %q", KindRoot)
	}
	if parent != KindRoot {
		if _, ok := w.parent[parent]; !ok {
			return fmt.Errorf("world: unknown parent kind %q for %q", parent, kind)
		}
	}
	w.parent[kind] = parent
	return nil
}

// IsKindDeclared reports whether kind has been declared (including the
// predeclared kinds and the root).
func (w *World) IsKindDeclared(kind Kind) bool {
	if kind == KindRoot {
		return true
	}
	_, ok := w.parent[kind]
	return ok
}

// NewEntity creates an entity of the given kind. id must be unique.
func (w *World) NewEntity(id Id, kind Kind) error {
	if _, exists := w.kindOf[id]; exists {
		return fmt.Errorf("world: entity %q already exists", id)
	}
	if !w.IsKindDeclared(kind) {
		return fmt.Errorf("world: unknown kind %q for entity %q", kind, id)
	}
	w.kindOf[id] = kind
	w.known[id] = true
	w.order = append(w.order, id)
	return nil
}

// Exists reports whether id names a known entity.
func (w *World) Exists(id Id) bool {
	return w.known[id]
}

// KindOf returns the declared kind of id, or "" if unknown.
func (w *World) KindOf(id Id) Kind {
	return w.kindOf[id]
}

// IsA walks kind_of from kind(o) upward, reporting whether o's kind is
// k or a descendant of k.
func (w *World) IsA(o Id, k Kind) bool {
	cur, ok := w.kindOf[o]
	if !ok {
		return false
	}
	for {
		if cur == k {
			return true
		}
		if cur == KindRoot {
			return false
		}
		parent, ok := w.parent[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}

// Entities returns all known entity ids in creation order.
func (w *World) Entities() []Id {
	out := make([]Id, len(w.order))
	copy(out, w.order)
	return out
}

// EntitiesOfKind returns all known entities whose kind satisfies IsA(_, k),
// sorted for deterministic iteration.
func (w *World) EntitiesOfKind(k Kind) []Id {
	var out []Id
	for _, id := range w.order {
		if w.IsA(id, k) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Actor returns the entity whose turn is currently being processed.
func (w *World) Actor() Id { return w.actor }

// SetActor sets the current actor directly (used at setup and by
// WithActor).
func (w *World) SetActor(id Id) { w.actor = id }

// Player returns the narrative viewpoint entity.
func (w *World) Player() Id { return w.player }

// SetPlayer sets the narrative viewpoint entity.
func (w *World) SetPlayer(id Id) { w.player = id }

// WithActor swaps world.actor for the duration of f, restoring the
// previous actor on all exits (including panics).
func (w *World) WithActor(a Id, f func()) {
	prev := w.actor
	w.actor = a
	defer func() { w.actor = prev }()
	f()
}

// Property looks up (creating if necessary) the named property's
// dispatch operation + backing map.
func (w *World) Property(name string) *Property {
	p, ok := w.properties[name]
	if !ok {
		p = newProperty(name)
		w.properties[name] = p
	}
	return p
}

// Activity looks up (creating if necessary) the named activity's
// dispatch operation. Activities have no backing map.
func (w *World) Activity(name string) *Activity {
	a, ok := w.activities[name]
	if !ok {
		a = newActivity(name)
		w.activities[name] = a
	}
	return a
}

// PropertyNames returns the names of every property that has been
// touched (Get, Set, or Rules()) so far, sorted for deterministic save
// iteration.
func (w *World) PropertyNames() []string {
	out := make([]string, 0, len(w.properties))
	for name := range w.properties {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// isNoMethod reports whether err is exactly "no applicable method",
// i.e. nothing in the chain applied.
func isNoMethod(err error) bool {
	return err == dispatch.ErrNoApplicableMethod
}
