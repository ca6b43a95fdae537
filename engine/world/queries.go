package world

// This file implements the world's derived queries. The
// "effective_container" query is also exposed as a world.Activity
// (w.Activity("effective_container")) so authors can Append a method
// that overrides the built-in walk for specific kinds, falling through
// to it via next(); the other queries are plain recursive functions.

// boolProp/Get helpers read a named Property, defaulting to false/zero
// when unset.
func (w *World) boolProp(name string, id Id) bool {
	v, ok := w.Property(name).Get(id)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Opaque, Openable, Open report the fixed container-opacity properties.
// Defaults: not opaque, not openable, open.
func (w *World) Opaque(id Id) bool   { return w.boolProp("opaque", id) }
func (w *World) Openable(id Id) bool { return w.boolProp("openable", id) }
func (w *World) Open(id Id) bool {
	if !w.Openable(id) {
		return true
	}
	v, ok := w.Property("open").Get(id)
	if !ok {
		return true
	}
	b, _ := v.(bool)
	return b
}
func (w *World) MakesLight(id Id) bool { return w.boolProp("makes_light", id) }

// closedOpaque reports whether x terminates an effective-container walk
// by being opaque, or openable-and-closed.
func (w *World) closedOpaque(x Id) bool {
	return w.Opaque(x) || (w.Openable(x) && !w.Open(x))
}

// EffectiveContainer is the nearest enclosing location from which the
// contents of x are reachable. Rooms are their own. A thing normally
// inherits its location's effective container; a container that is
// opaque, or openable-and-closed, terminates the walk at itself.
//
// Exposed as the "effective_container" activity: authors may Append a
// method for specific kinds and fall through to the built-in walk via
// next() — the built-in walk is registered as that activity's
// Prepended (last-resort) method in New().
func (w *World) EffectiveContainer(x Id) Id {
	v, err := w.Activity("effective_container").Call(x)
	if err != nil {
		return w.defaultEffectiveContainer(x)
	}
	id, _ := v.(Id)
	return id
}

func (w *World) defaultEffectiveContainer(x Id) Id {
	if w.IsA(x, KindRoom) {
		return x
	}
	if w.closedOpaque(x) {
		return x
	}
	target, _, ok := w.Location(x)
	if !ok {
		return x
	}
	return w.EffectiveContainer(target)
}

// VisibleContainer is the same walk as EffectiveContainer, but only
// opaque containers terminate it — open transparent ones pass through.
// Rooms terminate.
func (w *World) VisibleContainer(x Id) Id {
	if w.IsA(x, KindRoom) {
		return x
	}
	if w.Opaque(x) {
		return x
	}
	target, _, ok := w.Location(x)
	if !ok {
		return x
	}
	return w.VisibleContainer(target)
}

// immediateContents returns entities whose location edge points
// directly at x, regardless of tag.
func (w *World) immediateContents(x Id) []Id {
	return w.RelatedTo(x)
}

// ContributesLight reports whether x contributes light: it makes
// light, or an entity it is part_of contributes, or it is a non-opaque
// container/supporter that contains light (a supporter's top has no
// opacity test — it is always visible).
func (w *World) ContributesLight(x Id) bool {
	if w.MakesLight(x) {
		return true
	}
	if target, tag, ok := w.Location(x); ok && tag == PartOf {
		if w.ContributesLight(target) {
			return true
		}
	}
	if w.IsA(x, KindSupporter) {
		return w.ContainsLight(x)
	}
	if w.IsA(x, KindContainer) && !w.Opaque(x) {
		return w.ContainsLight(x)
	}
	return false
}

// ContainsLight reports whether x contains light: a room makes light
// or has a content that contributes; a container/supporter contains
// light iff any content contributes; a person contains light iff they
// carry a contributor.
func (w *World) ContainsLight(x Id) bool {
	if w.MakesLight(x) {
		return true
	}
	for _, c := range w.immediateContents(x) {
		if w.ContributesLight(c) {
			return true
		}
	}
	return false
}

// VisibleTo reports whether x is visible to actor.
func (w *World) VisibleTo(x, actor Id) bool {
	if target, tag, ok := w.Location(x); ok && target == actor &&
		(tag == OwnedBy || tag == WornBy) {
		return true
	}
	vc := w.VisibleContainer(x)
	if vc == w.VisibleContainer(actor) && w.ContainsLight(vc) {
		return true
	}
	if target, tag, ok := w.Location(x); ok && tag == PartOf && w.VisibleTo(target, actor) {
		return true
	}
	if w.IsA(x, KindDoor) {
		actorRoom := w.VisibleContainer(actor)
		if w.IsA(actorRoom, KindRoom) {
			for _, e := range w.Exits(actorRoom) {
				if e.Obj == x {
					return true
				}
			}
		}
	}
	return false
}

// hasClearPathToRoot reports whether walking x's location chain up to
// (and including) root never crosses a closed openable — i.e. the
// actor is not trapped behind something they closed on themselves.
func (w *World) hasClearPathToRoot(x Id) bool {
	cur := x
	seen := map[Id]bool{}
	for {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		if w.Openable(cur) && !w.Open(cur) && cur != x {
			return false
		}
		target, _, ok := w.Location(cur)
		if !ok {
			return true
		}
		cur = target
	}
}

// AccessibleTo reports whether x is accessible to actor; accessible
// implies visible.
func (w *World) AccessibleTo(x, actor Id) bool {
	if !w.VisibleTo(x, actor) {
		return false
	}
	ec := w.EffectiveContainer(x)
	if ec == w.EffectiveContainer(actor) {
		return true
	}
	if w.hasClearPathToRoot(actor) {
		// anything on the actor's location chain not behind a closed
		// openable is accessible.
		cur := actor
		for {
			target, _, ok := w.Location(cur)
			if !ok {
				break
			}
			if target == x {
				return true
			}
			cur = target
		}
	}
	if w.IsA(x, KindDoor) {
		actorRoom := w.EffectiveContainer(actor)
		if w.IsA(actorRoom, KindRoom) {
			for _, e := range w.Exits(actorRoom) {
				if e.Obj == x {
					return true
				}
			}
		}
	}
	return false
}
