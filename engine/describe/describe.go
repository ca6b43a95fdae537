// Package describe renders room, object, and inventory descriptions:
// given a viewer's visible container, it produces a heading, a
// description paragraph, and a terse listing of notable contents
// grouped by their immediate sub-location.
package describe

import (
	"fmt"
	"sort"

	"github.com/nathoo/inkwell/engine/dispatch"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/world"
)

// darknessMessage is the fixed text shown when the viewer's visible
// container contains no light.
const darknessMessage = "It is pitch dark, and you can't see a thing."

// NotablePair is one get_notable_objects result: n=0 suppresses o from
// the listing entirely.
type NotablePair struct {
	Obj world.Id
	N   int
}

// Describer renders descriptions against a world, with the
// get_notable_objects generic wired as a world.Activity so game
// content can layer additional methods over the builtin walk, the
// same extensibility pattern as EffectiveContainer.
type Describer struct {
	World *world.World
}

// New creates a Describer and registers get_notable_objects' builtin
// fallback onto w.
func New(w *world.World) *Describer {
	d := &Describer{World: w}
	w.Activity("get_notable_objects").Rules().Prepend(dispatch.Method{
		Name: "default-get-notable-objects",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			o, _ := args[0].(world.Id)
			viewer, _ := args[1].(world.Id)
			return d.defaultNotableObjects(o, viewer), nil
		},
	})
	return d
}

// NotableObjects returns every {o, n} pair the get_notable_objects
// generic yields for the contents of container, as seen by viewer.
func (d *Describer) NotableObjects(container, viewer world.Id) []NotablePair {
	v, err := d.World.Activity("get_notable_objects").Call(container, viewer)
	if err != nil {
		return d.defaultNotableObjects(container, viewer)
	}
	pairs, _ := v.([]NotablePair)
	return pairs
}

func (d *Describer) defaultNotableObjects(container, viewer world.Id) []NotablePair {
	var out []NotablePair
	for _, child := range d.World.RelatedTo(container) {
		if child == viewer {
			continue
		}
		out = append(out, NotablePair{Obj: child, N: 1})
	}
	return out
}

// contributesContents reports whether child's own contents should be
// listed alongside it: a supporter always shows what's on it; a
// container shows its contents unless closed and opaque.
func (d *Describer) contributesContents(child world.Id) bool {
	if d.World.IsA(child, world.KindSupporter) {
		return true
	}
	if !d.World.IsA(child, world.KindContainer) {
		return false
	}
	closed := d.World.Openable(child) && !d.World.Open(child)
	return !(closed && d.World.Opaque(child))
}

func (d *Describer) name(id world.Id) string {
	if v, ok := d.World.Property("name").Get(id); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return string(id)
}

func (d *Describer) description(id world.Id) (string, bool) {
	v, ok := d.World.Property("description").Get(id)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// displayName appends "(which is closed)" for a closed opaque
// container.
func (d *Describer) displayName(id world.Id) string {
	name := d.name(id)
	if d.World.Openable(id) && !d.World.Open(id) && d.World.Opaque(id) {
		return name + " (which is closed)"
	}
	return name
}

// preposition chooses "on"/"in" for a sub-location heading based on
// whether its container is a supporter or a container.
func (d *Describer) preposition(container world.Id) string {
	if d.World.IsA(container, world.KindSupporter) {
		return "On"
	}
	return "In"
}

// DescribeRoom renders the standard room description for viewer inside
// room: heading, description paragraph, and grouped notable-object
// listing. It returns visited=false when the room is dark — callers
// are expected to only mark a room visited when this returns true.
func (d *Describer) DescribeRoom(s sink.Sink, ctx *sink.Context, room, viewer world.Id) (visited bool) {
	if !d.World.ContainsLight(room) {
		s.WriteText("Darkness\n")
		s.Para()
		s.WriteText(darknessMessage)
		s.Para()
		return false
	}

	s.WriteText(d.name(room))
	s.Para()
	if desc, ok := d.description(room); ok {
		sink.Write(s, ctx, desc)
		s.Para()
	}

	d.writeNotableGroups(s, ctx, room, viewer)
	return true
}

// DescribeObject renders a single object's examine text.
func (d *Describer) DescribeObject(s sink.Sink, ctx *sink.Context, obj world.Id) {
	if desc, ok := d.description(obj); ok {
		sink.Write(s, ctx, desc)
		return
	}
	s.WriteText("You see nothing special about it.")
}

// DescribeInventory renders the items an actor is carrying.
func (d *Describer) DescribeInventory(s sink.Sink, ctx *sink.Context, actor world.Id) {
	held := d.World.RelatedTo(actor)
	if len(held) == 0 {
		s.WriteText("You are carrying nothing.")
		return
	}
	sort.Strings(held)
	s.WriteText("You are carrying: ")
	for i, id := range held {
		if i > 0 {
			s.WriteText(", ")
		}
		s.WriteText(d.displayName(id))
	}
	s.WriteText(".")
}

// writeNotableGroups renders the root group ("You see: ...") followed
// by one "On/In the X you also see: ..." line per sub-location that
// contributed notable objects.
func (d *Describer) writeNotableGroups(s sink.Sink, ctx *sink.Context, room, viewer world.Id) {
	groups := d.groupByContainer(room, viewer)

	root := groups[room]
	delete(groups, room)
	if len(root) > 0 {
		sort.Strings(root)
		s.WriteText("You see: " + joinNames(d, root) + ".")
		s.Para()
	}

	var containers []world.Id
	for c := range groups {
		containers = append(containers, c)
	}
	sort.Strings(containers)
	for _, c := range containers {
		items := groups[c]
		sort.Strings(items)
		s.WriteText(fmt.Sprintf("%s the %s you also see: %s.", d.preposition(c), d.name(c), joinNames(d, items)))
		s.Para()
	}
}

// groupByContainer walks get_notable_objects recursively and buckets
// each surviving object (n != 0) by the container it was found in.
func (d *Describer) groupByContainer(room, viewer world.Id) map[world.Id][]world.Id {
	groups := map[world.Id][]world.Id{}
	d.collect(room, viewer, groups)
	return groups
}

func (d *Describer) collect(container, viewer world.Id, groups map[world.Id][]world.Id) {
	for _, pair := range d.NotableObjects(container, viewer) {
		if pair.N == 0 {
			continue
		}
		groups[container] = append(groups[container], pair.Obj)
		if d.contributesContents(pair.Obj) {
			d.collect(pair.Obj, viewer, groups)
		}
	}
}

func joinNames(d *Describer, ids []world.Id) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = d.displayName(id)
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
