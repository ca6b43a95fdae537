package world

import (
	"strings"

	"github.com/nathoo/inkwell/engine/dispatch"
)

// Property is a named, arity-n partial function from tuples of ids to
// a value, backed by a nested map AND a dispatch list of rule methods.
// A lookup first walks the map; only if nothing is
// explicitly stored does Get fall through to the method chain, which
// holds only the rule methods (the map is not part of the chain). This
// keeps the fast path O(arity) and means data overrides rule defaults.
type Property struct {
	name string
	data map[string]any
	ops  *dispatch.Operation
}

func newProperty(name string) *Property {
	return &Property{name: name, data: map[string]any{}, ops: dispatch.New()}
}

// key joins a tuple of ids into the nested map's flat key.
func key(args []Id) string {
	return strings.Join(args, "\x00")
}

// Set writes args... -> v directly into the map (set(a1,...,an,v)).
func (p *Property) Set(v any, args ...Id) {
	p.data[key(args)] = v
}

// Clear removes any explicit map entry for args, falling back to the
// rule chain on the next Get.
func (p *Property) Clear(args ...Id) {
	delete(p.data, key(args))
}

// Get looks up args in the map; if absent, runs the method chain.
// ok is false only if neither the map nor any rule produced a value.
func (p *Property) Get(args ...Id) (any, bool) {
	if v, ok := p.data[key(args)]; ok {
		return v, true
	}
	callArgs := make([]any, len(args))
	for i, a := range args {
		callArgs[i] = a
	}
	v, err := p.ops.Call(callArgs...)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Rules exposes the underlying dispatch operation so authors can
// Append/Prepend/InsertBefore/InsertAfter/RemoveByName rule methods.
func (p *Property) Rules() *dispatch.Operation { return p.ops }

// Snapshot returns a copy of the property's explicit map entries, keyed
// by the same flat joined key Set/Get use. Rule methods are never part
// of a snapshot — only authors, not saves, install those.
func (p *Property) Snapshot() map[string]any {
	out := make(map[string]any, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}

// Restore replaces the property's map entries with data, verbatim.
func (p *Property) Restore(data map[string]any) {
	p.data = make(map[string]any, len(data))
	for k, v := range data {
		p.data[k] = v
	}
}

// Activity is like Property but purely dispatchable — no backing map.
// Used for procedures (move_backdrops, describe_*, the world queries).
type Activity struct {
	name string
	ops  *dispatch.Operation
}

func newActivity(name string) *Activity {
	return &Activity{name: name, ops: dispatch.New()}
}

// Call runs the method chain with the given arguments.
func (a *Activity) Call(args ...any) (any, error) {
	return a.ops.Call(args...)
}

// Rules exposes the underlying dispatch operation.
func (a *Activity) Rules() *dispatch.Operation { return a.ops }
