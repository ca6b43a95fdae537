package action

import (
	"sort"

	"github.com/nathoo/inkwell/engine/world"
)

// Topic is one NPC conversation topic. When, if non-nil, gates whether
// the topic is currently available; Effect, if non-nil, mutates the
// world when the topic is selected. Conditions and effects are
// expressed as closures over the generic-dispatch substrate instead of
// a bespoke condition/effect DSL.
type Topic struct {
	Text   string
	When   func(w *world.World, actor world.Id) bool
	Effect func(w *world.World, actor world.Id)
}

// Dialogue holds every NPC's topic table.
type Dialogue struct {
	topics map[world.Id]map[string]Topic
}

// NewDialogue creates an empty dialogue registry.
func NewDialogue() *Dialogue {
	return &Dialogue{topics: map[world.Id]map[string]Topic{}}
}

// AddTopic registers topic key for npc.
func (d *Dialogue) AddTopic(npc world.Id, key string, t Topic) {
	if d.topics[npc] == nil {
		d.topics[npc] = map[string]Topic{}
	}
	d.topics[npc][key] = t
}

// HasTopics reports whether npc has any topic declared at all (used to
// verify "talk to" against NPCs with nothing to say).
func (d *Dialogue) HasTopics(npc world.Id) bool {
	return len(d.topics[npc]) > 0
}

// Available returns, sorted, every topic key currently unlocked for
// npc given actor and the world state.
func (d *Dialogue) Available(npc world.Id, w *world.World, actor world.Id) []string {
	var out []string
	for key, t := range d.topics[npc] {
		if t.When == nil || t.When(w, actor) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Select runs topic key for npc: applies its effect (if any) and
// returns its text. ok is false if the topic doesn't exist or its
// condition no longer holds.
func (d *Dialogue) Select(npc world.Id, key string, w *world.World, actor world.Id) (text string, ok bool) {
	t, exists := d.topics[npc][key]
	if !exists {
		return "", false
	}
	if t.When != nil && !t.When(w, actor) {
		return "", false
	}
	if t.Effect != nil {
		t.Effect(w, actor)
	}
	return t.Text, true
}
