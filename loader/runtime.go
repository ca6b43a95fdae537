package loader

import (
	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/world"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/types"
)

// maxEventDepth bounds emit_event -> handler -> emit_event recursion,
// the same style of backstop as action.Pipeline's redirect depth.
const maxEventDepth = 4

// roomOf walks o's location chain up to its enclosing room.
func roomOf(w *world.World, o world.Id) world.Id {
	if w.IsA(o, world.KindRoom) {
		return o
	}
	cur := o
	for i := 0; i < 64; i++ {
		target, _, ok := w.Location(cur)
		if !ok {
			return ""
		}
		if w.IsA(target, world.KindRoom) {
			return target
		}
		cur = target
	}
	return ""
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func valuesEqual(a, b any) bool {
	ai, aok := a.(int)
	bi, bok := b.(int)
	if aok && bok {
		return ai == bi
	}
	return a == b
}

// evalCondition reports whether a single compiled condition holds for actor.
func evalCondition(w *world.World, actor world.Id, cond types.Condition) bool {
	var result bool
	switch cond.Type {
	case "has_item":
		item, _ := cond.Params["item"].(string)
		result = w.Contains(actor, item)
	case "flag_set":
		flag, _ := cond.Params["flag"].(string)
		v, _ := w.Property("flag:" + flag).Get()
		result = asBool(v)
	case "flag_not":
		flag, _ := cond.Params["flag"].(string)
		v, _ := w.Property("flag:" + flag).Get()
		result = !asBool(v)
	case "flag_is":
		flag, _ := cond.Params["flag"].(string)
		want := asBool(cond.Params["value"])
		v, _ := w.Property("flag:" + flag).Get()
		result = asBool(v) == want
	case "in_room":
		room, _ := cond.Params["room"].(string)
		result = roomOf(w, actor) == world.Id(room)
	case "prop_is":
		entity, _ := cond.Params["entity"].(string)
		prop, _ := cond.Params["prop"].(string)
		v, ok := w.Property(prop).Get(world.Id(entity))
		result = ok && valuesEqual(v, cond.Params["value"])
	case "counter_gt":
		counter, _ := cond.Params["counter"].(string)
		v, _ := w.Property("counter:" + counter).Get()
		result = asInt(v) > asInt(cond.Params["value"])
	case "counter_lt":
		counter, _ := cond.Params["counter"].(string)
		v, _ := w.Property("counter:" + counter).Get()
		result = asInt(v) < asInt(cond.Params["value"])
	case "not":
		if cond.Inner != nil {
			result = !evalCondition(w, actor, *cond.Inner)
		} else {
			result = true
		}
	default:
		result = false
	}
	if cond.Negate && cond.Type != "not" {
		return !result
	}
	return result
}

// evalConditions is the AND of every condition in the list.
func evalConditions(w *world.World, actor world.Id, conds []types.Condition) bool {
	for _, c := range conds {
		if !evalCondition(w, actor, c) {
			return false
		}
	}
	return true
}

// applyEffect executes a single compiled effect against the world,
// dispatching on eff.Type to the appropriate world.Property/Activity
// mutation.
func applyEffect(g *Game, actor world.Id, eff types.Effect) {
	w := g.World
	switch eff.Type {
	case "say":
		if g.Sink == nil {
			return
		}
		text, _ := eff.Params["text"].(string)
		ctx := &sink.Context{Actor: actor, Player: w.Player(), NameOf: g.NameOf}
		sink.Write(g.Sink, ctx, text)
		g.Sink.Para()
	case "give_item":
		item, _ := eff.Params["item"].(string)
		w.Relate(world.Id(item), actor, world.OwnedBy)
	case "remove_item":
		item, _ := eff.Params["item"].(string)
		w.ClearFor(world.Id(item))
	case "set_flag":
		flag, _ := eff.Params["flag"].(string)
		w.Property("flag:" + flag).Set(asBool(eff.Params["value"]))
	case "inc_counter":
		counter, _ := eff.Params["counter"].(string)
		v, _ := w.Property("counter:" + counter).Get()
		w.Property("counter:" + counter).Set(asInt(v) + asInt(eff.Params["amount"]))
	case "set_counter":
		counter, _ := eff.Params["counter"].(string)
		w.Property("counter:" + counter).Set(asInt(eff.Params["value"]))
	case "set_prop":
		entity, _ := eff.Params["entity"].(string)
		prop, _ := eff.Params["prop"].(string)
		w.Property(prop).Set(eff.Params["value"], world.Id(entity))
	case "move_entity":
		entity, _ := eff.Params["entity"].(string)
		room, _ := eff.Params["room"].(string)
		w.Relate(world.Id(entity), world.Id(room), world.ContainedBy)
	case "move_player":
		room, _ := eff.Params["room"].(string)
		w.Relate(w.Player(), world.Id(room), world.ContainedBy)
	case "open_exit":
		room, _ := eff.Params["room"].(string)
		dir, _ := eff.Params["direction"].(string)
		target, _ := eff.Params["target"].(string)
		w.SetExit(world.Id(room), dir, world.Id(target))
	case "close_exit":
		room, _ := eff.Params["room"].(string)
		dir, _ := eff.Params["direction"].(string)
		w.UnsetExit(world.Id(room), dir)
	case "emit_event":
		event, _ := eff.Params["event"].(string)
		dispatchEvent(g, actor, event, 0)
	case "start_dialogue":
		dispatchEvent(g, actor, "dialogue_started", 0)
	case "start_combat":
		enemy, _ := eff.Params["enemy"].(string)
		g.Combat.Start(actor, world.Id(enemy), w.EffectiveContainer(actor))
	case "damage":
		target, _ := eff.Params["target"].(string)
		applyDamage(w, g.Combat, g.Sink, actor, world.Id(target), asInt(eff.Params["amount"]))
	case "stop":
		w.Property("game_over").Set(true)
	}
}

// applyEffects runs effects in order, stopping (and returning the
// pipeline control value) if one of them is an "abort".
func applyEffects(g *Game, actor world.Id, effects []types.Effect) any {
	for _, eff := range effects {
		if eff.Type == "abort" {
			reason, _ := eff.Params["reason"].(string)
			return action.AbortAction{Reason: reason}
		}
		applyEffect(g, actor, eff)
	}
	return nil
}

// dispatchEvent runs every handler registered for event, once, without
// letting effects it triggers re-enter the same event past maxEventDepth.
// This lets a handler's own emit_event effects chain a few levels deep
// for sequenced storytelling without looping forever.
func dispatchEvent(g *Game, actor world.Id, event string, depth int) {
	if depth >= maxEventDepth {
		return
	}
	for _, h := range g.Defs.Handlers {
		if h.EventType != event {
			continue
		}
		if !evalConditions(g.World, actor, h.Conditions) {
			continue
		}
		for _, eff := range h.Effects {
			if eff.Type == "abort" {
				break
			}
			switch eff.Type {
			case "emit_event":
				ev, _ := eff.Params["event"].(string)
				dispatchEvent(g, actor, ev, depth+1)
			case "start_dialogue":
				dispatchEvent(g, actor, "dialogue_started", depth+1)
			default:
				applyEffect(g, actor, eff)
			}
		}
	}
}
