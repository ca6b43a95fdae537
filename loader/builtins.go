package loader

import (
	"fmt"

	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/describe"
	"github.com/nathoo/inkwell/engine/dispatch"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/turn"
	"github.com/nathoo/inkwell/engine/world"
)

// RegisterBuiltinVerbs wires the engine's always-available verbs against
// reg: the ordinary movement/manipulation verbs, plus talk and the
// combat trio (attack/defend/flee). Content-authored rules layer their
// own Verify/CarryOut methods on top of these via the same registry, so
// a room or item can refine or override any builtin's behavior without
// this package knowing about it.
func RegisterBuiltinVerbs(w *world.World, reg *action.Registry, pipeline *action.Pipeline, d *describe.Describer, dia *action.Dialogue, combat *action.Combat, s sink.Sink, nameOf func(id string) string) {
	ad := action.NewAdornments(w)
	actor := func(action.Action) world.Id { return w.Actor() }

	registerTake(w, reg, ad, s)
	registerDrop(w, reg, ad, s)
	registerOpenClose(w, reg, ad, s)
	registerPut(w, reg, ad, pipeline, s)
	registerGo(w, reg, pipeline)
	registerLook(w, reg, d, s, nameOf)
	registerExamine(w, reg, ad, d, s, nameOf)
	registerInventory(w, reg, d, s, nameOf)
	registerWait(reg, s)
	registerTalk(w, reg, ad, dia, s)
	registerCombat(w, reg, ad, combat, s, actor)
}

func registerTake(w *world.World, reg *action.Registry, ad *action.Adornments, s sink.Sink) {
	take := reg.Verb("take")
	take.Verify.Append(ad.RequireDobjVisible("take-visible"))
	take.Verify.Append(dispatch.Method{
		Name: "take-already-have",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			prior, _ := next(nil)
			priorVR, _ := prior.(action.VerifyResult)
			if w.Contains(w.Actor(), act.Dobj()) {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogicalAlready, Reason: "You already have that.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	take.Verify.Append(dispatch.Method{
		Name: "take-takeable",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			prior, _ := next(nil)
			priorVR, _ := prior.(action.VerifyResult)
			takeable, _ := w.Property("takeable").Get(act.Dobj())
			if b, ok := takeable.(bool); !ok || !b {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogical, Reason: "You can't take that.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	take.CarryOut.Append(dispatch.Method{
		Name: "take-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			w.Relate(act.Dobj(), w.Actor(), world.OwnedBy)
			return nil, nil
		},
	})
	take.Report.Append(dispatch.Method{
		Name: "take-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			s.WriteText("Taken.")
			s.Para()
			return nil, nil
		},
	})
}

func registerDrop(w *world.World, reg *action.Registry, ad *action.Adornments, s sink.Sink) {
	drop := reg.Verb("drop")
	drop.Verify.Append(ad.RequireDobjHeld("drop-held", action.HeldOpts{Transitive: true}))
	drop.CarryOut.Append(dispatch.Method{
		Name: "drop-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(w.Actor())
			w.Relate(act.Dobj(), room, world.ContainedBy)
			return nil, nil
		},
	})
	drop.Report.Append(dispatch.Method{
		Name: "drop-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			s.WriteText("Dropped.")
			s.Para()
			return nil, nil
		},
	})
}

func registerOpenClose(w *world.World, reg *action.Registry, ad *action.Adornments, s sink.Sink) {
	open := reg.Verb("open")
	open.Verify.Append(ad.RequireDobjAccessible("open-accessible"))
	open.Verify.Append(ad.RequireClosed("open-closed"))
	open.CarryOut.Append(dispatch.Method{
		Name: "open-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			w.Property("open").Set(true, act.Dobj())
			return nil, nil
		},
	})
	open.Report.Append(dispatch.Method{
		Name: "open-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			s.WriteText("Opened.")
			s.Para()
			return nil, nil
		},
	})

	closeVerb := reg.Verb("close")
	closeVerb.Verify.Append(ad.RequireDobjAccessible("close-accessible"))
	closeVerb.Verify.Append(ad.RequireOpen("close-open"))
	closeVerb.CarryOut.Append(dispatch.Method{
		Name: "close-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			w.Property("open").Set(false, act.Dobj())
			return nil, nil
		},
	})
	closeVerb.Report.Append(dispatch.Method{
		Name: "close-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			s.WriteText("Closed.")
			s.Para()
			return nil, nil
		},
	})
}

// registerPut wires "put X in/into Y", including the implicit
// auto-open/auto-take prerequisites, directly ported from
// scenario_test.go's put-implicit-prereqs TryBefore method.
func registerPut(w *world.World, reg *action.Registry, ad *action.Adornments, pipeline *action.Pipeline, s sink.Sink) {
	put := reg.Verb("put")
	put.Verify.Append(ad.RequireDobjVisible("put-dobj-visible"))
	put.Verify.Append(ad.RequireIobjVisible("put-iobj-visible"))
	put.TryBefore.Append(dispatch.Method{
		Name: "put-implicit-prereqs",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			if w.Openable(act.Iobj()) && !w.Open(act.Iobj()) {
				if !pipeline.DoFirst(action.Action{"verb": "open", "dobj": act.Iobj()}) {
					return action.AbortAction{Reason: "You can't open that.\n"}, nil
				}
			}
			if !w.Contains(w.Actor(), act.Dobj()) {
				if !pipeline.DoFirst(action.Action{"verb": "take", "dobj": act.Dobj()}) {
					return action.AbortAction{Reason: "You can't take that.\n"}, nil
				}
			}
			return next(nil)
		},
	})
	put.CarryOut.Append(dispatch.Method{
		Name: "put-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			w.Relate(act.Dobj(), act.Iobj(), world.ContainedBy)
			return nil, nil
		},
	})
	put.Report.Append(dispatch.Method{
		Name: "put-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			s.WriteText(fmt.Sprintf("You put the %s into the %s.", displayName(w, act.Dobj()), displayName(w, act.Iobj())))
			s.Para()
			return nil, nil
		},
	})
}

// destRoomFrom resolves an exit edge's object to the room it actually
// leads to: a door resolves through DoorOtherSideFrom, anything else
// (a room object) is already the destination.
func destRoomFrom(w *world.World, exitObj, from world.Id) (world.Id, bool) {
	if w.IsA(exitObj, world.KindDoor) {
		return w.DoorOtherSideFrom(exitObj, from)
	}
	return exitObj, true
}

// findRoutePath runs a breadth-first search over the exit graph for the
// shortest sequence of directions from from to to. It returns nil when
// no route exists and an empty (non-nil) slice when from == to.
func findRoutePath(w *world.World, from, to world.Id) []string {
	if from == to {
		return []string{}
	}
	type frame struct {
		room world.Id
		path []string
	}
	visited := map[world.Id]bool{from: true}
	queue := []frame{{room: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range w.Exits(cur.room) {
			dest, ok := destRoomFrom(w, e.Obj, cur.room)
			if !ok || visited[dest] {
				continue
			}
			path := append(append([]string{}, cur.path...), e.Tag)
			if dest == to {
				return path
			}
			visited[dest] = true
			queue = append(queue, frame{room: dest, path: path})
		}
	}
	return nil
}

// registerGo wires movement, including the implicit door-opening
// try_before, ported from scenario_test.go's go-open-door method, and
// the path-finding try_before behind "go to <room>": it walks the
// actor through every intermediate room via DoFirst, then rewrites the
// action to a plain single-step "direction" move for the final hop so
// go-open-door and go-carry-out handle it exactly like any other step.
// registerGo deliberately installs no Report method: post-move
// re-rendering is engine/turn.Loop.stepTurn's job, not a pipeline
// phase's.
func registerGo(w *world.World, reg *action.Registry, pipeline *action.Pipeline) {
	goVerb := reg.Verb("go")
	findExit := func(room, dir world.Id) (world.Id, bool) {
		for _, e := range w.Exits(room) {
			if e.Tag == dir {
				return e.Obj, true
			}
		}
		return "", false
	}
	goVerb.Verify.Append(dispatch.Method{
		Name: "go-has-exit",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			prior, _ := next(nil)
			priorVR, _ := prior.(action.VerifyResult)
			room := w.EffectiveContainer(w.Actor())
			if target, ok := act["room"].(string); ok {
				if target == room {
					return action.Combine(priorVR, action.VerifyResult{
						Score: action.ScoreIllogical, Reason: "You're already there.\n",
					}), nil
				}
				if findRoutePath(w, room, target) == nil {
					return action.Combine(priorVR, action.VerifyResult{
						Score: action.ScoreIllogical, Reason: "You don't know how to get there.\n",
					}), nil
				}
				return priorVR, nil
			}
			dir, _ := act["direction"].(string)
			if _, ok := findExit(room, dir); !ok {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogical, Reason: "You can't go that way.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	// go-open-door is appended first so it sits further from the tail:
	// go-pathfind (appended after, so scanned first) must rewrite a
	// room-target action down to a single "direction" hop before
	// go-open-door's door check ever sees it.
	goVerb.TryBefore.Append(dispatch.Method{
		Name: "go-open-door",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(w.Actor())
			dir, _ := act["direction"].(string)
			exitObj, ok := findExit(room, dir)
			if ok && w.IsA(exitObj, world.KindDoor) && w.Openable(exitObj) && !w.Open(exitObj) {
				if !pipeline.DoFirst(action.Action{"verb": "open", "dobj": exitObj}) {
					return action.AbortAction{Reason: "The door won't budge.\n"}, nil
				}
			}
			return next(nil)
		},
	})
	goVerb.TryBefore.Append(dispatch.Method{
		Name: "go-pathfind",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			target, ok := act["room"].(string)
			if !ok {
				return next(nil)
			}
			room := w.EffectiveContainer(w.Actor())
			path := findRoutePath(w, room, target)
			if len(path) == 0 {
				return action.AbortAction{Reason: "You don't know how to get there.\n"}, nil
			}
			for _, dir := range path[:len(path)-1] {
				if !pipeline.DoFirst(action.Action{"verb": "go", "direction": dir}) {
					return action.AbortAction{}, nil
				}
			}
			delete(act, "room")
			act["direction"] = path[len(path)-1]
			return next(nil)
		},
	})
	goVerb.CarryOut.Append(dispatch.Method{
		Name: "go-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(w.Actor())
			dir, _ := act["direction"].(string)
			exitObj, _ := findExit(room, dir)
			dest, ok := destRoomFrom(w, exitObj, room)
			if !ok {
				dest = exitObj
			}
			w.Relate(w.Actor(), dest, world.ContainedBy)
			return nil, nil
		},
	})
}

// registerLook wires "look"'s report phase directly to
// turn.DescribeAndMarkVisited, the one builtin that needs to call it
// explicitly (every other room re-render happens through the turn
// loop's automatic post-move hook).
func registerLook(w *world.World, reg *action.Registry, d *describe.Describer, s sink.Sink, nameOf func(string) string) {
	look := reg.Verb("look")
	look.Report.Append(dispatch.Method{
		Name: "look-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			ctx := &sink.Context{Actor: w.Actor(), Player: w.Player(), NameOf: nameOf}
			turn.DescribeAndMarkVisited(w, d, s, ctx)
			return nil, nil
		},
	})
}

func registerExamine(w *world.World, reg *action.Registry, ad *action.Adornments, d *describe.Describer, s sink.Sink, nameOf func(string) string) {
	examine := reg.Verb("examine")
	examine.Verify.Append(ad.RequireDobjVisible("examine-visible"))
	examine.Report.Append(dispatch.Method{
		Name: "examine-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			ctx := &sink.Context{Actor: w.Actor(), Player: w.Player(), NameOf: nameOf}
			d.DescribeObject(s, ctx, act.Dobj())
			s.Para()
			return nil, nil
		},
	})
}

func registerInventory(w *world.World, reg *action.Registry, d *describe.Describer, s sink.Sink, nameOf func(string) string) {
	inv := reg.Verb("inventory")
	inv.Report.Append(dispatch.Method{
		Name: "inventory-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			ctx := &sink.Context{Actor: w.Actor(), Player: w.Player(), NameOf: nameOf}
			d.DescribeInventory(s, ctx, w.Actor())
			s.Para()
			return nil, nil
		},
	})
}

func registerWait(reg *action.Registry, s sink.Sink) {
	wait := reg.Verb("wait")
	wait.Report.Append(dispatch.Method{
		Name: "wait-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			s.WriteText("Time passes.")
			s.Para()
			return nil, nil
		},
	})
}

// registerTalk wires conversation: bare "talk to NPC" lists the topics
// currently available, "talk to NPC about TOPIC" selects one by
// matching the free-text topic argument against a topic key
// case-insensitively.
func registerTalk(w *world.World, reg *action.Registry, ad *action.Adornments, dia *action.Dialogue, s sink.Sink) {
	talk := reg.Verb("talk")
	talk.Verify.Append(ad.RequireDobjVisible("talk-visible"))
	talk.Verify.Append(dispatch.Method{
		Name: "talk-has-topics",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			prior, _ := next(nil)
			priorVR, _ := prior.(action.VerifyResult)
			if !dia.HasTopics(act.Dobj()) {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogical, Reason: "That has nothing to say.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	talk.Report.Append(dispatch.Method{
		Name: "talk-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			npc := act.Dobj()
			actor := w.Actor()
			topic, _ := act["topic"].(string)
			if topic == "" {
				available := dia.Available(npc, w, actor)
				if len(available) == 0 {
					s.WriteText("There's nothing new to talk about.")
					s.Para()
					return nil, nil
				}
				s.WriteText("You could ask about: ")
				for i, key := range available {
					if i > 0 {
						s.WriteText(", ")
					}
					s.WriteText(key)
				}
				s.WriteText(".")
				s.Para()
				return nil, nil
			}
			text, ok := dia.Select(npc, topic, w, actor)
			if !ok {
				s.WriteText("They don't seem to have anything to say about that.")
				s.Para()
				return nil, nil
			}
			s.WriteText(text)
			s.Para()
			return nil, nil
		},
	})
}

// registerCombat wires attack/defend/flee and their damage-effect
// sequencing: hp clamps at 0, the defender's defeat ends combat and —
// for the player — sets game_over. Loot is rolled inline at the point
// of an enemy's defeat.
func registerCombat(w *world.World, reg *action.Registry, ad *action.Adornments, combat *action.Combat, s sink.Sink, actor func(action.Action) world.Id) {
	attack := reg.Verb("attack")
	attack.Verify.Append(dispatch.Method{
		Name: "attack-in-combat-or-dobj",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			a := actor(act)
			if combat.InCombat(a) {
				return next(nil)
			}
			if act.Dobj() == "" || !w.VisibleTo(act.Dobj(), a) {
				return action.VerifyResult{Score: action.ScoreIllogicalNotVisible, Reason: "You can't see that here.\n"}, nil
			}
			return next(nil)
		},
	})
	attack.CarryOut.Append(dispatch.Method{
		Name: "attack-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			a := actor(act)
			var enemy world.Id
			if combat.InCombat(a) {
				enemy = combat.Enemy(a)
			} else {
				enemy = act.Dobj()
				room := w.EffectiveContainer(a)
				combat.Start(a, enemy, room)
			}
			runCombatRound(w, combat, s, a, enemy, true)
			if combat.InCombat(a) {
				runEnemyRound(w, combat, s, a, enemy)
			}
			return nil, nil
		},
	})

	defend := reg.Verb("defend")
	defend.Verify.Append(dispatch.Method{
		Name: "defend-in-combat",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			if !combat.InCombat(actor(act)) {
				return action.VerifyResult{Score: action.ScoreIllogical, Reason: "You aren't fighting anyone.\n"}, nil
			}
			return next(nil)
		},
	})
	defend.CarryOut.Append(dispatch.Method{
		Name: "defend-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			a := actor(act)
			enemy := combat.Enemy(a)
			for _, line := range combat.Defend(a, true) {
				s.WriteText(line)
				s.Para()
			}
			if combat.InCombat(a) {
				runEnemyRound(w, combat, s, a, enemy)
			}
			return nil, nil
		},
	})

	flee := reg.Verb("flee")
	flee.Verify.Append(dispatch.Method{
		Name: "flee-in-combat",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			if !combat.InCombat(actor(act)) {
				return action.VerifyResult{Score: action.ScoreIllogical, Reason: "You aren't fighting anyone.\n"}, nil
			}
			return next(nil)
		},
	})
	flee.CarryOut.Append(dispatch.Method{
		Name: "flee-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			a := actor(act)
			enemy := combat.Enemy(a)
			escaped, room, lines := combat.Flee(a, true)
			for _, line := range lines {
				s.WriteText(line)
				s.Para()
			}
			if escaped {
				combat.End(a)
				if room != "" {
					w.Relate(a, room, world.ContainedBy)
				}
				return nil, nil
			}
			if combat.InCombat(a) {
				runEnemyRound(w, combat, s, a, enemy)
			}
			return nil, nil
		},
	})
}

// runCombatRound resolves one attack, applying damage and handling
// defeat (game_over for the player, loot + combat end for an enemy).
func runCombatRound(w *world.World, combat *action.Combat, s sink.Sink, a, enemy world.Id, playerAttacks bool) {
	var attacker, defender world.Id
	if playerAttacks {
		attacker, defender = a, enemy
	} else {
		attacker, defender = enemy, a
	}
	damage, lines := combat.Attack(attacker, defender, playerAttacks)
	for _, line := range lines {
		s.WriteText(line)
		s.Para()
	}
	applyDamage(w, combat, s, a, defender, damage)
}

// runEnemyRound plays the enemy's turn by calling Combat directly (not
// through the verb pipeline), weighing its declared behavior table.
func runEnemyRound(w *world.World, combat *action.Combat, s sink.Sink, a, enemy world.Id) {
	var behavior []action.BehaviorEntry
	if v, ok := w.Property("behavior").Get(enemy); ok {
		behavior, _ = v.([]action.BehaviorEntry)
	}
	switch combat.EnemyTurn(enemy, behavior) {
	case "defend":
		for _, line := range combat.Defend(enemy, false) {
			s.WriteText(line)
			s.Para()
		}
	case "flee":
		escaped, _, lines := combat.Flee(enemy, false)
		for _, line := range lines {
			s.WriteText(line)
			s.Para()
		}
		if escaped {
			combat.End(a)
			w.ClearFor(enemy)
		}
	default:
		runCombatRound(w, combat, s, a, enemy, false)
	}
}

// applyDamage subtracts damage from target's hp, clamped at 0, and
// resolves defeat: the player losing sets the global game_over flag
// (a zero-arity property); an enemy losing rolls its loot table and
// ends combat.
func applyDamage(w *world.World, combat *action.Combat, s sink.Sink, player, target world.Id, damage int) {
	hp := 0
	if v, ok := w.Property("hp").Get(target); ok {
		hp, _ = v.(int)
	}
	hp -= damage
	if hp < 0 {
		hp = 0
	}
	w.Property("hp").Set(hp, target)
	if hp > 0 {
		return
	}

	if target == player {
		w.Property("game_over").Set(true)
		combat.End(player)
		s.WriteText("You have been defeated.")
		s.Para()
		return
	}

	w.Property("alive").Set(false, target)
	combat.End(player)
	s.WriteText(fmt.Sprintf("The %s is defeated!", displayName(w, target)))
	s.Para()

	var loot []action.LootEntry
	if v, ok := w.Property("loot_items").Get(target); ok {
		loot, _ = v.([]action.LootEntry)
	}
	gold := 0
	if v, ok := w.Property("loot_gold").Get(target); ok {
		gold, _ = v.(int)
	}
	dropped, goldFound, lines := combat.RollLoot(loot, gold)
	for _, item := range dropped {
		w.Relate(item, player, world.OwnedBy)
	}
	if goldFound > 0 {
		g := 0
		if v, ok := w.Property("gold").Get(player); ok {
			g, _ = v.(int)
		}
		w.Property("gold").Set(g+goldFound, player)
	}
	for _, line := range lines {
		s.WriteText(line)
		s.Para()
	}
}

func displayName(w *world.World, id world.Id) string {
	if v, ok := w.Property("name").Get(id); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return id
}
