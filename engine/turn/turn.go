// Package turn implements the explicit turn loop: one line of input
// in, one rendered turn out. It is written as a resumable Loop/Step
// pair rather than a blocking scan loop over bufio.Scanner, so a
// frontend — CLI, TUI, or a test driving scripted scenarios —
// controls its own read loop and owns when the next line arrives.
package turn

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/describe"
	"github.com/nathoo/inkwell/engine/parse"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/world"
)

// State is the loop's coarse status.
type State int

const (
	// AwaitingInput means Step is ready for the next line.
	AwaitingInput State = iota
	// Done means the player has quit; Step will no longer act on input.
	Done
)

// Outcome is what one Step call reports back to the frontend.
type Outcome struct {
	State State
	// Menu holds the numbered disambiguation choices when a command was
	// ambiguous; the frontend should prompt for a number and pass the
	// reply straight back into Step.
	Menu []string
}

// Loop drives one game's turn-by-turn interaction against a single
// World/Pipeline/Parser/Describer set.
type Loop struct {
	World     *world.World
	Pipeline  *action.Pipeline
	Parser    *parse.Parser
	Describer *describe.Describer
	Sink      sink.Sink
	NameOf    func(id string) string

	state       State
	pendingMenu []action.Action
	menuText    []string

	lastVisible world.Id
	lastLight   bool
}

// NewLoop wires a Loop and renders the starting room with one "look"
// before the frontend's scan loop begins.
func NewLoop(w *world.World, p *action.Pipeline, parser *parse.Parser, d *describe.Describer, s sink.Sink, nameOf func(string) string) *Loop {
	l := &Loop{World: w, Pipeline: p, Parser: parser, Describer: d, Sink: s, NameOf: nameOf, state: AwaitingInput}
	l.Render()
	return l
}

func (l *Loop) ctx() *sink.Context {
	return &sink.Context{Actor: l.World.Actor(), Player: l.World.Player(), NameOf: l.NameOf}
}

// Step feeds one line of player input through parsing, disambiguation,
// and the action pipeline, then runs the step_turn hook.
func (l *Loop) Step(line string) Outcome {
	if l.state == Done {
		return Outcome{State: Done}
	}

	if l.pendingMenu != nil {
		return l.resolveMenu(line)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return Outcome{State: l.state}
	}
	if strings.EqualFold(line, "quit") {
		l.state = Done
		return Outcome{State: Done}
	}

	ctx := &parse.Context{
		ActorId: l.World.Actor(),
		Visible: l.World.VisibleTo,
		Rooms:   l.Parser.Rooms,
	}
	results := l.Parser.Parse(line, ctx)
	if len(results) == 0 {
		l.reportParseFailure(line)
		return Outcome{State: l.state}
	}

	candidates := make([]action.Candidate, 0, len(results))
	for _, r := range results {
		a, ok := r.Value.(action.Action)
		if !ok {
			continue
		}
		candidates = append(candidates, action.Candidate{Action: a, GrammarScore: r.Score})
	}
	if len(candidates) == 0 {
		l.reportParseFailure(line)
		return Outcome{State: l.state}
	}

	resolved := action.Disambiguate(l.Pipeline, candidates)
	switch {
	case resolved.Resolved != nil:
		return l.runAction(resolved.Resolved)
	case len(resolved.Menu) > 0:
		return l.presentMenu(resolved.Menu)
	default:
		l.Sink.WriteText(resolved.Reason)
		l.Sink.Para()
		return Outcome{State: l.state}
	}
}

func (l *Loop) reportParseFailure(line string) {
	if unknown := l.Parser.UnknownWords(line); len(unknown) > 0 {
		l.Sink.WriteText(fmt.Sprintf("I don't know the word %q.", unknown[0]))
	} else {
		l.Sink.WriteText("I didn't understand that.")
	}
	l.Sink.Para()
}

func (l *Loop) presentMenu(candidates []action.Action) Outcome {
	l.pendingMenu = candidates
	l.menuText = make([]string, len(candidates))
	l.Sink.WriteText("Which do you mean?")
	l.Sink.Para()
	for i, a := range candidates {
		desc := a.Dobj()
		if desc == "" {
			desc = a.Verb()
		}
		l.menuText[i] = desc
		l.Sink.WriteText(fmt.Sprintf("%d. %s", i+1, desc))
		l.Sink.Para()
	}
	return Outcome{State: l.state, Menu: append([]string{}, l.menuText...)}
}

func (l *Loop) resolveMenu(reply string) Outcome {
	reply = strings.TrimSpace(reply)
	n, err := strconv.Atoi(reply)
	if err != nil || n < 1 || n > len(l.pendingMenu) {
		// Not a menu selection: drop the menu and treat the reply as a
		// fresh command.
		l.pendingMenu = nil
		l.menuText = nil
		return l.Step(reply)
	}
	chosen := l.pendingMenu[n-1]
	l.pendingMenu = nil
	l.menuText = nil
	return l.runAction(chosen)
}

func (l *Loop) runAction(a action.Action) Outcome {
	if l.Pipeline.Execute(a) {
		l.stepTurn()
	}
	return Outcome{State: l.state}
}

// stepTurn is the post-action hook: reposition backdrops, then
// re-render the room if the actor's visible container or its light
// state changed since the last turn.
func (l *Loop) stepTurn() {
	l.relocateBackdrops()

	actor := l.World.Actor()
	vc := l.World.VisibleContainer(actor)
	lit := l.World.ContainsLight(vc)
	if vc != l.lastVisible || lit != l.lastLight {
		l.Render()
	}
}

// Render re-describes the actor's current room and marks it visited —
// unless the room is dark, in which case visited is deliberately left
// untouched. Both the turn hook and a "look" verb's report phase (via
// DescribeAndMarkVisited) agree on when visited flips, since both
// funnel through the same describe call.
func (l *Loop) Render() {
	DescribeAndMarkVisited(l.World, l.Describer, l.Sink, l.ctx())
	actor := l.World.Actor()
	l.lastVisible = l.World.VisibleContainer(actor)
	l.lastLight = l.World.ContainsLight(l.lastVisible)
}

// DescribeAndMarkVisited renders the actor's effective container and
// marks it visited, unless the room is dark. Exported so a "look" verb
// registered directly against an action.Registry (outside a Loop, e.g.
// during loader builtin registration) can share the exact same
// darkness/visited semantics as the turn hook.
func DescribeAndMarkVisited(w *world.World, d *describe.Describer, s sink.Sink, ctx *sink.Context) {
	actor := w.Actor()
	room := w.EffectiveContainer(actor)
	if d.DescribeRoom(s, ctx, room, actor) {
		w.Property("visited").Set(true, actor, room)
	}
}

// relocateBackdrops moves every backdrop whose "backdrop_rooms"
// property lists (directly, or via a region it names) the actor's
// current room to that room. A backdrop with no "backdrop_rooms"
// entry never relocates.
func (l *Loop) relocateBackdrops() {
	actorRoom := l.World.EffectiveContainer(l.World.Actor())
	backdrops := l.World.EntitiesOfKind(world.KindBackdrop)
	sort.Strings(backdrops)
	for _, bd := range backdrops {
		v, ok := l.World.Property("backdrop_rooms").Get(bd)
		if !ok {
			continue
		}
		rooms, _ := v.([]world.Id)
		for _, r := range rooms {
			if r == actorRoom || l.regionContains(r, actorRoom) {
				l.World.Relate(bd, actorRoom, world.ContainedBy)
				break
			}
		}
	}
}

// regionContains reports whether room is tagged as belonging to
// region via the "region" property. Region membership is one flat
// level; regions do not nest.
func (l *Loop) regionContains(region, room world.Id) bool {
	if !l.World.IsA(region, world.KindRegion) {
		return false
	}
	v, ok := l.World.Property("region").Get(room)
	if !ok {
		return false
	}
	id, _ := v.(world.Id)
	return id == region
}
