package turn

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/describe"
	"github.com/nathoo/inkwell/engine/dispatch"
	"github.com/nathoo/inkwell/engine/parse"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/world"
)

// game bundles everything one scenario drives: the world, the parser,
// the pipeline, the description engine, and the loop under test. It
// exercises the real parse -> disambiguate -> pipeline -> describe
// stack end to end.
type game struct {
	World     *world.World
	Parser    *parse.Parser
	Pipeline  *action.Pipeline
	Describer *describe.Describer
	Buf       *sink.Buffer
	Loop      *Loop
}

func displayName(w *world.World, id world.Id) string {
	if v, ok := w.Property("name").Get(id); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return id
}

// newGame wires six verbs (take, drop, put, open, go, look) the way
// loader/builtins.go's registrations and engine/action/adornments.go's
// reusable checks compose: adornments handle the ordinary
// visibility/accessibility guards, hand-written methods handle this
// test's verb-specific semantics.
func newGame(t *testing.T) *game {
	t.Helper()
	w := world.New()
	buf := sink.NewBuffer()
	reg := action.NewRegistry()
	pipeline := action.NewPipeline(reg, buf)
	// Describe "(first ...)"/"(doing ... instead)" narration using the
	// object's display name rather than its bare id, matching how the
	// rest of this test's narration reads.
	pipeline.Describe = func(a action.Action) string {
		verb := a.Verb()
		if strings.HasSuffix(verb, "e") && verb != "flee" {
			verb = verb[:len(verb)-1]
		}
		if a.Dobj() != "" {
			return verb + "ing the " + displayName(w, a.Dobj())
		}
		return verb + "ing"
	}
	ad := action.NewAdornments(w)
	parser := parse.NewParser()
	d := describe.New(w)

	actor := func() world.Id { return w.Actor() }

	// take
	take := reg.Verb("take")
	take.Verify.Append(ad.RequireDobjVisible("take-visible"))
	take.Verify.Append(dispatch.Method{
		Name: "take-already-have",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			prior, _ := next(nil)
			priorVR, _ := prior.(action.VerifyResult)
			if w.Contains(actor(), act.Dobj()) {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogicalAlready, Reason: "You already have that.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	take.CarryOut.Append(dispatch.Method{
		Name: "take-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			w.Relate(act.Dobj(), actor(), world.OwnedBy)
			return nil, nil
		},
	})
	take.Report.Append(dispatch.Method{
		Name: "take-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			pipeline.Sink.WriteText("Taken.\n")
			return nil, nil
		},
	})

	// drop
	drop := reg.Verb("drop")
	drop.Verify.Append(ad.RequireDobjHeld("drop-held", action.HeldOpts{Transitive: true}))
	drop.CarryOut.Append(dispatch.Method{
		Name: "drop-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(actor())
			w.Relate(act.Dobj(), room, world.ContainedBy)
			return nil, nil
		},
	})
	drop.Report.Append(dispatch.Method{
		Name: "drop-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			pipeline.Sink.WriteText("Dropped.\n")
			return nil, nil
		},
	})

	// open
	open := reg.Verb("open")
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
			pipeline.Sink.WriteText("Opened.\n")
			return nil, nil
		},
	})

	// put
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
			if !w.Contains(actor(), act.Dobj()) {
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
			pipeline.Sink.WriteText(fmt.Sprintf("You put the %s into the %s.\n",
				displayName(w, act.Dobj()), displayName(w, act.Iobj())))
			return nil, nil
		},
	})

	// go
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
			room := w.EffectiveContainer(actor())
			if _, ok := findExit(room, act["direction"].(string)); !ok {
				return action.Combine(priorVR, action.VerifyResult{
					Score: action.ScoreIllogical, Reason: "You can't go that way.\n",
				}), nil
			}
			return priorVR, nil
		},
	})
	goVerb.TryBefore.Append(dispatch.Method{
		Name: "go-open-door",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(actor())
			exitObj, _ := findExit(room, act["direction"].(string))
			if w.IsA(exitObj, world.KindDoor) && w.Openable(exitObj) && !w.Open(exitObj) {
				if !pipeline.DoFirst(action.Action{"verb": "open", "dobj": exitObj}) {
					return action.AbortAction{Reason: "The door won't budge.\n"}, nil
				}
			}
			return next(nil)
		},
	})
	goVerb.CarryOut.Append(dispatch.Method{
		Name: "go-carry-out",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			act := args[0].(action.Action)
			room := w.EffectiveContainer(actor())
			exitObj, _ := findExit(room, act["direction"].(string))
			dest := exitObj
			if w.IsA(exitObj, world.KindDoor) {
				if other, ok := w.DoorOtherSideFrom(exitObj, room); ok {
					dest = other
				}
			}
			w.Relate(actor(), dest, world.ContainedBy)
			return nil, nil
		},
	})

	// look
	look := reg.Verb("look")
	look.Report.Append(dispatch.Method{
		Name: "look-report",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			DescribeAndMarkVisited(w, d, buf, &sink.Context{Actor: w.Actor(), Player: w.Player(), NameOf: func(id string) string { return displayName(w, id) }})
			return nil, nil
		},
	})

	parser.Understand("take [something dobj]", func(b map[string]any) any {
		return action.Action{"verb": "take", "dobj": b["dobj"]}
	}, nil)
	parser.Understand("drop [something dobj]", func(b map[string]any) any {
		return action.Action{"verb": "drop", "dobj": b["dobj"]}
	}, nil)
	parser.Understand("put [something dobj] in/into [something iobj]", func(b map[string]any) any {
		return action.Action{"verb": "put", "dobj": b["dobj"], "iobj": b["iobj"]}
	}, nil)
	parser.Understand("open [something dobj]", func(b map[string]any) any {
		return action.Action{"verb": "open", "dobj": b["dobj"]}
	}, nil)
	parser.Understand("go [direction dir]", func(b map[string]any) any {
		return action.Action{"verb": "go", "direction": b["dir"]}
	}, nil)
	parser.Understand("[direction dir]", func(b map[string]any) any {
		return action.Action{"verb": "go", "direction": b["dir"]}
	}, nil)
	parser.Understand("look", func(b map[string]any) any {
		return action.Action{"verb": "look"}
	}, nil)
	parser.Understand("l", func(b map[string]any) any {
		return action.Action{"verb": "look"}
	}, nil)

	loop := NewLoop(w, pipeline, parser, d, buf, func(id string) string { return displayName(w, id) })

	return &game{World: w, Parser: parser, Pipeline: pipeline, Describer: d, Buf: buf, Loop: loop}
}

func mustCreate(t *testing.T, w *world.World, id string, kind world.Kind) {
	t.Helper()
	if err := w.NewEntity(id, kind); err != nil {
		t.Fatal(err)
	}
}

func mustRelate(t *testing.T, w *world.World, o, target world.Id, tag world.LocationTag) {
	t.Helper()
	if err := w.Relate(o, target, tag); err != nil {
		t.Fatal(err)
	}
}

// Scenario 1: take ball.
func TestScenarioTakeBall(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "lobby", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustCreate(t, w, "ball", world.KindThing)
	w.Property("makes_light").Set(true, "lobby")
	w.Property("name").Set("red ball", "ball")
	g.Parser.Dict.AddWords("ball", "red ball", []parse.Word{{Text: "ball", IsNoun: true}, {Text: "red"}})
	mustRelate(t, w, "player", "lobby", world.ContainedBy)
	mustRelate(t, w, "ball", "lobby", world.ContainedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	g.Loop.Step("take ball")

	if !strings.Contains(g.Buf.String(), "Taken.") {
		t.Fatalf("expected Taken., got %q", g.Buf.String())
	}
	target, tag, ok := w.Location("ball")
	if !ok || target != "player" || tag != world.OwnedBy {
		t.Fatalf("expected ball owned_by player, got (%q, %q, %v)", target, tag, ok)
	}
}

// Scenario 2: drop ball, continuing from scenario 1's end state.
func TestScenarioDropBall(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "lobby", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustCreate(t, w, "ball", world.KindThing)
	w.Property("makes_light").Set(true, "lobby")
	w.Property("name").Set("red ball", "ball")
	g.Parser.Dict.AddWords("ball", "red ball", []parse.Word{{Text: "ball", IsNoun: true}})
	mustRelate(t, w, "player", "lobby", world.ContainedBy)
	mustRelate(t, w, "ball", "player", world.OwnedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	g.Loop.Step("drop ball")

	if !strings.Contains(g.Buf.String(), "Dropped.") {
		t.Fatalf("expected Dropped., got %q", g.Buf.String())
	}
	target, tag, ok := w.Location("ball")
	if !ok || target != "lobby" || tag != world.ContainedBy {
		t.Fatalf("expected ball contained_by lobby, got (%q, %q, %v)", target, tag, ok)
	}
}

// Scenario 3: put ball in box, box closed, ball not held.
func TestScenarioPutBallInClosedBox(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "lobby", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustCreate(t, w, "ball", world.KindThing)
	mustCreate(t, w, "box", world.KindContainer)
	w.Property("makes_light").Set(true, "lobby")
	w.Property("name").Set("ball", "ball")
	w.Property("name").Set("cardboard box", "box")
	w.Property("openable").Set(true, "box")
	w.Property("open").Set(false, "box")
	g.Parser.Dict.AddWords("ball", "red ball", []parse.Word{{Text: "ball", IsNoun: true}})
	g.Parser.Dict.AddWords("box", "cardboard box", []parse.Word{{Text: "box", IsNoun: true}, {Text: "cardboard"}})
	mustRelate(t, w, "player", "lobby", world.ContainedBy)
	mustRelate(t, w, "ball", "lobby", world.ContainedBy)
	mustRelate(t, w, "box", "lobby", world.ContainedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	g.Loop.Step("put ball in box")

	out := g.Buf.String()
	iOpen := strings.Index(out, "(first opening the cardboard box)")
	iTake := strings.Index(out, "(first taking the ball)")
	iPut := strings.Index(out, "You put the ball into the cardboard box.")
	if iOpen < 0 || iTake < 0 || iPut < 0 {
		t.Fatalf("missing expected narration, got %q", out)
	}
	if !(iOpen < iTake && iTake < iPut) {
		t.Fatalf("expected open-before-take-before-put ordering, got %q", out)
	}
	target, tag, ok := w.Location("ball")
	if !ok || target != "box" || tag != world.ContainedBy {
		t.Fatalf("expected ball contained_by box, got (%q, %q, %v)", target, tag, ok)
	}
}

// Scenario 4: two red balls, ambiguous "take red ball" yields a two-entry menu.
func TestScenarioAmbiguousTakeRedBall(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "lobby", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustCreate(t, w, "ball1", world.KindThing)
	mustCreate(t, w, "ball2", world.KindThing)
	w.Property("makes_light").Set(true, "lobby")
	w.Property("name").Set("small red ball", "ball1")
	w.Property("name").Set("big red ball", "ball2")
	g.Parser.Dict.AddWords("ball1", "small red ball", []parse.Word{{Text: "ball", IsNoun: true}, {Text: "small"}, {Text: "red"}})
	g.Parser.Dict.AddWords("ball2", "big red ball", []parse.Word{{Text: "ball", IsNoun: true}, {Text: "big"}, {Text: "red"}})
	mustRelate(t, w, "player", "lobby", world.ContainedBy)
	mustRelate(t, w, "ball1", "lobby", world.ContainedBy)
	mustRelate(t, w, "ball2", "lobby", world.ContainedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	outcome := g.Loop.Step("take red ball")

	if len(outcome.Menu) != 2 {
		t.Fatalf("expected a two-entry menu, got %v", outcome.Menu)
	}
}

// Scenario 5: Lobby -> Hall via closed door "plain door"; going north
// opens the door implicitly and arrives in a lit Hall, marking it visited.
func TestScenarioGoThroughClosedDoor(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "lobby", world.KindRoom)
	mustCreate(t, w, "hall", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustCreate(t, w, "door", world.KindDoor)
	w.Property("makes_light").Set(true, "lobby")
	w.Property("makes_light").Set(true, "hall")
	w.Property("name").Set("plain door", "door")
	w.Property("openable").Set(true, "door")
	w.Property("open").Set(false, "door")
	w.SetExit("lobby", "north", "door")
	w.SetExit("hall", "south", "door")
	w.SetExit("door", "_a", "lobby")
	w.SetExit("door", "_b", "hall")
	mustRelate(t, w, "player", "lobby", world.ContainedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	g.Loop.Step("n")

	out := g.Buf.String()
	if !strings.Contains(out, "(first opening the plain door)") {
		t.Fatalf("expected implicit door-opening, got %q", out)
	}
	target, tag, ok := w.Location("player")
	if !ok || target != "hall" || tag != world.ContainedBy {
		t.Fatalf("expected player to end up in hall, got (%q, %q, %v)", target, tag, ok)
	}
	v, ok := w.Property("visited").Get("player", "hall")
	visited, _ := v.(bool)
	if !ok || !visited {
		t.Fatalf("expected hall marked visited")
	}
}

// Scenario 6: a dark Hall renders the canned darkness message and
// leaves visited untouched.
func TestScenarioLookInDarkness(t *testing.T) {
	g := newGame(t)
	w := g.World
	mustCreate(t, w, "hall", world.KindRoom)
	mustCreate(t, w, "player", world.KindPerson)
	mustRelate(t, w, "player", "hall", world.ContainedBy)
	w.SetActor("player")
	w.SetPlayer("player")
	g.Buf.Reset()

	g.Loop.Step("l")

	out := g.Buf.String()
	if !strings.Contains(out, "Darkness") {
		t.Fatalf("expected Darkness heading, got %q", out)
	}
	if !strings.Contains(out, "pitch dark") {
		t.Fatalf("expected canned darkness message, got %q", out)
	}
	if _, ok := w.Property("visited").Get("player", "hall"); ok {
		t.Fatalf("visited should remain unset in darkness")
	}
}
