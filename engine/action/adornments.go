package action

import (
	"fmt"

	"github.com/nathoo/inkwell/engine/dispatch"
	"github.com/nathoo/inkwell/engine/world"
)

// Adornments wraps the world model and the actor a verify chain runs
// against, producing a set of reusable verify methods:
// require_dobj_accessible, require_dobj_visible,
// require_dobj_held({only_hint, transitive}), hint_dobj_not_held, and
// their iobj mirrors. Each returns a dispatch.Method ready to Append
// onto a Verb's Verify operation.
type Adornments struct {
	World *world.World
	Actor func(Action) world.Id // which actor the action runs as; defaults to World.Actor()
}

// NewAdornments creates an Adornments helper over w, defaulting Actor
// to the world's current actor.
func NewAdornments(w *world.World) *Adornments {
	return &Adornments{World: w, Actor: func(Action) world.Id { return w.Actor() }}
}

// chain composes this method's own judgement with whatever the rest of
// the chain already decided, per the verify score combining rule.
func chain(next dispatch.Next, args []any, mine VerifyResult) (any, error) {
	prior, err := next(nil)
	if err != nil {
		return mine, nil
	}
	priorVR, ok := prior.(VerifyResult)
	if !ok {
		return mine, nil
	}
	return Combine(priorVR, mine), nil
}

// RequireDobjVisible fails unless the dobj is visible to the actor.
func (a *Adornments) RequireDobjVisible(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.World.VisibleTo(act.Dobj(), actor) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalNotVisible,
				Reason: "You can't see that here.\n",
			})
		}
		return next(nil)
	}}
}

// RequireDobjAccessible fails unless the dobj is accessible (visible
// and physically reachable) to the actor.
func (a *Adornments) RequireDobjAccessible(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.World.AccessibleTo(act.Dobj(), actor) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalInaccessible,
				Reason: "You can't get to that.\n",
			})
		}
		return next(nil)
	}}
}

// HeldOpts configures RequireDobjHeld / RequireIobjHeld.
type HeldOpts struct {
	// OnlyHint, when true, downgrades a not-held dobj to non_obvious
	// rather than illogical_already — used when being held is merely
	// preferred, not required (e.g. "give" vs. "examine").
	OnlyHint bool
	// Transitive treats "held" as "contained anywhere within the
	// actor's inventory", not just directly.
	Transitive bool
}

func (a *Adornments) isHeld(obj, actor world.Id, transitive bool) bool {
	if transitive {
		return a.World.Contains(actor, obj)
	}
	target, tag, ok := a.World.Location(obj)
	return ok && target == actor && (tag == world.ContainedBy || tag == world.OwnedBy)
}

// RequireDobjHeld fails (or merely hints, per opts.OnlyHint) unless the
// actor is holding the dobj.
func (a *Adornments) RequireDobjHeld(name string, opts HeldOpts) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.isHeld(act.Dobj(), actor, opts.Transitive) {
			score := ScoreIllogicalAlready
			if opts.OnlyHint {
				score = ScoreNonObvious
			}
			return chain(next, args, VerifyResult{
				Score:  score,
				Reason: fmt.Sprintf("You aren't holding the %s.\n", act.Dobj()),
			})
		}
		return next(nil)
	}}
}

// HintDobjNotHeld fails verify with illogical_already ("You already
// have that.") when the actor is already holding the dobj — used by
// verbs like "take", where taking something already held is pointless.
// The score is below the reasonable cutoff, so it disqualifies the parse.
func (a *Adornments) HintDobjNotHeld(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if a.isHeld(act.Dobj(), actor, false) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalAlready,
				Reason: "You already have that.\n",
			})
		}
		return next(nil)
	}}
}

// RequireIobjVisible is RequireDobjVisible's iobj mirror.
func (a *Adornments) RequireIobjVisible(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.World.VisibleTo(act.Iobj(), actor) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalNotVisible,
				Reason: "You can't see that here.\n",
			})
		}
		return next(nil)
	}}
}

// RequireIobjAccessible is RequireDobjAccessible's iobj mirror.
func (a *Adornments) RequireIobjAccessible(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.World.AccessibleTo(act.Iobj(), actor) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalInaccessible,
				Reason: "You can't get to that.\n",
			})
		}
		return next(nil)
	}}
}

// RequireIobjHeld is RequireDobjHeld's iobj mirror.
func (a *Adornments) RequireIobjHeld(name string, opts HeldOpts) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		actor := a.Actor(act)
		if !a.isHeld(act.Iobj(), actor, opts.Transitive) {
			score := ScoreIllogicalAlready
			if opts.OnlyHint {
				score = ScoreNonObvious
			}
			return chain(next, args, VerifyResult{
				Score:  score,
				Reason: fmt.Sprintf("You aren't holding the %s.\n", act.Iobj()),
			})
		}
		return next(nil)
	}}
}

// RequireClosed fails when the dobj is open (World.Open) — used by
// "open"-style verbs where attempting an already-open container is the
// disqualifying condition (the mirror check, RequireOpen, is the
// common case for "close"/"take from").
func (a *Adornments) RequireClosed(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		if a.World.Open(act.Dobj()) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalAlready,
				Reason: "That's already open.\n",
			})
		}
		return next(nil)
	}}
}

// RequireOpen fails unless the dobj is open, citing the closed-
// container failure mode by name.
func (a *Adornments) RequireOpen(name string) dispatch.Method {
	return dispatch.Method{Name: name, Handler: func(args []any, next dispatch.Next) (any, error) {
		act := args[0].(Action)
		if a.World.Openable(act.Dobj()) && !a.World.Open(act.Dobj()) {
			return chain(next, args, VerifyResult{
				Score:  ScoreIllogicalAlready,
				Reason: "That's a closed container.\n",
			})
		}
		return next(nil)
	}}
}
