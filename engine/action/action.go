// Package action implements the action algebra and five-phase
// execution pipeline: verify, try_before, before, carry_out, report,
// plus disambiguation among the parser's candidate parses.
package action

import "github.com/nathoo/inkwell/engine/dispatch"

// Action is a plain record keyed by slot name: "verb" is always present; "dobj"/"iobj" are the usual object slots,
// but a verb is free to carry its own extra keys (e.g. "direction",
// "topic").
type Action map[string]any

// Verb returns the action's verb name.
func (a Action) Verb() string { return a.str("verb") }

// Dobj returns the action's direct object id, or "" if unset.
func (a Action) Dobj() string { return a.str("dobj") }

// Iobj returns the action's indirect object id, or "" if unset.
func (a Action) Iobj() string { return a.str("iobj") }

func (a Action) str(key string) string {
	v, _ := a[key].(string)
	return v
}

// Clone returns a shallow copy, used whenever a verify/before method
// wants to build a variant action (e.g. do_instead) without mutating
// the original.
func (a Action) Clone() Action {
	out := make(Action, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Verification scores, additive: authors compose verify methods that
// return one of these (or a derived value) plus a reason.
const (
	ScoreVeryLogical         = 150
	ScoreLogical             = 100
	ScoreNonObvious          = 99
	ScoreBarelyLogical       = 90 // reasonable cutoff
	ScoreIllogicalAlready    = 60
	ScoreIllogicalInaccessible = 20
	ScoreIllogical           = 10
	ScoreIllogicalNotVisible = 0
)

// Reasonable reports whether score clears the "reasonable" cutoff.
func Reasonable(score int) bool { return score >= ScoreBarelyLogical }

// VerifyResult is one verify method's judgement: a score and the
// narration to show if this ends up being the losing/failing reason.
type VerifyResult struct {
	Score  int
	Reason string
}

// Combine implements the verify-score combining rule: if both scores are
// >= 90 (reasonable), take the max (best wins among acceptable
// readings); otherwise take the min (the worst reason dominates, since
// a single disqualifying objection should not be drowned out by an
// unrelated compliment).
func Combine(a, b VerifyResult) VerifyResult {
	if Reasonable(a.Score) && Reasonable(b.Score) {
		if a.Score >= b.Score {
			return a
		}
		return b
	}
	if a.Score <= b.Score {
		return a
	}
	return b
}

// Verb is one registered verb: its five dispatch operations plus a
// display name used in "(first ...)"/"(doing ... instead)" narration.
type Verb struct {
	Name      string
	Verify    *dispatch.Operation
	TryBefore *dispatch.Operation
	Before    *dispatch.Operation
	CarryOut  *dispatch.Operation
	Report    *dispatch.Operation
}

// NewVerb creates a verb with five operations, each seeded with a
// fallback-of-last-resort method so Call never returns
// dispatch.ErrNoApplicableMethod before any author or adornment has
// registered a single method.
func NewVerb(name string) *Verb {
	v := &Verb{
		Name:      name,
		Verify:    dispatch.New(),
		TryBefore: dispatch.New(),
		Before:    dispatch.New(),
		CarryOut:  dispatch.New(),
		Report:    dispatch.New(),
	}
	v.Verify.Prepend(dispatch.Method{
		Name: "default-verify",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			return VerifyResult{Score: ScoreLogical}, nil
		},
	})
	noop := dispatch.Method{
		Name: "default-noop",
		Handler: func(args []any, next dispatch.Next) (any, error) {
			return nil, nil
		},
	}
	v.TryBefore.Prepend(noop)
	v.Before.Prepend(noop)
	v.CarryOut.Prepend(noop)
	v.Report.Prepend(noop)
	return v
}

// Registry holds every declared verb, looked up by name when an Action
// needs to run its pipeline.
type Registry struct {
	verbs map[string]*Verb
}

// NewRegistry creates an empty verb registry.
func NewRegistry() *Registry {
	return &Registry{verbs: map[string]*Verb{}}
}

// Verb returns the named verb, creating it via NewVerb (with its default
// methods) on
// first reference so game content can declare methods onto a verb
// before or after anyone else touches it.
func (r *Registry) Verb(name string) *Verb {
	v, ok := r.verbs[name]
	if !ok {
		v = NewVerb(name)
		r.verbs[name] = v
	}
	return v
}

// Names returns every declared verb name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.verbs))
	for n := range r.verbs {
		names = append(names, n)
	}
	return names
}
