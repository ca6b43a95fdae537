package action

import (
	"fmt"
	"strings"

	"github.com/nathoo/inkwell/engine/dispatch"
)

// maxRedirectDepth bounds chains of do_instead redirects so a
// misbehaving rule set cannot spin the turn loop forever. DoFirst starts
// a fresh run at depth 0, so do_first nesting is not counted here.
const maxRedirectDepth = 8

// Sink is the minimal capability the pipeline needs from the text
// output layer. engine/sink.Sink satisfies this structurally.
type Sink interface {
	WriteText(s string)
}

// AbortAction is returned by a before/try_before method to unwind the
// pipeline for the current action, printing reason and performing no
// further phases.
type AbortAction struct {
	Reason string
}

// DoInstead is returned by a before/try_before method to replace the
// current action with Other, restarting the pipeline from verify.
// Unless Suppress, "(doing ... instead)" is printed first.
type DoInstead struct {
	Other    Action
	Suppress bool
}

// Pipeline drives one action through verify/try_before/before/
// carry_out/report against a verb registry, emitting narration to Sink.
type Pipeline struct {
	Registry *Registry
	Sink     Sink
	// Describe renders an action for "(first ...)"/"(doing ... instead)"
	// narration. Defaults to "verb the dobj" in the obvious way; game
	// content may override for nicer phrasing.
	Describe func(Action) string
}

// NewPipeline creates a pipeline against registry, writing to sink.
func NewPipeline(registry *Registry, sink Sink) *Pipeline {
	return &Pipeline{Registry: registry, Sink: sink, Describe: defaultDescribe}
}

func defaultDescribe(a Action) string {
	verb := a.Verb()
	if strings.HasSuffix(verb, "e") && verb != "flee" {
		verb = verb[:len(verb)-1]
	}
	if a.Dobj() != "" {
		return verb + "ing the " + a.Dobj()
	}
	return verb + "ing"
}

// Execute runs the full five-phase pipeline for a, returning whether
// it carried out successfully (verify passed and no abort occurred).
func (p *Pipeline) Execute(a Action) bool {
	return p.run(a, 0, false)
}

// Silent runs the pipeline without emitting the report phase's
// narration — used by step_turn bookkeeping and by rules that probe
// whether an action would succeed.
func (p *Pipeline) Silent(a Action) bool {
	return p.run(a, 0, true)
}

// DoFirst runs an implicit prerequisite sub-action, the mechanism
// behind try_before's auto-take/auto-open behavior. It
// prints a "(first ...)" narration line before executing, and returns
// whether the sub-action succeeded.
func (p *Pipeline) DoFirst(a Action) bool {
	verb := p.Registry.Verb(a.Verb())
	vr := p.verify(verb, a)
	if !Reasonable(vr.Score) {
		return false
	}
	if p.Sink != nil {
		p.Sink.WriteText(fmt.Sprintf("(first %s)\n", p.Describe(a)))
	}
	return p.run(a, 0, false)
}

func (p *Pipeline) run(a Action, depth int, silent bool) bool {
	if depth > maxRedirectDepth {
		if p.Sink != nil {
			p.Sink.WriteText("That leads nowhere.\n")
		}
		return false
	}
	verb := p.Registry.Verb(a.Verb())

	vr := p.verify(verb, a)
	if !Reasonable(vr.Score) {
		if !silent && vr.Reason != "" && p.Sink != nil {
			p.Sink.WriteText(vr.Reason)
		}
		return false
	}

	if done, ok := p.runPhase(verb.TryBefore, a, depth, silent); ok {
		return done
	}
	if done, ok := p.runPhase(verb.Before, a, depth, silent); ok {
		return done
	}

	verb.CarryOut.Call(a)

	if !silent {
		verb.Report.Call(a)
	}
	return true
}

// runPhase runs one control-flow-bearing phase. The second return
// value is true when the phase's outcome (abort or redirect) already
// determines run's final result, in which case the first return value
// is that result.
func (p *Pipeline) runPhase(op *dispatch.Operation, a Action, depth int, silent bool) (bool, bool) {
	res, _ := op.Call(a)
	switch v := res.(type) {
	case AbortAction:
		if !silent && v.Reason != "" && p.Sink != nil {
			p.Sink.WriteText(v.Reason)
		}
		return false, true
	case DoInstead:
		if !v.Suppress && p.Sink != nil {
			p.Sink.WriteText(fmt.Sprintf("(doing %s instead)\n", p.Describe(v.Other)))
		}
		return p.run(v.Other, depth+1, silent), true
	}
	return false, false
}

// verify runs the verb's verify chain, which is always non-empty
// (NewVerb seeds a default method), so the dispatch.ErrNoApplicableMethod
// case never legitimately arises here.
func (p *Pipeline) verify(verb *Verb, a Action) VerifyResult {
	res, err := verb.Verify.Call(a)
	if err != nil {
		return VerifyResult{Score: ScoreIllogical, Reason: "That doesn't make sense.\n"}
	}
	vr, _ := res.(VerifyResult)
	return vr
}
