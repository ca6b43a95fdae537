package loader

import (
	"sort"
	"strings"

	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/parse"
)

// verbAliasGroups maps each canonical verb to its player-facing
// synonyms, grouped by canonical verb rather than flattened to
// alias -> canonical. Direction aliases need no entry here:
// parse.NewGrammar already registers them.
var verbAliasGroups = map[string][]string{
	"look":      {"l"},
	"examine":   {"x", "inspect", "check", "study", "observe", "describe", "search"},
	"go":        {"walk", "run", "move", "head", "proceed", "enter", "travel"},
	"take":      {"get", "grab", "hold", "carry", "catch"},
	"drop":      {"discard"},
	"attack":    {"hit", "fight", "strike", "kill", "punch", "kick", "smash", "destroy", "break"},
	"talk":      {"ask", "speak", "chat", "converse", "say", "tell"},
	"close":     {"shut"},
	"push":      {"press", "shove", "shift"},
	"pull":      {"drag", "tug", "yank"},
	"give":      {"offer", "hand", "feed"},
	"throw":     {"toss", "hurl", "lob"},
	"eat":       {"consume", "taste", "bite", "devour"},
	"drink":     {"sip", "swallow", "quaff"},
	"inventory": {"inv", "i"},
	"wait":      {"z"},
	"smell":     {"sniff"},
	"listen":    {"hear"},
	"touch":     {"feel", "rub"},
	"climb":     {"scale"},
	"jump":      {"leap", "hop"},
	"unlock":    {},
	"lock":      {},
	"tie":       {"fasten", "attach"},
	"untie":     {"detach", "release"},
	"wear":      {"don"},
	"remove":    {},
	"use":       {},
	"open":      {},
	"put":       {},
	"wave":      {},
	"sing":      {},
	"pray":      {},
	"sleep":     {"nap", "rest"},
	"knock":     {"rap"},
	"yell":      {"scream", "shout"},
	"swim":      {"dive"},
	"buy":       {"purchase"},
	"defend":    {},
	"flee":      {},
	"read":      {},
	"activate":  {},
	"deactivate": {},
}

// verbWords joins canonical with its aliases as one slash-alternation
// token, suitable for use as a pattern's leading literal-word element.
func verbWords(canonical string) string {
	words := append([]string{canonical}, verbAliasGroups[canonical]...)
	return strings.Join(words, "/")
}

// builtinVerbs are the verbs this package's RegisterBuiltinVerbs wires
// carry_out/report methods for; every other verb named in
// verbAliasGroups is still parseable (so authored rules can match it)
// but falls through to the registry's default-noop unless content
// supplies its own dispatch methods.
var builtinVerbs = []string{
	"go", "look", "examine", "inventory", "take", "drop", "talk", "wait",
	"attack", "defend", "flee", "open", "close", "put",
}

// contentOnlyVerbs lists every remaining verb from verbAliasGroups that
// has no engine builtin — registered with a generic "verb [something
// dobj]" / bare "verb" pattern pair so Lua-authored rules can still
// target them.
func contentOnlyVerbs() []string {
	var out []string
	builtin := map[string]bool{}
	for _, v := range builtinVerbs {
		builtin[v] = true
	}
	builtin["read"] = true // multi-word-expanded onto examine
	for v := range verbAliasGroups {
		if !builtin[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// RegisterGrammar registers every pattern the builtin verbs and their
// multi-word expansions need, plus a generic dobj pattern for every
// other verb the content vocabulary names.
func RegisterGrammar(p *parse.Parser) {
	act := func(verb string, extra ...string) func(map[string]any) any {
		return func(b map[string]any) any {
			a := action.Action{"verb": verb}
			for _, k := range extra {
				if v, ok := b[k]; ok {
					a[k] = v
				}
			}
			return a
		}
	}

	p.Understand(verbWords("go")+" [direction dir]", func(b map[string]any) any {
		return action.Action{"verb": "go", "direction": b["dir"]}
	}, nil)
	p.Understand("[direction dir]", func(b map[string]any) any {
		return action.Action{"verb": "go", "direction": b["dir"]}
	}, nil)
	p.Understand(verbWords("go")+" to [somewhere dobj]", func(b map[string]any) any {
		return action.Action{"verb": "go", "room": b["dobj"]}
	}, nil)

	p.Understand(verbWords("look"), act("look"), nil)
	p.Understand(verbWords("look")+" at/in/under [something dobj]", act("examine", "dobj"), nil)

	p.Understand(verbWords("examine")+" [something dobj]", act("examine", "dobj"), nil)
	p.Understand("read [something dobj]", act("examine", "dobj"), nil)

	p.Understand(verbWords("take")+" [something dobj]", act("take", "dobj"), nil)
	p.Understand("pick up [something dobj]", act("take", "dobj"), nil)

	p.Understand(verbWords("drop")+" [something dobj]", act("drop", "dobj"), nil)
	p.Understand("put down [something dobj]", act("drop", "dobj"), nil)

	p.Understand(verbWords("inventory"), act("inventory"), nil)

	p.Understand(verbWords("wait"), act("wait"), nil)

	p.Understand(verbWords("talk")+" [something dobj]", act("talk", "dobj"), nil)
	p.Understand(verbWords("talk")+" to/with [something dobj]", act("talk", "dobj"), nil)
	p.Understand(verbWords("talk")+" to/with [something dobj] about [text topic]", act("talk", "dobj", "topic"), nil)
	p.Understand(verbWords("talk")+" [something dobj] about [text topic]", act("talk", "dobj", "topic"), nil)
	p.Understand(verbWords("use")+" [something dobj] on [something iobj]", act("use", "dobj", "iobj"), nil)
	p.Understand(verbWords("give")+" [something dobj] to [something iobj]", act("give", "dobj", "iobj"), nil)

	p.Understand(verbWords("attack")+" [something dobj]", act("attack", "dobj"), nil)
	p.Understand(verbWords("attack"), act("attack"), nil)
	p.Understand(verbWords("defend"), act("defend"), nil)
	p.Understand(verbWords("flee"), act("flee"), nil)

	p.Understand(verbWords("open")+" [something dobj]", act("open", "dobj"), nil)
	p.Understand(verbWords("close")+" [something dobj]", act("close", "dobj"), nil)
	p.Understand(verbWords("put")+" [something dobj] in/into [something iobj]", func(b map[string]any) any {
		return action.Action{"verb": "put", "dobj": b["dobj"], "iobj": b["iobj"]}
	}, nil)

	p.Understand("put on [something dobj]", act("wear", "dobj"), nil)
	p.Understand("take off [something dobj]", act("remove", "dobj"), nil)
	p.Understand("turn on [something dobj]", act("activate", "dobj"), nil)
	p.Understand("turn off [something dobj]", act("deactivate", "dobj"), nil)
	p.Understand("switch on [something dobj]", act("activate", "dobj"), nil)
	p.Understand("switch off [something dobj]", act("deactivate", "dobj"), nil)

	for _, verb := range contentOnlyVerbs() {
		words := verbWords(verb)
		p.Understand(words+" [something dobj]", act(verb, "dobj"), nil)
		p.Understand(words, act(verb), nil)
	}
}
