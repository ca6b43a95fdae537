package parse

import "sort"

// Parser is the top-level entry point: it owns the dictionary, the
// room dictionary, and the grammar, and wraps the memoized combinator
// parse in the "command" nonterminal — an action optionally followed
// by a trailing period.
type Parser struct {
	Dict    *Dictionary
	Rooms   *Dictionary
	Grammar *Grammar
}

// NewParser creates an empty parser and registers the "command"
// wrapper nonterminal.
func NewParser() *Parser {
	dict := NewDictionary()
	rooms := NewDictionary()
	g := NewGrammar(dict)
	p := &Parser{Dict: dict, Rooms: rooms, Grammar: g}

	g.Understand("command", "[action cmd]", func(b map[string]any) any {
		return b["cmd"]
	}, nil)

	return p
}

// Understand registers an action grammar pattern. build receives the
// parsed bindings (verb is implicit in which pattern matched; callers
// typically set it themselves in build) and must return the Action
// value; parse stays agnostic to Action's shape and just returns
// whatever build produces.
func (p *Parser) Understand(pattern string, build func(bindings map[string]any) any, when func(ctx *Context) bool) {
	p.Grammar.Understand("action", pattern, build, when)
}

// ParseResult is one full-command parse: the produced action value and
// its grammar score. Parse returns only parses that consume the entire
// input; a match that stops before end of input is never a result.
type ParseResult struct {
	Value any
	Score int
}

// Parse tokenizes line and returns every full-input parse of the
// "command" nonterminal, highest score first. Ties keep a stable
// insertion order, matching grammar registration order, so the first
// registered pattern comes first among equal scores.
func (p *Parser) Parse(line string, ctx *Context) []ParseResult {
	tokens := Tokenize(line)
	if ctx != nil && ctx.Rooms == nil {
		ctx.Rooms = p.Rooms
	}
	if ctx != nil {
		ctx.Input = line
	}
	matches := p.Grammar.Parse("command", tokens, 0, ctx)

	var out []ParseResult
	for _, m := range matches {
		if m.End != len(tokens) {
			continue
		}
		out = append(out, ParseResult{Value: m.Value, Score: m.Score})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

// UnknownWords returns every token in line not present in the known-
// words set, for the "I don't know what you mean by ..." error
// edge case.
func (p *Parser) UnknownWords(line string) []string {
	var out []string
	for _, tok := range Tokenize(line) {
		if !p.Dict.KnownWord(tok.Text) {
			out = append(out, tok.Text)
		}
	}
	return out
}
