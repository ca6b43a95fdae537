package parse

import "strings"

// Visibility resolves whether an object is currently visible to an
// actor; the "something" frontend post-filters "anything" with it.
// Implemented by engine/world.World.VisibleTo, passed
// in rather than imported to keep parse independent of world.
type Visibility func(objectId, actorId string) bool

// Context carries the state a grammar's frontends and When predicates
// need: which actor is parsing, and the visibility test.
type Context struct {
	ActorId string
	Visible Visibility
	Rooms   *Dictionary // known-room dictionary for somewhere/anywhere
	Input   string      // original command line, for the text frontend's raw-substring reconstruction
}

// element kinds.
const (
	elemWord     = "word"
	elemFrontend = "frontend"
)

type element struct {
	kind     string
	words    []string // literal word or slash-alternation
	frontend string   // something/anything/somewhere/anywhere/obj/direction/text/action
	arg      string   // frontend argument, e.g. direction binding name, or obj's literal id
}

// Pattern is one registered grammar rule against a nonterminal.
type Pattern struct {
	elements []element
	build    func(bindings map[string]any) any
	when     func(ctx *Context) bool
}

// Match is one parse result: the token span it covers, its built
// value, and its grammar score.
type Match struct {
	Start int
	End   int
	Value any
	Score int
}

// Grammar owns the set of nonterminal -> pattern registrations plus
// the shared noun/adjective dictionary and the direction vocabulary.
type Grammar struct {
	nonterminals map[string][]*Pattern
	dict         *Dictionary
	directions   map[string]string // alias -> canonical direction
}

// NewGrammar creates an empty grammar over the given object dictionary.
func NewGrammar(dict *Dictionary) *Grammar {
	g := &Grammar{
		nonterminals: map[string][]*Pattern{},
		dict:         dict,
		directions:   map[string]string{},
	}
	for alias, canon := range map[string]string{
		"n": "north", "s": "south", "e": "east", "w": "west",
		"ne": "northeast", "nw": "northwest", "se": "southeast", "sw": "southwest",
		"u": "up", "d": "down",
		"north": "north", "south": "south", "east": "east", "west": "west",
		"northeast": "northeast", "northwest": "northwest",
		"southeast": "southeast", "southwest": "southwest",
		"up": "up", "down": "down", "in": "in", "out": "out",
	} {
		g.directions[alias] = canon
		dict.MarkKnown(alias)
	}
	for _, art := range []string{"a", "an", "the", "some"} {
		dict.MarkKnown(art)
	}
	return g
}

// Understand registers pattern against nonterminal. build receives the
// bound slot values (see compilePattern for slot-naming rules); when,
// if non-nil, gates the whole pattern on parse Context.
func (g *Grammar) Understand(nonterminal, pattern string, build func(bindings map[string]any) any, when func(ctx *Context) bool) {
	p := compilePattern(pattern, g.dict)
	p.build = build
	p.when = when
	g.nonterminals[nonterminal] = append(g.nonterminals[nonterminal], p)
}

// compilePattern turns a pattern string mixing literal words,
// slash-alternations, and [frontend arg] slots into an element list.
func compilePattern(pattern string, dict *Dictionary) *Pattern {
	var elems []element
	fields := strings.Fields(pattern)
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		for strings.HasPrefix(tok, "[") && !strings.HasSuffix(tok, "]") && i+1 < len(fields) {
			i++
			tok += " " + fields[i]
		}
		if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
			inner := strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]")
			parts := strings.SplitN(inner, " ", 2)
			e := element{kind: elemFrontend, frontend: parts[0]}
			if len(parts) == 2 {
				e.arg = parts[1]
			}
			elems = append(elems, e)
			continue
		}
		words := strings.Split(tok, "/")
		for _, w := range words {
			dict.MarkKnown(w)
		}
		elems = append(elems, element{kind: elemWord, words: words})
	}
	return &Pattern{elements: elems}
}

// memoKey is the memoization key for the top-down parse: a nonterminal
// name and a token position.
type memoKey struct {
	nonterminal string
	pos         int
}

// Parse runs the top-down enumeration for nonterminal starting at pos,
// producing every Match, memoized by (nonterminal, position).
func (g *Grammar) Parse(nonterminal string, tokens []Token, pos int, ctx *Context) []Match {
	memo := map[memoKey][]Match{}
	return g.parseMemo(nonterminal, tokens, pos, ctx, memo)
}

func (g *Grammar) parseMemo(nonterminal string, tokens []Token, pos int, ctx *Context, memo map[memoKey][]Match) []Match {
	k := memoKey{nonterminal, pos}
	if v, ok := memo[k]; ok {
		return v
	}
	memo[k] = nil // guard against left recursion in a malformed grammar
	var results []Match
	for _, pat := range g.nonterminals[nonterminal] {
		if pat.when != nil && !pat.when(ctx) {
			continue
		}
		partials := []partial{{pos: pos, bindings: map[string]any{}, score: 0}}
		for _, e := range pat.elements {
			var next []partial
			for _, p := range partials {
				next = append(next, g.matchElement(e, tokens, p, ctx, memo)...)
			}
			partials = next
			if len(partials) == 0 {
				break
			}
		}
		for _, p := range partials {
			results = append(results, Match{
				Start: pos,
				End:   p.pos,
				Value: pat.build(p.bindings),
				Score: p.score,
			})
		}
	}
	memo[k] = results
	return results
}

// partial is a partially-matched pattern: how far we've consumed, the
// slot bindings so far, and the accumulated score.
type partial struct {
	pos      int
	bindings map[string]any
	score    int
}

func (p partial) with(pos int, key string, val any, scoreDelta int) partial {
	nb := make(map[string]any, len(p.bindings)+1)
	for k, v := range p.bindings {
		nb[k] = v
	}
	if key != "" {
		nb[key] = val
	}
	return partial{pos: pos, bindings: nb, score: p.score + scoreDelta}
}

// objectSlotKey names successive noun-phrase slots dobj, iobj, then
// dobj2 for every slot after that, matching the action algebra's
// {verb, dobj?, iobj?} shape. This is the one place this parser makes
// an explicit simplification over "named" frontend slots: the first
// noun frontend in a pattern binds to dobj, the second to iobj, and any
// further ones all bind to dobj2.
func objectSlotKey(p partial) string {
	if _, ok := p.bindings["dobj"]; !ok {
		return "dobj"
	}
	if _, ok := p.bindings["iobj"]; !ok {
		return "iobj"
	}
	return "dobj2"
}

func (g *Grammar) matchElement(e element, tokens []Token, p partial, ctx *Context, memo map[memoKey][]Match) []partial {
	switch e.kind {
	case elemWord:
		if p.pos >= len(tokens) {
			return nil
		}
		for _, w := range e.words {
			if tokens[p.pos].Text == w {
				return []partial{p.with(p.pos+1, "", nil, 0)}
			}
		}
		return nil
	case elemFrontend:
		return g.matchFrontend(e, tokens, p, ctx, memo)
	}
	return nil
}

func (g *Grammar) matchFrontend(e element, tokens []Token, p partial, ctx *Context, memo map[memoKey][]Match) []partial {
	switch e.frontend {
	case "something", "anything":
		return g.matchThing(e, tokens, p, ctx)
	case "somewhere", "anywhere":
		return g.matchRoom(e, tokens, p, ctx)
	case "obj":
		return g.matchObj(e, tokens, p)
	case "direction":
		return g.matchDirection(e, tokens, p)
	case "text":
		return g.matchText(e, tokens, p, ctx)
	case "action":
		var out []partial
		for _, m := range g.parseMemo("action", tokens, p.pos, ctx, memo) {
			key := e.arg
			if key == "" {
				key = "action"
			}
			out = append(out, p.with(m.End, key, m.Value, m.Score))
		}
		return out
	}
	return nil
}

func (g *Grammar) matchThing(e element, tokens []Token, p partial, ctx *Context) []partial {
	start := p.pos
	if start < len(tokens) && isArticle(tokens[start].Text) {
		start++
	}
	var out []partial
	for _, c := range g.dict.ResolveNounPhrase(tokens, start) {
		if e.frontend == "something" && ctx != nil && ctx.Visible != nil {
			if !ctx.Visible(c.Id, ctx.ActorId) {
				continue
			}
		}
		key := e.arg
		if key == "" {
			key = objectSlotKey(p)
		}
		out = append(out, p.with(c.End, key, c.Id, c.Score))
	}
	return out
}

func (g *Grammar) matchRoom(e element, tokens []Token, p partial, ctx *Context) []partial {
	if ctx == nil || ctx.Rooms == nil {
		return nil
	}
	start := p.pos
	if start < len(tokens) && isArticle(tokens[start].Text) {
		start++
	}
	var out []partial
	for _, c := range ctx.Rooms.ResolveNounPhrase(tokens, start) {
		key := e.arg
		if key == "" {
			key = objectSlotKey(p)
		}
		out = append(out, p.with(c.End, key, c.Id, c.Score))
	}
	return out
}

// matchObj matches a fixed, pattern-specified id: either the dictionary
// resolves the span to exactly that id, or (for scenery nouns with no
// dictionary entry) the span's text equals the id verbatim.
func (g *Grammar) matchObj(e element, tokens []Token, p partial) []partial {
	wantId := e.arg
	start := p.pos
	if start < len(tokens) && isArticle(tokens[start].Text) {
		start++
	}
	for _, c := range g.dict.ResolveNounPhrase(tokens, start) {
		if c.Id == wantId {
			return []partial{p.with(c.End, "", nil, c.Score)}
		}
	}
	// Scenery fallback: bare id token matches literally.
	if start < len(tokens) && tokens[start].Text == wantId {
		return []partial{p.with(start+1, "", nil, 0)}
	}
	return nil
}

func (g *Grammar) matchDirection(e element, tokens []Token, p partial) []partial {
	if p.pos >= len(tokens) {
		return nil
	}
	canon, ok := g.directions[tokens[p.pos].Text]
	if !ok {
		return nil
	}
	key := e.arg
	if key == "" {
		key = "direction"
	}
	return []partial{p.with(p.pos+1, key, canon, 0)}
}

// matchText greedily consumes every remaining token as the original
// input substring they span (the "text v" frontend); it always
// matches, possibly the empty remainder.
func (g *Grammar) matchText(e element, tokens []Token, p partial, ctx *Context) []partial {
	key := e.arg
	if key == "" {
		key = "text"
	}
	rest := tokens[p.pos:]
	text := ""
	if len(rest) > 0 && ctx != nil && ctx.Input != "" {
		runes := []rune(ctx.Input)
		text = string(runes[rest[0].Start:rest[len(rest)-1].End])
	} else if len(rest) > 0 {
		text = spanText(rest)
	}
	return []partial{p.with(len(tokens), key, text, 0)}
}

func isArticle(w string) bool {
	switch w {
	case "a", "an", "the", "some":
		return true
	}
	return false
}
