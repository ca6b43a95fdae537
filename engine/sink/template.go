package sink

import "strings"

// Context supplies the per-turn information bracket templating and
// reword conjugation need: who the narration is about, and how to
// look up an object's display name.
type Context struct {
	Actor  string
	Player string
	NameOf func(id string) string
}

func (c *Context) nameOf(id string) string {
	if c == nil || c.NameOf == nil {
		return id
	}
	if n := c.NameOf(id); n != "" {
		return n
	}
	return id
}

func (c *Context) isSecondPerson() bool {
	return c != nil && c.Actor == c.Player
}

// Write parses s left-to-right using bracket templating: text is
// emitted verbatim except for "[cmd arg arg …]" (a sink
// command invocation, quoted args allow spaces) and "{word|flag…}"
// (sugar for "[reword word flag…]").
func Write(s Sink, ctx *Context, text string) {
	i := 0
	for i < len(text) {
		switch text[i] {
		case '[':
			end := strings.IndexByte(text[i:], ']')
			if end < 0 {
				s.WriteText(text[i:])
				return
			}
			inner := text[i+1 : i+end]
			runBracket(s, ctx, inner)
			i += end + 1
		case '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				s.WriteText(text[i:])
				return
			}
			inner := text[i+1 : i+end]
			runReword(s, ctx, inner)
			i += end + 1
		default:
			j := i
			for j < len(text) && text[j] != '[' && text[j] != '{' {
				j++
			}
			s.WriteText(text[i:j])
			i = j
		}
	}
}

// runBracket dispatches one "[cmd arg arg …]" invocation.
func runBracket(s Sink, ctx *Context, inner string) {
	parts := splitArgs(inner)
	if len(parts) == 0 {
		return
	}
	cmd, args := parts[0], parts[1:]
	if fn, ok := commands[cmd]; ok {
		fn(s, ctx, args)
		return
	}
	// Unknown command: hand the command name to the sink as an element
	// invocation; its arguments are dropped.
	s.WriteElement(cmd)
}

// runReword is "{word|flag…}" sugar for "[reword word flag…]".
func runReword(s Sink, ctx *Context, inner string) {
	fields := strings.Split(inner, "|")
	word := fields[0]
	flags := fields[1:]
	s.WriteText(Reword(ctx, word, flags))
}

// splitArgs tokenizes a bracket's contents on whitespace, honoring
// single-quoted spans so an argument may contain spaces.
func splitArgs(s string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// reservedStems are the pronoun words reserved by reword: written as
// if a third-person narrator named "Bob" were acting, rewritten to
// second person when the actor is the player.
var reservedStems = map[string]bool{
	"we": true, "us": true, "our": true, "ours": true,
	"ourself": true, "ourselves": true, "bobs": true,
}

// thirdPersonExceptions overrides the regular -s/-ies suffix rule for
// a handful of irregular verbs.
var thirdPersonExceptions = map[string]string{
	"are": "is", "have": "has", "do": "does", "can": "can",
}

// Reword conjugates word for the current actor. Reserved pronoun
// stems resolve against the actor's display
// name in third person, or "you" in second person; ordinary verbs are
// left bare in second person and given their third-person -s/-ies form
// otherwise. The "obj" flag is accepted but does not change the output.
func Reword(ctx *Context, word string, flags []string) string {
	second := ctx.isSecondPerson()
	obj := hasFlag(flags, "obj")

	if reservedStems[word] {
		return rewordStem(ctx, word, second, obj)
	}
	if second {
		return word
	}
	return thirdPersonVerb(word)
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func rewordStem(ctx *Context, word string, second, obj bool) string {
	actor := ctx.nameOf(ctx.Actor)
	switch word {
	case "we", "bobs":
		if second {
			return "you"
		}
		return actor
	case "us":
		if second {
			return "you"
		}
		return actor
	case "our":
		if second {
			return "your"
		}
		return actor + "'s"
	case "ours":
		if second {
			return "yours"
		}
		return actor + "'s"
	case "ourself", "ourselves":
		if second {
			return "yourself"
		}
		return actor + "self"
	}
	_ = obj
	return word
}

func thirdPersonVerb(word string) string {
	if v, ok := thirdPersonExceptions[word]; ok {
		return v
	}
	if strings.HasSuffix(word, "y") && len(word) > 1 && !isVowel(word[len(word)-2]) {
		return word[:len(word)-1] + "ies"
	}
	switch {
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"),
		strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "sh"),
		strings.HasSuffix(word, "o"):
		return word + "es"
	}
	return word + "s"
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// commands is the bracket-invocation dispatch table for the built-in
// object-reference helpers (see helpers.go).
var commands = map[string]func(s Sink, ctx *Context, args []string){
	"the":   func(s Sink, ctx *Context, a []string) { writeRef(s, ctx, a, "the ", false) },
	"The":   func(s Sink, ctx *Context, a []string) { writeRef(s, ctx, a, "The ", false) },
	"a":     func(s Sink, ctx *Context, a []string) { writeRef(s, ctx, a, "", true) },
	"A":     func(s Sink, ctx *Context, a []string) { writeRef(s, ctx, a, "A ", true) },
	"we":    func(s Sink, ctx *Context, a []string) { s.WriteText(Reword(ctx, "we", nil)) },
	"us":    func(s Sink, ctx *Context, a []string) { s.WriteText(Reword(ctx, "us", nil)) },
	"our":   func(s Sink, ctx *Context, a []string) { s.WriteText(Reword(ctx, "our", nil)) },
	"ours":  func(s Sink, ctx *Context, a []string) { s.WriteText(Reword(ctx, "ours", nil)) },
	"reword": func(s Sink, ctx *Context, a []string) {
		if len(a) == 0 {
			return
		}
		s.WriteText(Reword(ctx, a[0], a[1:]))
	},
}
