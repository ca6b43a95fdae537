package sink

import "strings"

// writeRef renders an object reference (the the(o)/The(o)/a(o)/A(o)
// bracket helpers): prefix is a fixed determiner ("the "/"The "), or
// indefinite is true and the article ("a"/"an") is chosen from the
// name's leading sound. The whole reference is wrapped in an action
// link whose embedded command examines the object.
func writeRef(s Sink, ctx *Context, args []string, prefix string, indefinite bool) {
	if len(args) == 0 {
		return
	}
	id := args[0]
	name := ctx.nameOf(id)

	var text string
	if indefinite {
		article := "a "
		if startsWithVowelSound(name) {
			article = "an "
		}
		if prefix == "" {
			text = article + name
		} else {
			text = strings.ToUpper(article[:1]) + article[1:] + name
		}
	} else {
		text = prefix + name
	}

	s.WrapActionLink("examine "+id, text)
}

func startsWithVowelSound(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

// The writes "the <name>" wrapped in an examine link.
func The(s Sink, ctx *Context, id string) { writeRef(s, ctx, []string{id}, "the ", false) }

// TheCap writes "The <name>" wrapped in an examine link.
func TheCap(s Sink, ctx *Context, id string) { writeRef(s, ctx, []string{id}, "The ", false) }

// A writes "a/an <name>" wrapped in an examine link.
func A(s Sink, ctx *Context, id string) { writeRef(s, ctx, []string{id}, "", true) }

// ACap writes "A/An <name>" wrapped in an examine link.
func ACap(s Sink, ctx *Context, id string) {
	name := ctx.nameOf(id)
	article := "A "
	if startsWithVowelSound(name) {
		article = "An "
	}
	s.WrapActionLink("examine "+id, article+name)
}

// We/Us/Our/Ours/Ourself render the reserved pronoun stems directly,
// for callers building narration in Go rather than through Write's
// bracket syntax.
func We(ctx *Context) string       { return Reword(ctx, "we", nil) }
func Us(ctx *Context) string       { return Reword(ctx, "us", nil) }
func Our(ctx *Context) string      { return Reword(ctx, "our", nil) }
func Ours(ctx *Context) string     { return Reword(ctx, "ours", nil) }
func Ourself(ctx *Context) string  { return Reword(ctx, "ourself", nil) }
