// Package sink implements the text output abstraction: prose is built
// by issuing calls against a Sink rather than by string concatenation,
// so the core never assumes a particular rendering surface (terminal,
// HTML, TUI).
package sink

// Sink is the interface the core requires of any output surface.
// WriteText/WriteElement emit plain text and named elements; region
// management and attribute decoration follow the same naming.
type Sink interface {
	WriteText(s string)
	WriteElement(tag string)
	EnterInline(tag string)
	EnterBlock(tag string)
	Leave()
	Para()
	AddClass(class string)
	Attr(key, value string)
	CSS(key, value string)
	On(event, handler string)
	// WrapActionLink wraps inner in a clickable/keyed region whose
	// embedded command is commandText — the mechanism behind the
	// the(o)/a(o)/… object-reference helpers.
	WrapActionLink(commandText, inner string)
}

// Buffer is the simplest possible Sink: it renders everything as plain
// text, ignoring markup and region structure beyond inserting a blank
// line at each Para(). It is the default sink for the CLI frontend and
// the base every richer sink (e.g. a lipgloss TUI sink) can embed.
type Buffer struct {
	text string
}

// NewBuffer creates an empty plain-text sink.
func NewBuffer() *Buffer { return &Buffer{} }

// String returns everything written so far.
func (b *Buffer) String() string { return b.text }

// Reset clears the buffer for reuse across turns.
func (b *Buffer) Reset() { b.text = "" }

func (b *Buffer) WriteText(s string)     { b.text += s }
func (b *Buffer) WriteElement(tag string) {}
func (b *Buffer) EnterInline(tag string) {}
func (b *Buffer) EnterBlock(tag string)  {}
func (b *Buffer) Leave()                 {}
func (b *Buffer) Para() {
	if len(b.text) > 0 && b.text[len(b.text)-1] != '\n' {
		b.text += "\n"
	}
	b.text += "\n"
}
func (b *Buffer) AddClass(class string)         {}
func (b *Buffer) Attr(key, value string)        {}
func (b *Buffer) CSS(key, value string)         {}
func (b *Buffer) On(event, handler string)      {}
func (b *Buffer) WrapActionLink(cmd, inner string) { b.text += inner }
