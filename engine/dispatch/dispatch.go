// Package dispatch implements the open, author-extensible multimethod
// mechanism that every other engine subsystem (properties, activities,
// verbs) is built on top of. An Operation is an ordered list of methods;
// the first applicable one (scanning from the tail) runs, and can resume
// the scan at the method before it by calling next().
package dispatch

import "errors"

// ErrNoApplicableMethod is raised when the scan falls off the head of
// an Operation with nothing applicable.
var ErrNoApplicableMethod = errors.New("dispatch: no applicable method")

// Next resumes the method scan at the position just before the current
// method. Calling it more than once re-runs the same resumed scan.
type Next func(args []any) (any, error)

// Guard reports whether a method applies to the given call arguments.
// A nil guard always applies.
type Guard func(args []any) bool

// Handler is a method body. It receives the call arguments and a next
// continuation bound to "the scan position just before me".
type Handler func(args []any, next Next) (any, error)

// Method is one entry in an Operation's dispatch list.
type Method struct {
	Name    string
	Guard   Guard
	Handler Handler
}

func (m Method) applies(args []any) bool {
	return m.Guard == nil || m.Guard(args)
}

// Operation is an ordered list of methods. Order of registration is
// order of dispatch: Append pushes to the tail (tried first), Prepend
// pushes to the head (the fallback of last resort). This is deliberate;
// authors rely on it to layer decorators over defaults.
type Operation struct {
	methods []Method
}

// New creates an empty operation.
func New() *Operation {
	return &Operation{}
}

// Append adds a method at the tail — it is tried before every method
// currently registered.
func (o *Operation) Append(m Method) {
	o.methods = append(o.methods, m)
}

// Prepend adds a method at the head — the fallback of last resort,
// tried only once everything else has declined via next().
func (o *Operation) Prepend(m Method) {
	o.methods = append([]Method{m}, o.methods...)
}

// InsertBefore inserts newMethod immediately before (i.e. dispatched
// earlier than) the named method. If name is not found, newMethod is
// appended.
func (o *Operation) InsertBefore(name string, newMethod Method) {
	idx := o.indexOf(name)
	if idx < 0 {
		o.Append(newMethod)
		return
	}
	o.insertAt(idx+1, newMethod)
}

// InsertAfter inserts newMethod immediately after (i.e. dispatched
// later than, closer to the fallback) the named method. If name is not
// found, newMethod is prepended.
func (o *Operation) InsertAfter(name string, newMethod Method) {
	idx := o.indexOf(name)
	if idx < 0 {
		o.Prepend(newMethod)
		return
	}
	o.insertAt(idx, newMethod)
}

// RemoveByName removes the named method, if present.
func (o *Operation) RemoveByName(name string) {
	idx := o.indexOf(name)
	if idx < 0 {
		return
	}
	o.methods = append(o.methods[:idx], o.methods[idx+1:]...)
}

// Names returns the method names in dispatch order (tail to head).
func (o *Operation) Names() []string {
	names := make([]string, len(o.methods))
	for i := range o.methods {
		names[i] = o.methods[len(o.methods)-1-i].Name
	}
	return names
}

func (o *Operation) indexOf(name string) int {
	for i, m := range o.methods {
		if m.Name == name {
			return i
		}
	}
	return -1
}

func (o *Operation) insertAt(idx int, m Method) {
	o.methods = append(o.methods, Method{})
	copy(o.methods[idx+1:], o.methods[idx:])
	o.methods[idx] = m
}

// Call scans methods from the tail toward the head, running the first
// whose guard passes. That handler may call next() to resume the scan
// at the position just before it.
func (o *Operation) Call(args ...any) (any, error) {
	return o.callFrom(len(o.methods)-1, args)
}

// callFrom runs the scan starting at index pos (inclusive), toward 0.
func (o *Operation) callFrom(pos int, args []any) (any, error) {
	for i := pos; i >= 0; i-- {
		m := o.methods[i]
		if !m.applies(args) {
			continue
		}
		resumeAt := i - 1
		next := func(a []any) (any, error) {
			if a == nil {
				a = args
			}
			return o.callFrom(resumeAt, a)
		}
		return m.Handler(args, next)
	}
	return nil, ErrNoApplicableMethod
}
