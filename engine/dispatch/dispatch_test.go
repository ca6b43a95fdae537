package dispatch

import "testing"

func TestDispatchOrderAndNext(t *testing.T) {
	op := New()
	var trail []string

	op.Append(Method{
		Name: "base",
		Handler: func(args []any, next Next) (any, error) {
			trail = append(trail, "base")
			return "base-result", nil
		},
	})
	op.Append(Method{
		Name: "layer",
		Handler: func(args []any, next Next) (any, error) {
			trail = append(trail, "layer-before")
			v, err := next(nil)
			trail = append(trail, "layer-after")
			return v, err
		},
	})

	v, err := op.Call()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "base-result" {
		t.Fatalf("got %v", v)
	}
	want := []string{"layer-before", "base", "layer-after"}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v", trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail = %v, want %v", trail, want)
		}
	}
}

func TestNoApplicableMethod(t *testing.T) {
	op := New()
	_, err := op.Call()
	if err != ErrNoApplicableMethod {
		t.Fatalf("expected ErrNoApplicableMethod, got %v", err)
	}
}

func TestGuardFallsThroughToNextMethod(t *testing.T) {
	op := New()
	op.Prepend(Method{Name: "fallback", Handler: func(args []any, next Next) (any, error) {
		return "fallback", nil
	}})
	op.Append(Method{
		Name:  "specific",
		Guard: func(args []any) bool { return args[0] == "match" },
		Handler: func(args []any, next Next) (any, error) {
			return "specific", nil
		},
	})

	v, _ := op.Call("match")
	if v != "specific" {
		t.Fatalf("got %v, want specific", v)
	}
	v, _ = op.Call("no-match")
	if v != "fallback" {
		t.Fatalf("got %v, want fallback", v)
	}
}

func TestInsertBeforeAfterAndRemove(t *testing.T) {
	op := New()
	op.Append(Method{Name: "a", Handler: func(args []any, next Next) (any, error) { return "a", nil }})
	op.InsertBefore("a", Method{Name: "b", Handler: func(args []any, next Next) (any, error) { return "b", nil }})
	// dispatch order tail->head: b is now last appended relative position... verify via Names.
	names := op.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("names = %v", names)
	}

	op.RemoveByName("b")
	names = op.Names()
	if len(names) != 1 || names[0] != "a" {
		t.Fatalf("names after remove = %v", names)
	}
}

func TestPrependIsFallbackOfLastResort(t *testing.T) {
	op := New()
	op.Prepend(Method{Name: "default", Handler: func(args []any, next Next) (any, error) { return "default", nil }})
	op.Append(Method{Name: "override", Handler: func(args []any, next Next) (any, error) { return "override", nil }})
	v, _ := op.Call()
	if v != "override" {
		t.Fatalf("got %v, want override", v)
	}
}
