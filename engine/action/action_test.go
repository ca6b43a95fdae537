package action

import "testing"

func TestCombineTakesMaxWhenBothReasonable(t *testing.T) {
	a := VerifyResult{Score: ScoreVeryLogical, Reason: "very logical"}
	b := VerifyResult{Score: ScoreLogical, Reason: "logical"}
	if got := Combine(a, b); got.Score != ScoreVeryLogical {
		t.Fatalf("got %+v", got)
	}
}

func TestCombineTakesMinWhenEitherUnreasonable(t *testing.T) {
	a := VerifyResult{Score: ScoreLogical, Reason: "logical"}
	b := VerifyResult{Score: ScoreIllogicalNotVisible, Reason: "can't see it"}
	got := Combine(a, b)
	if got.Score != ScoreIllogicalNotVisible || got.Reason != "can't see it" {
		t.Fatalf("got %+v", got)
	}
}

func TestReasonableCutoff(t *testing.T) {
	if !Reasonable(ScoreBarelyLogical) {
		t.Fatal("90 should be reasonable")
	}
	if Reasonable(ScoreBarelyLogical - 1) {
		t.Fatal("89 should not be reasonable")
	}
}

func TestVerbLazyCreateOnLookup(t *testing.T) {
	r := NewRegistry()
	v1 := r.Verb("take")
	v2 := r.Verb("take")
	if v1 != v2 {
		t.Fatal("expected same verb instance on repeat lookup")
	}
}

func TestNewVerbDefaultVerifyIsLogical(t *testing.T) {
	v := NewVerb("take")
	res, err := v.Verify.Call(Action{"verb": "take"})
	if err != nil {
		t.Fatal(err)
	}
	vr := res.(VerifyResult)
	if vr.Score != ScoreLogical {
		t.Fatalf("got %+v", vr)
	}
}
