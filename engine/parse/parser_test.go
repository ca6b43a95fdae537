package parse

import "testing"

func TestTokenizeLowercasesAndSplitsPunctuation(t *testing.T) {
	toks := Tokenize("Take the Red Ball, then go north.")
	want := []string{"take", "the", "red", "ball", "then", "go", "north"}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Text != w {
			t.Fatalf("token %d = %q, want %q", i, toks[i].Text, w)
		}
	}
}

func TestTokenizeKeepsHyphensAndApostrophes(t *testing.T) {
	toks := Tokenize("it's a well-worn key")
	if toks[0].Text != "it's" {
		t.Fatalf("got %q", toks[0].Text)
	}
	if toks[2].Text != "well-worn" {
		t.Fatalf("got %q", toks[2].Text)
	}
}

func TestResolveNounPhraseScoresNounsOverAdjectives(t *testing.T) {
	d := NewDictionary()
	d.AddWords("ball_red", "red ball", []Word{
		{Text: "red", IsNoun: false},
		{Text: "ball", IsNoun: true},
	})
	d.AddWords("ball_blue", "blue ball", []Word{
		{Text: "blue", IsNoun: false},
		{Text: "ball", IsNoun: true},
	})

	toks := Tokenize("red ball")
	cands := d.ResolveNounPhrase(toks, 0)

	var best NounPhraseCandidate
	for _, c := range cands {
		if c.End == 2 && c.Id == "ball_red" {
			best = c
		}
	}
	if best.Id == "" {
		t.Fatalf("expected ball_red candidate spanning both tokens, got %+v", cands)
	}
	if best.Score < 3 {
		t.Fatalf("expected adjective+noun+exact-name bonus score >= 3, got %d", best.Score)
	}

	for _, c := range cands {
		if c.End == 2 && c.Id == "ball_blue" {
			t.Fatalf("blue ball should not survive intersection with 'red ball': %+v", cands)
		}
	}
}

func TestResolveNounPhraseEmitsCandidateAtEveryNonEmptyPrefix(t *testing.T) {
	d := NewDictionary()
	d.AddWords("ball", "ball", []Word{{Text: "ball", IsNoun: true}})

	toks := Tokenize("ball")
	cands := d.ResolveNounPhrase(toks, 0)
	if len(cands) != 1 || cands[0].Id != "ball" || cands[0].End != 1 {
		t.Fatalf("got %+v", cands)
	}
}

func newTestParser() *Parser {
	p := NewParser()
	p.Dict.AddWords("ball", "red ball", []Word{
		{Text: "red", IsNoun: false},
		{Text: "ball", IsNoun: true},
	})
	p.Dict.AddWords("lamp", "brass lamp", []Word{
		{Text: "brass", IsNoun: false},
		{Text: "lamp", IsNoun: true},
	})

	p.Understand("take [something dobj]", func(b map[string]any) any {
		return map[string]any{"verb": "take", "dobj": b["dobj"]}
	}, nil)

	p.Understand("put [something dobj] in/into [something iobj]", func(b map[string]any) any {
		return map[string]any{"verb": "putin", "dobj": b["dobj"], "iobj": b["iobj"]}
	}, nil)

	p.Understand("go [direction dir]", func(b map[string]any) any {
		return map[string]any{"verb": "go", "direction": b["dir"]}
	}, nil)

	p.Understand("look", func(b map[string]any) any {
		return map[string]any{"verb": "look"}
	}, nil)

	return p
}

func alwaysVisible(objectId, actorId string) bool { return true }

func TestParseResolvesSimpleTransitiveVerb(t *testing.T) {
	p := newTestParser()
	results := p.Parse("take the red ball", &Context{ActorId: "player", Visible: alwaysVisible})
	if len(results) == 0 {
		t.Fatal("expected at least one parse")
	}
	action := results[0].Value.(map[string]any)
	if action["verb"] != "take" || action["dobj"] != "ball" {
		t.Fatalf("got %+v", action)
	}
}

func TestParseResolvesTwoObjectPattern(t *testing.T) {
	p := newTestParser()
	results := p.Parse("put the ball in the lamp", &Context{ActorId: "player", Visible: alwaysVisible})
	if len(results) == 0 {
		t.Fatal("expected at least one parse")
	}
	action := results[0].Value.(map[string]any)
	if action["verb"] != "putin" || action["dobj"] != "ball" || action["iobj"] != "lamp" {
		t.Fatalf("got %+v", action)
	}
}

func TestParseResolvesDirectionAliases(t *testing.T) {
	p := newTestParser()
	results := p.Parse("go n", &Context{ActorId: "player", Visible: alwaysVisible})
	if len(results) == 0 {
		t.Fatal("expected at least one parse")
	}
	action := results[0].Value.(map[string]any)
	if action["direction"] != "north" {
		t.Fatalf("got %+v", action)
	}
}

func TestParseRejectsPartialMatchNotCoveringWholeInput(t *testing.T) {
	p := newTestParser()
	results := p.Parse("take the red ball and leave", &Context{ActorId: "player", Visible: alwaysVisible})
	if len(results) != 0 {
		t.Fatalf("expected no full-input parse, got %+v", results)
	}
}

func TestParseNoArgumentPattern(t *testing.T) {
	p := newTestParser()
	results := p.Parse("look", &Context{ActorId: "player", Visible: alwaysVisible})
	if len(results) == 0 {
		t.Fatal("expected a parse for 'look'")
	}
	if results[0].Value.(map[string]any)["verb"] != "look" {
		t.Fatalf("got %+v", results[0].Value)
	}
}

func TestSomethingFrontendFiltersOnVisibility(t *testing.T) {
	p := newTestParser()
	notVisible := func(objectId, actorId string) bool { return objectId != "ball" }
	results := p.Parse("take the red ball", &Context{ActorId: "player", Visible: notVisible})
	if len(results) != 0 {
		t.Fatalf("expected no parse when ball is not visible, got %+v", results)
	}
}

func TestUnknownWordsReportsOutOfVocabularyTokens(t *testing.T) {
	p := newTestParser()
	unk := p.UnknownWords("take the xyzzy plugh")
	if len(unk) != 2 || unk[0] != "xyzzy" || unk[1] != "plugh" {
		t.Fatalf("got %v", unk)
	}
}
