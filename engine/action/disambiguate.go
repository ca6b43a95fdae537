package action

import "sort"

// Candidate is one parser-yielded reading of the player's input: an
// action plus the grammar score the parser assigned it.
type Candidate struct {
	Action       Action
	GrammarScore int
}

// maxMenu is the largest number of alternatives ever presented as a
// numbered disambiguation menu.
const maxMenu = 6

// Result is the outcome of disambiguation: exactly one of Resolved,
// Menu, or Reason is populated.
type Result struct {
	Resolved Action   // a unique winner: run it
	Menu     []Action // 2+ tied winners: ask the player to choose
	Reason   string   // no reasonable parse: show this and abort the turn
}

type scored struct {
	action       Action
	verifyScore  int
	verifyReason string
	grammarScore int
}

// Disambiguate picks a winner among candidates by verify score,
// falling back to a numbered menu among tied winners.
func Disambiguate(p *Pipeline, candidates []Candidate) Result {
	if len(candidates) == 0 {
		return Result{Reason: "I don't understand that.\n"}
	}

	all := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		verb := p.Registry.Verb(c.Action.Verb())
		vr := p.verify(verb, c.Action)
		all = append(all, scored{
			action:       c.Action,
			verifyScore:  vr.Score,
			verifyReason: vr.Reason,
			grammarScore: c.GrammarScore,
		})
	}

	// Step 2: an explicit author-registered mistake dominates everything.
	for _, s := range all {
		if s.action.Verb() == "making_mistake" {
			return Result{Resolved: s.action}
		}
	}

	// Step 1: drop parses flagged not_visible (verify score 0).
	visible := make([]scored, 0, len(all))
	for _, s := range all {
		if s.verifyScore > ScoreIllogicalNotVisible {
			visible = append(visible, s)
		}
	}
	pool := visible
	if len(pool) == 0 {
		pool = all
	}

	// Step 3: if nothing is reasonable, the player sees the worst reason.
	anyReasonable := false
	for _, s := range pool {
		if Reasonable(s.verifyScore) {
			anyReasonable = true
			break
		}
	}
	if !anyReasonable {
		worst := pool[0]
		for _, s := range pool[1:] {
			if s.verifyScore < worst.verifyScore {
				worst = s
			}
		}
		return Result{Reason: worst.verifyReason}
	}

	// Step 4: keep only reasonable parses, narrow by best verify score,
	// then by best grammar score.
	var reasonable []scored
	for _, s := range pool {
		if Reasonable(s.verifyScore) {
			reasonable = append(reasonable, s)
		}
	}

	bestVerify := reasonable[0].verifyScore
	for _, s := range reasonable[1:] {
		if s.verifyScore > bestVerify {
			bestVerify = s.verifyScore
		}
	}
	var byVerify []scored
	for _, s := range reasonable {
		if s.verifyScore == bestVerify {
			byVerify = append(byVerify, s)
		}
	}

	bestGrammar := byVerify[0].grammarScore
	for _, s := range byVerify[1:] {
		if s.grammarScore > bestGrammar {
			bestGrammar = s.grammarScore
		}
	}
	var winners []scored
	for _, s := range byVerify {
		if s.grammarScore == bestGrammar {
			winners = append(winners, s)
		}
	}

	if len(winners) == 1 {
		return Result{Resolved: winners[0].action}
	}

	sort.SliceStable(winners, func(i, j int) bool {
		return describeForMenu(winners[i].action) < describeForMenu(winners[j].action)
	})
	if len(winners) > maxMenu && p.Sink != nil {
		p.Sink.WriteText("That's ambiguous in too many ways; showing the first few.\n")
	}
	menu := make([]Action, 0, maxMenu)
	for i, s := range winners {
		if i >= maxMenu {
			break
		}
		menu = append(menu, s.action)
	}
	return Result{Menu: menu}
}

func describeForMenu(a Action) string {
	if d := a.Dobj(); d != "" {
		return d
	}
	return a.Verb()
}

// ResolveMenuChoice interprets a player's reply to a disambiguation
// menu: a 1-based index into menu selects that action (true); a reply
// that is not such an index yields (nil, false). The next input line either selects by number
// or is reinterpreted as a fresh command.
func ResolveMenuChoice(reply string, menu []Action) (Action, bool) {
	n := 0
	for _, r := range reply {
		if r < '0' || r > '9' {
			return nil, false
		}
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > len(menu) {
		return nil, false
	}
	return menu[n-1], true
}
