package parse

import "sort"

// Word is a single vocabulary entry: either a noun (prefixed with @ per
// the "words" list convention) or an adjective.
type Word struct {
	Text     string
	IsNoun   bool
	ObjectId string
}

// Dictionary maps each vocabulary word to the set of object ids whose
// "words" list contains it, split into noun and adjective indexes.
type Dictionary struct {
	nouns      map[string]map[string]bool
	adjectives map[string]map[string]bool
	names      map[string]string // object id -> display name, for the exact-name bonus
	known      map[string]bool   // global known-words set
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		nouns:      map[string]map[string]bool{},
		adjectives: map[string]map[string]bool{},
		names:      map[string]string{},
		known:      map[string]bool{},
	}
}

// AddWords registers an object's vocabulary. Nouns are given without
// the "@" prefix here; isNoun distinguishes the two lists per word.
func (d *Dictionary) AddWords(objectId, displayName string, words []Word) {
	d.names[objectId] = displayName
	for _, w := range words {
		d.known[w.Text] = true
		idx := d.adjectives
		if w.IsNoun {
			idx = d.nouns
		}
		if idx[w.Text] == nil {
			idx[w.Text] = map[string]bool{}
		}
		idx[w.Text][objectId] = true
	}
}

// KnownWord reports whether word appears in any object's vocabulary or
// the parser's own literal/frontend vocabulary (verbs, prepositions,
// articles, directions). Used for the "I don't know what you mean by 'x'" error.
func (d *Dictionary) KnownWord(word string) bool {
	return d.known[word]
}

// MarkKnown adds word to the known-words set without associating it
// with any object (verbs, prepositions, articles, directions).
func (d *Dictionary) MarkKnown(word string) {
	d.known[word] = true
}

// DisplayName returns the registered display name for id, or id itself.
func (d *Dictionary) DisplayName(id string) string {
	if n, ok := d.names[id]; ok {
		return n
	}
	return id
}

// NounCandidates returns the id set attached to word as a noun.
func (d *Dictionary) NounCandidates(word string) map[string]bool { return d.nouns[word] }

// AdjectiveCandidates returns the id set attached to word as an adjective.
func (d *Dictionary) AdjectiveCandidates(word string) map[string]bool { return d.adjectives[word] }

// NounPhraseCandidate is one resolution of a noun-phrase span.
type NounPhraseCandidate struct {
	Id    string
	End   int // token index just past the consumed span
	Score int
}

// ResolveNounPhrase interleaves adjective and noun tokens starting at
// pos (after an optional leading article has already been stripped by
// the caller), computing the running intersection of candidate id
// sets. A match is emitted for every position where the surviving set
// is non-empty: the parser is free to stop after just
// the adjectives, after the first noun, or continue consuming more
// nouns/adjectives in apposition ("the small red ball").
func (d *Dictionary) ResolveNounPhrase(tokens []Token, pos int) []NounPhraseCandidate {
	var out []NounPhraseCandidate
	candidates := map[string]bool(nil)
	score := 0
	first := true

	for i := pos; i < len(tokens); i++ {
		word := tokens[i].Text
		nouns := d.nouns[word]
		adjs := d.adjectives[word]
		if len(nouns) == 0 && len(adjs) == 0 {
			break
		}

		// Prefer the noun reading; fall back to adjective reading if a
		// word is only known as an adjective at this position.
		var thisWord map[string]bool
		bump := 1
		if len(nouns) > 0 {
			thisWord = nouns
			bump = 2
		} else {
			thisWord = adjs
			bump = 1
		}

		if first {
			candidates = copySet(thisWord)
			first = false
		} else {
			candidates = intersect(candidates, thisWord)
		}
		score += bump

		if len(candidates) == 0 {
			break
		}

		span := tokens[pos : i+1]
		for id := range candidates {
			bonus := 0
			if spanText(span) == d.names[id] {
				bonus = 1
			}
			out = append(out, NounPhraseCandidate{Id: id, End: i + 1, Score: score + bonus})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].End != out[b].End {
			return out[a].End < out[b].End
		}
		return out[a].Id < out[b].Id
	})
	return out
}

func spanText(tokens []Token) string {
	s := ""
	for i, t := range tokens {
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s
}

func copySet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}
