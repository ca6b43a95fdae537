package loader

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nathoo/inkwell/engine"
	"github.com/nathoo/inkwell/engine/action"
	"github.com/nathoo/inkwell/engine/describe"
	"github.com/nathoo/inkwell/engine/dispatch"
	"github.com/nathoo/inkwell/engine/parse"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/world"
	"github.com/nathoo/inkwell/types"
)

// playerId is the fixed id of the narrative viewpoint entity. It is
// never authored in Lua — every game gets one for free, placed in
// Game.start.
const playerId = "player"

// Game is a fully materialized, ready-to-play game: a live world plus
// every subsystem wired against it. The Lua that produced Defs is long
// gone by the time a Game exists.
type Game struct {
	World     *world.World
	Registry  *action.Registry
	Pipeline  *action.Pipeline
	Parser    *parse.Parser
	Describer *describe.Describer
	Dialogue  *action.Dialogue
	Combat    *action.Combat
	RNG       *engine.RNG
	Defs      *Defs

	// Sink is nil until a front end (cli/tui) assigns a concrete
	// sink.Sink. Every closure materialize wires reads through the
	// gameSink adapter below rather than capturing a sink directly, so
	// assigning this field late still reaches all of them.
	Sink sink.Sink
}

// NameOf resolves an id to its display name, falling back to the id
// itself — the one piece of naming policy every sink.Context needs.
func (g *Game) NameOf(id string) string {
	if v, ok := g.World.Property("name").Get(world.Id(id)); ok {
		if name, ok := v.(string); ok && name != "" {
			return name
		}
	}
	return id
}

// gameSink forwards every call to g.Sink, or does nothing if it hasn't
// been assigned yet. Pipeline construction and RegisterBuiltinVerbs
// both need a concrete sink.Sink before a front end exists to supply
// one; this indirection lets that assignment happen later.
type gameSink struct{ g *Game }

func (s gameSink) WriteText(t string) {
	if s.g.Sink != nil {
		s.g.Sink.WriteText(t)
	}
}
func (s gameSink) WriteElement(tag string) {
	if s.g.Sink != nil {
		s.g.Sink.WriteElement(tag)
	}
}
func (s gameSink) EnterInline(tag string) {
	if s.g.Sink != nil {
		s.g.Sink.EnterInline(tag)
	}
}
func (s gameSink) EnterBlock(tag string) {
	if s.g.Sink != nil {
		s.g.Sink.EnterBlock(tag)
	}
}
func (s gameSink) Leave() {
	if s.g.Sink != nil {
		s.g.Sink.Leave()
	}
}
func (s gameSink) Para() {
	if s.g.Sink != nil {
		s.g.Sink.Para()
	}
}
func (s gameSink) AddClass(class string) {
	if s.g.Sink != nil {
		s.g.Sink.AddClass(class)
	}
}
func (s gameSink) Attr(key, value string) {
	if s.g.Sink != nil {
		s.g.Sink.Attr(key, value)
	}
}
func (s gameSink) CSS(key, value string) {
	if s.g.Sink != nil {
		s.g.Sink.CSS(key, value)
	}
}
func (s gameSink) On(event, handler string) {
	if s.g.Sink != nil {
		s.g.Sink.On(event, handler)
	}
}
func (s gameSink) WrapActionLink(cmd, inner string) {
	if s.g.Sink != nil {
		s.g.Sink.WrapActionLink(cmd, inner)
	}
}

// materialize turns compiled, validated Defs into a live Game: the
// world's entities/kinds/relations, the parser's vocabulary, and every
// verb's dispatch methods, both the always-available builtins and the
// ones compiled from Lua-authored rules.
func materialize(defs *Defs) (*Game, error) {
	w := world.New()
	g := &Game{World: w, Defs: defs}

	for _, k := range defs.Kinds {
		if err := w.DeclareKind(k.id, k.parent); err != nil {
			return nil, fmt.Errorf("declaring kind %s: %w", k.id, err)
		}
	}

	if err := materializeRooms(w, defs); err != nil {
		return nil, err
	}
	if err := materializeEntities(w, defs); err != nil {
		return nil, err
	}
	if err := materializeDoors(w, defs); err != nil {
		return nil, err
	}
	for _, rel := range defs.Relations {
		if err := w.Relate(world.Id(rel.obj), world.Id(rel.target), world.LocationTag(rel.tag)); err != nil {
			return nil, fmt.Errorf("Relate(%s, %s, %s): %w", rel.obj, rel.target, rel.tag, err)
		}
	}

	if err := w.NewEntity(playerId, world.KindPerson); err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}
	if err := w.Relate(playerId, world.Id(defs.Game.Start), world.ContainedBy); err != nil {
		return nil, fmt.Errorf("placing player in %s: %w", defs.Game.Start, err)
	}
	w.SetPlayer(playerId)
	w.SetActor(playerId)

	g.Registry = action.NewRegistry()
	g.Pipeline = action.NewPipeline(g.Registry, gameSink{g: g})
	g.Parser = parse.NewParser()
	RegisterGrammar(g.Parser)
	registerVocabulary(g.Parser, defs)
	registerPatterns(g.Parser, defs)
	g.Describer = describe.New(w)
	g.Dialogue = action.NewDialogue()
	registerDialogue(g.Dialogue, defs)
	g.RNG = engine.NewRNG(time.Now().UnixNano())
	g.Combat = action.NewCombat(w, g.RNG)

	RegisterBuiltinVerbs(w, g.Registry, g.Pipeline, g.Describer, g.Dialogue, g.Combat, gameSink{g: g}, g.NameOf)
	compileRulesToDispatch(g, defs)

	return g, nil
}

func materializeRooms(w *world.World, defs *Defs) error {
	ids := make([]string, 0, len(defs.Rooms))
	for id := range defs.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		room := defs.Rooms[id]
		if err := w.NewEntity(id, world.KindRoom); err != nil {
			return fmt.Errorf("creating room %s: %w", id, err)
		}
		w.Property("name").Set(room.Name, world.Id(id))
		w.Property("description").Set(room.Description, world.Id(id))
		w.Property("makes_light").Set(!room.Dark, world.Id(id))
	}
	// Exits require every room to exist first.
	for _, id := range ids {
		room := defs.Rooms[id]
		dirs := make([]string, 0, len(room.Exits))
		for dir := range room.Exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		for _, dir := range dirs {
			w.SetExit(world.Id(id), dir, world.Id(room.Exits[dir]))
		}
	}
	return nil
}

// entityWorldKind decides the world kind an entity materializes as.
// The constructor category (item/npc/entity/door) picks a sensible
// default; an explicit "kind" field in the entity's own table lets
// content route an item onto a custom Kind() declaration (e.g. a
// treasure chest wanting container query behavior).
func entityWorldKind(e types.EntityDef) world.Kind {
	if k, ok := e.Props["kind"].(string); ok && k != "" {
		return k
	}
	switch e.Kind {
	case "door":
		return world.KindDoor
	case "npc":
		return world.KindPerson
	}
	if b, _ := e.Props["container"].(bool); b {
		return world.KindContainer
	}
	if b, _ := e.Props["supporter"].(bool); b {
		return world.KindSupporter
	}
	return world.KindThing
}

// propsSkip lists entity table keys that materialize handles by name
// rather than dumping verbatim into the world's property system.
var propsSkip = map[string]bool{
	"kind": true, "location": true, "words": true,
}

func materializeEntities(w *world.World, defs *Defs) error {
	ids := make([]string, 0, len(defs.Entities))
	for id := range defs.Entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		entity := defs.Entities[id]
		if err := w.NewEntity(id, entityWorldKind(entity)); err != nil {
			return fmt.Errorf("creating entity %s: %w", id, err)
		}
	}
	for _, id := range ids {
		entity := defs.Entities[id]
		for key, val := range entity.Props {
			if propsSkip[key] {
				continue
			}
			w.Property(key).Set(convertProp(key, val), world.Id(id))
		}
	}
	for _, id := range ids {
		if err := materializeLocation(w, id, defs.Entities[id]); err != nil {
			return err
		}
	}
	return nil
}

// convertProp adjusts the handful of properties that need a concrete
// Go type the generic Lua-table conversion doesn't produce on its own:
// combat's behavior/loot tables are read back out via type assertion
// in engine/action.Combat and loader's registerCombat helpers.
func convertProp(key string, val any) any {
	switch key {
	case "behavior":
		raw, ok := val.([]any)
		if !ok {
			return val
		}
		out := make([]action.BehaviorEntry, 0, len(raw))
		for _, e := range raw {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			verb, _ := m["verb"].(string)
			out = append(out, action.BehaviorEntry{Verb: verb, Weight: asInt(m["weight"])})
		}
		return out
	case "loot_items":
		raw, ok := val.([]any)
		if !ok {
			return val
		}
		out := make([]action.LootEntry, 0, len(raw))
		for _, e := range raw {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			item, _ := m["item"].(string)
			out = append(out, action.LootEntry{ItemId: item, Chance: asInt(m["chance"])})
		}
		return out
	default:
		return val
	}
}

// materializeLocation wires an entity's initial position, either the
// plain "location = room_id" shorthand or the "{in=, tag=}" table form
// for a specific relation tag (supported_by, part_of, worn_by, ...).
func materializeLocation(w *world.World, id string, entity types.EntityDef) error {
	loc, ok := entity.Props["location"]
	if !ok {
		return nil
	}
	switch v := loc.(type) {
	case string:
		if v == "" {
			return nil
		}
		return w.Relate(world.Id(id), world.Id(v), world.ContainedBy)
	case map[string]any:
		target, _ := v["in"].(string)
		tag, _ := v["tag"].(string)
		if target == "" {
			return nil
		}
		if tag == "" {
			tag = string(world.ContainedBy)
		}
		return w.Relate(world.Id(id), world.Id(target), world.LocationTag(tag))
	}
	return nil
}

func materializeDoors(w *world.World, defs *Defs) error {
	for _, d := range defs.Doors {
		w.SetExit(world.Id(d.roomA), d.dirA, world.Id(d.doorID))
		if !d.oneWay {
			w.SetExit(world.Id(d.roomB), d.dirB, world.Id(d.doorID))
		}
		w.SetExit(world.Id(d.doorID), "_a", world.Id(d.roomA))
		w.SetExit(world.Id(d.doorID), "_b", world.Id(d.roomB))
	}
	return nil
}

// registerVocabulary feeds every room and entity's noun/adjective
// vocabulary into the parser (the "words" list convention: entries
// prefixed with "@" are nouns, everything else an adjective).
// An object with no explicit words list falls back to the words of its
// own display name, so a bare Item still parses.
func registerVocabulary(p *parse.Parser, defs *Defs) {
	for id, room := range defs.Rooms {
		p.Rooms.AddWords(id, room.Name, wordsFromText(room.Name, true))
	}
	for id, entity := range defs.Entities {
		name, _ := entity.Props["name"].(string)
		if name == "" {
			name = id
		}
		var words []parse.Word
		if raw, ok := entity.Props["words"].([]any); ok {
			for _, item := range raw {
				s, ok := item.(string)
				if !ok || s == "" {
					continue
				}
				if strings.HasPrefix(s, "@") {
					words = append(words, parse.Word{Text: s[1:], IsNoun: true})
				} else {
					words = append(words, parse.Word{Text: s, IsNoun: false})
				}
			}
		}
		if len(words) == 0 {
			words = wordsFromText(name, true)
		}
		p.Dict.AddWords(id, name, words)
	}
}

func wordsFromText(text string, noun bool) []parse.Word {
	var out []parse.Word
	for _, w := range strings.Fields(strings.ToLower(text)) {
		out = append(out, parse.Word{Text: w, IsNoun: noun})
	}
	return out
}

// registerPatterns wires content-declared Understand(...) grammar
// beyond the generic verb patterns RegisterGrammar already covers.
func registerPatterns(p *parse.Parser, defs *Defs) {
	for _, pat := range defs.Patterns {
		verb := pat.verb
		dobjSlot := pat.dobjSlot
		iobjSlot := pat.iobjSlot
		p.Understand(pat.pattern, func(b map[string]any) any {
			a := action.Action{"verb": verb}
			if dobjSlot != "" {
				if v, ok := b[dobjSlot]; ok {
					a["dobj"] = v
				}
			}
			if iobjSlot != "" {
				if v, ok := b[iobjSlot]; ok {
					a["iobj"] = v
				}
			}
			return a
		}, nil)
	}
}

// registerDialogue builds an action.Topic for every NPC's compiled
// TopicDef, evaluating Requires through the same condition interpreter
// rules use (runtime.go). A topic's Effects are not applied.
func registerDialogue(dia *action.Dialogue, defs *Defs) {
	for npcId, entity := range defs.Entities {
		for key, topic := range entity.Topics {
			topic := topic
			dia.AddTopic(world.Id(npcId), key, action.Topic{
				Text: topic.Text,
				When: func(w *world.World, actor world.Id) bool {
					return evalConditions(w, actor, topic.Requires)
				},
			})
		}
	}
}

// isBuiltinVerb reports whether verb already has its own engine
// carry_out/report behavior (see loader/grammar.go's builtinVerbs):
// only content-only verbs fall back to entity/room/global fallback
// text when no rule matches.
func isBuiltinVerb(verb string) bool {
	for _, b := range builtinVerbs {
		if b == verb {
			return true
		}
	}
	return false
}

// compileRulesToDispatch wires one set of Verify/Before/CarryOut/Report
// dispatch methods per verb that has at least one Lua-authored rule.
// Each method implements a bucket-ordered first-match-wins selection
// (room -> target entity -> object entity
// -> global, filtered by MatchesIntent+conditions, ranked by
// specificity -> priority -> source order) rather than treating rules
// as independently stacking dispatch methods, since that is the
// behavior content authors actually see: exactly one rule's effects
// fire per resolved intent.
func compileRulesToDispatch(g *Game, defs *Defs) {
	verbSet := map[string]bool{}
	for _, r := range collectAllRules(defs) {
		if r.When.Verb != "" {
			verbSet[r.When.Verb] = true
		}
	}
	verbs := make([]string, 0, len(verbSet))
	for v := range verbSet {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)

	for _, verb := range verbs {
		verb := verb
		v := g.Registry.Verb(verb)
		pick := func(act action.Action) *types.RuleDef {
			return selectRule(g.World, defs, verb, act)
		}

		v.Verify.Append(dispatch.Method{
			Name: verb + "-rules-verify",
			Handler: func(args []any, next dispatch.Next) (any, error) {
				act := args[0].(action.Action)
				prior, _ := next(nil)
				priorVR, _ := prior.(action.VerifyResult)
				if winner := pick(act); winner != nil && winner.VerifyScoreSet {
					return action.Combine(priorVR, action.VerifyResult{Score: winner.VerifyScore}), nil
				}
				return priorVR, nil
			},
		})
		v.Before.Append(dispatch.Method{
			Name: verb + "-rules-before",
			Handler: func(args []any, next dispatch.Next) (any, error) {
				act := args[0].(action.Action)
				if winner := pick(act); winner != nil && len(winner.Before) > 0 {
					if res := applyEffects(g, g.World.Actor(), winner.Before); res != nil {
						return res, nil
					}
					return nil, nil
				}
				return next(nil)
			},
		})
		v.CarryOut.Append(dispatch.Method{
			Name: verb + "-rules-carry-out",
			Handler: func(args []any, next dispatch.Next) (any, error) {
				act := args[0].(action.Action)
				if winner := pick(act); winner != nil && len(winner.Effects) > 0 {
					applyEffects(g, g.World.Actor(), winner.Effects)
					return nil, nil
				}
				return next(nil)
			},
		})
		v.Report.Append(dispatch.Method{
			Name: verb + "-rules-report",
			Handler: func(args []any, next dispatch.Next) (any, error) {
				act := args[0].(action.Action)
				winner := pick(act)
				if winner != nil && len(winner.Report) > 0 {
					applyEffects(g, g.World.Actor(), winner.Report)
					return nil, nil
				}
				if winner == nil && !isBuiltinVerb(verb) {
					fallbackText(g, defs, verb, act.Dobj())
					return nil, nil
				}
				return next(nil)
			},
		})
	}
}

// selectRule runs the bucket-ordered selection for one resolved
// action, returning the winning rule or nil if none applied.
func selectRule(w *world.World, defs *Defs, verb string, act action.Action) *types.RuleDef {
	room := roomOf(w, w.Actor())
	dobj, iobj := act.Dobj(), act.Iobj()
	for _, bucket := range collectBuckets(defs, string(room), dobj, iobj) {
		if winner := filterRankSelect(w, defs, bucket, verb, dobj, iobj); winner != nil {
			return winner
		}
	}
	return nil
}

// collectBuckets gathers candidate rules in resolution order: the
// current room's rules, the indirect object's rules, the direct
// object's rules (skipped when it's the same entity as the indirect
// object), then every global rule.
func collectBuckets(defs *Defs, room, dobj, iobj string) [][]types.RuleDef {
	var buckets [][]types.RuleDef
	if r, ok := defs.Rooms[room]; ok && len(r.Rules) > 0 {
		buckets = append(buckets, r.Rules)
	}
	if iobj != "" {
		if e, ok := defs.Entities[iobj]; ok && len(e.Rules) > 0 {
			buckets = append(buckets, e.Rules)
		}
	}
	if dobj != "" && dobj != iobj {
		if e, ok := defs.Entities[dobj]; ok && len(e.Rules) > 0 {
			buckets = append(buckets, e.Rules)
		}
	}
	if len(defs.GlobalRules) > 0 {
		buckets = append(buckets, defs.GlobalRules)
	}
	return buckets
}

// filterRankSelect filters a bucket to the rules whose When+Conditions
// hold, ranks the survivors by specificity desc -> priority desc ->
// source order asc, and returns the winner (or nil).
func filterRankSelect(w *world.World, defs *Defs, rules []types.RuleDef, verb, dobj, iobj string) *types.RuleDef {
	var candidates []types.RuleDef
	for _, r := range rules {
		if !matchesIntent(w, defs, r.When, verb, dobj, iobj) {
			continue
		}
		if !evalConditions(w, w.Actor(), r.Conditions) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := specificity(candidates[i]), specificity(candidates[j])
		if si != sj {
			return si > sj
		}
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].SourceOrder < candidates[j].SourceOrder
	})
	return &candidates[0]
}

func matchesIntent(w *world.World, defs *Defs, when types.MatchCriteria, verb, dobj, iobj string) bool {
	if when.Verb != verb {
		return false
	}
	if when.Object != "" && when.Object != dobj {
		return false
	}
	if when.Target != "" && when.Target != iobj {
		return false
	}
	if when.ObjectKind != "" {
		def, ok := defs.Entities[dobj]
		if !ok || def.Kind != when.ObjectKind {
			return false
		}
	}
	for prop, want := range when.ObjectProp {
		if dobj == "" {
			return false
		}
		got, ok := w.Property(prop).Get(world.Id(dobj))
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	for prop, want := range when.TargetProp {
		if iobj == "" {
			return false
		}
		got, ok := w.Property(prop).Get(world.Id(iobj))
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func specificity(r types.RuleDef) int {
	s := 0
	if r.When.Target != "" {
		s += 4
	}
	if r.When.Object != "" {
		s += 2
	}
	if len(r.When.ObjectProp) > 0 || len(r.When.TargetProp) > 0 {
		s++
	}
	return s
}

// fallbackText prints a cascading fallback message — entity fallback,
// then room fallback (verb-specific, then default), then a global
// default — for a content-only verb no rule matched.
func fallbackText(g *Game, defs *Defs, verb, dobj string) {
	if g.Sink == nil {
		return
	}
	text := resolveFallback(g.World, defs, verb, dobj)
	ctx := &sink.Context{Actor: g.World.Actor(), Player: g.World.Player(), NameOf: g.NameOf}
	sink.Write(g.Sink, ctx, text)
	g.Sink.Para()
}

func resolveFallback(w *world.World, defs *Defs, verb, dobj string) string {
	if dobj != "" {
		if def, ok := defs.Entities[dobj]; ok {
			if fb, ok := def.Props["fallbacks"].(map[string]any); ok {
				if text, ok := fb[verb].(string); ok {
					return text
				}
				if text, ok := fb["default"].(string); ok {
					return text
				}
			}
		}
	}
	room := roomOf(w, w.Actor())
	if r, ok := defs.Rooms[string(room)]; ok {
		if text, ok := r.Fallbacks[verb]; ok {
			return text
		}
		if text, ok := r.Fallbacks["default"]; ok {
			return text
		}
	}
	return "You can't do that."
}
