package action

import (
	"fmt"

	"github.com/nathoo/inkwell/engine"
	"github.com/nathoo/inkwell/engine/world"
)

// combatVerbs are the commands allowed while an actor is in combat.
var combatVerbs = map[string]bool{
	"attack": true, "defend": true, "flee": true,
	"use": true, "inventory": true, "look": true,
}

// IsCombatVerb reports whether verb is in the set allowed while the
// actor is fighting. The engine itself does not call it: the turn loop
// neither rewrites "go" to "flee" nor rejects other verbs in combat.
func IsCombatVerb(verb string) bool {
	return combatVerbs[verb]
}

// BehaviorEntry is one weighted entry in an enemy's behavior table.
type BehaviorEntry struct {
	Verb   string
	Weight int
}

// LootEntry is one entry in an enemy's loot table: itemId drops with
// probability Chance/100.
type LootEntry struct {
	ItemId string
	Chance int
}

// Combat tracks fight state entirely through the world's property
// system — in_combat/combat_enemy/defending/previous_location are
// ordinary per-entity properties, so combat state serializes with the
// rest of the world without any dedicated struct.
type Combat struct {
	World *world.World
	RNG   *engine.RNG
}

// NewCombat creates a Combat helper over w, using rng for rolls.
func NewCombat(w *world.World, rng *engine.RNG) *Combat {
	return &Combat{World: w, RNG: rng}
}

// InCombat reports whether actor is currently fighting.
func (c *Combat) InCombat(actor world.Id) bool {
	v, _ := c.World.Property("in_combat").Get(actor)
	b, _ := v.(bool)
	return b
}

// Enemy returns actor's current combat opponent.
func (c *Combat) Enemy(actor world.Id) world.Id {
	v, _ := c.World.Property("combat_enemy").Get(actor)
	id, _ := v.(world.Id)
	return id
}

// Start begins combat between actor and enemy, remembering actor's
// room so Flee can return them to it.
func (c *Combat) Start(actor, enemy, room world.Id) {
	c.World.Property("in_combat").Set(true, actor)
	c.World.Property("combat_enemy").Set(enemy, actor)
	c.World.Property("previous_location").Set(room, actor)
}

// End stops combat for actor.
func (c *Combat) End(actor world.Id) {
	c.World.Property("in_combat").Clear(actor)
	c.World.Property("combat_enemy").Clear(actor)
	c.World.Property("defending").Clear(actor)
}

func (c *Combat) defending(id world.Id) bool {
	v, _ := c.World.Property("defending").Get(id)
	b, _ := v.(bool)
	return b
}

func (c *Combat) stat(id world.Id, name string) int {
	v, ok := c.World.Property(name).Get(id)
	if !ok {
		return 0
	}
	n, _ := v.(int)
	return n
}

func (c *Combat) name(id world.Id) string {
	if v, ok := c.World.Property("name").Get(id); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return id
}

// DamageCalc computes damage dealt: max(1, 1d6 + attack - defense),
// where a defending target's defense gains +2.
func DamageCalc(attack, defense int, defending bool, rng *engine.RNG) (damage, roll int) {
	roll = rng.Roll(6)
	def := defense
	if defending {
		def += 2
	}
	damage = roll + attack - def
	if damage < 1 {
		damage = 1
	}
	return damage, roll
}

// EnemyTurn weighs enemy's behavior table and returns the verb it
// performs this round; defaults to "attack" with no declared behavior.
func (c *Combat) EnemyTurn(enemy world.Id, behavior []BehaviorEntry) string {
	if len(behavior) == 0 {
		return "attack"
	}
	weights := make([]int, len(behavior))
	for i, b := range behavior {
		weights[i] = b.Weight
	}
	idx := c.RNG.WeightedSelect(weights)
	return behavior[idx].Verb
}

// Attack resolves one combat round of attacker hitting defender,
// returning damage dealt and the narration lines.
func (c *Combat) Attack(attacker, defender world.Id, playerIsAttacker bool) (int, []string) {
	attack := c.stat(attacker, "attack")
	defense := c.stat(defender, "defense")
	defending := c.defending(defender)

	damage, roll := DamageCalc(attack, defense, defending, c.RNG)

	var out []string
	if playerIsAttacker {
		out = append(out, fmt.Sprintf("You strike the %s!", c.name(defender)))
	} else {
		out = append(out, fmt.Sprintf("The %s attacks you!", c.name(attacker)))
	}

	defDisplay := defense
	if defending {
		defDisplay += 2
	}
	out = append(out, fmt.Sprintf("  Roll: 1d6+%d -> [%d]+%d = %d vs defense %d -> %d damage",
		attack, roll, attack, roll+attack, defDisplay, damage))

	return damage, out
}

// Defend sets defender's defending flag for the round and returns the
// narration line.
func (c *Combat) Defend(defender world.Id, isPlayer bool) []string {
	c.World.Property("defending").Set(true, defender)
	if isPlayer {
		return []string{"You brace yourself. (+2 defense this round)"}
	}
	return []string{fmt.Sprintf("The %s braces for your attack.", c.name(defender))}
}

// Flee rolls a 1d6 escape check: 4+ succeeds. On success for the
// player, returns the room to return to.
func (c *Combat) Flee(actor world.Id, isPlayer bool) (escaped bool, returnRoom world.Id, lines []string) {
	roll := c.RNG.Roll(6)
	if roll >= 4 {
		if isPlayer {
			v, _ := c.World.Property("previous_location").Get(actor)
			room, _ := v.(world.Id)
			return true, room, []string{fmt.Sprintf("You turn and run! Roll: 1d6 -> [%d] -- you escape!", roll)}
		}
		return true, "", []string{fmt.Sprintf("The %s turns and flees! Roll: 1d6 -> [%d]", c.name(actor), roll)}
	}
	if isPlayer {
		return false, "", []string{fmt.Sprintf("You try to run but can't escape! Roll: 1d6 -> [%d]", roll)}
	}
	return false, "", []string{fmt.Sprintf("The %s tries to flee but fails! Roll: 1d6 -> [%d]", c.name(actor), roll)}
}

// RollLoot rolls each of enemy's loot entries independently and
// returns the items that dropped plus any gold, with narration.
func (c *Combat) RollLoot(loot []LootEntry, gold int) ([]world.Id, int, []string) {
	var dropped []world.Id
	var out []string
	for _, item := range loot {
		if c.RNG.Roll(100) <= item.Chance {
			dropped = append(dropped, item.ItemId)
			out = append(out, fmt.Sprintf("You found: %s!", c.name(item.ItemId)))
		}
	}
	if gold > 0 {
		out = append(out, fmt.Sprintf("You found %d gold.", gold))
	}
	return dropped, gold, out
}
