// Package save implements JSON serialization and deserialization of the
// mutable half of a world.World: explicit property overrides, relation
// edges, RNG position, and the command log. Kinds, declared entities,
// and dispatch methods all come back from re-running the Lua content
// through loader.Load; only mutable state needs to round-trip.
package save

import (
	"encoding/json"

	"github.com/nathoo/inkwell/engine"
	"github.com/nathoo/inkwell/engine/world"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version    string                         `json:"version"`
	Game       string                         `json:"game"`
	Turn       int                            `json:"turn"`
	Actor      world.Id                       `json:"actor"`
	Player     world.Id                       `json:"player"`
	Properties map[string]map[string]any      `json:"properties"`
	Location   map[world.Id]world.LocationEdge `json:"location"`
	Exits      map[world.Id]map[string]world.Id `json:"exits"`
	RNGSeed    int64                          `json:"rng_seed"`
	RNGPos     int64                          `json:"rng_pos"`
	CommandLog []string                       `json:"command_log"`
}

// Save captures w's current mutable state into JSON bytes. turn and
// commandLog are tracked by the frontend driving the turn loop; rng is
// the combat RNG in play, nil if combat hasn't started yet.
func Save(w *world.World, gameTitle, gameVersion string, turn int, rng *engine.RNG, commandLog []string) ([]byte, error) {
	props := map[string]map[string]any{}
	for _, name := range w.PropertyNames() {
		props[name] = w.Property(name).Snapshot()
	}

	var seed, pos int64
	if rng != nil {
		seed = rng.Seed()
		pos = rng.Position()
	}

	data := SaveData{
		Version:    gameVersion,
		Game:       gameTitle,
		Turn:       turn,
		Actor:      w.Actor(),
		Player:     w.Player(),
		Properties: props,
		Location:   w.LocationSnapshot(),
		Exits:      w.ExitsSnapshot(),
		RNGSeed:    seed,
		RNGPos:     pos,
		CommandLog: commandLog,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Properties == nil {
		sd.Properties = map[string]map[string]any{}
	}
	if sd.Location == nil {
		sd.Location = map[world.Id]world.LocationEdge{}
	}
	if sd.Exits == nil {
		sd.Exits = map[world.Id]map[string]world.Id{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// ApplySave overwrites w's mutable state with sd's snapshot, and
// returns a freshly positioned RNG for resuming combat determinism.
func ApplySave(w *world.World, sd *SaveData) *engine.RNG {
	for name, snap := range sd.Properties {
		w.Property(name).Restore(snap)
	}
	w.RestoreLocation(sd.Location)
	w.RestoreExits(sd.Exits)
	w.SetActor(sd.Actor)
	w.SetPlayer(sd.Player)
	return engine.RestoreRNG(sd.RNGSeed, sd.RNGPos)
}
