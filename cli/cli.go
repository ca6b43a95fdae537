// Package cli provides terminal I/O and meta-command dispatch for the
// inkwell game engine: a thin bufio.Scanner loop around engine/turn.Loop.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/inkwell/engine/save"
	"github.com/nathoo/inkwell/engine/sink"
	"github.com/nathoo/inkwell/engine/turn"
	"github.com/nathoo/inkwell/loader"
)

// CLI handles terminal interaction with the player, driving a
// loader.Game through its turn.Loop and flushing rendered text after
// every line.
type CLI struct {
	Game *loader.Game
	Loop *turn.Loop
	Buf  *sink.Buffer

	In        io.Reader
	Out       io.Writer
	SaveDir   string
	EchoInput bool // echo each input line after the prompt (for script playback)

	turnCount    int
	commandLog   []string
	lastCmd      string // for "again"/"g" repeat
	awaitingMenu bool   // true while a disambiguation menu reply is expected
}

// New wires a CLI to game: assigns a text sink, starts the turn loop
// (which renders the starting room immediately), and points /save at
// the default save directory.
func New(game *loader.Game) *CLI {
	home, _ := os.UserHomeDir()
	buf := sink.NewBuffer()
	game.Sink = buf
	loop := turn.NewLoop(game.World, game.Pipeline, game.Parser, game.Describer, buf, game.NameOf)
	return &CLI{
		Game:    game,
		Loop:    loop,
		Buf:     buf,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".inkwell", "saves"),
	}
}

// Run starts the game loop. It shows the intro and the starting
// room's description (already rendered by NewLoop), then loops:
// prompt → input → dispatch → output.
func (c *CLI) Run() {
	def := c.Game.Defs.Game
	c.printLine(fmt.Sprintf("%s v%s by %s", def.Title, def.Version, def.Author))
	c.printLine("")
	if def.Intro != "" {
		c.printLine(def.Intro)
		c.printLine("")
	}
	c.flush()

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command, unless a
		// disambiguation menu reply is expected (a bare number).
		if !c.awaitingMenu {
			lower := strings.ToLower(input)
			if lower == "again" || lower == "g" {
				if c.lastCmd == "" {
					c.printLine("Nothing to repeat.")
					continue
				}
				input = c.lastCmd
			} else {
				c.lastCmd = input
			}
		}

		outcome := c.Loop.Step(input)
		c.awaitingMenu = len(outcome.Menu) > 0
		c.commandLog = append(c.commandLog, input)
		c.turnCount++
		c.flush()

		if outcome.State == turn.Done {
			return
		}
	}
}

// flush drains the sink buffer to Out and resets it.
func (c *CLI) flush() {
	if text := c.Buf.String(); text != "" {
		fmt.Fprint(c.Out, text)
		c.Buf.Reset()
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Game.World, c.Game.Defs.Game.Title, c.Game.Defs.Game.Version,
		c.turnCount, c.Game.RNG, c.commandLog)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	c.Game.RNG = save.ApplySave(c.Game.World, sd)
	c.turnCount = sd.Turn
	c.commandLog = append([]string{}, sd.CommandLog...)
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, sd.Turn))

	c.Loop.Render()
	c.flush()
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"",
		"Game commands:",
		"  look (l)              — Describe the room",
		"  examine <thing> (x)   — Look closely at something",
		"  go/walk <dir>         — Move (or just type n/s/e/w/u/d)",
		"  take/get <item>       — Pick something up",
		"  drop <item>           — Put something down",
		"  use <item> on <thing> — Use an item on something",
		"  open / close          — Open or close something",
		"  talk/speak <npc>      — Talk to someone",
		"  ask <npc> about <topic>",
		"  give <item> to <npc>  — Give an item to someone",
		"  inventory (i)         — Check what you're carrying",
		"  wait (z)              — Let time pass",
		"  again (g)             — Repeat your last command",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	w := c.Game.World
	actor := w.Actor()
	room := w.EffectiveContainer(actor)
	c.printSystem(fmt.Sprintf("Turn: %d", c.turnCount))
	c.printSystem(fmt.Sprintf("Location: %s", c.Game.NameOf(string(room))))

	var carried []string
	for _, id := range w.RelatedTo(actor) {
		carried = append(carried, c.Game.NameOf(string(id)))
	}
	sort.Strings(carried)
	c.printSystem(fmt.Sprintf("Inventory: %v", carried))
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
