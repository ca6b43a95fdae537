package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing
// current room, exits, inventory, and turn count.
func (m Model) renderStatusBar() string {
	w := m.game.World
	actor := w.Actor()
	room := w.EffectiveContainer(actor)

	roomName := m.game.NameOf(string(room))

	var dirs []string
	for _, e := range w.Exits(room) {
		dirs = append(dirs, e.Tag)
	}
	sort.Strings(dirs)
	exitStr := strings.Join(dirs, ",")

	held := w.RelatedTo(actor)
	invCount := len(held)

	left := fmt.Sprintf(" %s | Exits: %s", roomName, exitStr)
	right := fmt.Sprintf("T:%d ", m.turnCount)

	// Show inventory items if they fit, otherwise just count.
	if invCount > 0 {
		sort.Strings(held)
		names := make([]string, 0, len(held))
		for _, id := range held {
			names = append(names, m.game.NameOf(string(id)))
		}
		invStr := strings.Join(names, ", ")
		candidate := fmt.Sprintf("Inv: %s | T:%d ", invStr, m.turnCount)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", invCount, m.turnCount)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
