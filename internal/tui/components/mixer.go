package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/tui/styles"
)

// Mixer displays stem volumes, the isolation preset and speed settings.
type Mixer struct {
	selected int
}

// NewMixer creates a new Mixer component
func NewMixer() *Mixer {
	return &Mixer{}
}

// SelectNext selects the next stem
func (m *Mixer) SelectNext() {
	if m.selected < len(core.AllStems)-1 {
		m.selected++
	}
}

// SelectPrev selects the previous stem
func (m *Mixer) SelectPrev() {
	if m.selected > 0 {
		m.selected--
	}
}

// Selected returns the selected stem.
func (m *Mixer) Selected() core.Stem {
	return core.AllStems[m.selected]
}

// Render renders the mixer panel. pitchSupported reports whether the audio
// output can honor the preserve-pitch flag.
func (m *Mixer) Render(state *core.PlaybackState, pitchSupported bool, width, height int, focused bool) string {
	title := styles.PanelTitle("Mixer", focused)

	lines := []string{title, ""}
	if state == nil {
		lines = append(lines, styles.Muted.Render("No song loaded"))
	} else {
		lines = append(lines, m.renderStems(state, width-2, focused)...)
		lines = append(lines, "",
			styles.Label.Render("Preset  ")+presetName(state.Isolation),
			styles.Label.Render("Speed   ")+fmt.Sprintf("%.2f×", state.Speed),
			styles.Label.Render("Pitch   ")+pitchLabel(state.PreservePitch, pitchSupported),
		)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Mixer) renderStems(state *core.PlaybackState, width int, focused bool) []string {
	const labelWidth = 16
	barWidth := width - labelWidth - 6
	if barWidth < 5 {
		barWidth = 5
	}

	lines := make([]string, 0, len(core.AllStems))
	for i, stem := range core.AllStems {
		selector := "  "
		name := stem.DisplayName()
		if focused && i == m.selected {
			selector = "▸ "
			name = styles.Highlight.Render(name)
		}
		pct := state.Volumes.Get(stem)
		line := fmt.Sprintf("%s%s %s %3d%%",
			selector,
			lipgloss.NewStyle().Width(labelWidth-2).Render(name),
			styles.VolumeBar(pct, barWidth),
			pct,
		)
		lines = append(lines, line)
	}
	return lines
}

func presetName(p core.IsolationPreset) string {
	switch p {
	case core.IsolationFull:
		return "Full mix"
	case core.IsolationGuitarOnly:
		return "Guitar only"
	case core.IsolationBackingOnly:
		return "Backing only"
	default:
		return styles.Muted.Render("Custom")
	}
}

func pitchLabel(preserve, supported bool) string {
	switch {
	case !preserve:
		return "follows speed"
	case supported:
		return "preserved"
	default:
		return styles.Paused.Render("preserve requested (not supported by output)")
	}
}
