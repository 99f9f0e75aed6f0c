package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors - a warm practice-room palette
var (
	// Primary colors
	Primary   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"} // Amber
	Secondary = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"} // Green
	Accent    = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"} // Violet

	// Status colors
	Success = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#10B981"}
	Warning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	Error   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#EF4444"}

	// Neutral colors
	Border    = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#4B5563"}
	Text      = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}
	TextMuted = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	TextDim   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}

	// Loop region on the scrubber
	LoopColor = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Success)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(Accent)
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// SetTheme forces the light or dark variant of the adaptive palette. "auto"
// leaves detection to lipgloss.
func SetTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// Cell is one scrubber column's role.
type Cell int

const (
	CellEmpty Cell = iota
	CellPlayed
	CellLoop
	CellLoopPlayed
	CellHead
)

// Scrubber renders the position bar. cells comes from ScrubberCells.
func Scrubber(cells []Cell) string {
	played := lipgloss.NewStyle().Foreground(Primary)
	empty := lipgloss.NewStyle().Foreground(Border)
	loop := lipgloss.NewStyle().Foreground(LoopColor)
	loopPlayed := lipgloss.NewStyle().Foreground(LoopColor).Bold(true)
	head := lipgloss.NewStyle().Foreground(Text).Bold(true)

	var b strings.Builder
	for _, c := range cells {
		switch c {
		case CellPlayed:
			b.WriteString(played.Render("━"))
		case CellLoop:
			b.WriteString(loop.Render("═"))
		case CellLoopPlayed:
			b.WriteString(loopPlayed.Render("═"))
		case CellHead:
			b.WriteString(head.Render("●"))
		default:
			b.WriteString(empty.Render("─"))
		}
	}
	return b.String()
}

// ScrubberCells lays out a bar of width columns for a song of the given
// duration. loop may be nil.
func ScrubberCells(width int, position, duration float64, loopStart, loopEnd float64, hasLoop bool) []Cell {
	if width <= 0 {
		return nil
	}
	cells := make([]Cell, width)
	if duration <= 0 {
		return cells
	}
	col := func(t float64) int {
		c := int(t / duration * float64(width))
		if c < 0 {
			return 0
		}
		if c >= width {
			return width - 1
		}
		return c
	}
	head := col(position)
	ls, le := -1, -1
	if hasLoop {
		ls, le = col(loopStart), col(loopEnd)
	}
	for i := range cells {
		inLoop := hasLoop && i >= ls && i <= le
		switch {
		case i == head:
			cells[i] = CellHead
		case inLoop && i < head:
			cells[i] = CellLoopPlayed
		case inLoop:
			cells[i] = CellLoop
		case i < head:
			cells[i] = CellPlayed
		}
	}
	return cells
}

// VolumeBar renders a 0-100 level meter.
func VolumeBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	on := lipgloss.NewStyle().Foreground(Secondary)
	off := lipgloss.NewStyle().Foreground(Border)
	return on.Render(strings.Repeat("█", filled)) + off.Render(strings.Repeat("░", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Paused.Render("⏸")
}

// LoopIcon returns the loop indicator.
func LoopIcon(looping bool) string {
	if looping {
		return lipgloss.NewStyle().Foreground(LoopColor).Render("⟲ loop")
	}
	return Dim.Render("⟲ off")
}
