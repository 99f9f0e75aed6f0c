package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/woodshed/internal/bookmarks"
)

// RecentModel is the bubbletea model for picking a previously practiced
// song. The last row starts a new song instead.
type RecentModel struct {
	tracks    []bookmarks.TrackInfo
	cursor    int
	selected  *bookmarks.TrackInfo
	newSong   bool
	cancelled bool
	width     int
	height    int
}

// Styles for the recent song picker
var (
	recentTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	recentItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	recentSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	recentMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewRecentModel creates a new recent song picker model.
func NewRecentModel(tracks []bookmarks.TrackInfo) RecentModel {
	return RecentModel{
		tracks: tracks,
		width:  80,
		height: 20,
	}
}

// Init initializes the model.
func (m RecentModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit

		case "enter", " ":
			if m.cursor < len(m.tracks) {
				m.selected = &m.tracks[m.cursor]
			} else {
				m.newSong = true
			}
			return m, tea.Quit

		case "n":
			m.newSong = true
			return m, tea.Quit

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.tracks) {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.tracks)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m RecentModel) View() string {
	var b strings.Builder

	b.WriteString(recentTitleStyle.Render("🎸 Pick a song"))
	b.WriteString("\n\n")

	for i, t := range m.tracks {
		var line strings.Builder
		line.WriteString(t.Name)
		if t.Artist != "" {
			line.WriteString(recentMetaStyle.Render(" - " + t.Artist))
		}
		if t.Bookmarks > 0 {
			line.WriteString(recentMetaStyle.Render(fmt.Sprintf(" (%d loops)", t.Bookmarks)))
		}
		b.WriteString(m.row(i, line.String()))
	}
	b.WriteString(m.row(len(m.tracks), recentMetaStyle.Render("+ New song...")))

	b.WriteString("\n")
	b.WriteString(recentMetaStyle.Render("↑/↓ navigate • enter select • n new song • esc quit"))

	return b.String()
}

func (m RecentModel) row(i int, text string) string {
	if i == m.cursor {
		return recentSelectedStyle.Render("▸ "+text) + "\n"
	}
	return recentItemStyle.Render("  "+text) + "\n"
}

// Selected returns the chosen song, or nil when a new song was requested
// or the picker was cancelled.
func (m RecentModel) Selected() *bookmarks.TrackInfo {
	return m.selected
}

// NewSong reports whether the user asked to enter a new song.
func (m RecentModel) NewSong() bool {
	return m.newSong
}

// Cancelled reports whether the user quit without choosing.
func (m RecentModel) Cancelled() bool {
	return m.cancelled
}

// RunRecentPicker runs the picker. It returns (nil, nil) when the user asks
// for a new song and ErrCancelled when they quit.
func RunRecentPicker(tracks []bookmarks.TrackInfo) (*bookmarks.TrackInfo, error) {
	model := NewRecentModel(tracks)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := finalModel.(RecentModel)
	if final.Cancelled() {
		return nil, ErrCancelled
	}
	return final.Selected(), nil
}
