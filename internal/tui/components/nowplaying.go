package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/tui/styles"
)

// scrubberLine is the scrubber's line index inside the panel content.
const scrubberLine = 6

// NowPlaying displays the loaded song, the transport and the scrubber.
type NowPlaying struct {
	// Scrubber geometry from the last render, in terminal cells relative
	// to the panel's top-left corner.
	barX, barY, barWidth int
}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. provisional is the loop region
// currently being drawn, if any.
func (n *NowPlaying) Render(state *core.PlaybackState, provisional *core.LoopRegion, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	// Border plus horizontal padding on the left.
	n.barX = 2
	n.barY = 1 + scrubberLine
	n.barWidth = width - 2
	if n.barWidth < 10 {
		n.barWidth = 10
	}

	var lines []string
	if !state.HasTrack() {
		n.barWidth = 0
		msg := "No song loaded"
		if state != nil && state.Loading {
			msg = "Loading stems..."
		}
		lines = []string{title, "", styles.Muted.Render(msg)}
	} else {
		lines = n.renderTrack(state, provisional, title)
	}

	if state != nil && state.Error != "" {
		lines = append(lines, "", styles.ErrorText.Render(state.Error))
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (n *NowPlaying) renderTrack(state *core.PlaybackState, provisional *core.LoopRegion, title string) []string {
	track := state.Track

	name := styles.Title.Render(track.Name)
	artist := styles.Subtitle.Render(track.Artist)
	if track.Artist == "" {
		artist = styles.Dim.Render("Unknown artist")
	}

	region := state.Loop
	if provisional != nil {
		region = provisional
	}

	timeLine := fmt.Sprintf("%s %s / %s   %s",
		styles.StatusIcon(state.IsPlaying),
		core.FormatTime(state.CurrentTime),
		core.FormatTime(track.DurationSeconds),
		styles.Highlight.Render(fmt.Sprintf("%.2f×", state.Speed)),
	)
	timeLine += "   " + styles.LoopIcon(state.IsLooping)
	switch {
	case region != nil:
		timeLine += " " + styles.Muted.Render(region.String())
	case state.SavedLoop != nil:
		timeLine += " " + styles.Dim.Render("("+state.SavedLoop.String()+")")
	}

	var cells []styles.Cell
	if region != nil {
		cells = styles.ScrubberCells(n.barWidth, state.CurrentTime, track.DurationSeconds, region.Start, region.End, true)
	} else {
		cells = styles.ScrubberCells(n.barWidth, state.CurrentTime, track.DurationSeconds, 0, 0, false)
	}

	return []string{
		title,
		"",
		name,
		artist,
		"",
		timeLine,
		styles.Scrubber(cells),
		"",
		styles.Dim.Render("drag on the bar to draw a loop; drag a loop edge to move it"),
	}
}

// Hit maps a terminal cell to a song-time fraction in [0,1]. ok is false
// when (x, y) is not on the scrubber. Use HitX while a drag is in
// progress and the pointer may have left the row.
func (n *NowPlaying) Hit(x, y int) (frac float64, ok bool) {
	if n.barWidth == 0 || y != n.barY || x < n.barX || x >= n.barX+n.barWidth {
		return 0, false
	}
	return n.HitX(x), true
}

// HitX maps a terminal column to a song-time fraction, clamped to the bar.
func (n *NowPlaying) HitX(x int) float64 {
	if n.barWidth <= 1 {
		return 0
	}
	frac := float64(x-n.barX) / float64(n.barWidth-1)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}
