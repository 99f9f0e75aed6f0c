package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/tui/styles"
)

// Bookmarks displays saved loops for the current song
type Bookmarks struct {
	offset   int
	selected int
}

// NewBookmarks creates a new Bookmarks component
func NewBookmarks() *Bookmarks {
	return &Bookmarks{}
}

// SelectNext selects the next bookmark
func (b *Bookmarks) SelectNext(n int) {
	if b.selected < n-1 {
		b.selected++
	}
}

// SelectPrev selects the previous bookmark
func (b *Bookmarks) SelectPrev() {
	if b.selected > 0 {
		b.selected--
	}
}

// Selected returns the selected bookmark, or nil.
func (b *Bookmarks) Selected(marks core.Bookmarks) *core.Bookmark {
	if b.selected < 0 || b.selected >= len(marks) {
		return nil
	}
	return &marks[b.selected]
}

// Render renders the bookmarks panel. editor, when non-empty, replaces the
// selected row while a label is being edited. active marks the bookmark
// whose region matches the active loop.
func (b *Bookmarks) Render(marks core.Bookmarks, active *core.LoopRegion, editor string, unavailable bool, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Bookmarks (%d)", len(marks)), focused)

	var content string
	switch {
	case unavailable:
		content = styles.Muted.Render("Bookmarks unavailable")
	case len(marks) == 0:
		content = styles.Muted.Render("No saved loops. Press m to save one.")
	default:
		content = b.renderList(marks, active, editor, width-2, height-4, focused)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (b *Bookmarks) renderList(marks core.Bookmarks, active *core.LoopRegion, editor string, width, maxLines int, focused bool) string {
	if b.selected >= len(marks) {
		b.selected = len(marks) - 1
	}
	if b.selected < 0 {
		b.selected = 0
	}

	visible := maxLines - 1 // room for "more" indicator
	if visible < 1 {
		visible = 1
	}
	if b.selected < b.offset {
		b.offset = b.selected
	}
	if b.selected >= b.offset+visible {
		b.offset = b.selected - visible + 1
	}

	end := b.offset + visible
	if end > len(marks) {
		end = len(marks)
	}

	// "▸ " + region (13) + 2 spaces
	const overhead = 17

	lines := make([]string, 0, end-b.offset+1)
	for i := b.offset; i < end; i++ {
		mark := marks[i]

		selector := "  "
		if focused && i == b.selected {
			selector = "▸ "
		}

		region := styles.Dim.Render(mark.Region().String())
		if active != nil && *active == mark.Region() {
			region = styles.Playing.Render(mark.Region().String())
		}

		label := truncate(mark.Label, width-overhead)
		if i == b.selected && editor != "" {
			label = editor
		} else if focused && i == b.selected {
			label = styles.Selected.Render(label)
		}

		lines = append(lines, fmt.Sprintf("%s%s  %s", selector, region, label))
	}

	if end < len(marks) {
		more := styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(marks)-end))
		lines = append(lines, more)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
