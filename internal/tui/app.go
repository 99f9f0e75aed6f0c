package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/woodshed/internal/audio"
	"github.com/tessro/woodshed/internal/bookmarks"
	"github.com/tessro/woodshed/internal/config"
	"github.com/tessro/woodshed/internal/core"
	"github.com/tessro/woodshed/internal/loop"
	"github.com/tessro/woodshed/internal/poller"
	"github.com/tessro/woodshed/internal/tui/components"
	"github.com/tessro/woodshed/internal/tui/styles"
)

// Transport is the player surface the TUI drives.
type Transport interface {
	core.Player
	TogglePlay(ctx context.Context) error
	AdjustSpeed(delta float64)
	AdjustVolume(stem core.Stem, delta int)
	SetPreservePitch(enabled bool)
	Capabilities() audio.Capabilities
	Rename(name, artist string) (*core.Track, error)
	PointerDown(t, px float64)
	PointerMove(t, px float64)
	PointerUp(t, px float64) loop.Action
	Provisional() *core.LoopRegion
	Tick() poller.Frame
}

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelMixer
	PanelBookmarks
	panelCount
)

// editMode is what the text input is editing.
type editMode int

const (
	editNone editMode = iota
	editLabel
	editName
	editArtist
)

const (
	speedStep  = 0.1
	volumeStep = 5
	errorTTL   = 5 * time.Second
	storeTTL   = 3 * time.Second
)

// Model is the main TUI model
type Model struct {
	player   Transport
	marks    bookmarks.Store
	cfg      *config.Config
	trackKey string

	width        int
	height       int
	focusedPanel Panel

	// State
	state     core.PlaybackState
	bookmarks core.Bookmarks
	ticking   bool
	dragging  bool

	// Components
	nowPlaying    *components.NowPlaying
	mixerView     *components.Mixer
	bookmarksView *components.Bookmarks

	// Overlays
	showHelp bool

	// Text editing
	editing   editMode
	editingID int64
	input     textinput.Model

	// Status line
	notice      string
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model. marks may be nil when bookmark storage
// is unavailable.
func NewModel(p Transport, marks bookmarks.Store, cfg *config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 80
	ti.Width = 40

	m := Model{
		player:        p,
		marks:         marks,
		cfg:           cfg,
		focusedPanel:  PanelNowPlaying,
		nowPlaying:    components.NewNowPlaying(),
		mixerView:     components.NewMixer(),
		bookmarksView: components.NewBookmarks(),
		input:         ti,
		state:         p.State(),
	}
	if m.state.Track != nil {
		if key, err := bookmarks.TrackKey(*m.state.Track); err == nil {
			m.trackKey = key
		} else {
			m.lastError = err
			m.errorExpiry = time.Now().Add(errorTTL)
		}
	}
	return m
}

// Messages
type tickMsg time.Time
type playedMsg struct{ err error }
type bookmarksMsg core.Bookmarks
type errMsg error
type noticeMsg string

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) togglePlay() tea.Cmd {
	return func() tea.Msg {
		return playedMsg{err: m.player.TogglePlay(context.Background())}
	}
}

func (m Model) fetchBookmarks() tea.Cmd {
	if m.marks == nil || m.trackKey == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTTL)
		defer cancel()

		marks, err := m.marks.List(ctx, m.trackKey)
		if err != nil {
			return errMsg(err)
		}
		return bookmarksMsg(marks)
	}
}

func (m Model) rememberTrack() tea.Cmd {
	if m.marks == nil || m.trackKey == "" || m.state.Track == nil {
		return nil
	}
	track := *m.state.Track
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTTL)
		defer cancel()

		if err := m.marks.RememberTrack(ctx, m.trackKey, track); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func (m Model) addBookmark() tea.Cmd {
	if m.marks == nil || m.trackKey == "" {
		return nil
	}
	region := m.state.Loop
	if region == nil {
		return func() tea.Msg { return noticeMsg("No active loop to bookmark") }
	}
	r := *region
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTTL)
		defer cancel()

		if _, err := m.marks.Add(ctx, m.trackKey, r, ""); err != nil {
			return errMsg(err)
		}
		marks, err := m.marks.List(ctx, m.trackKey)
		if err != nil {
			return errMsg(err)
		}
		return bookmarksMsg(marks)
	}
}

func (m Model) updateLabel(id int64, label string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTTL)
		defer cancel()

		if err := m.marks.UpdateLabel(ctx, id, label); err != nil {
			return errMsg(err)
		}
		marks, err := m.marks.List(ctx, m.trackKey)
		if err != nil {
			return errMsg(err)
		}
		return bookmarksMsg(marks)
	}
}

func (m Model) deleteBookmark(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTTL)
		defer cancel()

		if err := m.marks.Delete(ctx, id); err != nil {
			return errMsg(err)
		}
		marks, err := m.marks.List(ctx, m.trackKey)
		if err != nil {
			return errMsg(err)
		}
		return bookmarksMsg(marks)
	}
}

func (m Model) copyLoop() tea.Cmd {
	region := m.state.Loop
	if region == nil {
		return func() tea.Msg { return noticeMsg("No active loop to copy") }
	}
	text := region.String()
	if m.state.Track != nil {
		text = fmt.Sprintf("%s %s", m.state.Track.Name, text)
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return errMsg(fmt.Errorf("copy loop: %w", err))
		}
		return noticeMsg("Copied " + text)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchBookmarks(),
		m.rememberTrack(),
	)
}

// refresh re-reads player state and makes sure the poller is scheduled
// while the transport runs.
func (m Model) refresh() (Model, tea.Cmd) {
	m.state = m.player.State()
	if m.state.IsPlaying && !m.ticking {
		m.ticking = true
		return m, m.tick()
	}
	return m, nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.player.Tick()
		m.state = m.player.State()
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		if !m.state.IsPlaying {
			m.ticking = false
			return m, nil
		}
		return m, m.tick()

	case playedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			m.errorExpiry = time.Now().Add(errorTTL)
		}
		return m.refresh()

	case bookmarksMsg:
		m.bookmarks = core.Bookmarks(msg)
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(errorTTL)
		return m, nil
	}

	// Forward other messages to textinput while editing
	if m.editing != editNone {
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.editing != editNone {
		return m.handleEditKeyPress(msg)
	}

	m.notice = ""

	// Normal mode
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	}

	if !m.state.HasTrack() {
		return m, nil
	}

	// Transport and mix
	switch msg.String() {
	case " ":
		return m, m.togglePlay()
	case "left", "h":
		m.player.SeekBy(-m.cfg.Playback.SeekStep)
		return m.refresh()
	case "right":
		m.player.SeekBy(m.cfg.Playback.SeekStep)
		return m.refresh()
	case "home", "0":
		m.player.Seek(0)
		return m.refresh()
	case "[":
		m.player.AdjustSpeed(-speedStep)
		return m.refresh()
	case "]":
		m.player.AdjustSpeed(speedStep)
		return m.refresh()
	case "p":
		m.player.SetPreservePitch(!m.state.PreservePitch)
		return m.refresh()
	case "f":
		_ = m.player.ApplyIsolation(core.IsolationFull)
		return m.refresh()
	case "g":
		_ = m.player.ApplyIsolation(core.IsolationGuitarOnly)
		return m.refresh()
	case "b":
		_ = m.player.ApplyIsolation(core.IsolationBackingOnly)
		return m.refresh()
	case "1":
		m.player.AdjustVolume(core.StemGuitar, volumeStep)
		return m.refresh()
	case "2":
		m.player.AdjustVolume(core.StemGuitar, -volumeStep)
		return m.refresh()
	case "3":
		m.player.AdjustVolume(core.StemBacking, volumeStep)
		return m.refresh()
	case "4":
		m.player.AdjustVolume(core.StemBacking, -volumeStep)
		return m.refresh()
	case "l":
		m.player.ToggleLoop()
		return m.refresh()
	case "m":
		return m, m.addBookmark()
	case "y":
		return m, m.copyLoop()
	case "t":
		return m.startEdit(editName, m.state.Track.Name, "Song name")
	case "a":
		return m.startEdit(editArtist, m.state.Track.Artist, "Artist")
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelMixer:
		switch msg.String() {
		case "j", "down":
			m.mixerView.SelectNext()
		case "k", "up":
			m.mixerView.SelectPrev()
		case "+", "=":
			m.player.AdjustVolume(m.mixerView.Selected(), volumeStep)
			return m.refresh()
		case "-":
			m.player.AdjustVolume(m.mixerView.Selected(), -volumeStep)
			return m.refresh()
		}
	case PanelBookmarks:
		switch msg.String() {
		case "j", "down":
			m.bookmarksView.SelectNext(len(m.bookmarks))
		case "k", "up":
			m.bookmarksView.SelectPrev()
		case "enter":
			if b := m.bookmarksView.Selected(m.bookmarks); b != nil {
				m.player.JumpTo(*b)
				return m.refresh()
			}
		case "e":
			if b := m.bookmarksView.Selected(m.bookmarks); b != nil && m.marks != nil {
				m.editingID = b.ID
				return m.startEdit(editLabel, b.Label, "Label")
			}
		case "d":
			if b := m.bookmarksView.Selected(m.bookmarks); b != nil && m.marks != nil {
				return m, m.deleteBookmark(b.ID)
			}
		}
	}

	return m, nil
}

func (m Model) startEdit(mode editMode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.editing = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleEditKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = editNone
		m.input.Blur()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.editing
		m.editing = editNone
		m.input.Blur()

		switch mode {
		case editLabel:
			return m, m.updateLabel(m.editingID, value)
		case editName, editArtist:
			name, artist := m.state.Track.Name, m.state.Track.Artist
			if mode == editName {
				name = value
			} else {
				artist = value
			}
			if _, err := m.player.Rename(name, artist); err != nil {
				m.lastError = err
				m.errorExpiry = time.Now().Add(errorTTL)
				return m, nil
			}
			m.state = m.player.State()
			return m, m.rememberTrack()
		}
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

// handleMouse turns scrubber presses, drags and releases into loop
// gestures. Columns stand in for pixels in the drag threshold.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.state.HasTrack() || m.showHelp || m.editing != editNone {
		return m, nil
	}
	duration := m.state.Track.DurationSeconds
	px := float64(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		frac, ok := m.nowPlaying.Hit(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		m.dragging = true
		m.player.PointerDown(frac*duration, px)
		return m, nil

	case tea.MouseActionMotion:
		if !m.dragging {
			return m, nil
		}
		m.player.PointerMove(m.nowPlaying.HitX(msg.X)*duration, px)
		return m, nil

	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		m.player.PointerUp(m.nowPlaying.HitX(msg.X)*duration, px)
		return m.refresh()
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	// Layout: Now Playing across the top; Mixer and Bookmarks side by side
	// below it. Now Playing sits at the origin so scrubber hit-testing
	// needs no offset.
	topHeight := 12
	bottomHeight := m.height - topHeight - 5
	if bottomHeight < 8 {
		bottomHeight = 8
	}
	leftWidth := m.width * 45 / 100
	rightWidth := m.width - leftWidth - 4

	var provisional *core.LoopRegion
	if m.dragging {
		provisional = m.player.Provisional()
	}

	nowPlaying := m.nowPlaying.Render(&m.state, provisional, m.width-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	mixerView := m.mixerView.Render(&m.state, m.player.Capabilities().PreservesPitch, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelMixer)

	editor := ""
	if m.editing == editLabel {
		editor = m.input.View()
	}
	bookmarksView := m.bookmarksView.Render(m.bookmarks, m.state.Loop, editor, m.marks == nil, rightWidth, bottomHeight-2, m.focusedPanel == PanelBookmarks)

	bottom := lipgloss.JoinHorizontal(lipgloss.Top, mixerView, bookmarksView)
	main := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, bottom)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  space:play/pause  ←/→:seek  [/]:speed  l:loop  m:bookmark  tab:switch panel")

	switch {
	case m.editing == editName || m.editing == editArtist:
		status = m.input.View()
	case m.lastError != nil:
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	case m.notice != "":
		status = styles.Muted.Render(m.notice)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Woodshed - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  Tab          Next panel
  Shift+Tab    Previous panel

  Transport
  ─────────
  Space        Play/Pause
  ←/→          Seek back/forward
  Home, 0      Back to start
  [ / ]        Slower / faster
  p            Toggle preserve pitch

  Mix
  ───
  f / g / b    Full mix / guitar only / backing only
  1 / 2        Guitar louder / quieter
  3 / 4        Backing louder / quieter

  Loop
  ────
  l            Toggle loop
  mouse drag   Draw or edit the loop on the bar
  m            Bookmark current loop
  y            Copy loop to clipboard

  Bookmarks Panel
  ───────────────
  j/↓ k/↑      Select
  Enter        Jump to bookmark
  e            Edit label
  d            Delete

  Song
  ────
  t / a        Edit name / artist

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI application
func Run(p Transport, marks bookmarks.Store, cfg *config.Config) error {
	styles.SetTheme(cfg.TUI.Theme)

	model := NewModel(p, marks, cfg)
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, err := prog.Run()
	return err
}
