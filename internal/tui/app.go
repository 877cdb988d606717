package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/cassette/internal/cassette/client"
	"github.com/tessro/cassette/internal/core"
	cerrors "github.com/tessro/cassette/internal/errors"
	"github.com/tessro/cassette/internal/tui/components"
	"github.com/tessro/cassette/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelSlots Panel = iota
	PanelDevices
)

const requestTimeout = 10 * time.Second

// Service is the part of the cassette API the dashboard drives.
type Service interface {
	FetchCSRFToken(ctx context.Context) (string, error)
	SetCSRFToken(token string)
	FetchPlayerStates(ctx context.Context) (json.RawMessage, error)
	FetchActiveDevices(ctx context.Context) (json.RawMessage, error)
	StorePlayerState(ctx context.Context) (*client.Response, error)
	UpdatePlayerState(ctx context.Context, slot int) (*client.Response, error)
	DeletePlayerState(ctx context.Context, slot int) (*client.Response, error)
	RestoreFromPlayerState(ctx context.Context, slot int, deviceID string) (*client.Response, error)
}

// App holds the TUI application state
type App struct {
	service       Service
	refreshRate   time.Duration
	defaultDevice string // Device name or ID from config
}

// NewApp creates a new TUI application
func NewApp(service Service, refreshRate time.Duration, defaultDevice string) *App {
	if refreshRate <= 0 {
		refreshRate = 5 * time.Second
	}
	return &App{
		service:       service,
		refreshRate:   refreshRate,
		defaultDevice: defaultDevice,
	}
}

type keyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Tab     key.Binding
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Save    key.Binding
	Update  key.Binding
	Delete  key.Binding
	Restore key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Tab:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch panel")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Refresh: key.NewBinding(key.WithKeys("R", "ctrl+r"), key.WithHelp("R", "refresh")),
	Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Update:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "update slot")),
	Delete:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete slot")),
	Restore: key.NewBinding(key.WithKeys("enter", "r"), key.WithHelp("enter", "restore")),
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel

	// State
	snapshots []core.Snapshot
	devices   []core.Device
	defaulted bool // default device applied to the selection

	// Components
	slotsView   *components.Slots
	detailView  *components.Detail
	devicesView *components.Devices

	// Overlays
	showHelp bool

	// Slot awaiting a second delete press, or -1
	pendingDelete int

	// Status line
	notice      string
	lastError   error
	errorExpiry time.Time // When to clear the error

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	return Model{
		app:           app,
		focusedPanel:  PanelSlots,
		slotsView:     components.NewSlots(),
		detailView:    components.NewDetail(),
		devicesView:   components.NewDevices(),
		pendingDelete: -1,
	}
}

// Messages
type tickMsg time.Time
type snapshotsMsg []core.Snapshot
type devicesMsg []core.Device
type errMsg struct{ err error }
type doneMsg string

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshots() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		raw, err := m.app.service.FetchPlayerStates(ctx)
		if err != nil {
			return errMsg{err}
		}
		snapshots, err := core.DecodeSnapshots(raw)
		if err != nil {
			return errMsg{fmt.Errorf("failed to decode player states: %w", err)}
		}
		return snapshotsMsg(snapshots)
	}
}

func (m Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		raw, err := m.app.service.FetchActiveDevices(ctx)
		if err != nil {
			return errMsg{err}
		}
		devices, err := core.DecodeDevices(raw)
		if err != nil {
			return errMsg{fmt.Errorf("failed to decode devices: %w", err)}
		}
		return devicesMsg(devices)
	}
}

// mutate performs the CSRF handshake, then fn. On success it reports
// notice and the lists are refreshed.
func (m Model) mutate(notice string, fn func(ctx context.Context, s Service) error) tea.Cmd {
	service := m.app.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		token, err := service.FetchCSRFToken(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("failed to fetch CSRF token: %w", err)}
		}
		if token == "" {
			return errMsg{cerrors.ErrNoCSRFToken}
		}
		service.SetCSRFToken(token)

		if err := fn(ctx, service); err != nil {
			return errMsg{err}
		}
		return doneMsg(notice)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.fetchSnapshots(),
		m.fetchDevices(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tick(), m.fetchSnapshots(), m.fetchDevices())

	case snapshotsMsg:
		m.clearExpiredError()
		m.snapshots = msg
		return m, nil

	case devicesMsg:
		m.clearExpiredError()
		m.devices = msg
		if !m.defaulted && len(m.devices) > 0 {
			m.defaulted = true
			if d, err := core.PickDevice(m.devices, m.app.defaultDevice); err == nil {
				m.devicesView.Select(m.devices, d.ID)
			}
		}
		return m, nil

	case errMsg:
		m.lastError = cerrors.Classify(msg.err)
		m.errorExpiry = time.Now().Add(5 * time.Second) // Show error for 5 seconds
		return m, nil

	case doneMsg:
		m.notice = string(msg)
		m.lastError = nil
		return m, tea.Batch(m.fetchSnapshots(), m.fetchDevices())
	}

	return m, nil
}

func (m *Model) clearExpiredError() {
	if time.Now().After(m.errorExpiry) {
		m.lastError = nil
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Any key other than a second delete cancels a pending delete
	if !key.Matches(msg, keys.Delete) {
		m.pendingDelete = -1
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, keys.Tab):
		if m.focusedPanel == PanelSlots {
			m.focusedPanel = PanelDevices
		} else {
			m.focusedPanel = PanelSlots
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		if m.focusedPanel == PanelSlots {
			m.slotsView.SelectPrev()
		} else {
			m.devicesView.SelectPrev()
		}
		return m, nil

	case key.Matches(msg, keys.Down):
		if m.focusedPanel == PanelSlots {
			m.slotsView.SelectNext(len(m.snapshots))
		} else {
			m.devicesView.SelectNext(len(m.devices))
		}
		return m, nil

	case key.Matches(msg, keys.Refresh):
		return m, tea.Batch(m.fetchSnapshots(), m.fetchDevices())

	case key.Matches(msg, keys.Save):
		m.notice = "Saving..."
		return m, m.mutate("Saved current playback", func(ctx context.Context, s Service) error {
			_, err := s.StorePlayerState(ctx)
			return err
		})
	}

	snap := m.slotsView.Selected(m.snapshots)
	if snap == nil {
		return m, nil
	}
	slot := snap.Slot

	switch {
	case key.Matches(msg, keys.Update):
		return m, m.mutate(fmt.Sprintf("Updated slot %d", slot), func(ctx context.Context, s Service) error {
			_, err := s.UpdatePlayerState(ctx, slot)
			return err
		})

	case key.Matches(msg, keys.Delete):
		if m.pendingDelete != slot {
			m.pendingDelete = slot
			m.notice = fmt.Sprintf("Press d again to delete slot %d", slot)
			return m, nil
		}
		m.pendingDelete = -1
		return m, m.mutate(fmt.Sprintf("Deleted slot %d", slot), func(ctx context.Context, s Service) error {
			_, err := s.DeletePlayerState(ctx, slot)
			return err
		})

	case key.Matches(msg, keys.Restore):
		deviceID, deviceName := "", "the active device"
		if d := m.devicesView.Selected(m.devices); d != nil {
			deviceID, deviceName = d.ID, d.Name
		}
		return m, m.mutate(fmt.Sprintf("Restored slot %d on %s", slot, deviceName), func(ctx context.Context, s Service) error {
			_, err := s.RestoreFromPlayerState(ctx, slot, deviceID)
			return err
		})
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

	// Left: Slots. Right: Slot detail (top), Devices (bottom)
	leftWidth := m.width * 55 / 100
	rightWidth := m.width - leftWidth - 2
	mainHeight := m.height - 3
	topHeight := mainHeight * 55 / 100
	bottomHeight := mainHeight - topHeight - 2

	slotsView := m.slotsView.Render(m.snapshots, leftWidth-2, mainHeight, m.focusedPanel == PanelSlots, m.pendingDelete)
	detailView := m.detailView.Render(m.slotsView.Selected(m.snapshots), rightWidth-2, topHeight)
	devicesView := m.devicesView.Render(m.devices, rightWidth-2, bottomHeight, m.focusedPanel == PanelDevices)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, detailView, devicesView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, slotsView, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render(shortHelp(keys.Quit, keys.Help, keys.Save, keys.Restore, keys.Update, keys.Delete, keys.Tab))

	switch {
	case m.lastError != nil:
		status = styles.Danger.Render("Error: " + m.lastError.Error())
		if suggestion := cerrors.GetSuggestion(m.lastError); suggestion != "" {
			status += styles.Dim.Render("  " + suggestion)
		}
	case m.notice != "":
		status = styles.Notice.Render(m.notice)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func shortHelp(bindings ...key.Binding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Help().Key + ":" + b.Help().Desc
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderHelp() string {
	title := "Cassette - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  Tab          Switch panel
  R            Refresh
  s            Save current playback to a new slot

  Slots Panel
  ───────────
  j/↓          Select next
  k/↑          Select previous
  Enter, r     Restore on the selected device
  u            Overwrite with current playback
  d d          Delete (press twice)

  Devices Panel
  ─────────────
  j/↓          Select next
  k/↑          Select previous

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI application
func Run(service Service, refreshRate time.Duration, defaultDevice string) error {
	model := NewModel(NewApp(service, refreshRate, defaultDevice))
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
