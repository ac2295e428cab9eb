package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/deploytidy/internal/settings"
	tuistate "github.com/glabrego/deploytidy/internal/tui/state"
	tuitheme "github.com/glabrego/deploytidy/internal/tui/theme"
	tuiview "github.com/glabrego/deploytidy/internal/tui/view"
)

type Service interface {
	LoadSettings(ctx context.Context) settings.Snapshot
	UpdateSetting(ctx context.Context, key string, value any) error
	ResetSettings(ctx context.Context) (settings.Snapshot, error)
}

type settingsLoadedMsg struct {
	snapshot settings.Snapshot
}

type settingSavedMsg struct {
	status string
}

type settingSaveErrorMsg struct {
	key string
	err error
}

type resetSuccessMsg struct {
	snapshot settings.Snapshot
}

type resetErrorMsg struct {
	err error
}

type clearStatusMsg struct {
	id int
}

const statusTTL = 3 * time.Second

// Model is the settings panel. Every edit is applied locally first, then
// persisted and broadcast by the service.
type Model struct {
	service    Service
	snapshot   settings.Snapshot
	fields     []settings.Field
	cursor     int
	limitInput string
	showHelp   bool
	width      int
	height     int
	loading    bool
	saving     int
	status     string
	statusID   int
	err        error
	theme      tuitheme.Theme
}

func NewModel(service Service, snapshot settings.Snapshot) Model {
	return Model{
		service:  service,
		snapshot: snapshot.Merge(nil),
		fields:   settings.Fields(),
		loading:  service != nil,
		theme:    tuitheme.Default(),
	}
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	return loadSettingsCmd(m.service)
}

// Snapshot is the settings record as currently shown.
func (m Model) Snapshot() settings.Snapshot {
	return m.snapshot
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case settingsLoadedMsg:
		m.loading = false
		m.snapshot = msg.snapshot
		return m, nil
	case settingSavedMsg:
		m.saving--
		return m.setStatus(msg.status)
	case settingSaveErrorMsg:
		m.saving--
		m.err = fmt.Errorf("save %s: %w", msg.key, msg.err)
		m.status = ""
		return m, nil
	case resetSuccessMsg:
		m.saving--
		m.snapshot = msg.snapshot
		m.limitInput = ""
		return m.setStatus("Settings reset to defaults")
	case resetErrorMsg:
		m.saving--
		m.err = msg.err
		m.status = ""
		return m, nil
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		if key.Matches(msg, keys.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	field := m.fields[m.cursor]
	onLimit := field.Kind == settings.FieldLimit
	if onLimit && len(msg.Runes) == 1 && msg.Runes[0] >= '0' && msg.Runes[0] <= '9' {
		m.limitInput = tuistate.AppendDigit(m.limitInput, msg.Runes[0])
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Up):
		return m.moveCursor(-1), nil
	case key.Matches(msg, keys.Down):
		return m.moveCursor(1), nil
	case key.Matches(msg, keys.Cancel):
		m.limitInput = ""
		return m, nil
	case key.Matches(msg, keys.Toggle):
		if onLimit {
			return m.setLimit(tuistate.CommitLimit(m.limitInput, m.snapshot.ExpansionLimit))
		}
		return m.toggle(field)
	case key.Matches(msg, keys.Power):
		return m.toggle(m.fields[0])
	case key.Matches(msg, keys.Increase) && onLimit:
		return m.setLimit(tuistate.StepLimit(m.snapshot.ExpansionLimit, 1))
	case key.Matches(msg, keys.Decrease) && onLimit:
		return m.setLimit(tuistate.StepLimit(m.snapshot.ExpansionLimit, -1))
	case key.Matches(msg, keys.Reset):
		return m.reset()
	}
	return m, nil
}

func (m Model) moveCursor(delta int) Model {
	m.cursor = tuistate.ClampCursor(m.cursor+delta, len(m.fields))
	m.limitInput = ""
	return m
}

func (m Model) toggle(field settings.Field) (tea.Model, tea.Cmd) {
	if field.Kind != settings.FieldBool {
		return m, nil
	}
	next := !m.snapshot.Bool(field.Key)
	m.snapshot = m.snapshot.Merge(map[string]any{field.Key: next})
	m.err = nil
	onOff := "off"
	if next {
		onOff = "on"
	}
	return m.persist(field.Key, next, fmt.Sprintf("%s: %s", field.Label, onOff))
}

func (m Model) setLimit(limit int) (tea.Model, tea.Cmd) {
	m.limitInput = ""
	if limit == m.snapshot.ExpansionLimit {
		return m, nil
	}
	m.snapshot = m.snapshot.Merge(map[string]any{settings.KeyExpansionLimit: limit})
	m.err = nil
	return m.persist(settings.KeyExpansionLimit, m.snapshot.ExpansionLimit,
		fmt.Sprintf("Load more limit: %d", m.snapshot.ExpansionLimit))
}

func (m Model) persist(key string, value any, status string) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m.setStatus(status)
	}
	m.saving++
	return m, updateSettingCmd(m.service, key, value, status)
}

func (m Model) reset() (tea.Model, tea.Cmd) {
	m.err = nil
	m.limitInput = ""
	if m.service == nil {
		m.snapshot = settings.Defaults()
		return m.setStatus("Settings reset to defaults")
	}
	m.saving++
	return m, resetSettingsCmd(m.service)
}

func (m Model) setStatus(status string) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status = status
	return m, clearStatusCmd(m.statusID, statusTTL)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("deploytidy settings"))
	b.WriteString("\n")
	b.WriteString(tuiview.Toolbar(m.showHelp))
	b.WriteString("\n\n")

	switch {
	case m.showHelp:
		b.WriteString(strings.Join(tuiview.HelpLines(), "\n"))
		b.WriteString("\n")
	case m.loading:
		b.WriteString("Loading settings...\n")
	default:
		b.WriteString(m.theme.Section.Render("Deployments"))
		b.WriteString("\n")
		for i, field := range m.fields {
			input := ""
			if i == m.cursor {
				input = m.limitInput
			}
			b.WriteString(tuiview.RenderFieldLine(tuiview.FieldLineParams{
				Field:      field,
				Snapshot:   m.snapshot,
				Active:     i == m.cursor,
				LimitInput: input,
			}, m.theme))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	b.WriteString(tuiview.Message(m.saving > 0, m.err != nil, m.status, warning, m.theme))
	b.WriteString("\n")
	b.WriteString(tuiview.Footer(m.snapshot, m.theme))
	b.WriteString("\n")
	return b.String()
}

func loadSettingsCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return settingsLoadedMsg{snapshot: service.LoadSettings(ctx)}
	}
}

func updateSettingCmd(service Service, key string, value any, status string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.UpdateSetting(ctx, key, value); err != nil {
			return settingSaveErrorMsg{key: key, err: err}
		}
		return settingSavedMsg{status: status}
	}
}

func resetSettingsCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		snapshot, err := service.ResetSettings(ctx)
		if err != nil {
			return resetErrorMsg{err: err}
		}
		return resetSuccessMsg{snapshot: snapshot}
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
