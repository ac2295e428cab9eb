package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/deploytidy/internal/settings"
)

type fakeService struct {
	stored    settings.Snapshot
	updates   []string
	updateErr error
	resetErr  error
}

func (f *fakeService) LoadSettings(context.Context) settings.Snapshot {
	return f.stored
}

func (f *fakeService) UpdateSetting(_ context.Context, key string, value any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, key)
	f.stored = f.stored.Merge(map[string]any{key: value})
	return nil
}

func (f *fakeService) ResetSettings(context.Context) (settings.Snapshot, error) {
	if f.resetErr != nil {
		return settings.Snapshot{}, f.resetErr
	}
	f.stored = settings.Defaults()
	return f.stored, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// settle runs cmd and feeds its message back into the model.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected command")
	}
	model, _ := press(t, m, cmd())
	return model
}

func TestModelInit_LoadsStoredSettings(t *testing.T) {
	stored := settings.Defaults()
	stored.HideFailedDeployments = true
	svc := &fakeService{stored: stored}

	m := NewModel(svc, settings.Defaults())
	if !strings.Contains(m.View(), "Loading settings") {
		t.Fatalf("expected loading view, got: %s", m.View())
	}
	m = settle(t, m, m.Init())
	if !m.Snapshot().HideFailedDeployments {
		t.Fatal("expected stored settings after load")
	}
	if strings.Contains(m.View(), "Loading settings") {
		t.Fatal("expected loading view to clear")
	}
}

func TestModelUpdate_NavigateClampsCursor(t *testing.T) {
	m := NewModel(nil, settings.Defaults())

	m, _ = press(t, m, runes("k"))
	if m.cursor != 0 {
		t.Fatalf("expected cursor clamped at 0, got %d", m.cursor)
	}
	for i := 0; i < 20; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != len(m.fields)-1 {
		t.Fatalf("expected cursor on last field, got %d", m.cursor)
	}
}

func TestModelUpdate_TogglePersistsAndBroadcasts(t *testing.T) {
	svc := &fakeService{stored: settings.Defaults()}
	m := NewModel(svc, settings.Defaults())
	m.loading = false

	m, _ = press(t, m, runes("j"))
	m, cmd := press(t, m, runes(" "))
	if !m.Snapshot().HideSuccessfulDeployments {
		t.Fatal("expected toggle to apply locally before save")
	}
	if m.saving != 1 {
		t.Fatalf("expected one pending save, got %d", m.saving)
	}

	m = settle(t, m, cmd)
	if m.saving != 0 {
		t.Fatalf("expected save to finish, got %d pending", m.saving)
	}
	if len(svc.updates) != 1 || svc.updates[0] != settings.KeyHideSuccessfulDeployments {
		t.Fatalf("unexpected updates: %v", svc.updates)
	}
	if !strings.Contains(m.status, "Hide all successful deployments: on") {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestModelUpdate_PowerKeyWorksFromAnyField(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, runes("j"))

	m, _ = press(t, m, runes("e"))
	if m.Snapshot().Enabled {
		t.Fatal("expected power off")
	}
	if !m.Snapshot().HideOldSuccessfulDeployments {
		t.Fatal("power switch must not change other options")
	}
	if !strings.Contains(m.View(), "power off") {
		t.Fatalf("expected footer to show power off, got: %s", m.View())
	}
}

func TestModelUpdate_LimitStepsAndClamps(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	m.cursor = len(m.fields) - 1

	m, _ = press(t, m, runes("+"))
	if got := m.Snapshot().ExpansionLimit; got != 4 {
		t.Fatalf("expected limit 4, got %d", got)
	}
	for i := 0; i < 10; i++ {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if got := m.Snapshot().ExpansionLimit; got != settings.MinExpansionLimit {
		t.Fatalf("expected limit clamped to %d, got %d", settings.MinExpansionLimit, got)
	}
}

func TestModelUpdate_TypedLimitCommitsOnEnter(t *testing.T) {
	svc := &fakeService{stored: settings.Defaults()}
	m := NewModel(svc, settings.Defaults())
	m.loading = false
	m.cursor = len(m.fields) - 1

	m, _ = press(t, m, runes("1"))
	m, _ = press(t, m, runes("2"))
	if !strings.Contains(m.View(), "Load more limit: 12_") {
		t.Fatalf("expected pending input in view, got: %s", m.View())
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Snapshot().ExpansionLimit; got != 12 {
		t.Fatalf("expected limit 12, got %d", got)
	}
	m = settle(t, m, cmd)
	if svc.stored.ExpansionLimit != 12 {
		t.Fatalf("expected stored limit 12, got %d", svc.stored.ExpansionLimit)
	}
	if m.limitInput != "" {
		t.Fatalf("expected input cleared, got %q", m.limitInput)
	}
}

func TestModelUpdate_EscCancelsTypedLimit(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	m.cursor = len(m.fields) - 1

	m, _ = press(t, m, runes("9"))
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Snapshot().ExpansionLimit; got != 3 {
		t.Fatalf("expected limit unchanged, got %d", got)
	}
}

func TestModelUpdate_SaveErrorShowsWarning(t *testing.T) {
	svc := &fakeService{stored: settings.Defaults(), updateErr: errors.New("disk full")}
	m := NewModel(svc, settings.Defaults())
	m.loading = false

	m, cmd := press(t, m, runes(" "))
	m = settle(t, m, cmd)
	if m.err == nil {
		t.Fatal("expected save error")
	}
	view := m.View()
	if !strings.Contains(view, "warning") || !strings.Contains(view, "disk full") {
		t.Fatalf("expected warning in view, got: %s", view)
	}
}

func TestModelUpdate_ResetRestoresDefaults(t *testing.T) {
	stored := settings.Defaults()
	stored.Enabled = false
	stored.ExpansionLimit = 40
	svc := &fakeService{stored: stored}
	m := NewModel(svc, stored)
	m.loading = false

	m, cmd := press(t, m, runes("R"))
	m = settle(t, m, cmd)
	if m.Snapshot() != settings.Defaults() {
		t.Fatalf("expected defaults, got %+v", m.Snapshot())
	}
	if m.status != "Settings reset to defaults" {
		t.Fatalf("unexpected status: %q", m.status)
	}
}

func TestModelUpdate_StaleClearStatusIgnored(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	m, _ = press(t, m, runes(" "))
	m, _ = press(t, m, runes(" "))
	if m.statusID != 2 {
		t.Fatalf("expected two status updates, got %d", m.statusID)
	}

	m, _ = press(t, m, clearStatusMsg{id: 1})
	if m.status == "" {
		t.Fatal("stale clear must not drop the newer status")
	}
	m, _ = press(t, m, clearStatusMsg{id: 2})
	if m.status != "" {
		t.Fatalf("expected status cleared, got %q", m.status)
	}
}

func TestModelUpdate_HelpSwallowsEditKeys(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	m, _ = press(t, m, runes("?"))
	m, _ = press(t, m, runes(" "))
	if !m.Snapshot().Enabled {
		t.Fatal("expected edit keys ignored while help is open")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Fatal("expected esc to close help")
	}
}

func TestModelUpdate_Quit(t *testing.T) {
	m := NewModel(nil, settings.Defaults())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
