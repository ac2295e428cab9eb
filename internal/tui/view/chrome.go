package view

import (
	"fmt"
	"strings"

	"github.com/glabrego/deploytidy/internal/settings"
	tuitheme "github.com/glabrego/deploytidy/internal/tui/theme"
)

func Toolbar(showHelp bool) string {
	if showHelp {
		return "esc/?: close help | q: quit"
	}
	return "j/k move | space toggle | +/- limit | e power | R reset | ? help | q quit"
}

func Footer(s settings.Snapshot, th tuitheme.Theme) string {
	power := "off"
	if s.Enabled {
		power = "on"
	}
	hidden := 0
	for _, f := range settings.Fields() {
		if f.Kind == settings.FieldBool && f.Key != settings.KeyEnabled && s.Bool(f.Key) {
			hidden++
		}
	}
	parts := []string{
		th.MetaLabel.Render("power") + " " + th.MetaValue.Render(power),
		th.MetaLabel.Render("options on") + " " + th.MetaValue.Render(fmt.Sprintf("%d", hidden)),
		th.MetaLabel.Render("load more limit") + " " + th.MetaValue.Render(fmt.Sprintf("%d", s.ExpansionLimit)),
	}
	return strings.Join(parts, " • ")
}

func Message(saving bool, hasWarning bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if saving {
		state = "saving"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "saving":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

func HelpLines() []string {
	return []string{
		"Navigation:",
		"  j/k or arrows move between options",
		"Options:",
		"  space/enter toggles the selected option, e toggles the power switch",
		"Load more limit:",
		fmt.Sprintf("  +/- or left/right adjust, digits type a value, enter commits (%d-%d)",
			settings.MinExpansionLimit, settings.MaxExpansionLimit),
		"Other:",
		"  R resets every option to its default",
	}
}
