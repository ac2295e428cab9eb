package view

import (
	"fmt"

	"github.com/glabrego/deploytidy/internal/settings"
	tuitheme "github.com/glabrego/deploytidy/internal/tui/theme"
)

type FieldLineParams struct {
	Field    settings.Field
	Snapshot settings.Snapshot
	Active   bool
	// LimitInput is a limit being typed but not yet committed.
	LimitInput string
}

func RenderFieldLine(p FieldLineParams, th tuitheme.Theme) string {
	cursor := " "
	if p.Active {
		cursor = ">"
	}
	powered := p.Snapshot.Enabled || p.Field.Key == settings.KeyEnabled

	var line string
	switch p.Field.Kind {
	case settings.FieldLimit:
		value := fmt.Sprintf("%d", p.Snapshot.ExpansionLimit)
		if p.LimitInput != "" {
			value = p.LimitInput + "_"
		}
		styled := th.Limit.Render(value)
		if !powered {
			styled = th.Disabled.Render(value)
		}
		line = fmt.Sprintf("%s     %s: %s", cursor, p.Field.Label, styled)
	default:
		line = fmt.Sprintf("%s %s %s", cursor, th.StyleToggle(p.Snapshot.Bool(p.Field.Key), powered), p.Field.Label)
	}
	return th.RenderActiveLine(p.Active, line)
}
