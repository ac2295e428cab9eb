package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestStyleToggle_ByState(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()

	on := th.StyleToggle(true, true)
	if !strings.Contains(on, "[x]") || !strings.Contains(on, "\x1b[") {
		t.Fatalf("expected styled checked box, got %q", on)
	}

	off := th.StyleToggle(false, true)
	if !strings.Contains(off, "[ ]") {
		t.Fatalf("expected empty box, got %q", off)
	}

	dimmed := th.StyleToggle(true, false)
	if !strings.Contains(dimmed, "[x]") || dimmed == on {
		t.Fatalf("expected dimmed checked box, got %q", dimmed)
	}
}

func TestRenderActiveLine(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI)
	th := Default()
	if got := th.RenderActiveLine(false, "plain"); got != "plain" {
		t.Fatalf("inactive line must be untouched, got %q", got)
	}
	if got := th.RenderActiveLine(true, "row"); !strings.Contains(got, "row") {
		t.Fatalf("expected active line to keep text, got %q", got)
	}
}
