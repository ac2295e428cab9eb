package state

import "testing"

func TestClampCursor(t *testing.T) {
	if got := ClampCursor(-1, 3); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
	if got := ClampCursor(3, 3); got != 2 {
		t.Fatalf("expected clamp to 2, got %d", got)
	}
	if got := ClampCursor(1, 3); got != 1 {
		t.Fatalf("expected keep 1, got %d", got)
	}
	if got := ClampCursor(4, 0); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
}

func TestStepLimit(t *testing.T) {
	if got := StepLimit(3, 1); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := StepLimit(1, -1); got != 1 {
		t.Fatalf("expected lower bound 1, got %d", got)
	}
	if got := StepLimit(99, 1); got != 99 {
		t.Fatalf("expected upper bound 99, got %d", got)
	}
}

func TestAppendDigit(t *testing.T) {
	input := ""
	for _, r := range "42" {
		input = AppendDigit(input, r)
	}
	if input != "42" {
		t.Fatalf("expected 42, got %q", input)
	}
	if got := AppendDigit(input, '7'); got != "7" {
		t.Fatalf("expected restart at 7, got %q", got)
	}
	if got := AppendDigit("0", '5'); got != "5" {
		t.Fatalf("expected leading zero dropped, got %q", got)
	}
	if got := AppendDigit("4", 'x'); got != "4" {
		t.Fatalf("expected non-digit ignored, got %q", got)
	}
}

func TestCommitLimit(t *testing.T) {
	if got := CommitLimit("", 3); got != 3 {
		t.Fatalf("expected unchanged limit, got %d", got)
	}
	if got := CommitLimit("0", 3); got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}
	if got := CommitLimit("25", 3); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}
