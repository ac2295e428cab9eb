package state

import (
	"strconv"

	"github.com/glabrego/deploytidy/internal/settings"
)

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// StepLimit moves the expansion limit by delta, staying within bounds.
func StepLimit(current, delta int) int {
	return settings.ClampLimit(current + delta)
}

// maxLimitDigits is the width of settings.MaxExpansionLimit.
var maxLimitDigits = len(strconv.Itoa(settings.MaxExpansionLimit))

// AppendDigit extends a typed limit. Input that would grow past the widest
// valid limit restarts from the new digit.
func AppendDigit(input string, digit rune) string {
	if digit < '0' || digit > '9' {
		return input
	}
	if len(input) >= maxLimitDigits {
		return string(digit)
	}
	if input == "0" {
		return string(digit)
	}
	return input + string(digit)
}

// CommitLimit turns typed input into a limit, keeping current when nothing
// was typed.
func CommitLimit(input string, current int) int {
	if input == "" {
		return current
	}
	return settings.ClampLimit(input)
}
