package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// SanitizeName makes a process name safe to print inside the table. Command
// names are chosen by whoever started the process, so escape sequences are
// stripped and remaining control characters become '?'.
func SanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '?'
		}
		return r
	}, ansi.Strip(s))
}

// fit returns s occupying exactly width cells. Longer strings are cut and
// end in tail; shorter ones are padded with spaces. Escape sequences do not
// count towards the width.
func fit(s string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if w := ansi.StringWidth(s); w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	return ansi.Truncate(s, width, tail)
}
