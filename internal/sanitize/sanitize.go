// Package sanitize strips terminal escape sequences and control characters
// from session-supplied text before it reaches a terminal or a notification
// payload. Hook payloads arrive from an external process and may embed
// anything, including the mouse-report bursts terminals emit into stdin.
package sanitize

import "regexp"

var escapePatterns = []*regexp.Regexp{
	// CSI, including SGR mouse reports
	regexp.MustCompile(`\x1b\[[<>?=]?[0-9;]*[A-Za-z@^` + "`" + `~{|}!]`),
	// OSC, BEL- or ST-terminated
	regexp.MustCompile(`\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`),
	// charset selection
	regexp.MustCompile(`\x1b[()][AB012]`),
	// mouse reports that lost their leading ESC
	regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`),
}

// StripEscapes removes escape sequences and leaves every other rune alone.
func StripEscapes(s string) string {
	for _, p := range escapePatterns {
		s = p.ReplaceAllString(s, "")
	}
	return s
}

// Text cleans multi-line display text. Escape sequences and control
// characters are removed; newlines survive.
func Text(s string) string {
	return clean(s, true)
}

// Line cleans single-line display text. Newlines become spaces, every other
// control character is removed.
func Line(s string) string {
	return clean(s, false)
}

func clean(s string, keepNewlines bool) string {
	if s == "" {
		return s
	}
	// Escapes first: dropping the ESC rune alone would leave the sequence
	// tail visible as ordinary text.
	s = StripEscapes(s)
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == '\n' && keepNewlines:
			out = append(out, r)
		case r == '\n':
			out = append(out, ' ')
		case r < 32 || r == 127:
			// remaining C0 controls including tab, plus DEL
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
