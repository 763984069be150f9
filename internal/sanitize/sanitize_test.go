package sanitize

import (
	"strings"
	"testing"
)

func TestStripEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "ansi color",
			input: "\x1b[31mred text\x1b[0m",
			want:  "red text",
		},
		{
			name:  "osc window title",
			input: "\x1b]0;My Title\x07text",
			want:  "text",
		},
		{
			name:  "osc hyperlink",
			input: "\x1b]8;;http://example.com\x07link\x1b]8;;\x07",
			want:  "link",
		},
		{
			name:  "charset selection",
			input: "\x1b(Btext",
			want:  "text",
		},
		{
			name:  "orphaned mouse reports",
			input: "[<65;113;33M[<65;113;33Mtext",
			want:  "text",
		},
		{
			name:  "mouse scroll burst",
			input: strings.Repeat("\x1b[<65;113;33M", 26) + "user reply",
			want:  "user reply",
		},
		{
			name:  "plain text unchanged",
			input: "Hello, World!",
			want:  "Hello, World!",
		},
		{
			name:  "unicode preserved",
			input: "日本語テスト",
			want:  "日本語テスト",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripEscapes(tt.input); got != tt.want {
				t.Errorf("StripEscapes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "newlines become spaces",
			input: "Allow Bash\nto run?",
			want:  "Allow Bash to run?",
		},
		{
			name:  "tabs dropped",
			input: "col1\tcol2",
			want:  "col1col2",
		},
		{
			name:  "control characters dropped",
			input: "a\x00b\x1fc\x7fd",
			want:  "abcd",
		},
		{
			name:  "escapes removed before control filtering",
			input: "\x1b[31mAllow?\x1b[0m",
			want:  "Allow?",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.input); got != tt.want {
				t.Errorf("Line(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "newlines survive",
			input: "line1\nline2",
			want:  "line1\nline2",
		},
		{
			name:  "carriage returns dropped",
			input: "line1\r\nline2",
			want:  "line1\nline2",
		},
		{
			name:  "osc with string terminator",
			input: "\x1b]2;Title\x1b\\body",
			want:  "body",
		},
		{
			name:  "unicode with newlines preserved",
			input: "日本語\n中文",
			want:  "日本語\n中文",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
