package util

import "testing"

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "ready", 10, "ready"},
		{"exact", "ready", 5, "ready"},
		{"long", "listening on port 8080", 12, "listening..."},
		{"tiny limit", "ready", 3, "..."},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	colored := "\x1b[32mready\x1b[0m"

	if got := TruncateANSI(colored, 10); got != colored {
		t.Errorf("TruncateANSI kept width 5 string as %q", got)
	}
	if got := TruncateANSI("plain text here", 2); got != "..." {
		t.Errorf("TruncateANSI tiny limit = %q, want %q", got, "...")
	}
	got := TruncateANSI("\x1b[1mlistening on port\x1b[0m", 9)
	if StripANSI(got) != "listen..." {
		t.Errorf("TruncateANSI visible text = %q, want %q", StripANSI(got), "listen...")
	}
}

func TestStripANSI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"\x1b[31merror\x1b[0m: boom", "error: boom"},
		{"\x1b[2Kprogress \x1b[1m50%\x1b[0m", "progress 50%"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripANSI(tt.input); got != tt.want {
			t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
