package logging

import "testing"

func TestNewLogger_NilConfigDefaults(t *testing.T) {
	logger := NewLogger(nil)
	if logger == nil {
		t.Fatal("expected a non-nil logger for a nil config")
	}
}

func TestNewLogger_Noop(t *testing.T) {
	logger := NewLogger(&Config{Style: StyleNoop})
	if logger == nil {
		t.Fatal("expected a non-nil no-op logger")
	}
}

func TestNewLogger_AllStyles(t *testing.T) {
	for _, style := range []Style{StyleTerminal, StyleJson, StyleLogfmt, StyleNoop} {
		logger := NewLogger(&Config{Style: style, Level: LevelDebug})
		if logger == nil {
			t.Errorf("NewLogger(%q) returned nil", style)
		}
	}
}

func TestFromStrings(t *testing.T) {
	cases := []struct {
		style string
		want  Style
	}{
		{"json", StyleJson},
		{"logfmt", StyleLogfmt},
		{"noop", StyleNoop},
		{"terminal", StyleTerminal},
		{"bogus", StyleTerminal},
		{"", StyleTerminal},
	}
	for _, c := range cases {
		got := FromStrings(c.style, "info")
		if got.Style != c.want {
			t.Errorf("FromStrings(%q).Style = %q, want %q", c.style, got.Style, c.want)
		}
		if got.Level != "info" {
			t.Errorf("FromStrings(%q).Level = %q, want %q", c.style, got.Level, "info")
		}
	}
}
