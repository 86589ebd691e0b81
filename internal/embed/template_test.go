package embed

import "testing"

func TestExpand(t *testing.T) {
	captures := []string{"http://x/v/abc", "abc", ""}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"whole match", "$1", "http://x/v/abc"},
		{"first group", "http://x/e/$2.swf", "http://x/e/abc.swf"},
		{"repeated", "$2-$2", "abc-abc"},
		{"empty optional group", "a$3b", "ab"},
		{"past last capture", "id=$4", "id=$4"},
		{"zero stays", "$0", "$0"},
		{"no placeholders", "plain", "plain"},
		{"empty template", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expand(tt.tmpl, captures); got != tt.want {
				t.Errorf("expand(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

// A capture that itself looks like a placeholder must not be expanded again.
func TestExpandSinglePass(t *testing.T) {
	got := expand("$2/$3", []string{"whole", "$3", "x"})
	if got != "$3/x" {
		t.Errorf("got %q, want %q", got, "$3/x")
	}
}

func TestEscapeAttr(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a&b", "a&amp;b"},
		{"a&amp;b", "a&amp;b"},
		{"&#039;&#x27;", "&#039;&#x27;"},
		{`"><script>`, "&quot;&gt;&lt;script&gt;"},
		{"it's", "it&#039;s"},
		{"&bogus", "&amp;bogus"},
		{"& ;", "&amp; ;"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeAttr(tt.input)
			if got != tt.expected {
				t.Errorf("escapeAttr(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if again := escapeAttr(got); again != got {
				t.Errorf("escaping twice changed %q to %q", got, again)
			}
		})
	}
}

func TestStripNonPrintable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"abc", "abc"},
		{"a\nb\r\tc", "abc"},
		{"café", "caf"},
		{"\x00\x1f \x7f", " \x7f"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := StripNonPrintable(tt.input); got != tt.expected {
				t.Errorf("StripNonPrintable(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
