package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"autoembed/internal/provider"
)

var testSummaries = []provider.Summary{
	{Index: 0, Title: "YouTube", Website: "http://www.youtube.com", Width: 425, Height: 344},
	{Index: 6, Title: "Ted.com", Website: "http://www.ted.com", NeedsFetch: true, Width: 446, Height: 326},
}

func TestPrintPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintProviders(&buf, testSummaries); err != nil {
		t.Fatal(err)
	}

	want := "0\tYouTube\thttp://www.youtube.com\t-\t425x344\n" +
		"6\tTed.com\thttp://www.ted.com\tyes\t446x326\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestProviderTable(t *testing.T) {
	out := ProviderTable(testSummaries, 0)
	for _, want := range []string{"PROVIDER", "YouTube", "Ted.com", "446x326", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("table is missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines < 5 {
		t.Errorf("table has %d lines, want a header, two rows and borders:\n%s", lines, out)
	}
}

func TestDescribe(t *testing.T) {
	got := Describe(testSummaries[1])
	for _, want := range []string{"Ted.com (#6)", "website: http://www.ted.com", "fetch:   true"} {
		if !strings.Contains(got, want) {
			t.Errorf("description is missing %q:\n%s", want, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
	if Width(&bytes.Buffer{}) != defaultWidth {
		t.Error("non-terminal width should fall back to the default")
	}
}

func update(t *testing.T, m tea.Model, msg tea.Msg) (browser, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	b, ok := next.(browser)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return b, cmd
}

func TestBrowserSelect(t *testing.T) {
	b, _ := update(t, newBrowser(testSummaries), tea.WindowSizeMsg{Width: 80, Height: 24})
	b, _ = update(t, b, tea.KeyMsg{Type: tea.KeyDown})
	b, cmd := update(t, b, tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("enter should quit")
	}
	if b.chosen == nil || b.chosen.Title != "Ted.com" {
		t.Fatalf("chosen = %+v, want Ted.com", b.chosen)
	}
	if !strings.Contains(b.View(), "Providers (2)") {
		t.Errorf("view is missing the title:\n%s", b.View())
	}
}

func TestBrowserQuit(t *testing.T) {
	b, cmd := update(t, newBrowser(testSummaries), tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if b.chosen != nil {
		t.Errorf("nothing should be chosen, got %+v", b.chosen)
	}
}

func TestBrowseEmpty(t *testing.T) {
	if _, _, err := Browse(nil, strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("browsing no providers should fail")
	}
}
