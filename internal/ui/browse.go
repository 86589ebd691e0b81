package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"autoembed/internal/provider"
)

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type providerItem struct {
	s provider.Summary
}

func (i providerItem) Title() string { return i.s.Title }

func (i providerItem) Description() string {
	desc := i.s.Website
	if desc == "" {
		desc = "no website"
	}
	if i.s.NeedsFetch {
		desc += " · fetches page"
	}
	return desc
}

func (i providerItem) FilterValue() string { return i.s.Title + " " + i.s.Website }

// browser is the bubbletea model behind Browse.
type browser struct {
	list   list.Model
	chosen *provider.Summary
}

func newBrowser(summaries []provider.Summary) browser {
	items := make([]list.Item, len(summaries))
	for i, s := range summaries {
		items[i] = providerItem{s: s}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Providers (%d)", len(summaries))
	return browser{list: l}
}

func (b browser) Init() tea.Cmd {
	return nil
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		b.list.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c":
			return b, tea.Quit
		case "enter":
			if item, ok := b.list.SelectedItem().(providerItem); ok {
				s := item.s
				b.chosen = &s
			}
			return b, tea.Quit
		}
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b browser) View() string {
	return docStyle.Render(b.list.View())
}

// Browse lets the user pick a provider interactively. It reports false
// when the user quits without choosing.
func Browse(summaries []provider.Summary, in io.Reader, out io.Writer) (provider.Summary, bool, error) {
	if len(summaries) == 0 {
		return provider.Summary{}, false, fmt.Errorf("no providers to browse")
	}

	p := tea.NewProgram(newBrowser(summaries),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return provider.Summary{}, false, fmt.Errorf("running provider browser: %w", err)
	}

	b, ok := final.(browser)
	if !ok || b.chosen == nil {
		return provider.Summary{}, false, nil
	}
	return *b.chosen, true, nil
}
