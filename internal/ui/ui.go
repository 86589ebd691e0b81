// Package ui renders provider listings for the terminal: a styled table
// when stdout is a terminal, plain tab-separated lines otherwise, and an
// interactive browser.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"autoembed/internal/provider"
)

const defaultWidth = 100

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	fetchStyle  = cellStyle.Foreground(lipgloss.Color("203"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or a default when w is not a
// terminal.
func Width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

// PrintProviders writes summaries to w, styled when w is a terminal.
func PrintProviders(w io.Writer, summaries []provider.Summary) error {
	if !IsTerminal(w) {
		return PrintPlain(w, summaries)
	}
	_, err := fmt.Fprintln(w, ProviderTable(summaries, Width(w)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d providers", len(summaries))))
	return err
}

// PrintPlain writes one tab-separated line per summary: index, title,
// website, fetch flag and size.
func PrintPlain(w io.Writer, summaries []provider.Summary) error {
	for _, s := range summaries {
		_, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%dx%d\n",
			s.Index, s.Title, s.Website, fetchLabel(s.NeedsFetch), s.Width, s.Height)
		if err != nil {
			return err
		}
	}
	return nil
}

// ProviderTable renders summaries as a bordered table. A width of zero
// lets the table size itself.
func ProviderTable(summaries []provider.Summary, width int) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.Itoa(s.Index),
			s.Title,
			s.Website,
			fetchLabel(s.NeedsFetch),
			fmt.Sprintf("%dx%d", s.Width, s.Height),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("#", "PROVIDER", "WEBSITE", "FETCH", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 3 && row >= 0 && row < len(summaries) && summaries[row].NeedsFetch:
				return fetchStyle
			default:
				return cellStyle
			}
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.String()
}

func fetchLabel(fetch bool) string {
	if fetch {
		return "yes"
	}
	return "-"
}

// Describe formats one summary over several lines.
func Describe(s provider.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", s.Title, s.Index)
	if s.Website != "" {
		fmt.Fprintf(&b, "  website: %s\n", s.Website)
	}
	if s.Example != "" {
		fmt.Fprintf(&b, "  example: %s\n", s.Example)
	}
	fmt.Fprintf(&b, "  size:    %dx%d\n", s.Width, s.Height)
	fmt.Fprintf(&b, "  fetch:   %t\n", s.NeedsFetch)
	return b.String()
}
