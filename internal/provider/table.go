package provider

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed providers.toml
var builtinTOML []byte

// Table is an ordered, read-only list of rules. It is safe for concurrent use.
type Table struct {
	rules []Rule
}

// Match is the outcome of a successful lookup.
type Match struct {
	Rule     Rule
	Index    int      // position of Rule in the table
	Captures []string // whole match first, then the groups
}

type tableFile struct {
	Providers []Rule `toml:"provider"`
}

var builtin = sync.OnceValue(func() *Table {
	return MustParse(builtinTOML)
})

// Builtin returns the table shipped with the binary.
func Builtin() *Table {
	return builtin()
}

// Parse decodes a TOML document of [[provider]] entries and compiles it.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing provider table: %w", err)
	}

	rules := make([]Rule, 0, len(f.Providers))
	for i, r := range f.Providers {
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("provider %d (%q): %w", i, r.Title, err)
		}
		rules = append(rules, r)
	}
	return &Table{rules: rules}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadFile reads a provider table from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Merge returns a new table with front's rules ahead of t's, so they win
// when both match.
func (t *Table) Merge(front *Table) *Table {
	rules := make([]Rule, 0, len(front.rules)+len(t.rules))
	rules = append(rules, front.rules...)
	rules = append(rules, t.rules...)
	return &Table{rules: rules}
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the rules in match order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the first rule whose url pattern matches rawURL.
func (t *Table) Match(rawURL string) (Match, bool) {
	return t.MatchFunc(rawURL, nil)
}

// MatchFunc is like Match but skips rules for which keep returns false.
// A nil keep considers every rule.
func (t *Table) MatchFunc(rawURL string, keep func(Rule) bool) (Match, bool) {
	for i, r := range t.rules {
		if keep != nil && !keep(r) {
			continue
		}
		if captures := r.MatchURL(rawURL); captures != nil {
			return Match{Rule: r, Index: i, Captures: captures}, true
		}
	}
	return Match{}, false
}

// Lookup finds a rule by title, ignoring case. The first rule wins when
// titles repeat.
func (t *Table) Lookup(title string) (Rule, bool) {
	for _, r := range t.rules {
		if strings.EqualFold(r.Title, title) {
			return r, true
		}
	}
	return Rule{}, false
}

// Filter returns the rules whose title or website contains query, ignoring
// case. An empty query returns every rule.
func (t *Table) Filter(query string) []Rule {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return t.Rules()
	}

	var out []Rule
	for _, r := range t.rules {
		if strings.Contains(strings.ToLower(r.Title), query) ||
			strings.Contains(strings.ToLower(r.Website), query) {
			out = append(out, r)
		}
	}
	return out
}

// Summary describes a rule for listings.
type Summary struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Website    string `json:"website,omitempty"`
	Example    string `json:"example,omitempty"`
	NeedsFetch bool   `json:"needs_fetch"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// Summaries returns a summary of every rule Filter(query) would return,
// keeping each rule's position in the table.
func (t *Table) Summaries(query string) []Summary {
	query = strings.ToLower(strings.TrimSpace(query))

	out := []Summary{}
	for i, r := range t.rules {
		if query != "" &&
			!strings.Contains(strings.ToLower(r.Title), query) &&
			!strings.Contains(strings.ToLower(r.Website), query) {
			continue
		}
		out = append(out, Summary{
			Index:      i,
			Title:      r.Title,
			Website:    r.Website,
			Example:    r.Example,
			NeedsFetch: r.NeedsFetch(),
			Width:      r.Width,
			Height:     r.Height,
		})
	}
	return out
}
