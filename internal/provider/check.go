package provider

import "fmt"

// ProblemKind classifies a Check finding.
type ProblemKind int

const (
	// Unchecked rules declare no example URL.
	Unchecked ProblemKind = iota
	// Unmatched examples are claimed by no rule at all.
	Unmatched
	// Shadowed examples are claimed by an earlier rule.
	Shadowed
)

func (k ProblemKind) String() string {
	switch k {
	case Unchecked:
		return "unchecked"
	case Unmatched:
		return "unmatched"
	case Shadowed:
		return "shadowed"
	default:
		return "unknown"
	}
}

// Problem is one Check finding.
type Problem struct {
	Kind  ProblemKind
	Index int
	Title string
	By    string // title of the rule that claimed the example, for Shadowed
}

func (p Problem) String() string {
	switch p.Kind {
	case Shadowed:
		return fmt.Sprintf("#%d %s: example is claimed by %q", p.Index, p.Title, p.By)
	case Unmatched:
		return fmt.Sprintf("#%d %s: example matches no rule", p.Index, p.Title)
	default:
		return fmt.Sprintf("#%d %s: no example URL", p.Index, p.Title)
	}
}

// Check runs every rule's example URL through the matcher and reports the
// examples that do not land on their own rule. Because the first match wins,
// a new rule can silently shadow a later one; this is how that shows up.
func (t *Table) Check() []Problem {
	var problems []Problem
	for i, r := range t.rules {
		if r.Example == "" {
			problems = append(problems, Problem{Kind: Unchecked, Index: i, Title: r.Title})
			continue
		}

		m, ok := t.Match(r.Example)
		switch {
		case !ok:
			problems = append(problems, Problem{Kind: Unmatched, Index: i, Title: r.Title})
		case m.Index != i:
			problems = append(problems, Problem{Kind: Shadowed, Index: i, Title: r.Title, By: m.Rule.Title})
		}
	}
	return problems
}
