package embed

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	placeholderPattern = regexp.MustCompile(`\$([0-9]+)`)

	// entityPattern matches a character reference at the start of a string.
	entityPattern = regexp.MustCompile(`^&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]+|#[xX][0-9A-Fa-f]+);`)
)

// expand replaces $N in tmpl with captures[N-1] in a single pass, so text
// coming from a capture is never substituted again. Placeholders past the
// last capture are left as they are.
func expand(tmpl string, captures []string) string {
	if tmpl == "" {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(ph string) string {
		n, err := strconv.Atoi(ph[1:])
		if err != nil || n < 1 || n > len(captures) {
			return ph
		}
		return captures[n-1]
	})
}

// escapeAttr escapes s for use inside a double- or single-quoted HTML
// attribute. Character references already present are kept, so escaping
// twice yields the same result.
func escapeAttr(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if loc := entityPattern.FindStringIndex(s[i:]); loc != nil {
				b.WriteString(s[i : i+loc[1]])
				i += loc[1] - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#039;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// StripNonPrintable drops every byte outside 0x20..0x7F, including line
// breaks and the bytes of multi-byte UTF-8 sequences. Fetch patterns are
// written against this flattened text.
func StripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 0x20 && c <= 0x7F {
			b.WriteByte(c)
		}
	}
	return b.String()
}
