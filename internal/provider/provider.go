// Package provider holds the ordered table of embed rules and the matcher
// that picks the rule for a URL.
package provider

import (
	"fmt"
	"regexp"
	"strings"
)

// patternFlags makes every rule pattern case-insensitive and lets ^ and $
// match at line boundaries.
const patternFlags = "(?im)"

// Rule describes how to turn links to one hosting site into embed markup.
// Templates reference captures positionally: $1 is the whole match, $2 the
// first group, and so on.
type Rule struct {
	Title      string `toml:"title"`
	Website    string `toml:"website"`
	Example    string `toml:"example"`     // sample URL used by Table.Check
	URLMatch   string `toml:"url_match"`   // matched against the submitted URL
	FetchMatch string `toml:"fetch_match"` // matched against the fetched page, optional
	EmbedSrc   string `toml:"embed_src"`
	Flashvars  string `toml:"flashvars"`
	ImageSrc   string `toml:"image_src"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`

	urlRe   *regexp.Regexp
	fetchRe *regexp.Regexp
}

// NeedsFetch reports whether the media id has to be scraped from the page.
func (r Rule) NeedsFetch() bool {
	return r.fetchRe != nil
}

// MatchURL returns the captures of the url pattern against s, or nil.
func (r Rule) MatchURL(s string) []string {
	if r.urlRe == nil {
		return nil
	}
	return r.urlRe.FindStringSubmatch(s)
}

// MatchFetched returns the captures of the fetch pattern against page, or nil.
func (r Rule) MatchFetched(page string) []string {
	if r.fetchRe == nil {
		return nil
	}
	return r.fetchRe.FindStringSubmatch(page)
}

// compile validates the rule and compiles its patterns.
func (r *Rule) compile() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if r.URLMatch == "" {
		return fmt.Errorf("url_match cannot be empty")
	}
	if r.EmbedSrc == "" {
		return fmt.Errorf("embed_src cannot be empty")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", r.Width, r.Height)
	}

	re, err := regexp.Compile(patternFlags + r.URLMatch)
	if err != nil {
		return fmt.Errorf("compiling url_match: %w", err)
	}
	r.urlRe = re

	if r.FetchMatch != "" {
		re, err := regexp.Compile(patternFlags + r.FetchMatch)
		if err != nil {
			return fmt.Errorf("compiling fetch_match: %w", err)
		}
		r.fetchRe = re
	}

	return nil
}
