// Package embed resolves links to supported hosting sites into legacy
// <object> embed markup.
package embed

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"autoembed/internal/provider"
)

const (
	flashType   = "application/x-shockwave-flash"
	pluginsPage = "http://www.macromedia.com/go/getflashplayer"
)

// Attr is a single name/value pair of the object tag or of a <param>.
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Embed is the result of a successful resolution. Values are stored
// unescaped; HTML escapes them on output.
type Embed struct {
	rule     provider.Rule
	captures []string
	attribs  []Attr
	params   []Attr
}

func newEmbed(rule provider.Rule, captures []string) *Embed {
	source := expand(rule.EmbedSrc, captures)

	return &Embed{
		rule:     rule,
		captures: captures,
		params: []Attr{
			{"movie", source},
			{"quality", "high"},
			{"allowFullScreen", "true"},
			{"allowScriptAccess", "always"},
			{"pluginspage", pluginsPage},
			{"autoplay", "false"},
			{"autostart", "false"},
			{"flashvars", expand(rule.Flashvars, captures)},
		},
		attribs: []Attr{
			{"type", flashType},
			{"data", source},
			{"width", strconv.Itoa(rule.Width)},
			{"height", strconv.Itoa(rule.Height)},
		},
	}
}

// Rule returns the rule that produced the embed.
func (e *Embed) Rule() provider.Rule {
	if e == nil {
		return provider.Rule{}
	}
	return e.rule
}

// Captures returns the captures the templates were filled from: the whole
// match first, then the groups.
func (e *Embed) Captures() []string {
	if e == nil {
		return nil
	}
	return slices.Clone(e.captures)
}

// Source returns the current movie URL.
func (e *Embed) Source() string {
	if e == nil {
		return ""
	}
	v, _ := get(e.params, "movie")
	return v
}

// ObjectParams returns the <param> values in output order.
func (e *Embed) ObjectParams() []Attr {
	if e == nil {
		return nil
	}
	return slices.Clone(e.params)
}

// ObjectAttribs returns the object tag attributes in output order.
func (e *Embed) ObjectAttribs() []Attr {
	if e == nil {
		return nil
	}
	return slices.Clone(e.attribs)
}

// ImageURL returns the thumbnail URL, if the rule defines one.
func (e *Embed) ImageURL() (string, bool) {
	if e == nil || e.rule.ImageSrc == "" {
		return "", false
	}
	return expand(e.rule.ImageSrc, e.captures), true
}

// SetWidth overrides the width attribute. It reports false on an
// unresolved embed.
func (e *Embed) SetWidth(width string) bool {
	return e.SetAttrib("width", width)
}

// SetHeight overrides the height attribute. It reports false on an
// unresolved embed.
func (e *Embed) SetHeight(height string) bool {
	return e.SetAttrib("height", height)
}

// SetParam overrides a single <param> value.
func (e *Embed) SetParam(name, value string) bool {
	if e == nil || e.params == nil {
		return false
	}
	e.params = set(e.params, name, value)
	return true
}

// SetParams overrides several <param> values. New names are appended in
// sorted order.
func (e *Embed) SetParams(values map[string]string) bool {
	if e == nil || e.params == nil {
		return false
	}
	for _, name := range sortedKeys(values) {
		e.params = set(e.params, name, values[name])
	}
	return true
}

// SetAttrib overrides a single object tag attribute.
func (e *Embed) SetAttrib(name, value string) bool {
	if e == nil || e.attribs == nil {
		return false
	}
	e.attribs = set(e.attribs, name, value)
	return true
}

// SetAttribs overrides several object tag attributes. New names are
// appended in sorted order.
func (e *Embed) SetAttribs(values map[string]string) bool {
	if e == nil || e.attribs == nil {
		return false
	}
	for _, name := range sortedKeys(values) {
		e.attribs = set(e.attribs, name, values[name])
	}
	return true
}

// HTML renders the object tag. An empty flashvars param is left out.
func (e *Embed) HTML() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("<object")
	for _, a := range e.attribs {
		b.WriteString(" ")
		b.WriteString(escapeAttr(a.Name))
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	for _, p := range e.params {
		if p.Name == "flashvars" && p.Value == "" {
			continue
		}
		b.WriteString(`<param name="`)
		b.WriteString(escapeAttr(p.Name))
		b.WriteString(`" value="`)
		b.WriteString(escapeAttr(p.Value))
		b.WriteString(`" />`)
	}
	b.WriteString("</object>")
	return b.String()
}

func get(attrs []Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// set replaces name in place or appends it.
func set(attrs []Attr, name, value string) []Attr {
	for i := range attrs {
		if attrs[i].Name == name {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, Attr{Name: name, Value: value})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is the JSON form of an embed.
type Document struct {
	Provider string `json:"provider"`
	Website  string `json:"website,omitempty"`
	Source   string `json:"source"`
	Image    string `json:"image,omitempty"`
	HTML     string `json:"html"`
	Attribs  []Attr `json:"attribs"`
	Params   []Attr `json:"params"`
}

// Document returns a snapshot of e for encoding.
func (e *Embed) Document() Document {
	if e == nil {
		return Document{}
	}
	image, _ := e.ImageURL()
	return Document{
		Provider: e.rule.Title,
		Website:  e.rule.Website,
		Source:   e.Source(),
		Image:    image,
		HTML:     e.HTML(),
		Attribs:  e.ObjectAttribs(),
		Params:   e.ObjectParams(),
	}
}
