package embed

import (
	"context"
	"strings"
	"testing"
)

const youtubeURL = "http://www.youtube.com/watch?v=dQw4w9WgXcQ"

func resolveYouTube(t *testing.T) *Embed {
	t.Helper()
	e, err := NewResolver(nil).Resolve(context.Background(), youtubeURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return e
}

func TestHTML(t *testing.T) {
	e := resolveYouTube(t)

	want := `<object type="application/x-shockwave-flash" data="http://www.youtube.com/v/dQw4w9WgXcQ&amp;rel=0&amp;fs=1" width="425" height="344">` +
		`<param name="movie" value="http://www.youtube.com/v/dQw4w9WgXcQ&amp;rel=0&amp;fs=1" />` +
		`<param name="quality" value="high" />` +
		`<param name="allowFullScreen" value="true" />` +
		`<param name="allowScriptAccess" value="always" />` +
		`<param name="pluginspage" value="http://www.macromedia.com/go/getflashplayer" />` +
		`<param name="autoplay" value="false" />` +
		`<param name="autostart" value="false" />` +
		`</object>`

	if got := e.HTML(); got != want {
		t.Errorf("HTML mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestSourceAndImage(t *testing.T) {
	e := resolveYouTube(t)

	if got := e.Source(); got != "http://www.youtube.com/v/dQw4w9WgXcQ&rel=0&fs=1" {
		t.Errorf("Source = %q", got)
	}
	img, ok := e.ImageURL()
	if !ok || img != "http://img.youtube.com/vi/dQw4w9WgXcQ/0.jpg" {
		t.Errorf("ImageURL = %q, %v", img, ok)
	}
	if e.Rule().Title != "YouTube" {
		t.Errorf("Rule = %q", e.Rule().Title)
	}
	if c := e.Captures(); len(c) != 2 || c[1] != "dQw4w9WgXcQ" {
		t.Errorf("Captures = %v", c)
	}
}

func TestImageURLMissing(t *testing.T) {
	e, err := NewResolver(nil).Resolve(context.Background(), "http://vimeo.com/1084537")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.ImageURL(); ok {
		t.Error("Vimeo rule has no image template")
	}
}

func TestFlashvarsRendered(t *testing.T) {
	e := resolveYouTube(t)
	if !e.SetParam("flashvars", "a=1&b=2") {
		t.Fatal("SetParam failed")
	}
	html := e.HTML()
	if !strings.Contains(html, `<param name="flashvars" value="a=1&amp;b=2" /></object>`) {
		t.Errorf("flashvars missing: %s", html)
	}
}

func TestSetters(t *testing.T) {
	e := resolveYouTube(t)

	if !e.SetWidth("640") || !e.SetHeight("480") {
		t.Fatal("size setters failed")
	}
	if !e.SetAttribs(map[string]string{"id": "player", "class": "video"}) {
		t.Fatal("SetAttribs failed")
	}
	if !e.SetParams(map[string]string{"autoplay": "true", "wmode": "transparent"}) {
		t.Fatal("SetParams failed")
	}

	attribs := e.ObjectAttribs()
	wantAttribs := []string{"type", "data", "width", "height", "class", "id"}
	if len(attribs) != len(wantAttribs) {
		t.Fatalf("got %d attribs, want %d", len(attribs), len(wantAttribs))
	}
	for i, name := range wantAttribs {
		if attribs[i].Name != name {
			t.Errorf("attrib %d = %q, want %q", i, attribs[i].Name, name)
		}
	}
	if attribs[2].Value != "640" || attribs[3].Value != "480" {
		t.Errorf("size = %sx%s", attribs[2].Value, attribs[3].Value)
	}

	params := e.ObjectParams()
	if params[5].Name != "autoplay" || params[5].Value != "true" {
		t.Errorf("autoplay kept its position? got %+v", params[5])
	}
	if last := params[len(params)-1]; last.Name != "wmode" {
		t.Errorf("new param should be appended, got %+v", last)
	}

	html := e.HTML()
	if !strings.Contains(html, `width="640" height="480" class="video" id="player">`) {
		t.Errorf("unexpected tag: %s", html)
	}
}

func TestSettersBeforeMatch(t *testing.T) {
	var e *Embed
	if e.SetWidth("1") || e.SetHeight("1") {
		t.Error("size setters on a nil embed should fail")
	}
	if e.SetParam("a", "b") || e.SetParams(map[string]string{"a": "b"}) {
		t.Error("param setters on a nil embed should fail")
	}
	if e.SetAttrib("a", "b") || e.SetAttribs(map[string]string{"a": "b"}) {
		t.Error("attrib setters on a nil embed should fail")
	}
	if e.HTML() != "" {
		t.Error("nil embed should render nothing")
	}
	if _, ok := e.ImageURL(); ok {
		t.Error("nil embed has no image")
	}
	if e.Rule().Title != "" || e.Source() != "" || e.Captures() != nil {
		t.Error("nil embed has no rule, source or captures")
	}
	if e.ObjectParams() != nil || e.ObjectAttribs() != nil {
		t.Error("nil embed has no params or attribs")
	}
	if doc := e.Document(); doc.Provider != "" || doc.HTML != "" {
		t.Errorf("nil embed document = %+v", doc)
	}

	e = &Embed{}
	if e.SetParam("a", "b") || e.SetAttrib("a", "b") {
		t.Error("setters on a zero embed should fail")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	e := resolveYouTube(t)
	e.ObjectParams()[0].Value = "changed"
	e.ObjectAttribs()[0].Value = "changed"
	if e.Source() == "changed" || e.ObjectAttribs()[0].Value == "changed" {
		t.Error("accessors must not expose internal slices")
	}
}

func TestValuesAreEscaped(t *testing.T) {
	e := resolveYouTube(t)
	e.SetAttrib("title", `"><script>alert(1)</script>`)
	html := e.HTML()
	if strings.Contains(html, "<script>") {
		t.Errorf("unescaped value in %s", html)
	}
	if !strings.Contains(html, `title="&quot;&gt;&lt;script&gt;alert(1)&lt;/script&gt;"`) {
		t.Errorf("unexpected escaping: %s", html)
	}
}
