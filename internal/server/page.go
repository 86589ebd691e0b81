package server

import (
	"bytes"
	"html/template"
	"net/http"
)

type indexLink struct {
	Name string
	Href string
}

type pageData struct {
	Title string
	Body  template.HTML
	URL   string
	Links []indexLink
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}} - autoembed</title>
<style>
body { font-family: sans-serif; max-width: 50em; margin: 2em auto; padding: 0 1em; }
.autoembed { margin: 1em 0; }
.source { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .URL}}<p class="source">{{.URL}}</p>{{end}}
{{.Body}}
{{if .Links}}<ul>
{{range .Links}}<li><a href="{{.Href}}">{{.Name}}</a></li>
{{end}}</ul>{{end}}
<script>
(function() {
  var socket = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  socket.onmessage = function(event) {
    if (event.data === "reload") {
      location.reload();
    }
  };
})();
</script>
</body>
</html>
`))

// renderPage writes a full preview page including the live-reload script.
func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.log.Error("rendering template", "error", err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
