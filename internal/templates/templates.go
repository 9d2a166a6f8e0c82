package templates

import (
	"bytes"
	"html/template"
	"net/http"
	"sync"

	"chessfront/internal/game"
)

var (
	mu        sync.RWMutex
	commit    = "dev"
	buildDate = ""
)

// SetCommit records the build shown in the page footer.
func SetCommit(c, date string) {
	mu.Lock()
	commit, buildDate = c, date
	mu.Unlock()
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>chessfront</title></head>
<body>
<table id="board" data-game="{{.State.ID}}">
{{- range $r, $row := .State.Cells}}
<tr>
{{- range $c, $cell := $row}}<td class="chess-cell" data-row="{{$r}}" data-col="{{$c}}">{{if $cell}}<span class="piece">{{$cell}}</span>{{end}}</td>{{end}}
</tr>
{{- end}}
</table>
<p id="status">{{.State.Turn}} to move{{if .State.Status}} · {{.State.Status}}{{end}}</p>
<footer>build {{.Commit}}{{if .BuildDate}} ({{.BuildDate}}){{end}}</footer>
</body></html>
`))

// RenderBoard renders the board page for a game state.
func RenderBoard(st game.State) ([]byte, error) {
	mu.RLock()
	data := struct {
		State     game.State
		Commit    string
		BuildDate string
	}{State: st, Commit: commit, BuildDate: buildDate}
	mu.RUnlock()

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteBoardHTML serves the board page.
func WriteBoardHTML(w http.ResponseWriter, st game.State) {
	body, err := RenderBoard(st)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
