// Package views holds the embedded HTML templates and static assets rendered
// by the web front-end.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/example/celebrity-recognition/internal/recognition"
)

// Template names understood by Templates.
const (
	Index   = "index"
	Privacy = "privacy"
	Error   = "error"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// IndexModel is rendered by the landing page and after an upload.
type IndexModel struct {
	Submitted         bool
	Faces             []recognition.CelebrityFace
	UnrecognizedFaces int
	Message           string
}

// ErrorModel is rendered by the generic error page.
type ErrorModel struct {
	RequestID string
}

// ShowRequestID reports whether a request identifier is available.
func (m ErrorModel) ShowRequestID() bool {
	return m.RequestID != ""
}

var funcs = template.FuncMap{
	"confidence": func(v float32) string { return fmt.Sprintf("%.1f%%", v) },
	"ratio":      func(v float32) string { return fmt.Sprintf("%.1f%%", v*100) },
	"inc":        func(i int) int { return i + 1 },
}

// Templates parses every embedded page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded stylesheet.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
