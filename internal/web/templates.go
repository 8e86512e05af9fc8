package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("pages").Funcs(template.FuncMap{
		"date":   formatDate,
		"rating": formatRating,
		"stars":  stars,
	}).ParseFS(templateFS, "templates/*.html"))
}

func formatDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

func formatRating(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
