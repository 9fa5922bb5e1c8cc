package frontend

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// The embedded page is static HTML; these rewrites let every script and
// stylesheet tag pick up the request's CSP nonce at render time.
var (
	scriptTagRegex = regexp.MustCompile(`<script([^>]*)>`)
	styleTagRegex  = regexp.MustCompile(`<link([^>]*rel=["']stylesheet["'][^>]*)>`)
)

// LoadIndexTemplate parses the embedded analyzer page into a template
// with nonce placeholders injected into every script and stylesheet tag.
func LoadIndexTemplate() (*template.Template, error) {
	page, err := pageFS.ReadFile("index.html")
	if err != nil {
		return nil, fmt.Errorf("read index.html: %w", err)
	}

	tmpl, err := template.New("index").Parse(processHTMLForNonce(string(page)))
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	return tmpl, nil
}

func processHTMLForNonce(html string) string {
	html = scriptTagRegex.ReplaceAllString(html, `<script nonce="{{.Nonce}}"$1>`)
	return styleTagRegex.ReplaceAllString(html, `<link nonce="{{.Nonce}}"$1>`)
}

// RenderIndex executes the page template with the given nonce and writes
// it uncacheable, so each response carries a nonce matching its own CSP
// header.
func RenderIndex(c *gin.Context, tmpl *template.Template, nonce string) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]interface{}{"Nonce": nonce}); err != nil {
		return fmt.Errorf("render index template: %w", err)
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}
