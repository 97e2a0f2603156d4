package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var files embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
	"add":   func(a, b int) int { return a + b },
	"lower": strings.ToLower,
}

// Pages holds one parsed template set per page, each combined with the
// shared layout.
type Pages struct {
	sets map[string]*template.Template
}

// Load parses every embedded page.
func Load() (*Pages, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	p := &Pages{sets: make(map[string]*template.Template)}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		set, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := set.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.sets[strings.TrimSuffix(path.Base(name), ".html")] = set
	}
	return p, nil
}

// MustLoad is Load for package-level wiring; embedded templates are fixed
// at build time.
func MustLoad() *Pages {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}

// Render writes page with data as the response body.
func (p *Pages) Render(c *fiber.Ctx, status int, page string, data any) error {
	set, ok := p.sets[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
