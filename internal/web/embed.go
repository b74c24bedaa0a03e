package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var TemplatesFS embed.FS

//go:embed static
var StaticFS embed.FS

// Templates holds one independent template set per page. Pages redefine
// the same blocks, so they cannot share a namespace.
type Templates map[string]*template.Template

func (t Templates) ExecuteTemplate(w io.Writer, name string, data interface{}) error {
	tmpl, ok := t[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.Execute(w, data)
}

// LoadTemplates parses every page on top of the base layout.
func LoadTemplates() (Templates, error) {
	return loadTemplates(TemplatesFS)
}

func loadTemplates(fsys fs.FS) (Templates, error) {
	baseContent, err := fs.ReadFile(fsys, "templates/layouts/base.html")
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(fsys, "templates/pages")
	if err != nil {
		return nil, err
	}

	out := make(Templates, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pageContent, err := fs.ReadFile(fsys, "templates/pages/"+entry.Name())
		if err != nil {
			return nil, err
		}

		pageTmpl, err := template.New(entry.Name()).Parse(string(baseContent))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", entry.Name(), err)
		}
		if _, err := pageTmpl.Parse(string(pageContent)); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		out[entry.Name()] = pageTmpl
	}

	return out, nil
}

// GetStaticFS returns the static file system for serving static files
func GetStaticFS() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
