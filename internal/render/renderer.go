// Package render turns modules into HTML through a shared template set.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/PuerkitoBio/goquery"

	"github.com/modserve/modserve/internal/module"
)

// DefaultTemplate is used when a module manifest declares no template.
const DefaultTemplate = "module.html"

// TemplateNotFoundError carries the names of templates the renderer could
// not locate. It maps to the `template_not_found` envelope at the boundary.
type TemplateNotFoundError struct {
	Templates []string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("templates not found: %s", strings.Join(e.Templates, ", "))
}

// Renderer 是打包与 HTML 视图共用的模板协作方接口。
type Renderer interface {
	Render(mod module.Module) ([]byte, error)
}

// TemplateRenderer renders modules with html/template files loaded from a
// templates directory at construction time.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every *.html file directly under templatesPath.
// A directory without templates is allowed; lookups fail per module instead.
func NewTemplateRenderer(templatesPath string) (*TemplateRenderer, error) {
	root := template.New("modserve")

	entries, err := os.ReadDir(templatesPath)
	if err != nil {
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		path := filepath.Join(templatesPath, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		if _, err := root.New(entry.Name()).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", path, err)
		}
	}

	return &TemplateRenderer{templates: root}, nil
}

// Render executes the module's template with the module as data.
func (r *TemplateRenderer) Render(mod module.Module) ([]byte, error) {
	name := mod.Template
	if name == "" {
		name = DefaultTemplate
	}

	tpl := r.templates.Lookup(name)
	if tpl == nil {
		return nil, &TemplateNotFoundError{Templates: []string{name}}
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, mod); err != nil {
		return nil, fmt.Errorf("render module %s: %w", mod.Key, err)
	}
	return buf.Bytes(), nil
}

// ExtractForm returns the outer HTML of the first <form> element in body,
// or an empty string when none exists.
func ExtractForm(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse rendered module: %w", err)
	}

	form := doc.Find("form").First()
	if form.Length() == 0 {
		return "", nil
	}
	return goquery.OuterHtml(form)
}

// RenderSTU3 renders the configured STU3 base template around an extracted
// form fragment. The fragment is injected as-is, matching the source
// behavior of re-rendering server-produced markup.
func RenderSTU3(base string, form string) ([]byte, error) {
	tpl, err := texttemplate.New("stu3").Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse stu3 base template: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]string{"Module": form}); err != nil {
		return nil, fmt.Errorf("render stu3 view: %w", err)
	}
	return buf.Bytes(), nil
}
