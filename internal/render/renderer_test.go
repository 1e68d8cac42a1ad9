package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modserve/modserve/internal/module"
)

func testRenderer(t *testing.T, templates map[string]string) *TemplateRenderer {
	t.Helper()
	dir := t.TempDir()
	for name, content := range templates {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write template fixture: %v", err)
		}
	}
	r, err := NewTemplateRenderer(dir)
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}
	return r
}

func TestRenderModule(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"module.html": `<html><body><h1>{{.Name}}</h1><form id="{{.Key}}"></form></body></html>`,
	})

	body, err := r.Render(module.Module{Key: "patient-basic", Name: "Patient basic"})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(string(body), "<h1>Patient basic</h1>") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	r := testRenderer(t, map[string]string{
		"module.html": "<html></html>",
	})

	_, err := r.Render(module.Module{Key: "patient-basic", Template: "special.html"})

	var notFound *TemplateNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected TemplateNotFoundError, got %v", err)
	}
	if len(notFound.Templates) != 1 || notFound.Templates[0] != "special.html" {
		t.Fatalf("unexpected missing templates: %v", notFound.Templates)
	}
}

func TestExtractForm(t *testing.T) {
	body := []byte(`<html><body><div><form id="q"><input name="a"/></form></div><form id="second"></form></body></html>`)
	form, err := ExtractForm(body)
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if !strings.Contains(form, `id="q"`) {
		t.Fatalf("expected first form, got %s", form)
	}
	if strings.Contains(form, "second") {
		t.Fatalf("extraction must stop at the first form, got %s", form)
	}
}

func TestExtractFormAbsent(t *testing.T) {
	form, err := ExtractForm([]byte("<html><body><p>no forms</p></body></html>"))
	if err != nil {
		t.Fatalf("extract error: %v", err)
	}
	if form != "" {
		t.Fatalf("expected empty result, got %s", form)
	}
}

func TestRenderSTU3(t *testing.T) {
	out, err := RenderSTU3(`<html><body>{{.Module}}</body></html>`, `<form id="q"></form>`)
	if err != nil {
		t.Fatalf("stu3 render error: %v", err)
	}
	if !strings.Contains(string(out), `<form id="q"></form>`) {
		t.Fatalf("unexpected stu3 output: %s", out)
	}
}
