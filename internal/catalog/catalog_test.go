package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modserve/modserve/internal/module"
)

func writeManifest(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestLoadDiscoversManifests(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "patient/group/patient-basic.module.toml", `
Name = "Patient basic"
Template = "module.html"
Dependencies = ["patient-basic", "address-common"]
`)
	writeManifest(t, root, "address-common.module.toml", `
Key = "address-common"
Name = "Common address"
Template = "module.html"
`)

	cat, err := Load(root)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	mods := cat.Modules()
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(mods))
	}

	basic, ok := cat.Find("patient-basic")
	if !ok {
		t.Fatalf("expected patient-basic to be discovered via file name")
	}
	if basic.Folder != "patient/group" {
		t.Fatalf("unexpected folder: %s", basic.Folder)
	}
	if len(basic.Dependencies) != 2 {
		t.Fatalf("dependencies not parsed: %v", basic.Dependencies)
	}

	common, ok := cat.Find("address-common")
	if !ok || common.Folder != "" {
		t.Fatalf("expected top-level address-common, got %+v ok=%v", common, ok)
	}
}

func TestLoadRejectsDuplicateKeys(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "a/mod.module.toml", `Key = "dup"`+"\n")
	writeManifest(t, root, "b/mod.module.toml", `Key = "dup"`+"\n")

	if _, err := Load(root); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestInFolderEnumeration(t *testing.T) {
	cat, err := NewStatic(
		module.Module{Key: "patient-basic", Folder: "patient/group"},
		module.Module{Key: "patient-extended", Folder: "patient/group"},
		module.Module{Key: "address-common", Folder: "address"},
	)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}

	group := cat.InFolder("patient/group")
	if len(group) != 2 {
		t.Fatalf("expected 2 modules under patient/group, got %d", len(group))
	}
	if len(cat.InFolder("patient")) != 2 {
		t.Fatalf("parent folder should include nested modules")
	}
	if got := cat.InFolder("nothing/here"); len(got) != 0 {
		t.Fatalf("expected empty enumeration, got %d", len(got))
	}
}
