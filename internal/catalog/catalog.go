// Package catalog discovers file-backed modules below a configured root.
//
// A module is declared by a `<name>.module.toml` manifest. The module key
// defaults to the manifest file name and must be unique across the whole
// tree; the folder is derived from the manifest's directory relative to the
// root.
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/modserve/modserve/internal/module"
)

const manifestSuffix = ".module.toml"

// Catalog 是发现协作方的只读视图：列举、按 key 查找、按文件夹枚举。
type Catalog interface {
	Modules() []module.Module
	Find(key string) (module.Module, bool)
	InFolder(path string) []module.Module
}

type manifest struct {
	Key          string   `mapstructure:"Key"`
	Name         string   `mapstructure:"Name"`
	Template     string   `mapstructure:"Template"`
	Dependencies []string `mapstructure:"Dependencies"`
}

type memoryCatalog struct {
	ordered []module.Module
	byKey   map[string]module.Module
}

// Load walks root and parses every module manifest it finds.
func Load(root string) (Catalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve modules root: %w", err)
	}

	var mods []module.Module
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), manifestSuffix) {
			return nil
		}
		mod, err := loadManifest(abs, path)
		if err != nil {
			return err
		}
		mods = append(mods, mod)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan modules root: %w", err)
	}

	return NewStatic(mods...)
}

// NewStatic builds a catalog from an in-memory module list. Used by Load and
// by tests that need a fake discovery collaborator.
func NewStatic(mods ...module.Module) (Catalog, error) {
	byKey := make(map[string]module.Module, len(mods))
	ordered := make([]module.Module, 0, len(mods))
	for _, mod := range mods {
		if mod.Key == "" {
			return nil, fmt.Errorf("module %q has no key", mod.Name)
		}
		if _, exists := byKey[mod.Key]; exists {
			return nil, fmt.Errorf("duplicate module key: %s", mod.Key)
		}
		byKey[mod.Key] = mod
		ordered = append(ordered, mod)
	}
	return &memoryCatalog{ordered: ordered, byKey: byKey}, nil
}

func loadManifest(root, path string) (module.Module, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return module.Module{}, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m manifest
	if err := v.Unmarshal(&m); err != nil {
		return module.Module{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	key := m.Key
	if key == "" {
		key = strings.TrimSuffix(filepath.Base(path), manifestSuffix)
	}

	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return module.Module{}, fmt.Errorf("relativize %s: %w", path, err)
	}
	folder := filepath.ToSlash(rel)
	if folder == "." {
		folder = ""
	}

	return module.Module{
		Key:          key,
		Name:         m.Name,
		Folder:       folder,
		FilePath:     path,
		Template:     m.Template,
		Dependencies: append([]string(nil), m.Dependencies...),
	}, nil
}

func (c *memoryCatalog) Modules() []module.Module {
	mods := append([]module.Module(nil), c.ordered...)
	sort.Slice(mods, func(i, j int) bool {
		return mods[i].Key < mods[j].Key
	})
	return mods
}

func (c *memoryCatalog) Find(key string) (module.Module, bool) {
	mod, ok := c.byKey[key]
	return mod, ok
}

func (c *memoryCatalog) InFolder(path string) []module.Module {
	var mods []module.Module
	for _, mod := range c.ordered {
		if mod.InFolder(path) {
			mods = append(mods, mod)
		}
	}
	return mods
}
