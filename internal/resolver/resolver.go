// Package resolver expands modules into deduplicated dependency sets.
package resolver

import (
	"errors"
	"fmt"

	"github.com/modserve/modserve/internal/catalog"
	"github.com/modserve/modserve/internal/module"
)

// ErrFolderEmpty 表示文件夹下没有任何模块，边界层应映射为 404。
var ErrFolderEmpty = errors.New("folder contains no modules")

// UnresolvedReferenceError reports a dependency key that does not exist in
// the catalog. It maps to the `key_error` envelope at the HTTP boundary.
type UnresolvedReferenceError struct {
	Key string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved module reference: %s", e.Key)
}

// Resolver 基于 catalog 的当前模块图做纯函数式解析，无副作用。
type Resolver struct {
	catalog catalog.Catalog
}

// New 创建 Resolver；catalog 在进程内共享。
func New(cat catalog.Catalog) *Resolver {
	return &Resolver{catalog: cat}
}

// Resolve returns the transitive dependency closure of mod, including mod
// itself, each key appearing exactly once in breadth-first order.
func (r *Resolver) Resolve(mod module.Module) ([]module.Module, error) {
	seen := map[string]struct{}{mod.Key: {}}
	closure := []module.Module{mod}

	queue := append([]string(nil), mod.Dependencies...)
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		if _, ok := seen[key]; ok {
			continue
		}

		dep, ok := r.catalog.Find(key)
		if !ok {
			return nil, &UnresolvedReferenceError{Key: key}
		}
		seen[key] = struct{}{}
		closure = append(closure, dep)
		queue = append(queue, dep.Dependencies...)
	}

	return closure, nil
}

// ResolveFolder unions the dependency sets of every module under folderPath.
// Duplicate keys keep their first position while the last resolved entry
// wins, mirroring a key-indexed map merge. Returns ErrFolderEmpty when the
// folder enumerates no modules.
func (r *Resolver) ResolveFolder(folderPath string) ([]module.Module, error) {
	mods := r.catalog.InFolder(folderPath)
	if len(mods) == 0 {
		return nil, ErrFolderEmpty
	}

	position := map[string]int{}
	var union []module.Module
	for _, mod := range mods {
		deps, err := r.Resolve(mod)
		if err != nil {
			return nil, err
		}
		for _, dep := range deps {
			if idx, ok := position[dep.Key]; ok {
				union[idx] = dep
				continue
			}
			position[dep.Key] = len(union)
			union = append(union, dep)
		}
	}

	return union, nil
}
