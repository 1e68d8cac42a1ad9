package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/modserve/modserve/internal/module"
	"github.com/modserve/modserve/internal/render"
)

// Packager 将依赖集渲染为单个 zip 产物并写入 Store。
type Packager struct {
	renderer render.Renderer
	store    Store
}

// NewPackager 创建 Packager；renderer 与 store 在进程内共享。
func NewPackager(renderer render.Renderer, store Store) *Packager {
	return &Packager{renderer: renderer, store: store}
}

// Pack renders every module in the set into a zip archive (one
// `<key>.html` entry per module) and stores the result under a fresh
// identifier. The archive is built completely before Put, so readers never
// observe a partial artifact and a canceled ctx aborts without storing.
//
// Missing templates are collected across the whole set and reported as one
// TemplateNotFoundError.
func (p *Packager) Pack(ctx context.Context, mods []module.Module) (string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	var missing []string
	seenMissing := map[string]struct{}{}
	for _, mod := range mods {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		body, err := p.renderer.Render(mod)
		if err != nil {
			var notFound *render.TemplateNotFoundError
			if errors.As(err, &notFound) {
				for _, name := range notFound.Templates {
					if _, ok := seenMissing[name]; ok {
						continue
					}
					seenMissing[name] = struct{}{}
					missing = append(missing, name)
				}
				continue
			}
			return "", fmt.Errorf("pack module %s: %w", mod.Key, err)
		}
		if len(missing) > 0 {
			continue
		}

		entry, err := zw.Create(mod.Key + ".html")
		if err != nil {
			return "", fmt.Errorf("create archive entry %s: %w", mod.Key, err)
		}
		if _, err := entry.Write(body); err != nil {
			return "", fmt.Errorf("write archive entry %s: %w", mod.Key, err)
		}
	}

	if len(missing) > 0 {
		return "", &render.TemplateNotFoundError{Templates: missing}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	return p.store.Put(ctx, buf.Bytes())
}
