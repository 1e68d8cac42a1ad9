package server

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/modserve/modserve/internal/artifact"
	"github.com/modserve/modserve/internal/catalog"
	"github.com/modserve/modserve/internal/editor"
	"github.com/modserve/modserve/internal/logging"
	"github.com/modserve/modserve/internal/module"
	"github.com/modserve/modserve/internal/render"
	"github.com/modserve/modserve/internal/resolver"
)

type handlers struct {
	logger   *logrus.Logger
	catalog  catalog.Catalog
	resolver *resolver.Resolver
	packager *artifact.Packager
	store    artifact.Store
	renderer render.Renderer
	editor   editor.Launcher
	verbose  bool
	stu3Base string
}

func (h *handlers) register(app *fiber.App) {
	app.Get("/", h.home)
	app.Get("/modules", h.listModules)
	app.Get("/modules/:module_key/download", h.moduleDownload)
	app.Get("/folders/:folder/download", h.folderDownload)
	app.Get("/download/:uuid", h.download)
	app.Get("/modules/:module_key/html", h.moduleHTML)
	app.Get("/modules/:module_key/edit", h.editModule)
}

func (h *handlers) home(c fiber.Ctx) error {
	return c.Redirect().To("/index.html")
}

type modulePayload struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Folder       string   `json:"folder,omitempty"`
	FilePath     string   `json:"file_path"`
	Dependencies []string `json:"dependencies"`
}

func (h *handlers) listModules(c fiber.Ctx) error {
	mods := h.catalog.Modules()
	payload := make([]modulePayload, 0, len(mods))
	for _, mod := range mods {
		payload = append(payload, modulePayload{
			Key:          mod.Key,
			Name:         mod.Name,
			Folder:       mod.Folder,
			FilePath:     mod.FilePath,
			Dependencies: append([]string(nil), mod.Dependencies...),
		})
	}
	return c.JSON(payload)
}

// moduleDownload 解析单个模块的依赖闭包并打包，成功时返回产物标识符。
func (h *handlers) moduleDownload(c fiber.Ctx) error {
	key := c.Params("module_key")
	mod, ok := h.catalog.Find(key)
	if !ok {
		return respondNotFound(c, "module_not_found")
	}

	set, err := h.resolver.Resolve(mod)
	if err != nil {
		return h.respondPackError(c, "module_request", key, err)
	}

	id, err := h.packager.Pack(requestContext(c), set)
	if err != nil {
		return h.respondPackError(c, "module_request", key, err)
	}

	h.logPackaged("module_request", key, id, c)
	return c.JSON(fiber.Map{"uuid": id})
}

// folderDownload 把连字符路由段还原为 / 分隔路径后做文件夹级打包。
func (h *handlers) folderDownload(c fiber.Ctx) error {
	folder := module.DecodeFolderKey(c.Params("folder"))

	set, err := h.resolver.ResolveFolder(folder)
	if err != nil {
		if errors.Is(err, resolver.ErrFolderEmpty) {
			return respondNotFound(c, "folder_not_found")
		}
		return h.respondPackError(c, "folder_request", folder, err)
	}

	id, err := h.packager.Pack(requestContext(c), set)
	if err != nil {
		return h.respondPackError(c, "folder_request", folder, err)
	}

	h.logPackaged("folder_request", folder, id, c)
	return c.JSON(fiber.Map{"uuid": id})
}

func (h *handlers) download(c fiber.Ctx) error {
	id := c.Params("uuid")

	data, err := h.store.Get(requestContext(c), id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return respondNotFound(c, "artifact_not_found")
		}
		h.logger.WithFields(logging.RequestFields("download", id, RequestID(c))).
			WithError(err).Error("artifact_get_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "artifact_get_failed"})
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename=modules.zip`)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(data)
}

func (h *handlers) moduleHTML(c fiber.Ctx) error {
	key := c.Params("module_key")
	mod, ok := h.catalog.Find(key)
	if !ok {
		return respondNotFound(c, "module_not_found")
	}

	body, err := h.renderer.Render(mod)
	if err != nil {
		h.logger.WithFields(logging.RequestFields("module_html", key, RequestID(c))).
			WithError(err).Warn("render_failed")
		if h.verbose {
			// 调试模式下直接把诊断信息作为页面返回
			return c.SendString(strings.Join(h.stacktrace(err), "\n"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "render_failed"})
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return respondNotFound(c, "module_empty")
	}

	if c.Query("stu3") != "" {
		return h.moduleSTU3(c, key, body)
	}

	c.Set(fiber.HeaderContentType, "text/html")
	return c.Send(body)
}

// moduleSTU3 把渲染结果中的表单片段抽出后，套入配置的 STU3 基础模板重渲染。
func (h *handlers) moduleSTU3(c fiber.Ctx, key string, body []byte) error {
	if h.stu3Base == "" {
		h.logger.WithFields(logging.RequestFields("module_html", key, RequestID(c))).
			Error("missing STU3Base setting")
		return respondNotFound(c, "stu3_unconfigured")
	}

	form, err := render.ExtractForm(body)
	if err != nil {
		h.logger.WithFields(logging.RequestFields("module_html", key, RequestID(c))).
			WithError(err).Error("stu3_extract_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stu3_extract_failed"})
	}

	out, err := render.RenderSTU3(h.stu3Base, form)
	if err != nil {
		h.logger.WithFields(logging.RequestFields("module_html", key, RequestID(c))).
			WithError(err).Error("stu3_render_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stu3_render_failed"})
	}

	c.Set(fiber.HeaderContentType, "text/html")
	return c.Send(out)
}

func (h *handlers) editModule(c fiber.Ctx) error {
	key := c.Params("module_key")
	mod, ok := h.catalog.Find(key)
	if !ok {
		return respondNotFound(c, "module_not_found")
	}

	if h.editor != nil {
		if err := h.editor.Launch(mod.FilePath); err != nil {
			// 打开编辑器是 best-effort，失败只记日志不影响响应
			h.logger.WithFields(logging.RequestFields("edit_module", key, RequestID(c))).
				WithError(err).Warn("editor_launch_failed")
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) logPackaged(action, requestKey, id string, c fiber.Ctx) {
	fields := logging.RequestFields(action, requestKey, RequestID(c))
	fields["uuid"] = id
	h.logger.WithFields(fields).Info("package_prepared")
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
