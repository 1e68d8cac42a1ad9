package server

import (
	"errors"
	"runtime/debug"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/modserve/modserve/internal/logging"
	"github.com/modserve/modserve/internal/render"
	"github.com/modserve/modserve/internal/resolver"
)

// ErrorDetail 是带内错误信封的载荷。字段名与既有客户端约定保持一致。
type ErrorDetail struct {
	Stacktrace       []string `json:"stacktrace"`
	Type             string   `json:"type"`
	Request          string   `json:"request"`
	MissingKey       string   `json:"missing_key,omitempty"`
	MissingTemplates []string `json:"missing_templates,omitempty"`
}

// ErrorEnvelope 包装 ErrorDetail；打包失败统一以 200 + error 字段返回，
// 这是与既有客户端的显式兼容契约，而非 HTTP 语义错误。
type ErrorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// respondPackError converts resolution/templating failures into the in-band
// envelope. scope is "module_request" or "folder_request". Unknown errors
// fall through to a plain 500.
func (h *handlers) respondPackError(c fiber.Ctx, scope, requestKey string, err error) error {
	detail := ErrorDetail{
		Stacktrace: h.stacktrace(err),
		Request:    requestKey,
	}

	fields := logging.RequestFields(scope, requestKey, RequestID(c))

	var unresolved *resolver.UnresolvedReferenceError
	var missingTemplates *render.TemplateNotFoundError
	switch {
	case errors.As(err, &unresolved):
		detail.Type = scope + ".key_error"
		detail.MissingKey = unresolved.Key
		fields["missing_key"] = unresolved.Key
	case errors.As(err, &missingTemplates):
		detail.Type = scope + ".template_not_found"
		detail.MissingTemplates = missingTemplates.Templates
		fields["missing_templates"] = missingTemplates.Templates
	default:
		h.logger.WithFields(fields).WithError(err).Error("pack_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "pack_failed"})
	}

	h.logger.WithFields(fields).WithError(err).Warn(detail.Type)
	return c.JSON(ErrorEnvelope{Error: detail})
}

// stacktrace 仅在 VerboseErrors 打开时携带诊断信息；生产默认返回空数组，
// 避免把内部栈泄漏给客户端。
func (h *handlers) stacktrace(err error) []string {
	if !h.verbose {
		return []string{}
	}
	lines := []string{err.Error()}
	stack := strings.TrimRight(string(debug.Stack()), "\n")
	return append(lines, strings.Split(stack, "\n")...)
}

func respondNotFound(c fiber.Ctx, code string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": code})
}
