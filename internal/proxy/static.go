package proxy

import (
	"github.com/gofiber/fiber/v3"

	"github.com/modserve/modserve/internal/config"
)

// StaticResponder 是一个在路由注册阶段固化 body 与 headers 的小值对象，
// 取代运行期生成的闭包。
type StaticResponder struct {
	path        string
	body        []byte
	contentType string
	headers     map[string]string
}

// NewStaticResponder 根据 Static 配置块构建固定响应。
func NewStaticResponder(cfg config.StaticConfig) *StaticResponder {
	headers := make(map[string]string, len(cfg.Headers))
	for key, value := range cfg.Headers {
		headers[key] = value
	}
	return &StaticResponder{
		path:        cfg.Path,
		body:        []byte(cfg.Body),
		contentType: cfg.ContentType,
		headers:     headers,
	}
}

// Path returns the local route the responder is registered under.
func (s *StaticResponder) Path() string {
	return s.path
}

// Handler returns the Fiber handler emitting the fixed response.
func (s *StaticResponder) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		for key, value := range s.headers {
			c.Set(key, value)
		}
		if s.contentType != "" {
			c.Set(fiber.HeaderContentType, s.contentType)
		}
		return c.Send(s.body)
	}
}
