// Package proxy provides the transparent forwarding handlers: a byte-exact
// relay to a fixed upstream endpoint and a static fixed-response builder.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/modserve/modserve/internal/config"
)

// Forwarder 将其路由上的所有请求逐字节转发到一个固定的上游端点。
// 端点在路由注册阶段解析一次，之后只读复用。
type Forwarder struct {
	path     string
	endpoint *url.URL
	client   *http.Client
	logger   *logrus.Logger
}

// NewForwarder 根据 Proxy 配置块构建转发器，endpoint 非法时直接失败。
func NewForwarder(cfg config.ProxyConfig, client *http.Client, logger *logrus.Logger) (*Forwarder, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse proxy endpoint %s: %w", cfg.Endpoint, err)
	}
	return &Forwarder{
		path:     cfg.Path,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}, nil
}

// Path returns the local route the forwarder is registered under.
func (f *Forwarder) Path() string {
	return f.path
}

// Handler returns the Fiber handler performing the relay.
//
// The inbound body is read in full before the upstream request is issued;
// headers are copied verbatim except Host, which is rewritten to the
// endpoint's hostname. The upstream response is returned with its status
// and headers untouched, Content-Encoding framing included.
func (f *Forwarder) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()

		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		body := append([]byte(nil), c.Body()...)
		req, err := http.NewRequestWithContext(ctx, c.Method(), f.endpoint.String(), bytes.NewReader(body))
		if err != nil {
			return f.respondGatewayFailure(c, started, err)
		}

		c.Request().Header.VisitAll(func(key, value []byte) {
			req.Header.Add(string(key), string(value))
		})
		if host := f.endpoint.Hostname(); host != "" {
			req.Host = host
			req.Header.Set("Host", host)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return f.respondGatewayFailure(c, started, err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return f.respondGatewayFailure(c, started, err)
		}

		for key, values := range resp.Header {
			for _, value := range values {
				c.Response().Header.Add(key, value)
			}
		}
		c.Status(resp.StatusCode)

		f.logResult(c, started, resp.StatusCode, nil)
		return c.Send(respBody)
	}
}

func (f *Forwarder) respondGatewayFailure(c fiber.Ctx, started time.Time, err error) error {
	f.logResult(c, started, 0, err)
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed"})
}

func (f *Forwarder) logResult(c fiber.Ctx, started time.Time, status int, err error) {
	if f.logger == nil {
		return
	}
	fields := logrus.Fields{
		"action":     "proxy",
		"path":       string(c.Request().URI().Path()),
		"method":     c.Method(),
		"endpoint":   f.endpoint.String(),
		"elapsed_ms": time.Since(started).Milliseconds(),
	}
	if status > 0 {
		fields["upstream_status"] = status
	}
	if err != nil {
		fields["error"] = err.Error()
		f.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	f.logger.WithFields(fields).Debug("proxy_complete")
}
