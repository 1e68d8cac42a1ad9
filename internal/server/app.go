package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/modserve/modserve/internal/artifact"
	"github.com/modserve/modserve/internal/catalog"
	"github.com/modserve/modserve/internal/config"
	"github.com/modserve/modserve/internal/editor"
	"github.com/modserve/modserve/internal/proxy"
	"github.com/modserve/modserve/internal/render"
	"github.com/modserve/modserve/internal/resolver"
	"github.com/modserve/modserve/internal/updates"
)

const contextKeyRequestID = "_modserve_request_id"

// AppOptions 聚合构建 Fiber 应用所需的全部协作方。
type AppOptions struct {
	Logger   *logrus.Logger
	Config   *config.Config
	Catalog  catalog.Catalog
	Resolver *resolver.Resolver
	Packager *artifact.Packager
	Store    artifact.Store
	Renderer render.Renderer
	Editor   editor.Launcher
	Updates  *updates.Channel
}

// NewApp builds the Fiber application with the full route surface and
// structured error handling. Routes are case sensitive.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Packager == nil {
		return nil, errors.New("packager is required")
	}
	if opts.Store == nil {
		return nil, errors.New("artifact store is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("renderer is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	h := &handlers{
		logger:   opts.Logger,
		catalog:  opts.Catalog,
		resolver: opts.Resolver,
		packager: opts.Packager,
		store:    opts.Store,
		renderer: opts.Renderer,
		editor:   opts.Editor,
		verbose:  opts.Config.Global.VerboseErrors,
		stu3Base: opts.Config.Global.STU3Base,
	}
	h.register(app)

	if opts.Updates != nil {
		app.Get("/updates", opts.Updates.Handler())
	}

	if err := registerConfiguredRoutes(app, opts); err != nil {
		return nil, err
	}

	return app, nil
}

// registerConfiguredRoutes 在注册阶段将 Static/Proxy 配置块固化为小值对象。
func registerConfiguredRoutes(app *fiber.App, opts AppOptions) error {
	for _, staticCfg := range opts.Config.Statics {
		responder := proxy.NewStaticResponder(staticCfg)
		app.Get(responder.Path(), responder.Handler())
	}

	if len(opts.Config.Proxies) == 0 {
		return nil
	}

	client := NewUpstreamClient(opts.Config)
	for _, proxyCfg := range opts.Config.Proxies {
		forwarder, err := proxy.NewForwarder(proxyCfg, client, opts.Logger)
		if err != nil {
			return err
		}
		app.All(forwarder.Path(), forwarder.Handler())
		app.All(forwarder.Path()+"/*", forwarder.Handler())
	}
	return nil
}

// requestIDMiddleware 负责生成请求 ID 并回写响应头，便于日志关联。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
