package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/modserve/modserve/internal/artifact"
	"github.com/modserve/modserve/internal/catalog"
	"github.com/modserve/modserve/internal/config"
	"github.com/modserve/modserve/internal/editor"
	"github.com/modserve/modserve/internal/logging"
	"github.com/modserve/modserve/internal/render"
	"github.com/modserve/modserve/internal/resolver"
	"github.com/modserve/modserve/internal/server"
	"github.com/modserve/modserve/internal/updates"
	"github.com/modserve/modserve/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	cat, err := catalog.Load(cfg.Global.ModulesPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载模块目录失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["modules"] = len(cat.Modules())
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	renderer, err := render.NewTemplateRenderer(cfg.Global.TemplatesPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载模板目录失败: %v\n", err)
		return 1
	}

	// CLI 启动遵循“配置 → 模块目录 → 制品仓库 → Fiber server”顺序，
	// 保证所有请求共享统一的目录快照与制品仓库实例。
	store, err := artifact.NewMemoryStore(cfg.Global.ArtifactTTL.DurationValue(), cfg.Global.ArtifactCapacity)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化制品仓库失败: %v\n", err)
		return 1
	}

	channel := updates.NewChannel(logger)
	if cfg.Global.WatchModules {
		watcher, err := updates.NewWatcher(cfg.Global.ModulesPath, channel, logger)
		if err != nil {
			fmt.Fprintf(stdErr, "启动模块监听失败: %v\n", err)
			return 1
		}
		defer watcher.Close()
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["modules"] = len(cat.Modules())
	fields["listen_port"] = cfg.Global.ListenPort
	fields["watch_modules"] = cfg.Global.WatchModules
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	appOpts := server.AppOptions{
		Logger:   logger,
		Config:   cfg,
		Catalog:  cat,
		Resolver: resolver.New(cat),
		Packager: artifact.NewPackager(renderer, store),
		Store:    store,
		Renderer: renderer,
		Editor:   editor.NewCommandLauncher(cfg.Global.Editor),
		Updates:  channel,
	}
	if err := startHTTPServer(cfg, appOpts, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("modserve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 MODSERVE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("MODSERVE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, appOpts server.AppOptions, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(appOpts)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
