package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.ModulesPath == "" {
		return newFieldError("Global.ModulesPath", "不能为空")
	}
	if g.TemplatesPath == "" {
		return newFieldError("Global.TemplatesPath", "不能为空")
	}
	if g.ArtifactTTL.DurationValue() <= 0 {
		return newFieldError("Global.ArtifactTTL", "必须大于 0")
	}
	if g.ArtifactCapacity <= 0 {
		return newFieldError("Global.ArtifactCapacity", "必须大于 0")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}

	seenPaths := map[string]struct{}{}
	for i := range c.Statics {
		static := &c.Statics[i]
		if err := validateRoutePath(static.Path); err != nil {
			return fmt.Errorf("%s: %w", indexedField("Static", i, "Path"), err)
		}
		if _, exists := seenPaths[static.Path]; exists {
			return newFieldError(indexedField("Static", i, "Path"), "重复")
		}
		seenPaths[static.Path] = struct{}{}
	}

	for i := range c.Proxies {
		proxy := &c.Proxies[i]
		if err := validateRoutePath(proxy.Path); err != nil {
			return fmt.Errorf("%s: %w", indexedField("Proxy", i, "Path"), err)
		}
		if _, exists := seenPaths[proxy.Path]; exists {
			return newFieldError(indexedField("Proxy", i, "Path"), "重复")
		}
		seenPaths[proxy.Path] = struct{}{}

		if err := validateEndpoint(proxy.Endpoint); err != nil {
			return fmt.Errorf("%s: %w", indexedField("Proxy", i, "Endpoint"), err)
		}
	}

	return nil
}

func validateRoutePath(path string) error {
	if path == "" {
		return errors.New("不能为空")
	}
	if !strings.HasPrefix(path, "/") {
		return errors.New("必须以 / 开头")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("无法解析: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("仅支持 http/https")
	}
	if parsed.Host == "" {
		return errors.New("缺少主机名")
	}
	return nil
}
