package server

import (
	"net"
	"net/http"
	"time"

	"github.com/modserve/modserve/internal/config"
)

// Shared HTTP transport tunings，复用长连接并集中配置超时。
// DisableCompression 保证代理不会擅自解压上游响应，保留 Content-Encoding 原样。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	DisableCompression:    true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewUpstreamClient 返回共享 http.Client，用于所有上游转发请求。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Global.UpstreamTimeout.DurationValue() > 0 {
		timeout = cfg.Global.UpstreamTimeout.DurationValue()
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}
