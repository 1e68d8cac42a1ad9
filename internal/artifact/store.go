package artifact

import (
	"context"
	"errors"
)

// Store 负责管理打包产物的存取。标识符由 Put 生成，对调用方完全不透明。
//
// 实现必须满足：Put 返回后对同一标识符的 Get 立即可见（store-then-visible），
// 且并发 Put/Get 安全。
type Store interface {
	// Put 保存 data 并返回新生成的标识符。
	Put(ctx context.Context, data []byte) (string, error)

	// Get 返回标识符对应的产物字节。不存在或已过期时返回 ErrNotFound。
	Get(ctx context.Context, id string) ([]byte, error)
}

// ErrNotFound 表示产物不存在。
var ErrNotFound = errors.New("artifact not found")
