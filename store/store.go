// Package store 提供守护取数持久缓存层的键值存储抽象与多种后端实现。
// 所有后端只承诺 get/set/delete 语义，载荷为任意序列化后的字节；
// 存储错误由上层吸收降级，绝不向最终调用方传播。
package store

import (
	"context"
	"errors"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("store: key not found")

// Store 定义持久缓存层所需的最小键值接口。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
