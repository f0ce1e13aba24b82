package store

import (
	"context"
	"sync"
)

// Memory 是基于 map 的进程内实现，用于测试与无持久化需求的短生命周期运行。
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory 创建一个空的内存存储。
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get 返回指定键的值副本。
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// Set 存入值副本，防止调用方复用底层切片造成撕裂读。
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	in := make([]byte, len(value))
	copy(in, value)

	m.mu.Lock()
	m.data[key] = in
	m.mu.Unlock()
	return nil
}

// Delete 删除一个或多个键，键不存在时静默忽略。
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.data, key)
	}
	m.mu.Unlock()
	return nil
}

// Close 实现 Store 接口，内存实现无资源可释放。
func (m *Memory) Close() error {
	return nil
}
