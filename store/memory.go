package store

import (
	"context"
	"sync"
	"time"

	"github.com/miguelusque/NVTabular/core"
)

// MemoryStore 是内存实现的 Store，用于测试/开发/单机拟合。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]*entry
	hashes map[string]map[string][]byte // hash key -> field -> value
	clean  *time.Ticker
	done   chan struct{}
	once   sync.Once
}

type entry struct {
	value  []byte
	expire time.Time // 零值表示不过期
}

func (e *entry) expired(now time.Time) bool {
	return !e.expire.IsZero() && now.After(e.expire)
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:   make(map[string]*entry),
		hashes: make(map[string]map[string][]byte),
		clean:  time.NewTicker(10 * time.Second),
		done:   make(chan struct{}),
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = &entry{value: value, expire: expireAt(ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.hashes, key)
	return nil
}

func (m *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string][]byte, len(keys))
	now := time.Now()
	for _, k := range keys {
		e, ok := m.data[k]
		if !ok || e.expired(now) {
			continue
		}
		result[k] = e.value
	}
	return result, nil
}

func (m *MemoryStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expire := expireAt(ttl)
	for k, v := range kvs {
		m.data[k] = &entry{value: v, expire: expire}
	}
	return nil
}

func (m *MemoryStore) HGet(ctx context.Context, key, field string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.hashes[key][field]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (m *MemoryStore) HSet(ctx context.Context, key, field string, value []byte) error {
	return m.HSetAll(ctx, key, map[string][]byte{field: value})
}

func (m *MemoryStore) HSetAll(ctx context.Context, key string, fields map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.hashes[key]
	if h == nil {
		h = make(map[string][]byte, len(fields))
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *MemoryStore) HGetAll(ctx context.Context, key string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.hashes[key]
	result := make(map[string][]byte, len(h))
	for f, v := range h {
		result[f] = v
	}
	return result, nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case now := <-m.clean.C:
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func expireAt(ttl []int) time.Time {
	if len(ttl) > 0 && ttl[0] > 0 {
		return time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	return time.Time{}
}

var _ core.Store = (*MemoryStore)(nil)
