package store

import (
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/conv"
)

// New 按类型名创建 Store。
//
// 支持的类型：
//   - memory：无参数
//   - redis：addr（默认 localhost:6379）、db、password、pool_size
func New(typ string, cfg map[string]any) (core.Store, error) {
	switch typ {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		s, err := NewRedisStore(
			conv.ConfigGet(cfg, "addr", "localhost:6379"),
			int(conv.ConfigGetInt64(cfg, "db", 0)),
			WithRedisPassword(conv.ConfigGet(cfg, "password", "")),
			WithRedisPoolSize(int(conv.ConfigGetInt64(cfg, "pool_size", 0))),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, core.Errorf(core.ModuleStore, core.ErrorCodeNotSupported, "store: unsupported type %q", typ)
	}
}
