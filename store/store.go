// Package store 提供 core.Store 的实现：内存与 Redis。
//
// 接口定义在 core 包，本包只包含实现：
//
//	var s core.Store = store.NewMemoryStore()
//	s, err := store.NewRedisStore("localhost:6379", 0)
//
// 也可以通过 store.New 按类型名构造，见 factory.go。
package store
