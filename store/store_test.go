package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/miguelusque/NVTabular/core"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(mr.Addr(), 0)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

// 两种实现跑同一组用例
func storesUnderTest(t *testing.T) map[string]core.Store {
	mem := NewMemoryStore()
	t.Cleanup(func() { _ = mem.Close() })
	rs, _ := newRedisStore(t)
	return map[string]core.Store{"memory": mem, "redis": rs}
}

func TestStore_KeyValue(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
				t.Errorf("Get(missing) error = %v, want not found", err)
			}
			if err := s.Set(ctx, "stats:rating", []byte(`{"mean":3.5}`)); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(ctx, "stats:rating")
			if err != nil || string(got) != `{"mean":3.5}` {
				t.Errorf("Get() = %q, %v", got, err)
			}

			if err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
				t.Fatal(err)
			}
			all, err := s.BatchGet(ctx, []string{"a", "b", "c"})
			if err != nil {
				t.Fatal(err)
			}
			want := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
			if !reflect.DeepEqual(all, want) {
				t.Errorf("BatchGet() = %v, want %v", all, want)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, "a"); !core.IsStoreNotFound(err) {
				t.Errorf("Get(deleted) error = %v", err)
			}
		})
	}
}

func TestStore_Hash(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			fields := map[string][]byte{"Comedy": []byte("1"), "Drama": []byte("2")}
			if err := s.HSetAll(ctx, "vocab:genres", fields); err != nil {
				t.Fatal(err)
			}
			if err := s.HSet(ctx, "vocab:genres", "Horror", []byte("3")); err != nil {
				t.Fatal(err)
			}

			v, err := s.HGet(ctx, "vocab:genres", "Drama")
			if err != nil || string(v) != "2" {
				t.Errorf("HGet() = %q, %v", v, err)
			}
			if _, err := s.HGet(ctx, "vocab:genres", "Western"); !core.IsStoreNotFound(err) {
				t.Errorf("HGet(missing) error = %v", err)
			}

			all, err := s.HGetAll(ctx, "vocab:genres")
			if err != nil || len(all) != 3 || string(all["Horror"]) != "3" {
				t.Errorf("HGetAll() = %v, %v", all, err)
			}

			if err := s.Delete(ctx, "vocab:genres"); err != nil {
				t.Fatal(err)
			}
			all, err = s.HGetAll(ctx, "vocab:genres")
			if err != nil || len(all) != 0 {
				t.Errorf("HGetAll() after Delete = %v, %v", all, err)
			}
		})
	}
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	if err := s.Set(ctx, "tmp", []byte("x"), 10); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(11 * time.Second)
	if _, err := s.Get(ctx, "tmp"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(expired) error = %v", err)
	}
}

func TestNewRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := NewRedisStore(addr, 0); !core.IsUnavailable(err) {
		t.Errorf("NewRedisStore() error = %v, want unavailable", err)
	}
}

func TestNew(t *testing.T) {
	s, err := New("memory", nil)
	if err != nil || s.Name() != "memory" {
		t.Fatalf("New(memory) = %v, %v", s, err)
	}
	_ = s.Close()

	mr := miniredis.RunT(t)
	s, err = New("redis", map[string]any{"addr": mr.Addr()})
	if err != nil || s.Name() != "redis" {
		t.Fatalf("New(redis) = %v, %v", s, err)
	}
	_ = s.Close()

	if _, err := New("cassandra", nil); !core.IsNotSupported(err) {
		t.Errorf("New(cassandra) error = %v", err)
	}
}
