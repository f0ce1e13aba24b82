package store

import (
	"context"
	"errors"
	"testing"
)

// 各后端共享同一组语义用例；redis 后端依赖外部实例，不在单测覆盖范围.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	badger, err := NewBadger("") // 纯内存模式
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { badger.Close() })

	memory := NewMemory()
	t.Cleanup(func() { memory.Close() })

	return map[string]Store{
		"memory": memory,
		"badger": badger,
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set(ctx, "k", []byte(`{"value":42}`)); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := st.Get(ctx, "k")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `{"value":42}` {
				t.Errorf("get: got %s", got)
			}

			// 覆盖写
			if err := st.Set(ctx, "k", []byte("v2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, _ = st.Get(ctx, "k")
			if string(got) != "v2" {
				t.Errorf("overwrite: got %s, want v2", got)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("missing key: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Set(ctx, "a", []byte("1")); err != nil {
				t.Fatal(err)
			}
			if err := st.Set(ctx, "b", []byte("2")); err != nil {
				t.Fatal(err)
			}

			if err := st.Delete(ctx, "a", "b", "does-not-exist"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := st.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("deleted key a: got %v, want ErrNotFound", err)
			}
			if _, err := st.Get(ctx, "b"); !errors.Is(err, ErrNotFound) {
				t.Errorf("deleted key b: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMemoryCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	raw := []byte("original")
	if err := m.Set(ctx, "k", raw); err != nil {
		t.Fatal(err)
	}
	raw[0] = 'X' // 调用方复用切片不应影响存量数据

	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "original" {
		t.Errorf("stored value mutated: got %s", got)
	}
}
