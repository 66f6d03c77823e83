package cmap

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			if got := NewWithShards[string, int](tt.input).ShardCount(); got != tt.expected {
				t.Errorf("ShardCount() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestMap_SetGetDelete(t *testing.T) {
	m := New[string, int]()

	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if v, ok := m.Get("a"); !ok || v != 3 {
		t.Errorf("Get(a) = (%d, %v), want (3, true)", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}
	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}

	m.Delete("a")
	m.Delete("never")
	if _, ok := m.Get("a"); ok {
		t.Error("Get(a) after Delete reported present")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestMap_GetOrCreate(t *testing.T) {
	m := New[string, *int]()
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	first, loaded := m.GetOrCreate("k", create)
	if loaded || *first != 1 {
		t.Errorf("first GetOrCreate = (%d, %v)", *first, loaded)
	}
	second, loaded := m.GetOrCreate("k", create)
	if !loaded || second != first {
		t.Errorf("second GetOrCreate returned a new value")
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestMap_GetOrCreate_Concurrent(t *testing.T) {
	m := New[int, *atomic.Int64]()
	var created atomic.Int64

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				v, _ := m.GetOrCreate(i%50, func() *atomic.Int64 {
					created.Add(1)
					return new(atomic.Int64)
				})
				v.Add(1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 50 {
		t.Errorf("created %d values, want 50", created.Load())
	}
	var total int64
	m.Range(func(_ int, v *atomic.Int64) bool {
		total += v.Load()
		return true
	})
	if total != 8000 {
		t.Errorf("total = %d, want 8000", total)
	}
}

func TestMap_DeleteFunc(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 100; i++ {
		m.Set(i, i)
	}

	removed := m.DeleteFunc(func(_ int, v int) bool { return v%2 == 0 })
	if removed != 50 {
		t.Errorf("DeleteFunc removed %d, want 50", removed)
	}
	if m.Count() != 50 {
		t.Errorf("Count() = %d, want 50", m.Count())
	}
	if _, ok := m.Get(4); ok {
		t.Error("even key survived DeleteFunc")
	}
}

func TestMap_RangeStops(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 20; i++ {
		m.Set(i, i)
	}

	visited := 0
	m.Range(func(int, int) bool {
		visited++
		return visited < 5
	})
	if visited != 5 {
		t.Errorf("visited %d entries, want 5", visited)
	}
}
