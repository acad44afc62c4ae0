package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoUnbounded(t *testing.T) {
	t.Parallel()
	m, err := New[string, uint32](0)
	require.NoError(t, err)

	_, ok := m.Get("a")
	assert.False(t, ok)
	m.Put("a", 1)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), v)

	for i := 0; i < 1000; i++ {
		m.Put(string(rune('b'+i)), uint32(i))
	}
	assert.Equal(t, 1001, m.Len())
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Size: 1001}, m.Stats())

	m.Purge()
	assert.Equal(t, Stats{}, m.Stats())
}

func TestMemoBoundedEvicts(t *testing.T) {
	t.Parallel()
	m, err := New[int, int](2)
	require.NoError(t, err)

	m.Put(1, 10)
	m.Put(2, 20)
	_, _ = m.Get(1) // 2 is now least recently used
	m.Put(3, 30)

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(2)
	assert.False(t, ok)
	v, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, uint64(2), m.Hits())
	assert.Equal(t, uint64(1), m.Misses())
}

func TestMemoRejectsNegativeCapacity(t *testing.T) {
	t.Parallel()
	_, err := New[int, int](-1)
	assert.Error(t, err)
}

func TestMemoConcurrent(t *testing.T) {
	t.Parallel()
	for _, capacity := range []int{0, 64} {
		m, err := New[int, int](capacity)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 500; i++ {
					k := (g*500 + i) % 100
					if _, ok := m.Get(k); !ok {
						m.Put(k, k*2)
					}
				}
			}(g)
		}
		wg.Wait()

		assert.Equal(t, uint64(4000), m.Hits()+m.Misses())
		assert.LessOrEqual(t, m.Len(), 100)
	}
}
