package utils

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForEveryWithBoundedGoroutines(t *testing.T) {
	values := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := make([]int, len(values))

	var running, peak int32
	ForEveryWithBoundedGoroutines(3, values, func(i int, v int) {
		cur := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		out[i] = v * v
		atomic.AddInt32(&running, -1)
	})

	assert.Equal(t, []int{1, 4, 9, 16, 25, 36, 49, 64}, out)
	assert.LessOrEqual(t, peak, int32(3))
}

func TestForEveryWithBoundedGoroutinesZeroLimit(t *testing.T) {
	var calls int32
	ForEveryWithBoundedGoroutines(0, []string{"a", "b"}, func(int, string) {
		atomic.AddInt32(&calls, 1)
	})
	assert.Equal(t, int32(2), calls)
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		size   int
		want   [][]int
	}{
		{"even", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3}, 2, [][]int{{1, 2}, {3}}},
		{"size larger than input", []int{1, 2}, 5, [][]int{{1, 2}}},
		{"zero size keeps one chunk", []int{1, 2}, 0, [][]int{{1, 2}}},
		{"empty", nil, 2, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.values, tt.size))
		})
	}
}
