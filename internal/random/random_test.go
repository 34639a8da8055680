package random

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(100), b.IntN(100))
	}
}

func TestWeighted(t *testing.T) {
	src := New(7)
	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		counts[Weighted(src, []float64{0, 1, 3})]++
	}
	assert.Zero(t, counts[0])
	assert.Greater(t, counts[2], counts[1])
}

func TestWeightedZeroTotal(t *testing.T) {
	assert.Equal(t, 2, Weighted(New(1), []float64{0, 0, 0}))
}

func TestLockedConcurrentUse(t *testing.T) {
	src := New(3)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := Between(src, 1, 2)
				assert.GreaterOrEqual(t, v, 1.0)
				assert.Less(t, v, 2.0)
			}
		}()
	}
	wg.Wait()
}
