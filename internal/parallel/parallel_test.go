package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_Sequential(t *testing.T) {
	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, Sequential())

	assert.Equal(t, int64(100), counter)
}

func TestForChunks_CoversRangeOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 7, MinChunkSize: 3}

	hits := make([]int32, 101)
	var mu sync.Mutex
	var chunks [][2]int

	ForChunks(len(hits), func(start, end int) {
		mu.Lock()
		chunks = append(chunks, [2]int{start, end})
		mu.Unlock()
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	}, cfg)

	for i, h := range hits {
		require.Equal(t, int32(1), h, "index %d", i)
	}
	assert.Greater(t, len(chunks), 1)
}

func TestForChunks_SmallWorkIsSingleCall(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}

	calls := 0
	ForChunks(10, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	}, cfg)
	assert.Equal(t, 1, calls)

	ForChunks(0, func(_, _ int) { calls++ }, cfg)
	assert.Equal(t, 1, calls)
}

func TestConfig_WithWorkers(t *testing.T) {
	cfg := DefaultConfig().WithWorkers(1)
	assert.False(t, cfg.Enabled)
	require.NoError(t, cfg.Validate())

	cfg = cfg.WithWorkers(4)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 4, cfg.NumWorkers)

	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{MinChunkSize: -1}.Validate())
}
