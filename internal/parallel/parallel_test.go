package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForSamples(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 64

	ForSamples(n, 1<<16, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("expected %d iterations, got %d", n, counter)
	}
}

func TestForSamplesCoversEveryIndex(t *testing.T) {
	cfg := DefaultConfig()

	n := 37
	seen := make([]int32, n)
	ForSamples(n, 1<<16, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times, want 1", i, c)
		}
	}
}

func TestForSamplesSequentialFallback(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	ForSamples(100, 1<<20, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("expected 100 iterations, got %d", counter)
	}
}

func TestForSamplesSmallWork(t *testing.T) {
	// Tiny per-sample work stays sequential.
	cfg := DefaultConfig()

	var counter int64
	ForSamples(8, 1, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 8 {
		t.Errorf("expected 8 iterations, got %d", counter)
	}
}

func BenchmarkForSamples(b *testing.B) {
	cfg := DefaultConfig()
	n := 256

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			ForSamples(n, 1<<16, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			ForSamples(n, 1<<16, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
