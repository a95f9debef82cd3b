package device

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// probeCounter is the default Counter. It asks WebGPU for a compute
// adapter once and caches the answer for the process lifetime; the WebGPU
// API exposes a single default adapter, so the count is 0 or 1.
type probeCounter struct{}

var (
	probeOnce  sync.Once
	probeCount int
)

// AcceleratedCount returns the cached probe result.
func (probeCounter) AcceleratedCount() int {
	probeOnce.Do(func() {
		if adapterAvailable() {
			probeCount = 1
		}
	})
	return probeCount
}

// adapterAvailable reports whether a GPU adapter can be acquired.
func adapterAvailable() (available bool) {
	// Recover from panic if the wgpu_native library is not installed.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}
