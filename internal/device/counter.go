package device

import "sync"

// Counter reports how many accelerated targets the environment exposes.
// Device construction validates indices against the active counter, so
// tests can swap in a fixed count instead of probing real hardware.
type Counter interface {
	AcceleratedCount() int
}

var (
	counterMu sync.RWMutex
	counter   Counter = probeCounter{}
)

// SetCounter replaces the active counter and returns the previous one.
func SetCounter(c Counter) Counter {
	counterMu.Lock()
	defer counterMu.Unlock()
	prev := counter
	counter = c
	return prev
}

// AcceleratedCount returns the number of accelerated targets reported by
// the active counter.
func AcceleratedCount() int {
	counterMu.RLock()
	defer counterMu.RUnlock()
	return counter.AcceleratedCount()
}

// FixedCounter is a Counter with a constant target count, for tests and
// for configurations that pin the count explicitly.
type FixedCounter int

// AcceleratedCount returns the fixed count.
func (c FixedCounter) AcceleratedCount() int {
	return int(c)
}
