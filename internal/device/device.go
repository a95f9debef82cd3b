// Package device identifies the logical execution target tensors live on.
package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the class of execution target.
type Kind int

// Supported target kinds.
const (
	CPU Kind = iota
	CUDA
)

// String returns the specifier name of the kind.
func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	default:
		return "unknown"
	}
}

// InvalidDeviceError reports a specifier that does not name a usable device.
type InvalidDeviceError struct {
	Spec   string // the offending specifier
	Reason string
}

// Error implements the error interface.
func (e *InvalidDeviceError) Error() string {
	return fmt.Sprintf("invalid device %q: %s", e.Spec, e.Reason)
}

// Device is an immutable execution target: a kind plus, for accelerated
// kinds, the index of the target among those available. The zero value is
// the CPU device. Devices are comparable; two devices are the same target
// iff their kind and index are equal.
type Device struct {
	kind  Kind
	index int
}

// New returns a validated device. For CUDA the index must be in
// [0, AcceleratedCount()); index defaults to 0 when callers pass 0.
// For CPU the index must be 0: the CPU is a single target and an explicit
// index in a specifier is rejected by Parse.
func New(kind Kind, index int) (Device, error) {
	switch kind {
	case CPU:
		if index != 0 {
			return Device{}, &InvalidDeviceError{
				Spec:   fmt.Sprintf("cpu:%d", index),
				Reason: "cpu does not take a device index",
			}
		}
		return Device{kind: CPU}, nil
	case CUDA:
		if index < 0 {
			return Device{}, &InvalidDeviceError{
				Spec:   fmt.Sprintf("cuda:%d", index),
				Reason: "device index must be >= 0",
			}
		}
		if n := AcceleratedCount(); index >= n {
			return Device{}, &InvalidDeviceError{
				Spec:   fmt.Sprintf("cuda:%d", index),
				Reason: fmt.Sprintf("only %d accelerated device(s) available", n),
			}
		}
		return Device{kind: CUDA, index: index}, nil
	default:
		return Device{}, &InvalidDeviceError{
			Spec:   kind.String(),
			Reason: "unknown device kind",
		}
	}
}

// Parse builds a device from a "<kind>" or "<kind>:<index>" specifier,
// e.g. "cpu", "cuda", "cuda:1". The index is validated against the number
// of accelerated targets reported by the active Counter.
func Parse(spec string) (Device, error) {
	name, indexPart, hasIndex := strings.Cut(spec, ":")

	var kind Kind
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "cpu":
		kind = CPU
	case "cuda":
		kind = CUDA
	default:
		return Device{}, &InvalidDeviceError{Spec: spec, Reason: "unknown device kind"}
	}

	if !hasIndex {
		return New(kind, 0)
	}
	if kind == CPU {
		return Device{}, &InvalidDeviceError{Spec: spec, Reason: "cpu does not take a device index"}
	}

	index, err := strconv.Atoi(indexPart)
	if err != nil || index < 0 {
		return Device{}, &InvalidDeviceError{Spec: spec, Reason: "device index must be a non-negative integer"}
	}

	d, err := New(kind, index)
	if err != nil {
		var inv *InvalidDeviceError
		if errors.As(err, &inv) {
			inv.Spec = spec
		}
		return Device{}, err
	}
	return d, nil
}

// Default returns the first accelerated device when one is available,
// and the CPU otherwise. The choice is deterministic given the count
// reported by the active Counter.
func Default() Device {
	if AcceleratedCount() > 0 {
		return Device{kind: CUDA, index: 0}
	}
	return Device{kind: CPU}
}

// Kind returns the device kind.
func (d Device) Kind() Kind {
	return d.kind
}

// Index returns the index among accelerated targets. Always 0 for CPU.
func (d Device) Index() int {
	return d.index
}

// IsAccelerated reports whether the device is an accelerated target.
func (d Device) IsAccelerated() bool {
	return d.kind == CUDA
}

// String returns the canonical specifier, e.g. "cpu" or "cuda:1".
func (d Device) String() string {
	if d.kind == CPU {
		return d.kind.String()
	}
	return fmt.Sprintf("%s:%d", d.kind, d.index)
}
