// Copyright 2026 The Visgator Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device selects the execution target batches and tensors live on.
//
// A device is parsed from a "<kind>" or "<kind>:<index>" specifier and the
// accelerated index is validated against the targets the environment
// reports at construction time:
//
//	dev, err := device.Parse("cuda:1")
//	dev = device.Default() // first accelerated target, or cpu
package device

import (
	"github.com/visgator-ml/visgator/internal/device"
)

// Kind is the class of execution target.
type Kind = device.Kind

// Supported target kinds.
const (
	CPU  Kind = device.CPU
	CUDA Kind = device.CUDA
)

// Device is an immutable execution target, comparable by (kind, index).
type Device = device.Device

// InvalidDeviceError reports a specifier that does not name a usable device.
type InvalidDeviceError = device.InvalidDeviceError

// Counter reports how many accelerated targets the environment exposes.
type Counter = device.Counter

// FixedCounter is a Counter with a constant target count.
type FixedCounter = device.FixedCounter

// New returns a validated device.
func New(kind Kind, index int) (Device, error) {
	return device.New(kind, index)
}

// Parse builds a device from a "<kind>" or "<kind>:<index>" specifier.
func Parse(spec string) (Device, error) {
	return device.Parse(spec)
}

// Default returns the first accelerated device when one is available, and
// the CPU otherwise.
func Default() Device {
	return device.Default()
}

// AcceleratedCount returns the number of accelerated targets reported by
// the active counter.
func AcceleratedCount() int {
	return device.AcceleratedCount()
}

// SetCounter replaces the active counter and returns the previous one.
func SetCounter(c Counter) Counter {
	return device.SetCounter(c)
}
