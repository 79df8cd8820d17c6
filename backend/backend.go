// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/addarrays/compute"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a backend is registered but
	// cannot open a device in this build or on this machine.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownBackend is returned for a name nothing registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// Backend name constants.
const (
	// BackendAuto selects the first backend in priority order that opens.
	BackendAuto = "auto"
	// BackendMetal drives Metal directly through the Objective-C runtime.
	BackendMetal = "metal"
	// BackendNative is the Pure Go GPU backend (gogpu/wgpu HAL).
	BackendNative = "native"
	// BackendRust is wgpu-native through go-webgpu/webgpu FFI.
	BackendRust = "rust"
	// BackendWebGPU is wgpu-native through openfluke/webgpu.
	BackendWebGPU = "webgpu"
	// BackendSoftware is the CPU reference device.
	BackendSoftware = "software"
)

// Options configures device creation. Zero values select backend defaults.
type Options struct {
	// Adapter selects a GPU by case-insensitive substring of its name.
	Adapter string

	// MaxThreadsPerGroup caps the reported thread-group limit.
	MaxThreadsPerGroup int

	// Workers sets the software device's worker count.
	Workers int

	// SPIRV makes the native backend hand precompiled SPIR-V to the HAL
	// instead of WGSL source.
	SPIRV bool
}

// Factory opens a compute device.
type Factory func(opts Options) (compute.Device, error)
