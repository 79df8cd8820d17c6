// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the compute device a dispatch runs on.
//
// Each backend package registers a Factory from init(). Importing a
// backend package is enough to make it selectable:
//
//	import (
//		_ "github.com/gogpu/addarrays/backend/metal"
//		_ "github.com/gogpu/addarrays/backend/native"
//	)
//
// # Backend Selection
//
// Open returns a device from a named backend. OpenDefault (or the name
// "auto") tries the registered backends in priority order and returns the
// first device that opens:
//
//	dev, err := backend.Open(backend.BackendAuto, backend.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Release()
//
// # Available Backends
//
//   - "metal": Metal through the Objective-C runtime (darwin)
//   - "native": Pure Go GPU via gogpu/wgpu HAL (Vulkan, or Metal on darwin)
//   - "rust": wgpu-native via go-webgpu/webgpu (build tag rust)
//   - "webgpu": wgpu-native via openfluke/webgpu (build tag webgpu)
//   - "software": CPU reference device (always available)
//
// Backends that are not compiled in or cannot run on the host still appear
// in Available; opening them fails with ErrBackendNotAvailable.
package backend
