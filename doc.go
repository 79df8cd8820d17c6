// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package addarrays adds two arrays of unsigned integers on a GPU.
//
// # Overview
//
// addarrays drives a complete compute dispatch: it opens a device, compiles
// the add_arrays kernel, builds a pipeline state, allocates three
// shared-storage buffers, records one dispatch into a command buffer,
// commits it, waits for completion, and reads the result back.
//
// # Quick Start
//
//	import "github.com/gogpu/addarrays"
//
//	res, err := addarrays.Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Sum) // [0 2 4 6 8 10 12 14]
//
// # Backends
//
// Devices come from the packages under backend/, which register themselves
// on import. Importing this package registers all of them:
//
//   - metal: Apple Metal through the Objective-C runtime (darwin)
//   - native: Pure Go WebGPU HAL (gogpu/wgpu), Vulkan
//   - rust: wgpu-native through go-webgpu/webgpu (build tag rust)
//   - webgpu: wgpu-native through openfluke/webgpu (build tag webgpu)
//   - software: CPU reference device, always available
//
// With the default "auto" backend the first one that opens wins, in the
// order above.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Run, Runner, Option, Result
//   - compute: the host-side dispatch pipeline and device contract
//   - backend: device registry and the software device
//   - kernels: embedded WGSL and MSL kernel sources
//   - internal/config, internal/report: CLI configuration and output
package addarrays
