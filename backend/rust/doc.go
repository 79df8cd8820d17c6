// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rust provides a compute device on wgpu-native through
// go-webgpu/webgpu.
//
// This backend leverages the wgpu-native Rust WebGPU implementation via
// zero-CGO FFI bindings. Kernels run on Vulkan, Metal, or DX12 depending on
// the platform:
//
//	compute.Recording -> Device -> wgpu-native (Rust) -> Vulkan/Metal/DX12
//
// # Registration and Selection
//
// The backend is registered when this package is imported with the "rust"
// build tag:
//
//	// Build with: go build -tags rust
//	import _ "github.com/gogpu/addarrays/backend/rust"
//
// Without the tag a stub is compiled whose factory reports
// backend.ErrBackendNotAvailable.
//
// # Pipelines
//
// Pipelines use the automatic layout derived from the shader, so argument
// access modes come from the WGSL declarations. Buffers bound at ReadWrite
// arguments are copied to staging buffers and read back when the command
// buffer is waited on.
//
// # Dependencies
//
// This backend requires wgpu-native library:
//   - Windows: wgpu_native.dll
//   - Linux: libwgpu_native.so
//   - macOS: libwgpu_native.dylib
//
// Download from: https://github.com/gfx-rs/wgpu-native/releases
//
// # Error Handling
//
// Common errors returned by this package:
//
//   - ErrNoGPU: No compatible GPU found
//   - ErrLibraryNotFound: wgpu-native library not found
//   - ErrForeignResource: A resource from another device was submitted
package rust
