// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webgpu provides a compute device on wgpu-native through the
// openfluke/webgpu cgo bindings.
//
// The backend is compiled only with the webgpu build tag, since it links
// against the wgpu-native shared library:
//
//	go build -tags webgpu ./cmd/addarrays
//
// Without the tag the package registers a stub whose factory reports
// backend.ErrBackendNotAvailable, so the registry falls through to the
// next backend.
//
// Buffers are device-local storage buffers with a host shadow. Submit
// uploads every bound shadow; Fence.Wait maps a staging copy of each
// writable buffer and copies it back.
package webgpu
