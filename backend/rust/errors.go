// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build rust

package rust

import "errors"

// Package errors for rust backend.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("rust: no GPU adapter available")

	// ErrLibraryNotFound is returned when wgpu-native library is not found.
	ErrLibraryNotFound = errors.New("rust: wgpu-native library not found")

	// ErrForeignResource is returned when a resource from another device is
	// submitted.
	ErrForeignResource = errors.New("rust: resource belongs to a different device")

	// ErrBindingOffset is returned for bindings that do not start at the
	// beginning of their buffer.
	ErrBindingOffset = errors.New("rust: non-zero binding offsets are not supported")
)
