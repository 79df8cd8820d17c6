// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHALBackend is returned when no HAL backend is compiled in.
	ErrNoHALBackend = errors.New("native: no HAL backend registered")

	// ErrForeignResource is returned when a resource from another device
	// reaches this one.
	ErrForeignResource = errors.New("native: resource belongs to a different device")

	// ErrNoArguments is returned when a pipeline is built without an
	// argument layout.
	ErrNoArguments = errors.New("native: pipeline descriptor has no arguments")

	// ErrProvider is returned when a device provider does not expose HAL
	// objects.
	ErrProvider = errors.New("native: provider does not expose HAL types")
)
