// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native provides a Pure Go compute device on the gogpu/wgpu HAL.
//
// Importing the package registers it as backend "native". The Vulkan HAL is
// linked by default; build with -tags nogpu to compile the package without
// any HAL, in which case Open reports ErrNoHALBackend.
//
// A host application that already owns a HAL device can share it:
//
//	dev, err := native.FromProvider(provider, backend.Options{})
//
// Devices created this way are not destroyed by Release.
package native
