// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compute implements the host side of a GPU compute dispatch.
//
// A dispatch is assembled from a fixed chain of resources:
//
//	Device -> Library -> Function -> PipelineState
//	Device -> CommandQueue -> CommandBuffer -> ComputeEncoder
//
// Devices are provided by the packages under backend/. This package owns
// everything above the device contract: loading kernels, building pipeline
// states, allocating shared-storage buffers, recording and submitting
// command buffers, and translating platform errors into diagnostics.
//
// # Quick Start
//
//	var scope compute.Scope
//	defer scope.Release()
//
//	fn, err := compute.LoadKernel(dev, compute.InlineSource(src), "add_arrays")
//	if err != nil {
//	    return err
//	}
//	scope.Track(fn)
//
//	pso, err := compute.BuildPipeline(dev, fn, compute.ReadOnly, compute.ReadOnly, compute.ReadWrite)
//	...
//	err = compute.Run(dev, pso, []compute.Buffer{a, b}, out, n)
//
// # Shared Storage
//
// Buffer.Contents returns host-visible memory. After
// CommandBuffer.WaitUntilCompleted returns, the contents reflect every write
// the kernel made; no explicit copy-back is needed.
//
// # Errors
//
// Failures that come with a platform error object are reported as *Error
// and rendered by Translate. Null handles without an error object are
// reported as *ResourceError, numbered by processing stage.
package compute
