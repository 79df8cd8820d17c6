// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "fmt"

// BuildPipeline compiles fn into a pipeline state on dev. args gives the
// access mode of each buffer argument in index order.
//
// Any failure is reported as *Error with Kind ErrPipelineCompilation.
func BuildPipeline(dev Device, fn Function, args ...Access) (PipelineState, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrPipelineCompilation)
	}

	desc := &PipelineDescriptor{
		Label:     fn.Name(),
		Function:  unwrapFunction(fn),
		Arguments: args,
	}
	pso, err := dev.NewComputePipelineState(desc)
	if err != nil || pso == nil {
		if pso != nil {
			pso.Release()
		}
		pe, ok := AsPlatformError(err)
		if !ok {
			pe = &Error{Domain: LibraryDomain, Code: CodeInternal}
			if err != nil {
				pe.Description = err.Error()
			} else {
				pe.Description = "Device returned no pipeline state"
			}
		}
		if pe.Kind == nil {
			pe.Kind = ErrPipelineCompilation
		}
		return nil, pe
	}

	Logger().Debug("compute: pipeline built",
		"function", fn.Name(),
		"maxThreadsPerThreadgroup", pso.MaxTotalThreadsPerThreadgroup())
	return pso, nil
}

// ThreadGroupWidth returns the sizing policy width for n elements: the
// larger of the pipeline's thread limit and n.
func ThreadGroupWidth(pso PipelineState, n int) int {
	return max(pso.MaxTotalThreadsPerThreadgroup(), n)
}

// DispatchWidth returns the thread-group width actually dispatched: the
// policy width clamped to the pipeline's thread limit.
func DispatchWidth(pso PipelineState, n int) int {
	return min(ThreadGroupWidth(pso, n), pso.MaxTotalThreadsPerThreadgroup())
}
