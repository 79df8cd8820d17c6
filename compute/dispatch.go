// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "fmt"

// Run executes one dispatch of pso over n elements and blocks until the
// device has finished. inputs are bound at argument indices 0..len(inputs)-1
// and out at len(inputs). When Run returns nil, out's contents hold the
// kernel's results.
//
// Queue, command buffer, and encoder failures are reported as
// *ResourceError. Every object Run creates is released before it returns.
func Run(dev Device, pso PipelineState, inputs []Buffer, out Buffer, n int) error {
	if dev == nil {
		return ErrNilDevice
	}
	if pso == nil {
		return ErrNoPipeline
	}
	if n <= 0 {
		return fmt.Errorf("%w: element count %d", ErrInvalidDispatch, n)
	}
	log := Logger()

	var scope Scope
	defer scope.Release()

	queue, err := NewCommandQueue(dev)
	if err != nil {
		return err
	}
	scope.Track(queue)

	cb, err := queue.CommandBuffer()
	if err != nil {
		return err
	}
	log.Debug("compute: command buffer created", "label", cb.Label())

	enc, err := cb.ComputeCommandEncoder()
	if err != nil {
		return &ResourceError{
			Step:    StepPrepareEncoder,
			Message: "Failed to generate commandEncoder.",
			Kind:    ErrResourceExhausted,
			Err:     err,
		}
	}

	if err := enc.SetComputePipelineState(pso); err != nil {
		return err
	}
	for i, in := range inputs {
		if err := enc.SetBuffer(in, 0, i); err != nil {
			return err
		}
	}
	if err := enc.SetBuffer(out, 0, len(inputs)); err != nil {
		return err
	}

	policy := ThreadGroupWidth(pso, n)
	width := DispatchWidth(pso, n)
	if width < policy {
		log.Debug("compute: thread group clamped to pipeline limit",
			"policy", policy, "dispatched", width)
	}
	grid := Size1D(n)
	group := Size1D(width)
	if err := enc.DispatchThreads(grid, group); err != nil {
		return err
	}
	log.Debug("compute: dispatch recorded", "grid", grid.String(), "threadgroup", group.String())

	if err := enc.EndEncoding(); err != nil {
		return err
	}
	if err := cb.Commit(); err != nil {
		return fmt.Errorf("compute: commit %s: %w", cb.Label(), err)
	}
	log.Debug("compute: command buffer committed", "label", cb.Label())

	if err := cb.WaitUntilCompleted(); err != nil {
		return fmt.Errorf("compute: wait %s: %w", cb.Label(), err)
	}
	log.Debug("compute: command buffer completed", "label", cb.Label(), "status", cb.Status().String())
	return nil
}
