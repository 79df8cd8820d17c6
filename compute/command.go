// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// CommandBufferStatus is the lifecycle state of a CommandBuffer.
type CommandBufferStatus int

const (
	// StatusCreated means the buffer has been created and nothing is open.
	StatusCreated CommandBufferStatus = iota
	// StatusEncoding means an encoder is open on the buffer.
	StatusEncoding
	// StatusCommitted means the buffer was handed to the queue.
	StatusCommitted
	// StatusCompleted means the device finished executing the buffer.
	StatusCompleted
	// StatusError means submission or execution failed.
	StatusError
)

// String returns the string representation of CommandBufferStatus.
func (s CommandBufferStatus) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusEncoding:
		return "Encoding"
	case StatusCommitted:
		return "Committed"
	case StatusCompleted:
		return "Completed"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// CommandQueue creates command buffers for one device and submits them in
// order.
type CommandQueue struct {
	device Device
	queue  Queue

	// mu serialises Submit calls so recordings reach the backend in
	// commit order.
	mu sync.Mutex
}

// NewCommandQueue creates a command queue on dev. A device that cannot
// produce a queue yields a *ResourceError.
func NewCommandQueue(dev Device) (*CommandQueue, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	q, err := dev.NewCommandQueue()
	if err != nil || q == nil {
		return nil, &ResourceError{
			Step:    StepInitSettings,
			Message: "Failed to prepare command queue object.",
			Kind:    ErrResourceExhausted,
			Err:     err,
		}
	}
	return &CommandQueue{device: dev, queue: q}, nil
}

// Device returns the queue's device.
func (q *CommandQueue) Device() Device {
	return q.device
}

// CommandBuffer creates a new command buffer in the Created state.
func (q *CommandQueue) CommandBuffer() (*CommandBuffer, error) {
	if q == nil || q.queue == nil {
		return nil, &ResourceError{
			Step:    StepInitSettings,
			Message: "Failed to allocate command buffer.",
			Kind:    ErrResourceExhausted,
		}
	}
	return &CommandBuffer{
		queue: q,
		rec:   &Recording{Label: "add_arrays-" + uuid.NewString()},
	}, nil
}

// Release releases the backend queue.
func (q *CommandQueue) Release() {
	if q == nil || q.queue == nil {
		return
	}
	q.queue.Release()
	q.queue = nil
}

func (q *CommandQueue) submit(rec *Recording) (Fence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queue == nil {
		return nil, fmt.Errorf("compute: submit on released queue")
	}
	return q.queue.Submit(rec)
}

// CommandBuffer is a single unit of submitted work.
//
// Lifecycle:
//  1. Created by CommandQueue.CommandBuffer
//  2. ComputeCommandEncoder opens an encoder (Encoding)
//  3. ComputeEncoder.EndEncoding closes it (back to Created)
//  4. Commit hands the recording to the queue (Committed)
//  5. WaitUntilCompleted blocks until the device is done (Completed)
type CommandBuffer struct {
	mu     sync.Mutex
	queue  *CommandQueue
	rec    *Recording
	status CommandBufferStatus
	fence  Fence
	err    error
	done   chan struct{}
}

// Label returns the command buffer's debug label.
func (cb *CommandBuffer) Label() string {
	return cb.rec.Label
}

// Status returns the current lifecycle state.
func (cb *CommandBuffer) Status() CommandBufferStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.status
}

// Err returns the submission or execution error, if any.
func (cb *CommandBuffer) Err() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.err
}

// ComputeCommandEncoder opens a compute encoding scope.
func (cb *CommandBuffer) ComputeCommandEncoder() (*ComputeEncoder, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.status {
	case StatusEncoding:
		return nil, ErrEncoderOpen
	case StatusCreated:
	default:
		return nil, ErrAlreadyCommitted
	}
	cb.status = StatusEncoding
	return &ComputeEncoder{cb: cb, bindings: make(map[int]Binding)}, nil
}

// Commit submits the recording to the queue and returns without waiting.
func (cb *CommandBuffer) Commit() error {
	cb.mu.Lock()
	switch cb.status {
	case StatusEncoding:
		cb.mu.Unlock()
		return ErrEncoderOpen
	case StatusCreated:
	default:
		cb.mu.Unlock()
		return ErrAlreadyCommitted
	}
	cb.status = StatusCommitted
	cb.done = make(chan struct{})
	rec := cb.rec
	cb.mu.Unlock()

	fence, err := cb.queue.submit(rec)
	if err == nil && fence == nil {
		err = ErrNoFence
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.status = StatusError
		cb.err = err
		close(cb.done)
		return err
	}
	cb.fence = fence
	return nil
}

// WaitUntilCompleted blocks until the committed work has finished. It is
// safe to call more than once and from several goroutines; every caller
// observes the same result.
func (cb *CommandBuffer) WaitUntilCompleted() error {
	cb.mu.Lock()
	if cb.status == StatusCreated || cb.status == StatusEncoding {
		cb.mu.Unlock()
		return ErrNotCommitted
	}
	done := cb.done
	fence := cb.fence
	if cb.status != StatusCommitted || fence == nil {
		cb.mu.Unlock()
		<-done
		return cb.Err()
	}
	// Claim the fence so only one caller waits on it.
	cb.fence = nil
	cb.mu.Unlock()

	err := fence.Wait()

	cb.mu.Lock()
	if err != nil {
		cb.status = StatusError
		cb.err = err
	} else {
		cb.status = StatusCompleted
	}
	close(done)
	cb.mu.Unlock()
	return err
}

// ComputeEncoder records pipeline, binding, and dispatch commands into a
// CommandBuffer. It is invalid after EndEncoding.
type ComputeEncoder struct {
	cb       *CommandBuffer
	pipeline PipelineState
	bindings map[int]Binding
	pass     Pass
	ended    bool
}

// SetComputePipelineState sets the pipeline for subsequent dispatches.
func (e *ComputeEncoder) SetComputePipelineState(pso PipelineState) error {
	if e.ended {
		return ErrEncoderClosed
	}
	if pso == nil {
		return ErrNoPipeline
	}
	if pso.Device() != e.cb.queue.device {
		return fmt.Errorf("%w: pipeline state", ErrDeviceMismatch)
	}
	e.pipeline = pso
	return nil
}

// SetBuffer binds buf at the given argument index.
func (e *ComputeEncoder) SetBuffer(buf Buffer, offset, index int) error {
	if e.ended {
		return ErrEncoderClosed
	}
	if buf == nil {
		return fmt.Errorf("compute: nil buffer at index %d", index)
	}
	if buf.Device() != e.cb.queue.device {
		return fmt.Errorf("%w: buffer at index %d", ErrDeviceMismatch, index)
	}
	if index < 0 {
		return fmt.Errorf("compute: negative argument index %d", index)
	}
	if offset < 0 || offset > buf.Length() {
		return fmt.Errorf("compute: offset %d out of range for %d-byte buffer", offset, buf.Length())
	}
	e.bindings[index] = Binding{Index: index, Buffer: buf, Offset: offset}
	return nil
}

// DispatchThreads records a dispatch of grid threads in groups of
// threadsPerGroup. Partial groups at the grid edge are allowed.
func (e *ComputeEncoder) DispatchThreads(grid, threadsPerGroup Size) error {
	if e.ended {
		return ErrEncoderClosed
	}
	if e.pipeline == nil {
		return ErrNoPipeline
	}
	if grid.Width <= 0 || grid.Height <= 0 || grid.Depth <= 0 {
		return fmt.Errorf("%w: grid %v", ErrInvalidDispatch, grid)
	}
	if threadsPerGroup.Width <= 0 || threadsPerGroup.Height <= 0 || threadsPerGroup.Depth <= 0 {
		return fmt.Errorf("%w: thread group %v", ErrInvalidDispatch, threadsPerGroup)
	}
	if limit := e.pipeline.MaxTotalThreadsPerThreadgroup(); threadsPerGroup.Total() > limit {
		return fmt.Errorf("%w: thread group %v exceeds pipeline maximum %d",
			ErrInvalidDispatch, threadsPerGroup, limit)
	}

	bindings := make([]Binding, 0, len(e.bindings))
	for _, b := range e.bindings {
		bindings = append(bindings, b)
	}
	slices.SortFunc(bindings, func(a, b Binding) int { return a.Index - b.Index })

	e.pass.Dispatches = append(e.pass.Dispatches, DispatchCommand{
		Pipeline:        e.pipeline,
		Bindings:        bindings,
		Grid:            grid,
		ThreadsPerGroup: threadsPerGroup,
	})
	return nil
}

// EndEncoding closes the encoder. It is irreversible; calling it twice
// returns ErrEncoderClosed.
func (e *ComputeEncoder) EndEncoding() error {
	if e.ended {
		return ErrEncoderClosed
	}
	e.ended = true

	cb := e.cb
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.rec.Passes = append(cb.rec.Passes, e.pass)
	cb.status = StatusCreated
	return nil
}
