// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package metal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego/objc"

	"github.com/gogpu/addarrays/compute"
)

var errForeignResource = errors.New("metal: resource belongs to a different device")

// queue wraps an MTLCommandQueue. Each recording becomes one
// MTLCommandBuffer with one compute encoder per pass.
type queue struct {
	device *Device
	id     objc.ID
	mu     sync.Mutex
	once   sync.Once
}

func (q *queue) Release() { q.once.Do(func() { release(q.id) }) }

func (q *queue) Submit(rec *compute.Recording) (compute.Fence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var cb objc.ID
	var err error
	autoreleasePool(func() {
		cb = q.id.Send(selCommandBuffer)
		if cb == 0 {
			err = fmt.Errorf("metal: commandBuffer returned nil")
			return
		}
		cb.Send(selRetain)
		cb.Send(selSetLabel, nsString(rec.Label))

		for _, pass := range rec.Passes {
			if err = q.encodePass(cb, pass); err != nil {
				return
			}
		}
		cb.Send(selCommit)
	})
	if err != nil {
		release(cb)
		return nil, err
	}
	compute.Logger().Debug("metal: committed", "label", rec.Label, "dispatches", rec.DispatchCount())
	return &fence{id: cb}, nil
}

func (q *queue) encodePass(cb objc.ID, pass compute.Pass) error {
	enc := cb.Send(selComputeCommandEncoder)
	if enc == 0 {
		return fmt.Errorf("metal: computeCommandEncoder returned nil")
	}
	defer enc.Send(selEndEncoding)

	for _, d := range pass.Dispatches {
		p, ok := d.Pipeline.(*pipeline)
		if !ok || p.device != q.device {
			return errForeignResource
		}
		enc.Send(selSetComputePipeline, p.id)
		for _, b := range d.Bindings {
			mb, ok := b.Buffer.(*buffer)
			if !ok || mb.device != q.device {
				return errForeignResource
			}
			enc.Send(selSetBuffer, mb.id, uint(b.Offset), uint(b.Index))
		}
		grid := mtlSize{uint(d.Grid.Width), uint(d.Grid.Height), uint(d.Grid.Depth)}
		group := mtlSize{uint(d.ThreadsPerGroup.Width), uint(d.ThreadsPerGroup.Height), uint(d.ThreadsPerGroup.Depth)}
		enc.Send(selDispatchThreads, grid, group)
	}
	return nil
}

// fence owns a retained MTLCommandBuffer.
type fence struct {
	id   objc.ID
	once sync.Once
	err  error
}

func (f *fence) Wait() error {
	f.once.Do(func() {
		defer release(f.id)
		f.id.Send(selWaitUntilCompleted)
		if objc.Send[uint](f.id, selStatus) != commandBufferStatusError {
			return
		}
		nsErr := f.id.Send(selError)
		if nsErr == 0 {
			f.err = fmt.Errorf("metal: command buffer failed")
			return
		}
		nsErr.Send(selRetain)
		f.err = fmt.Errorf("metal: command buffer failed: %w", platformError(nsErr, compute.ErrResourceExhausted))
	})
	return f.err
}
