// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build rust

package rust

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

type queue struct {
	device *Device
	mu     sync.Mutex
}

func (q *queue) Release() {}

type readback struct {
	buffer  *buffer
	staging *wgpu.Buffer
	size    uint64
}

// Submit uploads the bound shadows and submits one command buffer holding
// every recorded pass plus staging copies of the writable buffers.
func (q *queue) Submit(rec *compute.Recording) (compute.Fence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d := q.device

	for _, b := range rec.Buffers() {
		rb, ok := b.(*buffer)
		if !ok || rb.device != d {
			return nil, ErrForeignResource
		}
		padded := make([]byte, alignedSize(rb.Length()))
		copy(padded, rb.shadow)
		d.queue.WriteBuffer(rb.gpu, 0, padded)
	}

	f := &fence{device: d}
	writable := make(map[*buffer]struct{})
	encoder := d.device.CreateCommandEncoder(nil)
	for _, pass := range rec.Passes {
		cp := encoder.BeginComputePass(nil)
		for _, dispatch := range pass.Dispatches {
			p, ok := dispatch.Pipeline.(*pipeline)
			if !ok || p.device != d {
				cp.End()
				f.release()
				return nil, ErrForeignResource
			}

			entries := make([]wgpu.BindGroupEntry, 0, len(dispatch.Bindings))
			for _, binding := range dispatch.Bindings {
				if binding.Offset != 0 {
					cp.End()
					f.release()
					return nil, ErrBindingOffset
				}
				b := binding.Buffer.(*buffer)
				entries = append(entries, wgpu.BufferBindingEntry(
					uint32(binding.Index), b.gpu, 0, alignedSize(b.Length()))) //nolint:gosec // argument index is small
				if p.writable(binding.Index) {
					writable[b] = struct{}{}
				}
			}
			bg := d.device.CreateBindGroupSimple(p.bindLayout, entries)
			if bg == nil {
				cp.End()
				f.release()
				return nil, fmt.Errorf("rust: bind group creation failed")
			}
			f.bindGroups = append(f.bindGroups, bg)

			groups := wgsl.WorkgroupCount(dispatch.Grid.Total(), p.function.entry.Threads())
			cp.SetPipeline(p.pipeline)
			cp.SetBindGroup(0, bg, nil)
			cp.DispatchWorkgroups(uint32(groups), 1, 1) //nolint:gosec // bounded by the grid size
		}
		cp.End()
	}

	for b := range writable {
		size := alignedSize(b.Length())
		staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
			Size:  size,
		})
		if staging == nil {
			f.release()
			return nil, fmt.Errorf("rust: staging buffer creation failed")
		}
		f.readbacks = append(f.readbacks, readback{buffer: b, staging: staging, size: size})
		encoder.CopyBufferToBuffer(b.gpu, 0, staging, 0, size)
	}

	cmd := encoder.Finish(nil)
	d.queue.Submit(cmd)
	compute.Logger().Debug("rust: submitted",
		"label", rec.Label, "dispatches", rec.DispatchCount(), "readbacks", len(f.readbacks))
	return f, nil
}

// fence completes by mapping each staging buffer; mapping blocks until the
// queue has executed the copy.
type fence struct {
	device     *Device
	bindGroups []*wgpu.BindGroup
	readbacks  []readback

	once sync.Once
	err  error
}

func (f *fence) Wait() error {
	f.once.Do(func() {
		f.err = f.wait()
		f.release()
	})
	return f.err
}

func (f *fence) wait() error {
	for _, rb := range f.readbacks {
		if err := rb.staging.MapAsync(f.device.device, wgpu.MapModeRead, 0, rb.size); err != nil {
			return fmt.Errorf("rust: map staging buffer: %w", err)
		}
		data := mappedBytes(rb.staging.GetMappedRange(0, rb.size), rb.size)
		if data == nil {
			rb.staging.Unmap()
			return fmt.Errorf("rust: mapped range is nil")
		}
		copy(rb.buffer.shadow, data)
		rb.staging.Unmap()
	}
	return nil
}

func (f *fence) release() {
	for _, bg := range f.bindGroups {
		bg.Release()
	}
	f.bindGroups = nil
	for _, rb := range f.readbacks {
		rb.staging.Release()
	}
	f.readbacks = nil
}
