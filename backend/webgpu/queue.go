// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build webgpu

package webgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

var (
	errForeignResource = errors.New("webgpu: resource belongs to a different device")
	errBindingOffset   = errors.New("webgpu: non-zero binding offsets are not supported")
)

type queue struct {
	device *Device
	mu     sync.Mutex
}

func (q *queue) Release() {}

type readback struct {
	buffer  *buffer
	staging *wgpu.Buffer
}

// Submit uploads every bound shadow, encodes the passes and staging copies,
// and submits the command buffer.
func (q *queue) Submit(rec *compute.Recording) (compute.Fence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d := q.device

	for _, b := range rec.Buffers() {
		wb, ok := b.(*buffer)
		if !ok || wb.device != d {
			return nil, errForeignResource
		}
		padded := make([]byte, alignedSize(wb.Length()))
		copy(padded, wb.shadow)
		d.queue.WriteBuffer(wb.gpu, 0, padded)
	}

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: create command encoder: %w", err)
	}

	f := &fence{device: d}
	writable := make(map[*buffer]struct{})
	for _, pass := range rec.Passes {
		cp := enc.BeginComputePass(nil)
		for _, dispatch := range pass.Dispatches {
			p, ok := dispatch.Pipeline.(*pipeline)
			if !ok || p.device != d {
				cp.End()
				f.release()
				return nil, errForeignResource
			}
			bg, err := f.bindGroup(p, dispatch.Bindings, writable)
			if err != nil {
				cp.End()
				f.release()
				return nil, err
			}
			groups := wgsl.WorkgroupCount(dispatch.Grid.Total(), p.function.entry.Threads())
			cp.SetPipeline(p.pipeline)
			cp.SetBindGroup(0, bg, nil)
			cp.DispatchWorkgroups(uint32(groups), 1, 1) //nolint:gosec // bounded by the grid size
		}
		cp.End()
	}

	for b := range writable {
		size := alignedSize(b.Length())
		staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "add_arrays_readback",
			Size:  size,
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			f.release()
			return nil, fmt.Errorf("webgpu: create staging buffer: %w", err)
		}
		f.readbacks = append(f.readbacks, readback{buffer: b, staging: staging})
		enc.CopyBufferToBuffer(b.gpu, 0, staging, 0, size)
	}

	cmd, err := enc.Finish(nil)
	if err != nil {
		f.release()
		return nil, fmt.Errorf("webgpu: finish: %w", err)
	}
	d.queue.Submit(cmd)
	compute.Logger().Debug("webgpu: submitted",
		"label", rec.Label, "dispatches", rec.DispatchCount(), "readbacks", len(f.readbacks))
	return f, nil
}

// fence waits by mapping each staging buffer and polling the device.
type fence struct {
	device     *Device
	bindGroups []*wgpu.BindGroup
	readbacks  []readback

	once sync.Once
	err  error
}

func (f *fence) bindGroup(p *pipeline, bindings []compute.Binding, writable map[*buffer]struct{}) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(bindings))
	for _, binding := range bindings {
		if binding.Offset != 0 {
			return nil, errBindingOffset
		}
		b := binding.Buffer.(*buffer)
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: uint32(binding.Index), //nolint:gosec // argument index is small
			Buffer: b.gpu,
			Size:   b.gpu.GetSize(),
		})
		if binding.Index < len(p.args) && p.args[binding.Index] == compute.ReadWrite {
			writable[b] = struct{}{}
		}
	}
	bg, err := f.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "add_arrays_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create bind group: %w", err)
	}
	f.bindGroups = append(f.bindGroups, bg)
	return bg, nil
}

func (f *fence) Wait() error {
	f.once.Do(func() {
		f.err = f.wait()
		f.release()
	})
	return f.err
}

func (f *fence) wait() error {
	dev := f.device.device
	if len(f.readbacks) == 0 {
		dev.Poll(true, nil)
		return nil
	}
	for _, rb := range f.readbacks {
		size := rb.staging.GetSize()
		done := make(chan struct{})
		var mapErr error
		err := rb.staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
			if status != wgpu.BufferMapAsyncStatusSuccess {
				mapErr = fmt.Errorf("webgpu: map status %v", status)
			}
			close(done)
		})
		if err != nil {
			return fmt.Errorf("webgpu: map staging buffer: %w", err)
		}
	poll:
		for {
			dev.Poll(true, nil)
			select {
			case <-done:
				break poll
			default:
			}
		}
		if mapErr != nil {
			return mapErr
		}
		data := rb.staging.GetMappedRange(0, uint(size))
		if data == nil {
			rb.staging.Unmap()
			return fmt.Errorf("webgpu: mapped range is nil")
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
		rb.staging.Destroy()
	}
	f.readbacks = nil
}
