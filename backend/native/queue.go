// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

// fencePollInterval bounds a single device.Wait call. Fence.Wait keeps
// polling until the fence signals.
const fencePollInterval = time.Second

// queue translates recordings into HAL command buffers. Submissions are
// serialised so the HAL queue sees them in commit order.
type queue struct {
	device *Device
	mu     sync.Mutex
}

func (q *queue) Release() {}

// readback pairs a writable storage buffer with the staging copy made of it.
type readback struct {
	buffer  *buffer
	staging hal.Buffer
}

// submission holds every transient HAL object one recording needs.
type submission struct {
	device     *Device
	bindGroups []hal.BindGroup
	readbacks  []readback
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// Submit uploads the bound buffers, encodes one compute pass per recorded
// pass, appends staging copies of the writable buffers, and submits.
func (q *queue) Submit(rec *compute.Recording) (compute.Fence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d := q.device
	s := &submission{device: d}
	if err := s.encode(rec); err != nil {
		s.destroy()
		return nil, err
	}

	fence, err := d.device.CreateFence()
	if err != nil {
		s.destroy()
		return nil, fmt.Errorf("native: create fence: %w", err)
	}
	s.fence = fence

	if err := d.queue.Submit([]hal.CommandBuffer{s.cmdBuf}, fence, 1); err != nil {
		s.destroy()
		return nil, fmt.Errorf("native: submit: %w", err)
	}
	compute.Logger().Debug("native: submitted",
		"label", rec.Label, "dispatches", rec.DispatchCount(), "readbacks", len(s.readbacks))
	return &halFence{sub: s}, nil
}

func (s *submission) encode(rec *compute.Recording) error {
	d := s.device

	writable := make(map[*buffer]struct{})
	for _, b := range rec.Buffers() {
		nb, ok := b.(*buffer)
		if !ok || nb.device != d {
			return ErrForeignResource
		}
		nb.upload(d.queue)
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: rec.Label})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(rec.Label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	for _, pass := range rec.Passes {
		if err := s.encodePass(encoder, pass, writable); err != nil {
			encoder.DiscardEncoding()
			return err
		}
	}

	for b := range writable {
		staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "add_arrays_readback",
			Size:  alignedSize(b.Length()),
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.DiscardEncoding()
			return fmt.Errorf("native: create staging buffer: %w", err)
		}
		s.readbacks = append(s.readbacks, readback{buffer: b, staging: staging})
		encoder.CopyBufferToBuffer(b.gpu, staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: alignedSize(b.Length())},
		})
	}

	s.cmdBuf, err = encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	return nil
}

func (s *submission) encodePass(encoder hal.CommandEncoder, pass compute.Pass, writable map[*buffer]struct{}) error {
	d := s.device
	cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "add_arrays_pass"})
	defer cp.End()

	for _, dispatch := range pass.Dispatches {
		p, ok := dispatch.Pipeline.(*pipeline)
		if !ok || p.device != d {
			return ErrForeignResource
		}

		entries := make([]gputypes.BindGroupEntry, 0, len(dispatch.Bindings))
		for _, binding := range dispatch.Bindings {
			b := binding.Buffer.(*buffer)
			entries = append(entries, gputypes.BindGroupEntry{
				Binding: uint32(binding.Index), //nolint:gosec // argument index is small
				Resource: gputypes.BufferBinding{
					Buffer: b.gpu.NativeHandle(),
					Offset: uint64(binding.Offset),              //nolint:gosec // validated by the encoder
					Size:   uint64(b.Length() - binding.Offset), //nolint:gosec // validated by the encoder
				},
			})
			if p.access(binding.Index) == compute.ReadWrite {
				writable[b] = struct{}{}
			}
		}

		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "add_arrays_bind_group",
			Layout:  p.bindLayout,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("native: create bind group: %w", err)
		}
		s.bindGroups = append(s.bindGroups, bg)

		groups := wgsl.WorkgroupCount(dispatch.Grid.Total(), p.function.entry.Threads())
		cp.SetPipeline(p.pipeline)
		cp.SetBindGroup(0, bg, nil)
		cp.Dispatch(uint32(groups), 1, 1) //nolint:gosec // bounded by the grid size
	}
	return nil
}

func (s *submission) destroy() {
	dev := s.device.device
	if s.fence != nil {
		dev.DestroyFence(s.fence)
		s.fence = nil
	}
	if s.cmdBuf != nil {
		dev.FreeCommandBuffer(s.cmdBuf)
		s.cmdBuf = nil
	}
	for _, bg := range s.bindGroups {
		dev.DestroyBindGroup(bg)
	}
	s.bindGroups = nil
	for _, rb := range s.readbacks {
		dev.DestroyBuffer(rb.staging)
	}
	s.readbacks = nil
}

// halFence waits on the HAL fence and then copies writable buffers back
// into their shadows.
type halFence struct {
	sub  *submission
	once sync.Once
	err  error
}

func (f *halFence) Wait() error {
	f.once.Do(func() {
		f.err = f.wait()
		f.sub.destroy()
	})
	return f.err
}

func (f *halFence) wait() error {
	s := f.sub
	dev := s.device.device
	for {
		ok, err := dev.Wait(s.fence, 1, fencePollInterval)
		if err != nil {
			return fmt.Errorf("native: wait for GPU: %w", err)
		}
		if ok {
			break
		}
	}

	for _, rb := range s.readbacks {
		data := make([]byte, alignedSize(rb.buffer.Length()))
		if err := s.device.queue.ReadBuffer(rb.staging, 0, data); err != nil {
			return fmt.Errorf("native: readback: %w", err)
		}
		copy(rb.buffer.shadow, data)
	}
	return nil
}
