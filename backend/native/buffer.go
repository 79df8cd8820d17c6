// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/compute"
)

// storageUsage is the usage of every kernel argument buffer.
const storageUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

// buffer is a GPU storage buffer with a host shadow. Contents returns the
// shadow; the queue uploads it before a dispatch and reads writable buffers
// back after the fence signals.
type buffer struct {
	device *Device
	gpu    hal.Buffer
	shadow []byte

	once sync.Once
}

// NewBuffer allocates a storage buffer of length bytes, rounded up to a
// multiple of four on the GPU side.
func (d *Device) NewBuffer(length int) (compute.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("native: invalid buffer length %d", length)
	}
	gpu, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "add_arrays_storage",
		Size:  alignedSize(length),
		Usage: storageUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create buffer: %w", err)
	}
	return &buffer{device: d, gpu: gpu, shadow: make([]byte, length)}, nil
}

func (b *buffer) Device() compute.Device { return b.device }
func (b *buffer) Length() int            { return len(b.shadow) }
func (b *buffer) Contents() []byte       { return b.shadow }

// Release destroys the GPU buffer. The shadow stays readable.
func (b *buffer) Release() {
	b.once.Do(func() {
		b.device.device.DestroyBuffer(b.gpu)
	})
}

// upload copies the shadow to the GPU buffer.
func (b *buffer) upload(q hal.Queue) {
	size := alignedSize(len(b.shadow))
	if size == uint64(len(b.shadow)) {
		q.WriteBuffer(b.gpu, 0, b.shadow)
		return
	}
	padded := make([]byte, size)
	copy(padded, b.shadow)
	q.WriteBuffer(b.gpu, 0, padded)
}

// alignedSize rounds n up to the 4-byte copy alignment.
func alignedSize(n int) uint64 {
	return uint64((n + 3) &^ 3) //nolint:gosec // n is positive
}
