// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/backend"
)

// FromProvider wraps the HAL device of a host application, such as a gogpu
// window, so kernels run on the GPU it already opened. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. The device is not destroyed by Release.
func FromProvider(provider gpucontext.DeviceProvider, opts backend.Options) (*Device, error) {
	if provider == nil {
		return nil, ErrProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProvider)
	}
	return NewDevice(device, queue, "shared HAL device", gputypes.DefaultLimits(), opts)
}
