// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
)

func init() {
	backend.Register(backend.BackendNative, func(opts backend.Options) (compute.Device, error) {
		return Open(opts)
	})
}

// Device is a compute.Device backed by a gogpu/wgpu HAL device.
//
// HAL buffers are not host visible, so each Buffer keeps a host shadow.
// Submit uploads the shadows of every bound buffer; after the fence signals
// the writable ones are copied back through staging buffers.
type Device struct {
	mu sync.Mutex

	instance hal.Instance // nil when the device came from a provider
	device   hal.Device
	queue    hal.Queue
	name     string
	external bool
	spirv    bool

	maxThreads int
	released   bool
}

// Open creates a standalone device on the first HAL backend available on
// this platform.
func Open(opts backend.Options) (*Device, error) {
	var lastErr error = ErrNoHALBackend
	for _, id := range platformBackends() {
		halBackend, ok := hal.GetBackend(id)
		if !ok {
			continue
		}
		d, err := openOn(halBackend, opts)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, lastErr)
}

func openOn(halBackend hal.Backend, opts backend.Options) (*Device, error) {
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	selected := selectAdapter(adapters, opts.Adapter)
	if selected == nil {
		instance.Destroy()
		return nil, ErrNoGPU
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	d := newDevice(openDev.Device, openDev.Queue, selected.Info.Name, limits, opts)
	d.instance = instance
	compute.Logger().Info("native: GPU device opened",
		"adapter", selected.Info.Name, "type", selected.Info.DeviceType, "maxThreads", d.maxThreads)
	return d, nil
}

// selectAdapter picks the adapter whose name contains want, or else the
// first discrete or integrated GPU, or else the first adapter.
func selectAdapter(adapters []hal.ExposedAdapter, want string) *hal.ExposedAdapter {
	if len(adapters) == 0 {
		return nil
	}
	if want != "" {
		for i := range adapters {
			if strings.Contains(strings.ToLower(adapters[i].Info.Name), strings.ToLower(want)) {
				return &adapters[i]
			}
		}
		return nil
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// NewDevice wraps an existing HAL device and queue. The caller keeps
// ownership: Release does not destroy them.
func NewDevice(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits, opts backend.Options) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrProvider
	}
	d := newDevice(device, queue, name, limits, opts)
	d.external = true
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits, opts backend.Options) *Device {
	// Dispatches are 1-D, so the X workgroup limit bounds a thread group.
	maxThreads := int(limits.MaxComputeWorkgroupSizeX)
	if opts.MaxThreadsPerGroup > 0 {
		maxThreads = min(maxThreads, opts.MaxThreadsPerGroup)
	}
	if name == "" {
		name = "HAL device"
	}
	return &Device{
		device:     device,
		queue:      queue,
		name:       name,
		maxThreads: maxThreads,
		spirv:      opts.SPIRV,
	}
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// Backend returns backend.BackendNative.
func (d *Device) Backend() string { return backend.BackendNative }

// Language returns compute.LanguageWGSL.
func (d *Device) Language() compute.Language { return compute.LanguageWGSL }

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() any { return d.queue }

// Release destroys the device and instance if this Device created them.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	if !d.external && d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

// NewLibraryWithURL reads WGSL from a file URL and compiles it.
func (d *Device) NewLibraryWithURL(u *url.URL) (compute.Library, error) {
	source, err := backend.ReadFileURL(u)
	if err != nil {
		return nil, err
	}
	return d.NewLibraryWithSource(source)
}

// NewCommandQueue returns a queue submitting to the HAL queue.
func (d *Device) NewCommandQueue() (compute.Queue, error) {
	return &queue{device: d}, nil
}
