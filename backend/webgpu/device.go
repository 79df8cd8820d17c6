// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build webgpu

package webgpu

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

func init() {
	backend.Register(backend.BackendWebGPU, func(opts backend.Options) (compute.Device, error) {
		return Open(opts)
	})
}

// Device is a compute.Device on a wgpu-native device.
type Device struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	name       string
	maxThreads int
	released   bool
}

// Open creates an instance, selects an adapter, and opens a device.
func Open(opts backend.Options) (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("%w: webgpu instance creation failed", backend.ErrBackendNotAvailable)
	}

	adapter, err := selectAdapter(instance, opts.Adapter)
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}

	info := adapter.GetInfo()
	limits := adapter.GetLimits()

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: queue retrieval failed")
	}

	maxThreads := int(min(limits.Limits.MaxComputeWorkgroupSizeX, limits.Limits.MaxComputeInvocationsPerWorkgroup))
	if opts.MaxThreadsPerGroup > 0 {
		maxThreads = min(maxThreads, opts.MaxThreadsPerGroup)
	}

	d := &Device{
		instance:   instance,
		adapter:    adapter,
		device:     device,
		queue:      queue,
		name:       strings.TrimSpace(info.Name),
		maxThreads: maxThreads,
	}
	compute.Logger().Info("webgpu: device opened",
		"adapter", d.name, "vendor", info.VendorName, "maxThreads", maxThreads)
	return d, nil
}

// selectAdapter returns the adapter whose name or vendor contains want, or
// the high-performance adapter when want is empty.
func selectAdapter(instance *wgpu.Instance, want string) (*wgpu.Adapter, error) {
	if want != "" {
		want = strings.ToLower(want)
		for _, a := range instance.EnumerateAdapters(nil) {
			info := a.GetInfo()
			if strings.Contains(strings.ToLower(info.Name), want) ||
				strings.Contains(strings.ToLower(info.VendorName), want) {
				return a, nil
			}
		}
		return nil, fmt.Errorf("no adapter matches %q", want)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || adapter == nil {
		adapter, err = instance.RequestAdapter(nil)
	}
	if err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, fmt.Errorf("no adapter")
	}
	return adapter, nil
}

func (d *Device) Name() string               { return d.name }
func (d *Device) Backend() string            { return backend.BackendWebGPU }
func (d *Device) Language() compute.Language { return compute.LanguageWGSL }

// Release releases the queue, device, adapter, and instance.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

// NewLibraryWithSource reflects the entry points and creates a shader
// module.
func (d *Device) NewLibraryWithSource(source string) (compute.Library, error) {
	m, err := wgsl.Reflect(source)
	if err != nil {
		return nil, backend.CompileError(err)
	}
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "add_arrays_library",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: source},
	})
	if err != nil {
		return nil, backend.CompileError(err)
	}
	return &library{device: d, module: m, shader: module}, nil
}

// NewLibraryWithURL reads WGSL from a file URL.
func (d *Device) NewLibraryWithURL(u *url.URL) (compute.Library, error) {
	source, err := backend.ReadFileURL(u)
	if err != nil {
		return nil, err
	}
	return d.NewLibraryWithSource(source)
}

// NewComputePipelineState builds an explicit layout from desc.Arguments.
func (d *Device) NewComputePipelineState(desc *compute.PipelineDescriptor) (compute.PipelineState, error) {
	fn, ok := desc.Function.(*function)
	if !ok || fn.library.device != d {
		return nil, backend.PipelineError("function was not created by this device")
	}
	if len(desc.Arguments) == 0 {
		return nil, backend.PipelineError("pipeline descriptor has no arguments")
	}
	label := desc.Label
	if label == "" {
		label = fn.entry.Name
	}

	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Arguments))
	for i, access := range desc.Arguments {
		kind := wgpu.BufferBindingTypeReadOnlyStorage
		if access == compute.ReadWrite {
			kind = wgpu.BufferBindingTypeStorage
		}
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // argument count is small
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: kind},
		}
	}

	bgl, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label + "_BGL",
		Entries: entries,
	})
	if err != nil {
		return nil, backend.PipelineError(fmt.Sprintf("create bind group layout: %v", err))
	}
	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + "_Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		bgl.Release()
		return nil, backend.PipelineError(fmt.Sprintf("create pipeline layout: %v", err))
	}
	cp, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  label,
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     fn.library.shader,
			EntryPoint: fn.entry.Name,
		},
	})
	if err != nil {
		layout.Release()
		bgl.Release()
		return nil, backend.PipelineError(fmt.Sprintf("create compute pipeline: %v", err))
	}
	return &pipeline{device: d, function: fn, args: desc.Arguments, bindLayout: bgl, layout: layout, pipeline: cp}, nil
}

// NewBuffer allocates a storage buffer with a host shadow.
func (d *Device) NewBuffer(length int) (compute.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("webgpu: invalid buffer length %d", length)
	}
	gpu, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "add_arrays_storage",
		Size:  alignedSize(length),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create buffer: %w", err)
	}
	return &buffer{device: d, gpu: gpu, shadow: make([]byte, length)}, nil
}

// NewCommandQueue returns a queue that submits to the device queue.
func (d *Device) NewCommandQueue() (compute.Queue, error) {
	return &queue{device: d}, nil
}

type library struct {
	device *Device
	module *wgsl.Module
	shader *wgpu.ShaderModule
	once   sync.Once
}

func (l *library) FunctionNames() []string { return l.module.Names() }
func (l *library) Release()                { l.once.Do(l.shader.Release) }

func (l *library) NewFunction(name string) (compute.Function, error) {
	ep, ok := l.module.Lookup(name)
	if !ok {
		return nil, backend.FunctionNotFound(name)
	}
	return &function{library: l, entry: ep}, nil
}

type function struct {
	library *library
	entry   wgsl.EntryPoint
}

func (f *function) Name() string             { return f.entry.Name }
func (f *function) Library() compute.Library { return f.library }
func (f *function) Release()                 {}

type pipeline struct {
	device   *Device
	function *function
	args     []compute.Access

	bindLayout *wgpu.BindGroupLayout
	layout     *wgpu.PipelineLayout
	pipeline   *wgpu.ComputePipeline
	once       sync.Once
}

func (p *pipeline) Function() compute.Function         { return p.function }
func (p *pipeline) Device() compute.Device             { return p.device }
func (p *pipeline) MaxTotalThreadsPerThreadgroup() int { return p.device.maxThreads }

func (p *pipeline) Release() {
	p.once.Do(func() {
		p.pipeline.Release()
		p.layout.Release()
		p.bindLayout.Release()
	})
}

type buffer struct {
	device *Device
	gpu    *wgpu.Buffer
	shadow []byte
	once   sync.Once
}

func (b *buffer) Device() compute.Device { return b.device }
func (b *buffer) Length() int            { return len(b.shadow) }
func (b *buffer) Contents() []byte       { return b.shadow }
func (b *buffer) Release()               { b.once.Do(b.gpu.Destroy) }

func alignedSize(n int) uint64 {
	return uint64((n + 3) &^ 3) //nolint:gosec // n is positive
}
