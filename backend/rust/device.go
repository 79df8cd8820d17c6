// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build rust

package rust

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

// defaultMaxThreads is the WebGPU default for
// maxComputeInvocationsPerWorkgroup, which every adapter supports.
const defaultMaxThreads = 256

// init registers the rust backend on package import.
func init() {
	backend.Register(backend.BackendRust, func(opts backend.Options) (compute.Device, error) {
		return Open(opts)
	})
}

// Device is a compute.Device on wgpu-native through go-webgpu/webgpu.
//
// The device manages GPU resources including instance, adapter, device,
// and queue via wgpu-native FFI bindings.
type Device struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	gpuInfo    *GPUInfo
	maxThreads int
	released   bool
}

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	Vendor       string
	Architecture string
	Device       string
	Description  string
	BackendType  string
	AdapterType  string
	VendorID     uint32
	DeviceID     uint32
}

// Open initializes wgpu-native, requests a high-performance adapter, and
// creates a device and queue.
func Open(opts backend.Options) (*Device, error) {
	// Step 1: Initialize wgpu-native library
	if err := wgpu.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", backend.ErrBackendNotAvailable, ErrLibraryNotFound, err)
	}

	// Step 2: Create Instance
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("rust: instance creation failed: %w", err)
	}

	// Step 3: Request Adapter (prefer high performance GPU)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w: %w", backend.ErrBackendNotAvailable, ErrNoGPU, err)
	}

	d := &Device{instance: instance, adapter: adapter, maxThreads: defaultMaxThreads}
	d.gpuInfo = d.getGPUInfo()
	if opts.Adapter != "" && (d.gpuInfo == nil || !matchesAdapter(d.gpuInfo, opts.Adapter)) {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: %w: adapter %q not found", backend.ErrBackendNotAvailable, ErrNoGPU, opts.Adapter)
	}
	d.logGPUInfo()

	// Step 4: Create Device
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("rust: device creation failed: %w", err)
	}
	d.device = device

	// Step 5: Get Queue
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("rust: queue retrieval failed")
	}
	d.queue = queue

	if opts.MaxThreadsPerGroup > 0 {
		d.maxThreads = min(d.maxThreads, opts.MaxThreadsPerGroup)
	}
	return d, nil
}

// Name returns the adapter's device name.
func (d *Device) Name() string {
	if d.gpuInfo == nil || d.gpuInfo.Device == "" {
		return "wgpu-native"
	}
	return d.gpuInfo.Device
}

func (d *Device) Backend() string            { return backend.BackendRust }
func (d *Device) Language() compute.Language { return compute.LanguageWGSL }

// GPUInfoData returns information about the selected GPU.
func (d *Device) GPUInfoData() *GPUInfo { return d.gpuInfo }

// Release releases all GPU resources in reverse order of creation.
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
	compute.Logger().Debug("rust: device released")
}

// NewLibraryWithSource reflects the entry points and creates a shader
// module.
func (d *Device) NewLibraryWithSource(source string) (compute.Library, error) {
	m, err := wgsl.Reflect(source)
	if err != nil {
		return nil, backend.CompileError(err)
	}
	shader := d.device.CreateShaderModuleWGSL(source)
	if shader == nil {
		return nil, backend.CompileError(fmt.Errorf("wgpu-native rejected the shader module"))
	}
	return &library{device: d, module: m, shader: shader}, nil
}

// NewLibraryWithURL reads WGSL from a file URL.
func (d *Device) NewLibraryWithURL(u *url.URL) (compute.Library, error) {
	source, err := backend.ReadFileURL(u)
	if err != nil {
		return nil, err
	}
	return d.NewLibraryWithSource(source)
}

// NewComputePipelineState creates a pipeline with an automatic layout.
// Argument access modes come from the shader's declarations; desc.Arguments
// selects which buffers are read back.
func (d *Device) NewComputePipelineState(desc *compute.PipelineDescriptor) (compute.PipelineState, error) {
	fn, ok := desc.Function.(*function)
	if !ok || fn.library.device != d {
		return nil, backend.PipelineError("function was not created by this device")
	}
	cp := d.device.CreateComputePipelineSimple(nil, fn.library.shader, fn.entry.Name)
	if cp == nil {
		return nil, backend.PipelineError(fmt.Sprintf("wgpu-native could not build %s", fn.entry.Name))
	}
	return &pipeline{
		device:     d,
		function:   fn,
		args:       desc.Arguments,
		pipeline:   cp,
		bindLayout: cp.GetBindGroupLayout(0),
	}, nil
}

// NewBuffer allocates a storage buffer with a host shadow.
func (d *Device) NewBuffer(length int) (compute.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("rust: invalid buffer length %d", length)
	}
	gpu := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		Size:  alignedSize(length),
	})
	if gpu == nil {
		return nil, fmt.Errorf("rust: buffer creation failed")
	}
	return &buffer{device: d, gpu: gpu, shadow: make([]byte, length)}, nil
}

// NewCommandQueue returns a queue that submits to the device queue.
func (d *Device) NewCommandQueue() (compute.Queue, error) {
	return &queue{device: d}, nil
}

// getGPUInfo retrieves information about the adapter.
func (d *Device) getGPUInfo() *GPUInfo {
	if d.adapter == nil {
		return nil
	}

	info, err := d.adapter.GetInfo()
	if err != nil {
		return nil
	}

	return &GPUInfo{
		Vendor:       info.Vendor,
		Architecture: info.Architecture,
		Device:       info.Device,
		Description:  info.Description,
		BackendType:  backendTypeToString(info.BackendType),
		AdapterType:  adapterTypeToString(info.AdapterType),
		VendorID:     info.VendorID,
		DeviceID:     info.DeviceID,
	}
}

// logGPUInfo logs information about the selected GPU.
func (d *Device) logGPUInfo() {
	if d.gpuInfo == nil {
		return
	}
	compute.Logger().Info("rust: GPU selected",
		"device", d.gpuInfo.Device,
		"description", d.gpuInfo.Description,
		"backend", d.gpuInfo.BackendType,
		"type", d.gpuInfo.AdapterType,
		"vendor", d.gpuInfo.Vendor,
		"vendorID", fmt.Sprintf("0x%04X", d.gpuInfo.VendorID),
		"deviceID", fmt.Sprintf("0x%04X", d.gpuInfo.DeviceID))
}

// backendTypeToString converts wgpu backend type to string.
func backendTypeToString(bt wgpu.BackendType) string {
	switch bt {
	case wgpu.BackendTypeNull:
		return "Null"
	case wgpu.BackendTypeWebGPU:
		return "WebGPU"
	case wgpu.BackendTypeD3D11:
		return "D3D11"
	case wgpu.BackendTypeD3D12:
		return "D3D12"
	case wgpu.BackendTypeMetal:
		return "Metal"
	case wgpu.BackendTypeVulkan:
		return "Vulkan"
	case wgpu.BackendTypeOpenGL:
		return "OpenGL"
	case wgpu.BackendTypeOpenGLES:
		return "OpenGLES"
	default:
		return "Unknown"
	}
}

// adapterTypeToString converts wgpu adapter type to string.
func adapterTypeToString(at wgpu.AdapterType) string {
	switch at {
	case wgpu.AdapterTypeDiscreteGPU:
		return "DiscreteGPU"
	case wgpu.AdapterTypeIntegratedGPU:
		return "IntegratedGPU"
	case wgpu.AdapterTypeCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}
