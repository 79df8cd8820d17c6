// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build rust

package rust

import (
	"strings"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

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
	device     *Device
	function   *function
	args       []compute.Access
	pipeline   *wgpu.ComputePipeline
	bindLayout *wgpu.BindGroupLayout
	once       sync.Once
}

func (p *pipeline) Function() compute.Function         { return p.function }
func (p *pipeline) Device() compute.Device             { return p.device }
func (p *pipeline) MaxTotalThreadsPerThreadgroup() int { return p.device.maxThreads }

func (p *pipeline) Release() {
	p.once.Do(func() {
		if p.bindLayout != nil {
			p.bindLayout.Release()
		}
		p.pipeline.Release()
	})
}

func (p *pipeline) writable(index int) bool {
	return index < len(p.args) && p.args[index] == compute.ReadWrite
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
func (b *buffer) Release()               { b.once.Do(b.gpu.Release) }

func alignedSize(n int) uint64 {
	return uint64((n + 3) &^ 3) //nolint:gosec // n is positive
}

// mappedBytes views size bytes at a mapped range pointer.
func mappedBytes(ptr unsafe.Pointer, size uint64) []byte {
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}

func matchesAdapter(info *GPUInfo, want string) bool {
	want = strings.ToLower(want)
	return strings.Contains(strings.ToLower(info.Device), want) ||
		strings.Contains(strings.ToLower(info.Description), want) ||
		strings.Contains(strings.ToLower(info.Vendor), want)
}
