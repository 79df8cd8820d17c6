// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/wgsl"
)

// library is a WGSL module compiled into a HAL shader module.
type library struct {
	device *Device
	module *wgsl.Module
	shader hal.ShaderModule

	once sync.Once
}

// NewLibraryWithSource reflects the WGSL entry points and creates a shader
// module from the source.
func (d *Device) NewLibraryWithSource(source string) (compute.Library, error) {
	m, err := wgsl.Reflect(source)
	if err != nil {
		return nil, backend.CompileError(err)
	}

	shaderSource := hal.ShaderSource{WGSL: source}
	if d.spirv {
		code, err := wgsl.CompileSPIRV(source)
		if err != nil {
			return nil, backend.CompileError(err)
		}
		shaderSource = hal.ShaderSource{SPIRV: code}
	}

	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "add_arrays_library",
		Source: shaderSource,
	})
	if err != nil {
		return nil, backend.CompileError(err)
	}
	return &library{device: d, module: m, shader: shader}, nil
}

func (l *library) FunctionNames() []string { return l.module.Names() }

func (l *library) NewFunction(name string) (compute.Function, error) {
	ep, ok := l.module.Lookup(name)
	if !ok {
		return nil, backend.FunctionNotFound(name)
	}
	return &function{library: l, entry: ep}, nil
}

// Release destroys the shader module.
func (l *library) Release() {
	l.once.Do(func() {
		l.device.device.DestroyShaderModule(l.shader)
	})
}

type function struct {
	library *library
	entry   wgsl.EntryPoint
}

func (f *function) Name() string             { return f.entry.Name }
func (f *function) Library() compute.Library { return f.library }
func (f *function) Release()                 {}
