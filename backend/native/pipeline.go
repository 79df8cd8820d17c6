// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
)

// pipeline owns the bind group layout, pipeline layout, and compute
// pipeline for one entry point. Every argument lives in bind group 0.
type pipeline struct {
	device   *Device
	function *function
	args     []compute.Access

	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout
	pipeline   hal.ComputePipeline

	once sync.Once
}

// NewComputePipelineState builds a compute pipeline whose bind group layout
// follows desc.Arguments.
func (d *Device) NewComputePipelineState(desc *compute.PipelineDescriptor) (compute.PipelineState, error) {
	fn, ok := desc.Function.(*function)
	if !ok || fn.library.device != d {
		return nil, backend.PipelineError(ErrForeignResource.Error())
	}
	if len(desc.Arguments) == 0 {
		return nil, backend.PipelineError(ErrNoArguments.Error())
	}
	label := desc.Label
	if label == "" {
		label = fn.Name()
	}

	p := &pipeline{device: d, function: fn, args: desc.Arguments}
	if err := p.create(label); err != nil {
		p.destroyPartial()
		return nil, backend.PipelineError(err.Error())
	}
	compute.Logger().Debug("native: pipeline created",
		"label", label, "arguments", len(desc.Arguments), "workgroup", fn.entry.Workgroup)
	return p, nil
}

func (p *pipeline) create(label string) error {
	entries := make([]gputypes.BindGroupLayoutEntry, len(p.args))
	for i, access := range p.args {
		kind := gputypes.BufferBindingTypeReadOnlyStorage
		if access == compute.ReadWrite {
			kind = gputypes.BufferBindingTypeStorage
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // argument count is small
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: kind},
		}
	}

	var err error
	p.bindLayout, err = p.device.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bgl",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	p.layout, err = p.device.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	p.pipeline, err = p.device.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: p.layout,
		Compute: hal.ComputeState{
			Module:     p.function.library.shader,
			EntryPoint: p.function.Name(),
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

// destroyPartial releases whatever create managed to build.
func (p *pipeline) destroyPartial() {
	dev := p.device.device
	if p.pipeline != nil {
		dev.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
}

func (p *pipeline) Function() compute.Function { return p.function }
func (p *pipeline) Device() compute.Device     { return p.device }

// MaxTotalThreadsPerThreadgroup reports the device workgroup limit. The
// dispatched workgroup size is fixed by the shader's @workgroup_size.
func (p *pipeline) MaxTotalThreadsPerThreadgroup() int { return p.device.maxThreads }

// Release destroys the pipeline and its layouts.
func (p *pipeline) Release() {
	p.once.Do(p.destroyPartial)
}

// access returns the declared access mode of argument index.
func (p *pipeline) access(index int) compute.Access {
	if index < 0 || index >= len(p.args) {
		return compute.ReadOnly
	}
	return p.args[index]
}
