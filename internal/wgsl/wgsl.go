// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgsl compiles and reflects WGSL kernel sources with naga.
package wgsl

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga"
)

// EntryPoint is a compute entry point found in a WGSL module.
type EntryPoint struct {
	Name string

	// Workgroup is the @workgroup_size declared on the entry point.
	Workgroup [3]uint32
}

// Threads returns the number of invocations in one workgroup.
func (e EntryPoint) Threads() int {
	return int(e.Workgroup[0]) * int(max(e.Workgroup[1], 1)) * int(max(e.Workgroup[2], 1))
}

// Module is the reflected form of a WGSL source.
type Module struct {
	Source      string
	EntryPoints []EntryPoint
}

// Reflect parses and lowers source, returning its compute entry points.
// Parse and lowering diagnostics are returned unchanged.
func Reflect(source string) (*Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.Lower(ast)
	if err != nil {
		return nil, err
	}

	m := &Module{Source: source}
	for _, ep := range module.EntryPoints {
		// Only compute stages declare a workgroup size.
		if ep.Workgroup[0] == 0 {
			continue
		}
		m.EntryPoints = append(m.EntryPoints, EntryPoint{Name: ep.Name, Workgroup: ep.Workgroup})
	}
	return m, nil
}

// Names lists the compute entry point names in declaration order.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.EntryPoints))
	for _, ep := range m.EntryPoints {
		names = append(names, ep.Name)
	}
	return names
}

// Lookup returns the entry point called name.
func (m *Module) Lookup(name string) (EntryPoint, bool) {
	i := slices.IndexFunc(m.EntryPoints, func(ep EntryPoint) bool { return ep.Name == name })
	if i < 0 {
		return EntryPoint{}, false
	}
	return m.EntryPoints[i], true
}

// CompileSPIRV compiles WGSL to SPIR-V words.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("wgsl: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("wgsl: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// WorkgroupCount returns how many workgroups of size wg cover n elements.
func WorkgroupCount(n, wg int) int {
	if n <= 0 || wg <= 0 {
		return 0
	}
	return (n + wg - 1) / wg
}
