// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build rust

package rust

import (
	"testing"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/kernels"
)

func TestBackendRegistration(t *testing.T) {
	if !backend.IsRegistered(backend.BackendRust) {
		t.Error("rust backend should be registered")
	}
}

func TestTypeStrings(t *testing.T) {
	if got := backendTypeToString(wgpu.BackendTypeVulkan); got != "Vulkan" {
		t.Errorf("backendTypeToString(Vulkan) = %q, want Vulkan", got)
	}
	if got := adapterTypeToString(wgpu.AdapterTypeCPU); got != "CPU" {
		t.Errorf("adapterTypeToString(CPU) = %q, want CPU", got)
	}
}

func TestAddArrays(t *testing.T) {
	d, err := Open(backend.Options{})
	if err != nil {
		t.Skipf("wgpu-native unavailable: %v", err)
	}
	defer d.Release()

	var scope compute.Scope
	defer scope.Release()

	fn, err := compute.LoadKernel(d, compute.InlineSource(kernels.Source(compute.LanguageWGSL)), kernels.EntryPoint)
	if err != nil {
		t.Fatalf("LoadKernel: %v", err)
	}
	scope.Track(fn)
	pso, err := compute.BuildPipeline(d, fn, compute.ReadOnly, compute.ReadOnly, compute.ReadWrite)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	scope.Track(pso)

	const n = 513
	seq := compute.FillFunc(func(i int) uint32 { return uint32(i) })
	a, err := compute.NewBuffer(d, n, seq)
	if err != nil {
		t.Fatal(err)
	}
	scope.Track(a)
	b, err := compute.NewBuffer(d, n, compute.FillFunc(func(i int) uint32 { return 1 }))
	if err != nil {
		t.Fatal(err)
	}
	scope.Track(b)
	out, err := compute.NewBuffer[uint32](d, n, nil)
	if err != nil {
		t.Fatal(err)
	}
	scope.Track(out)

	if err := compute.Run(d, pso, []compute.Buffer{a, b}, out, n); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, v := range compute.Elements[uint32](out) {
		if v != uint32(i+1) {
			t.Fatalf("result[%d] = %d, want %d", i, v, i+1)
		}
	}
}
