// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package metal

import (
	"errors"
	"testing"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/kernels"
)

func openOrSkip(t *testing.T) *Device {
	t.Helper()
	d, err := Open(backend.Options{})
	if err != nil {
		t.Skipf("Metal unavailable: %v", err)
	}
	t.Cleanup(d.Release)
	return d
}

func TestDeviceLanguage(t *testing.T) {
	d := openOrSkip(t)
	if d.Language() != compute.LanguageMSL {
		t.Errorf("Language() = %v, want MSL", d.Language())
	}
	if d.Name() == "" {
		t.Error("Name() is empty")
	}
}

func TestAddArrays(t *testing.T) {
	d := openOrSkip(t)

	var scope compute.Scope
	defer scope.Release()

	fn, err := compute.LoadKernel(d, compute.InlineSource(kernels.Source(compute.LanguageMSL)), kernels.EntryPoint)
	if err != nil {
		t.Fatalf("LoadKernel: %v", err)
	}
	scope.Track(fn)
	pso, err := compute.BuildPipeline(d, fn, compute.ReadOnly, compute.ReadOnly, compute.ReadWrite)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	scope.Track(pso)

	const n = 1 << 16
	seq := compute.FillFunc(func(i int) uint32 { return uint32(i) })
	a, err := compute.NewBuffer(d, n, seq)
	if err != nil {
		t.Fatal(err)
	}
	scope.Track(a)
	b, err := compute.NewBuffer(d, n, seq)
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
		if v != uint32(2*i) {
			t.Fatalf("result[%d] = %d, want %d", i, v, 2*i)
		}
	}
}

func TestCompileErrorCarriesNSError(t *testing.T) {
	d := openOrSkip(t)

	_, err := d.NewLibraryWithSource("kernel void broken(")
	pe, ok := compute.AsPlatformError(err)
	if !ok {
		t.Fatalf("error = %v, want *compute.Error", err)
	}
	if pe.Code != compute.CodeCompileFailure {
		t.Errorf("Code = %d, want %d", pe.Code, compute.CodeCompileFailure)
	}
	if !errors.Is(err, compute.ErrCompileFailure) {
		t.Error("error does not wrap ErrCompileFailure")
	}
}

func TestFunctionNotFound(t *testing.T) {
	d := openOrSkip(t)

	_, err := compute.LoadKernel(d, compute.InlineSource(kernels.Source(compute.LanguageMSL)), "add_arrays_v2")
	if !errors.Is(err, compute.ErrFunctionNotFound) {
		t.Errorf("LoadKernel(missing) error = %v, want ErrFunctionNotFound", err)
	}
}
