// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"testing"
)

func loadFake(t *testing.T, dev *fakeDevice) Function {
	t.Helper()
	fn, err := LoadKernel(dev, InlineSource(fakeKernel), "add_arrays")
	if err != nil {
		t.Fatalf("LoadKernel() error = %v", err)
	}
	return fn
}

func TestBuildPipeline(t *testing.T) {
	dev := newFakeDevice()
	fn := loadFake(t, dev)
	pso, err := BuildPipeline(dev, fn, ReadOnly, ReadOnly, ReadWrite)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if pso.Device() != Device(dev) {
		t.Error("pipeline device mismatch")
	}
	if pso.Function().Name() != "add_arrays" {
		t.Errorf("Function().Name() = %q", pso.Function().Name())
	}
}

func TestBuildPipeline_Failure(t *testing.T) {
	dev := newFakeDevice()
	fn := loadFake(t, dev)
	dev.failPipeline = true

	_, err := BuildPipeline(dev, fn)
	if !errors.Is(err, ErrPipelineCompilation) {
		t.Fatalf("BuildPipeline() error = %v, want ErrPipelineCompilation", err)
	}
	if _, ok := AsPlatformError(err); !ok {
		t.Error("pipeline failure should be a platform error")
	}
}

func TestThreadGroupWidth(t *testing.T) {
	dev := newFakeDevice()
	pso, err := BuildPipeline(dev, loadFake(t, dev))
	if err != nil {
		t.Fatal(err)
	}
	limit := pso.MaxTotalThreadsPerThreadgroup()
	for _, n := range []int{1, 8, limit - 1, limit, limit + 1, 10 * limit} {
		policy := ThreadGroupWidth(pso, n)
		if policy < limit || policy < n {
			t.Errorf("ThreadGroupWidth(%d) = %d, want >= %d and >= n", n, policy, limit)
		}
		if w := DispatchWidth(pso, n); w > limit || w <= 0 {
			t.Errorf("DispatchWidth(%d) = %d, want in (0, %d]", n, w, limit)
		}
	}
}

func TestBuildPipeline_StateWithError(t *testing.T) {
	dev := newFakeDevice()
	fn := loadFake(t, dev)
	dev.pipelineErr = &Error{Domain: LibraryDomain, Code: CodeInternal, Description: "link failed"}

	pso, err := BuildPipeline(dev, fn, ReadOnly, ReadOnly, ReadWrite)
	if pso != nil {
		t.Error("BuildPipeline() returned a pipeline alongside an error")
	}
	if !errors.Is(err, ErrPipelineCompilation) {
		t.Fatalf("BuildPipeline() error = %v, want ErrPipelineCompilation", err)
	}
	if got := dev.released.Load(); got != 1 {
		t.Errorf("released = %d, want 1 (pipeline returned with the error)", got)
	}
}
