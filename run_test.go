// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package addarrays

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/kernels"
)

func TestRun_Default(t *testing.T) {
	res, err := Run(WithBackend(backend.BackendSoftware))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := []uint32{0, 2, 4, 6, 8, 10, 12, 14}; !slices.Equal(res.Sum, want) {
		t.Errorf("Sum = %v, want %v", res.Sum, want)
	}
	if res.Backend != backend.BackendSoftware {
		t.Errorf("Backend = %q, want %q", res.Backend, backend.BackendSoftware)
	}
	if res.ThreadGroupWidth < res.MaxThreadsPerGroup || res.ThreadGroupWidth < len(res.Sum) {
		t.Errorf("ThreadGroupWidth = %d, want >= max(%d, %d)",
			res.ThreadGroupWidth, res.MaxThreadsPerGroup, len(res.Sum))
	}
	if res.DispatchWidth > res.MaxThreadsPerGroup {
		t.Errorf("DispatchWidth = %d exceeds limit %d", res.DispatchWidth, res.MaxThreadsPerGroup)
	}
	if err := res.Verify(); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []uint32
	}{
		{
			name: "offset sequence",
			opts: []Option{WithFillB(Sequence(8))},
			want: []uint32{8, 10, 12, 14, 16, 18, 20, 22},
		},
		{
			name: "single element",
			opts: []Option{WithElementCount(1), WithFillA(Values(40)), WithFillB(Values(2))},
			want: []uint32{42},
		},
		{
			name: "wraparound",
			opts: []Option{WithElementCount(1), WithFillA(Values(0xFFFFFFFF)), WithFillB(Values(1))},
			want: []uint32{0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithBackend(backend.BackendSoftware)}, tt.opts...)
			res, err := Run(opts...)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !slices.Equal(res.Sum, tt.want) {
				t.Errorf("Sum = %v, want %v", res.Sum, tt.want)
			}
		})
	}
}

func TestRun_LargeRandom(t *testing.T) {
	res, err := Run(
		WithBackend(backend.BackendSoftware),
		WithBackendOptions(backend.Options{MaxThreadsPerGroup: 64, Workers: 4}),
		WithElementCount(5000),
		WithFillA(Random(1, 1<<20)),
		WithFillB(Random(2, 1<<20)),
	)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := res.Verify(); err != nil {
		t.Error(err)
	}
	if res.DispatchWidth != 64 {
		t.Errorf("DispatchWidth = %d, want 64", res.DispatchWidth)
	}
	if res.ThreadGroupWidth != 5000 {
		t.Errorf("ThreadGroupWidth = %d, want 5000", res.ThreadGroupWidth)
	}
}

func TestRun_Idempotent(t *testing.T) {
	r := NewRunner(WithBackend(backend.BackendSoftware), WithFill(Random(3, 1000)))
	first, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first.Sum, second.Sum) {
		t.Errorf("second run Sum = %v, want %v", second.Sum, first.Sum)
	}
}

func TestRun_CallerDeviceNotReleased(t *testing.T) {
	dev := backend.NewSoftwareDevice(backend.Options{})
	defer dev.Release()

	for range 2 {
		if _, err := Run(WithDevice(dev)); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}
	if got := dev.Name(); got == "" {
		t.Error("device should still be usable")
	}
}

func TestRun_KernelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), kernels.FileName(compute.LanguageWGSL))
	if err := os.WriteFile(path, []byte(kernels.Source(compute.LanguageWGSL)), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, src := range []compute.KernelSource{compute.FileSource(path), compute.URLSource(path)} {
		t.Run(src.Kind().String(), func(t *testing.T) {
			res, err := Run(WithBackend(backend.BackendSoftware), WithKernelSource(src))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if err := res.Verify(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing entry point", func(t *testing.T) {
		_, err := Run(WithBackend(backend.BackendSoftware), WithEntryPoint("sub_arrays"))
		if !errors.Is(err, compute.ErrFunctionNotFound) {
			t.Fatalf("Run() error = %v, want ErrFunctionNotFound", err)
		}
		pe, ok := compute.AsPlatformError(err)
		if !ok || pe.Code != compute.CodeFunctionNotFound {
			t.Errorf("platform error = %+v, want code %d", pe, compute.CodeFunctionNotFound)
		}
	})

	t.Run("compile failure", func(t *testing.T) {
		_, err := Run(WithBackend(backend.BackendSoftware),
			WithKernelSource(compute.InlineSource("this is not a kernel")))
		if !errors.Is(err, compute.ErrCompileFailure) {
			t.Errorf("Run() error = %v, want ErrCompileFailure", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Run(WithBackend(backend.BackendSoftware),
			WithKernelSource(compute.FileSource(filepath.Join(t.TempDir(), "absent.wgsl"))))
		pe, ok := compute.AsPlatformError(err)
		if !ok || pe.Code != compute.CodeFileNotFound {
			t.Errorf("Run() error = %v, want code %d", err, compute.CodeFileNotFound)
		}
	})

	t.Run("zero count", func(t *testing.T) {
		if _, err := Run(WithBackend(backend.BackendSoftware), WithElementCount(0)); err == nil {
			t.Error("Run() with zero elements should fail")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Run(WithBackend("vulkan-direct"))
		if !errors.Is(err, backend.ErrUnknownBackend) {
			t.Errorf("Run() error = %v, want ErrUnknownBackend", err)
		}
	})
}

func TestResult_Verify(t *testing.T) {
	good := &Result{A: []uint32{1, 2}, B: []uint32{3, 4}, Sum: []uint32{4, 6}}
	if err := good.Verify(); err != nil {
		t.Errorf("Verify() = %v, want nil", err)
	}
	bad := &Result{A: []uint32{1, 2}, B: []uint32{3, 4}, Sum: []uint32{4, 7}}
	if err := bad.Verify(); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() = %v, want ErrMismatch", err)
	}
	short := &Result{A: []uint32{1}, B: []uint32{1}}
	if err := short.Verify(); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify() = %v, want ErrMismatch", err)
	}
}
