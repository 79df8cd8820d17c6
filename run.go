// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package addarrays

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/kernels"

	// Register every device backend.
	_ "github.com/gogpu/addarrays/backend/metal"
	_ "github.com/gogpu/addarrays/backend/native"
	_ "github.com/gogpu/addarrays/backend/rust"
	_ "github.com/gogpu/addarrays/backend/webgpu"
)

// ErrMismatch is returned by Result.Verify when the device output differs
// from the host sum.
var ErrMismatch = errors.New("addarrays: result mismatch")

// Result is the outcome of one dispatch. The slices are copies taken after
// the command buffer completed.
type Result struct {
	A, B, Sum []uint32

	// Backend and Device identify where the kernel ran.
	Backend string
	Device  string

	// MaxThreadsPerGroup is the pipeline's thread-group limit,
	// ThreadGroupWidth the sizing policy's choice, and DispatchWidth the
	// width actually dispatched.
	MaxThreadsPerGroup int
	ThreadGroupWidth   int
	DispatchWidth      int
}

// Verify checks Sum against A[i]+B[i] computed on the host, with uint32
// wraparound.
func (r *Result) Verify() error {
	if len(r.Sum) != len(r.A) || len(r.Sum) != len(r.B) {
		return fmt.Errorf("%w: lengths %d, %d, %d", ErrMismatch, len(r.A), len(r.B), len(r.Sum))
	}
	for i := range r.Sum {
		if want := r.A[i] + r.B[i]; r.Sum[i] != want {
			return fmt.Errorf("%w: index %d: got %d, want %d", ErrMismatch, i, r.Sum[i], want)
		}
	}
	return nil
}

// Runner performs the add_arrays dispatch. Each call to Run builds every
// resource from scratch, so repeated runs with the same options produce the
// same result.
type Runner struct {
	opts options
}

// NewRunner creates a Runner with the given options applied over the
// defaults.
func NewRunner(opts ...Option) *Runner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Runner{opts: o}
}

// Run is shorthand for NewRunner(opts...).Run().
func Run(opts ...Option) (*Result, error) {
	return NewRunner(opts...).Run()
}

// Run opens the device (unless one was supplied), compiles the kernel,
// dispatches it over the configured element count, and returns the arrays.
//
// Kernel and pipeline failures are *compute.Error values; queue, buffer and
// encoder failures are *compute.ResourceError. Every resource Run creates is
// released before it returns.
func (r *Runner) Run() (*Result, error) {
	o := r.opts
	if o.count <= 0 {
		return nil, fmt.Errorf("addarrays: element count must be positive: %d", o.count)
	}
	log := Logger()

	var scope compute.Scope
	defer scope.Release()

	dev := o.device
	if dev == nil {
		var err error
		dev, err = backend.Open(o.backend, o.backendOpts)
		if err != nil {
			return nil, err
		}
		scope.Track(dev)
	}
	log.Info("addarrays: using device", "backend", dev.Backend(), "device", dev.Name())

	src := o.source
	if !o.hasSource {
		src = compute.InlineSource(kernels.Source(dev.Language()))
	}

	// 1. Library and function.
	fn, err := compute.LoadKernel(dev, src, o.entryPoint)
	if err != nil {
		return nil, err
	}
	scope.Track(fn)

	// 2. Pipeline state.
	pso, err := compute.BuildPipeline(dev, fn, compute.ReadOnly, compute.ReadOnly, compute.ReadWrite)
	if err != nil {
		return nil, err
	}
	scope.Track(pso)

	// 3. Data.
	bufA, err := compute.NewBuffer(dev, o.count, o.fillA)
	if err != nil {
		return nil, err
	}
	scope.Track(bufA)
	bufB, err := compute.NewBuffer(dev, o.count, o.fillB)
	if err != nil {
		return nil, err
	}
	scope.Track(bufB)
	out, err := compute.NewBuffer[uint32](dev, o.count, nil)
	if err != nil {
		return nil, err
	}
	scope.Track(out)

	// 4-6. Queue, command buffer, encoder, dispatch, wait.
	if err := compute.Run(dev, pso, []compute.Buffer{bufA, bufB}, out, o.count); err != nil {
		return nil, err
	}

	// 7. Results.
	return &Result{
		A:                  slices.Clone(compute.Elements[uint32](bufA)[:o.count]),
		B:                  slices.Clone(compute.Elements[uint32](bufB)[:o.count]),
		Sum:                slices.Clone(compute.Elements[uint32](out)[:o.count]),
		Backend:            dev.Backend(),
		Device:             dev.Name(),
		MaxThreadsPerGroup: pso.MaxTotalThreadsPerThreadgroup(),
		ThreadGroupWidth:   compute.ThreadGroupWidth(pso, o.count),
		DispatchWidth:      compute.DispatchWidth(pso, o.count),
	}, nil
}
