// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package addarrays

import (
	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/kernels"
)

// DefaultElementCount is the array length used when none is given.
const DefaultElementCount = 8

// Option configures a Runner.
//
// Example:
//
//	// Defaults: auto backend, embedded kernel, 8 elements of 0..7
//	res, err := addarrays.Run()
//
//	// Sixteen random elements on the software device
//	res, err := addarrays.Run(
//	    addarrays.WithBackend("software"),
//	    addarrays.WithElementCount(16),
//	    addarrays.WithFill(addarrays.Random(1, 1000)),
//	)
type Option func(*options)

type options struct {
	backend     string
	backendOpts backend.Options
	device      compute.Device

	source     compute.KernelSource
	hasSource  bool
	entryPoint string

	count int
	fillA compute.Fill[uint32]
	fillB compute.Fill[uint32]
}

func defaultOptions() options {
	return options{
		backend:    backend.BackendAuto,
		entryPoint: kernels.EntryPoint,
		count:      DefaultElementCount,
		fillA:      Sequence(0),
		fillB:      Sequence(0),
	}
}

// WithBackend selects the backend by registry name. "auto" picks the first
// that opens.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithBackendOptions sets the options passed to the backend factory.
func WithBackendOptions(opts backend.Options) Option {
	return func(o *options) {
		o.backendOpts = opts
	}
}

// WithDevice runs on an already open device instead of opening one.
// The caller keeps ownership: Run does not release it.
//
// Example:
//
//	dev := backend.NewSoftwareDevice(backend.Options{Workers: 2})
//	defer dev.Release()
//	res, err := addarrays.Run(addarrays.WithDevice(dev))
func WithDevice(dev compute.Device) Option {
	return func(o *options) {
		o.device = dev
	}
}

// WithKernelSource replaces the embedded kernel. The source must be in the
// device's language.
func WithKernelSource(src compute.KernelSource) Option {
	return func(o *options) {
		o.source = src
		o.hasSource = true
	}
}

// WithEntryPoint sets the kernel function name.
func WithEntryPoint(name string) Option {
	return func(o *options) {
		o.entryPoint = name
	}
}

// WithElementCount sets the array length.
func WithElementCount(n int) Option {
	return func(o *options) {
		o.count = n
	}
}

// WithFill sets the same fill for both input arrays.
func WithFill(fill compute.Fill[uint32]) Option {
	return func(o *options) {
		o.fillA = fill
		o.fillB = fill
	}
}

// WithFillA sets the fill for array A.
func WithFillA(fill compute.Fill[uint32]) Option {
	return func(o *options) {
		o.fillA = fill
	}
}

// WithFillB sets the fill for array B.
func WithFillB(fill compute.Fill[uint32]) Option {
	return func(o *options) {
		o.fillB = fill
	}
}
