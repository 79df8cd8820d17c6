// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"
	"net/url"
)

// Language identifies the kernel language a device compiles.
type Language int

const (
	// LanguageWGSL is the WebGPU Shading Language.
	LanguageWGSL Language = iota
	// LanguageMSL is the Metal Shading Language.
	LanguageMSL
)

// String returns the string representation of Language.
func (l Language) String() string {
	switch l {
	case LanguageWGSL:
		return "WGSL"
	case LanguageMSL:
		return "MSL"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// Extension returns the conventional file extension for kernel sources.
func (l Language) Extension() string {
	if l == LanguageMSL {
		return ".metal"
	}
	return ".wgsl"
}

// Releaser is implemented by every device-owned resource.
type Releaser interface {
	Release()
}

// Device is a compute device and the platform services around it: the
// shader compiler, memory allocator, and command queue factory.
//
// Implementations live under backend/. A Device is created once per process
// and must outlive every resource created from it.
type Device interface {
	// Name returns the human-readable device name.
	Name() string

	// Backend returns the registry name of the implementation.
	Backend() string

	// Language returns the kernel language the device compiles.
	Language() Language

	// NewLibraryWithSource compiles kernel source text.
	// Compiler diagnostics are returned as *Error.
	NewLibraryWithSource(source string) (Library, error)

	// NewLibraryWithURL loads and compiles the library at a file URL
	// without the caller reading the file.
	NewLibraryWithURL(u *url.URL) (Library, error)

	// NewComputePipelineState compiles a function into an executable
	// pipeline. Failures are returned as *Error.
	NewComputePipelineState(desc *PipelineDescriptor) (PipelineState, error)

	// NewBuffer allocates length bytes of shared storage, zero filled.
	NewBuffer(length int) (Buffer, error)

	// NewCommandQueue creates a queue that executes recordings in
	// submission order.
	NewCommandQueue() (Queue, error)

	// Release destroys the device.
	Release()
}

// Library is a compiled collection of kernel functions.
type Library interface {
	Releaser

	// FunctionNames lists the entry points the library exports.
	FunctionNames() []string

	// NewFunction resolves an entry point by name.
	NewFunction(name string) (Function, error)
}

// Function is a single kernel entry point within a Library.
type Function interface {
	Releaser

	// Name returns the entry point name.
	Name() string

	// Library returns the owning library.
	Library() Library
}

// PipelineState is an executable form of exactly one Function.
type PipelineState interface {
	Releaser

	// Function returns the compiled function.
	Function() Function

	// Device returns the device the pipeline was built on.
	Device() Device

	// MaxTotalThreadsPerThreadgroup returns the device-defined ceiling on
	// threads per group for this pipeline.
	MaxTotalThreadsPerThreadgroup() int
}

// Buffer is a contiguous shared-storage memory region.
type Buffer interface {
	Releaser

	// Device returns the device that allocated the buffer.
	Device() Device

	// Length returns the size in bytes.
	Length() int

	// Contents returns the host-visible bytes. The slice stays valid until
	// Release and always refers to the same memory.
	Contents() []byte
}

// Queue is the backend half of a command queue. It receives finished
// recordings from CommandBuffer.Commit.
type Queue interface {
	Releaser

	// Submit hands a recording to the device and returns without waiting.
	Submit(rec *Recording) (Fence, error)
}

// Fence signals completion of one submitted recording.
type Fence interface {
	// Wait blocks until the recording has executed. There is no timeout.
	Wait() error
}

// Access describes how a kernel argument buffer is used.
type Access int

const (
	// ReadOnly buffers are only read by the kernel.
	ReadOnly Access = iota
	// ReadWrite buffers are written by the kernel.
	ReadWrite
)

// String returns the string representation of Access.
func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read"
	case ReadWrite:
		return "read_write"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// PipelineDescriptor describes a compute pipeline to build.
type PipelineDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Function is the kernel entry point.
	Function Function

	// Arguments lists the access mode of each buffer argument, by index.
	// Devices with explicit binding layouts use it to build them.
	Arguments []Access
}

// Size is a 3-D extent for grids and thread groups.
type Size struct {
	Width, Height, Depth int
}

// Size1D returns a one-dimensional extent.
func Size1D(width int) Size {
	return Size{Width: width, Height: 1, Depth: 1}
}

// Total returns Width*Height*Depth.
func (s Size) Total() int {
	return s.Width * s.Height * s.Depth
}

// String returns "(w, h, d)".
func (s Size) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Width, s.Height, s.Depth)
}
