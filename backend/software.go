// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"fmt"
	"net/url"
	"sync"
	"unsafe"

	"github.com/gogpu/addarrays/compute"
	"github.com/gogpu/addarrays/internal/parallel"
	"github.com/gogpu/addarrays/internal/wgsl"
)

// DefaultSoftwareMaxThreads is the thread-group limit the software device
// reports when Options.MaxThreadsPerGroup is zero.
const DefaultSoftwareMaxThreads = 1024

// HostKernel is the CPU implementation of a kernel entry point. It receives
// the bound buffers in argument order and returns the per-invocation body.
type HostKernel func(args [][]byte) (func(index int), error)

var (
	hostKernelsMu sync.RWMutex
	hostKernels   = map[string]HostKernel{"add_arrays": addArraysHost}
)

// RegisterHostKernel makes a CPU implementation available to software
// pipelines for the entry point name.
func RegisterHostKernel(name string, k HostKernel) {
	hostKernelsMu.Lock()
	defer hostKernelsMu.Unlock()
	hostKernels[name] = k
}

func lookupHostKernel(name string) (HostKernel, bool) {
	hostKernelsMu.RLock()
	defer hostKernelsMu.RUnlock()
	k, ok := hostKernels[name]
	return k, ok
}

// addArraysHost computes result[i] = inA[i] + inB[i] over uint32 buffers.
// Indices past the shortest buffer are skipped.
func addArraysHost(args [][]byte) (func(int), error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("add_arrays: want 3 buffers, got %d", len(args))
	}
	a, b, out := words(args[0]), words(args[1]), words(args[2])
	n := min(len(a), len(b), len(out))
	return func(i int) {
		if i < n {
			out[i] = a[i] + b[i]
		}
	}, nil
}

func words(b []byte) []uint32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func init() {
	Register(BackendSoftware, func(opts Options) (compute.Device, error) {
		return NewSoftwareDevice(opts), nil
	})
}

// SoftwareDevice executes kernels on the CPU. Libraries are WGSL, reflected
// with naga; each entry point runs through its registered HostKernel with
// thread groups spread over a worker pool.
type SoftwareDevice struct {
	maxThreads int
	pool       *parallel.WorkerPool
	closeOnce  sync.Once
}

// NewSoftwareDevice creates a CPU device.
func NewSoftwareDevice(opts Options) *SoftwareDevice {
	maxThreads := opts.MaxThreadsPerGroup
	if maxThreads <= 0 {
		maxThreads = DefaultSoftwareMaxThreads
	}
	return &SoftwareDevice{
		maxThreads: maxThreads,
		pool:       parallel.NewWorkerPool(opts.Workers),
	}
}

// Name returns the device name.
func (d *SoftwareDevice) Name() string {
	return fmt.Sprintf("CPU (%d workers)", d.pool.Workers())
}

// Backend returns BackendSoftware.
func (d *SoftwareDevice) Backend() string { return BackendSoftware }

// Language returns LanguageWGSL.
func (d *SoftwareDevice) Language() compute.Language { return compute.LanguageWGSL }

// Release stops the worker pool.
func (d *SoftwareDevice) Release() {
	d.closeOnce.Do(d.pool.Close)
}

// NewLibraryWithSource reflects WGSL source.
func (d *SoftwareDevice) NewLibraryWithSource(source string) (compute.Library, error) {
	m, err := wgsl.Reflect(source)
	if err != nil {
		return nil, CompileError(err)
	}
	return &softwareLibrary{device: d, module: m}, nil
}

// NewLibraryWithURL loads WGSL from a file URL.
func (d *SoftwareDevice) NewLibraryWithURL(u *url.URL) (compute.Library, error) {
	source, err := ReadFileURL(u)
	if err != nil {
		return nil, err
	}
	return d.NewLibraryWithSource(source)
}

// NewComputePipelineState binds the function to its host kernel.
func (d *SoftwareDevice) NewComputePipelineState(desc *compute.PipelineDescriptor) (compute.PipelineState, error) {
	fn, ok := desc.Function.(*softwareFunction)
	if !ok || fn.library.device != d {
		return nil, PipelineError("function was not created by this device")
	}
	kernel, ok := lookupHostKernel(fn.name)
	if !ok {
		return nil, PipelineError(fmt.Sprintf("no host implementation for kernel %s", fn.name))
	}
	return &softwarePipeline{device: d, function: fn, kernel: kernel}, nil
}

// NewBuffer allocates zeroed host memory.
func (d *SoftwareDevice) NewBuffer(length int) (compute.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("software: invalid buffer length %d", length)
	}
	return &softwareBuffer{device: d, data: make([]byte, length)}, nil
}

// NewCommandQueue creates an in-order queue.
func (d *SoftwareDevice) NewCommandQueue() (compute.Queue, error) {
	return &softwareQueue{device: d}, nil
}

type softwareLibrary struct {
	device *SoftwareDevice
	module *wgsl.Module
}

func (l *softwareLibrary) FunctionNames() []string { return l.module.Names() }
func (l *softwareLibrary) Release()                {}

func (l *softwareLibrary) NewFunction(name string) (compute.Function, error) {
	ep, ok := l.module.Lookup(name)
	if !ok {
		return nil, FunctionNotFound(name)
	}
	return &softwareFunction{library: l, name: name, entry: ep}, nil
}

type softwareFunction struct {
	library *softwareLibrary
	name    string
	entry   wgsl.EntryPoint
}

func (f *softwareFunction) Name() string             { return f.name }
func (f *softwareFunction) Library() compute.Library { return f.library }
func (f *softwareFunction) Release()                 {}

type softwarePipeline struct {
	device   *SoftwareDevice
	function *softwareFunction
	kernel   HostKernel
}

func (p *softwarePipeline) Function() compute.Function         { return p.function }
func (p *softwarePipeline) Device() compute.Device             { return p.device }
func (p *softwarePipeline) MaxTotalThreadsPerThreadgroup() int { return p.device.maxThreads }
func (p *softwarePipeline) Release()                           {}

type softwareBuffer struct {
	device *SoftwareDevice
	data   []byte
}

func (b *softwareBuffer) Device() compute.Device { return b.device }
func (b *softwareBuffer) Length() int            { return len(b.data) }
func (b *softwareBuffer) Contents() []byte       { return b.data }
func (b *softwareBuffer) Release()               {}

// softwareQueue runs recordings one after another in submission order.
type softwareQueue struct {
	device *SoftwareDevice

	mu   sync.Mutex
	last *softwareFence
}

func (q *softwareQueue) Release() {}

func (q *softwareQueue) Submit(rec *compute.Recording) (compute.Fence, error) {
	fence := &softwareFence{done: make(chan struct{})}

	q.mu.Lock()
	prev := q.last
	q.last = fence
	q.mu.Unlock()

	go func() {
		defer close(fence.done)
		if prev != nil {
			<-prev.done
		}
		fence.err = q.device.execute(rec)
	}()
	return fence, nil
}

type softwareFence struct {
	done chan struct{}
	err  error
}

func (f *softwareFence) Wait() error {
	<-f.done
	return f.err
}

// execute runs every dispatch of rec. Thread groups of one dispatch run
// concurrently; dispatches run in recording order.
func (d *SoftwareDevice) execute(rec *compute.Recording) error {
	for _, pass := range rec.Passes {
		for _, cmd := range pass.Dispatches {
			pso, ok := cmd.Pipeline.(*softwarePipeline)
			if !ok {
				return fmt.Errorf("software: foreign pipeline in %s", rec.Label)
			}
			args, err := bindArgs(cmd.Bindings)
			if err != nil {
				return fmt.Errorf("software: %s: %w", pso.function.name, err)
			}
			invoke, err := pso.kernel(args)
			if err != nil {
				return fmt.Errorf("software: %s: %w", pso.function.name, err)
			}

			total := cmd.Grid.Total()
			width := cmd.ThreadsPerGroup.Total()
			groups := wgsl.WorkgroupCount(total, width)
			err = d.pool.ForEachGroup(groups, func(g int) {
				end := min((g+1)*width, total)
				for i := g * width; i < end; i++ {
					invoke(i)
				}
			})
			if err != nil {
				return fmt.Errorf("software: %s: %w", pso.function.name, err)
			}
			compute.Logger().Debug("software: dispatch executed",
				"kernel", pso.function.name,
				"declaredWorkgroup", pso.function.entry.Workgroup,
				"threads", total, "groups", groups)
		}
	}
	return nil
}

// bindArgs lays bindings out by argument index. Every slot up to the highest
// bound index must be filled.
func bindArgs(bindings []compute.Binding) ([][]byte, error) {
	if len(bindings) == 0 {
		return nil, nil
	}
	args := make([][]byte, bindings[len(bindings)-1].Index+1)
	for _, b := range bindings {
		if b.Index < 0 || b.Index >= len(args) {
			return nil, fmt.Errorf("argument %d out of order", b.Index)
		}
		args[b.Index] = b.Buffer.Contents()[b.Offset:]
	}
	for i, arg := range args {
		if arg == nil {
			return nil, fmt.Errorf("argument %d not bound", i)
		}
	}
	return args, nil
}
