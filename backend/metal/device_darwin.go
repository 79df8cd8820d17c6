// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package metal

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego/objc"

	"github.com/gogpu/addarrays/backend"
	"github.com/gogpu/addarrays/compute"
)

func init() {
	backend.Register(backend.BackendMetal, func(opts backend.Options) (compute.Device, error) {
		return Open(opts)
	})
}

// Device wraps an MTLDevice.
type Device struct {
	id   objc.ID
	name string

	// threadCap limits what pipelines report; zero means no cap.
	threadCap int

	once sync.Once
}

// Open returns the system default Metal device.
func Open(opts backend.Options) (*Device, error) {
	if err := load(); err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}
	id := mtlCreateSystemDefaultDevice()
	if id == 0 {
		return nil, fmt.Errorf("%w: no Metal device", backend.ErrBackendNotAvailable)
	}

	var name string
	autoreleasePool(func() {
		name = goString(id.Send(selName))
	})
	if opts.Adapter != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(opts.Adapter)) {
		release(id)
		return nil, fmt.Errorf("%w: adapter %q not found", backend.ErrBackendNotAvailable, opts.Adapter)
	}
	compute.Logger().Info("metal: device opened", "name", name)
	return &Device{id: id, name: name, threadCap: opts.MaxThreadsPerGroup}, nil
}

func (d *Device) Name() string               { return d.name }
func (d *Device) Backend() string            { return backend.BackendMetal }
func (d *Device) Language() compute.Language { return compute.LanguageMSL }

// Release releases the MTLDevice.
func (d *Device) Release() {
	d.once.Do(func() { release(d.id) })
}

// NewLibraryWithSource compiles MSL source.
func (d *Device) NewLibraryWithSource(source string) (compute.Library, error) {
	var lib, nsErr objc.ID
	autoreleasePool(func() {
		lib = d.id.Send(selNewLibraryWithSource, nsString(source), objc.ID(0), unsafe.Pointer(&nsErr))
		if nsErr != 0 {
			nsErr.Send(selRetain)
		}
	})
	if callFailed(uintptr(lib), uintptr(nsErr)) {
		release(lib)
		return nil, platformError(nsErr, compute.ErrCompileFailure)
	}
	return &library{device: d, id: lib}, nil
}

// NewLibraryWithURL loads a library from a file URL. Metal treats the file
// as a compiled metallib.
func (d *Device) NewLibraryWithURL(u *url.URL) (compute.Library, error) {
	if u == nil || u.Scheme != "file" {
		return nil, &compute.Error{
			Domain:      compute.LibraryDomain,
			Code:        compute.CodeUnsupported,
			Description: fmt.Sprintf("Unsupported library URL %v", u),
			Kind:        compute.ErrCompileFailure,
		}
	}
	if strings.HasSuffix(u.Path, compute.LanguageMSL.Extension()) {
		source, err := backend.ReadFileURL(u)
		if err != nil {
			return nil, err
		}
		return d.NewLibraryWithSource(source)
	}

	var lib, nsErr objc.ID
	autoreleasePool(func() {
		nsURL := objc.ID(classNSURL).Send(selFileURLPath, nsString(u.Path))
		lib = d.id.Send(selNewLibraryWithURL, nsURL, unsafe.Pointer(&nsErr))
		if nsErr != 0 {
			nsErr.Send(selRetain)
		}
	})
	if callFailed(uintptr(lib), uintptr(nsErr)) {
		release(lib)
		return nil, platformError(nsErr, compute.ErrCompileFailure)
	}
	return &library{device: d, id: lib}, nil
}

// NewComputePipelineState compiles the function. Argument access modes are
// declared in MSL and not needed here.
func (d *Device) NewComputePipelineState(desc *compute.PipelineDescriptor) (compute.PipelineState, error) {
	fn, ok := desc.Function.(*function)
	if !ok || fn.library.device != d {
		return nil, backend.PipelineError("function was not created by this device")
	}
	var pso, nsErr objc.ID
	autoreleasePool(func() {
		pso = d.id.Send(selNewComputePipeline, fn.id, unsafe.Pointer(&nsErr))
		if nsErr != 0 {
			nsErr.Send(selRetain)
		}
	})
	if callFailed(uintptr(pso), uintptr(nsErr)) {
		release(pso)
		return nil, platformError(nsErr, compute.ErrPipelineCompilation)
	}
	limit := int(objc.Send[uint](pso, selMaxTotalThreads))
	if d.threadCap > 0 {
		limit = min(limit, d.threadCap)
	}
	return &pipeline{device: d, function: fn, id: pso, maxThreads: limit}, nil
}

// NewBuffer allocates a shared-storage MTLBuffer. Metal zero fills new
// allocations.
func (d *Device) NewBuffer(length int) (compute.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("metal: invalid buffer length %d", length)
	}
	id := d.id.Send(selNewBufferWithLength, uint(length), uint(resourceStorageModeShared))
	if id == 0 {
		return nil, fmt.Errorf("metal: newBufferWithLength returned nil")
	}
	ptr := objc.Send[unsafe.Pointer](id, selContents)
	return &buffer{device: d, id: id, contents: unsafe.Slice((*byte)(ptr), length)}, nil
}

// NewCommandQueue creates an MTLCommandQueue.
func (d *Device) NewCommandQueue() (compute.Queue, error) {
	id := d.id.Send(selNewCommandQueue)
	if id == 0 {
		return nil, fmt.Errorf("metal: newCommandQueue returned nil")
	}
	return &queue{device: d, id: id}, nil
}

// platformError converts a retained NSError into a *compute.Error and
// releases it.
func platformError(nsErr objc.ID, kind error) *compute.Error {
	if nsErr == 0 {
		return &compute.Error{
			Domain:      compute.LibraryDomain,
			Code:        compute.CodeInternal,
			Description: "Metal returned nil without an error",
			Kind:        kind,
		}
	}
	defer release(nsErr)

	e := &compute.Error{Kind: kind}
	autoreleasePool(func() {
		e.Domain = goString(nsErr.Send(selDomain))
		e.Code = int(objc.Send[int](nsErr, selCode))
		e.Description = goString(nsErr.Send(selLocalizedDesc))
		e.RecoverySuggestion = goString(nsErr.Send(selLocalizedRecovery))
		e.FailureReason = goString(nsErr.Send(selLocalizedFailure))
	})
	return e
}

type library struct {
	device *Device
	id     objc.ID
	once   sync.Once
}

func (l *library) Release() { l.once.Do(func() { release(l.id) }) }

func (l *library) FunctionNames() []string {
	var names []string
	autoreleasePool(func() {
		arr := l.id.Send(selFunctionNames)
		n := int(objc.Send[uint](arr, selCount))
		for i := range n {
			names = append(names, goString(arr.Send(selObjectAt, uint(i))))
		}
	})
	return names
}

func (l *library) NewFunction(name string) (compute.Function, error) {
	var id objc.ID
	autoreleasePool(func() {
		id = l.id.Send(selNewFunctionWithName, nsString(name))
	})
	if id == 0 {
		return nil, backend.FunctionNotFound(name)
	}
	return &function{library: l, id: id, name: name}, nil
}

type function struct {
	library *library
	id      objc.ID
	name    string
	once    sync.Once
}

func (f *function) Name() string             { return f.name }
func (f *function) Library() compute.Library { return f.library }
func (f *function) Release()                 { f.once.Do(func() { release(f.id) }) }

type pipeline struct {
	device     *Device
	function   *function
	id         objc.ID
	maxThreads int
	once       sync.Once
}

func (p *pipeline) Function() compute.Function         { return p.function }
func (p *pipeline) Device() compute.Device             { return p.device }
func (p *pipeline) MaxTotalThreadsPerThreadgroup() int { return p.maxThreads }
func (p *pipeline) Release()                           { p.once.Do(func() { release(p.id) }) }

type buffer struct {
	device   *Device
	id       objc.ID
	contents []byte
	once     sync.Once
}

func (b *buffer) Device() compute.Device { return b.device }
func (b *buffer) Length() int            { return len(b.contents) }
func (b *buffer) Contents() []byte       { return b.contents }
func (b *buffer) Release()               { b.once.Do(func() { release(b.id) }) }
