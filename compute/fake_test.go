// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"net/url"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
)

// fakeDevice is an in-memory Device that understands "fn name(" lines as
// entry points and runs every dispatch as element-wise uint32 addition.
type fakeDevice struct {
	maxThreads int

	failQueue    bool
	failBuffer   bool
	failPipeline bool
	nilFence     bool

	// Returned together with a non-nil result when set.
	libraryErr  error
	functionErr error
	pipelineErr error

	released  atomic.Int32
	submitted atomic.Int32
}

var fnPattern = regexp.MustCompile(`fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func newFakeDevice() *fakeDevice { return &fakeDevice{maxThreads: 256} }

func (d *fakeDevice) Name() string       { return "fake" }
func (d *fakeDevice) Backend() string    { return "fake" }
func (d *fakeDevice) Language() Language { return LanguageWGSL }
func (d *fakeDevice) Release()           {}

func (d *fakeDevice) NewLibraryWithSource(source string) (Library, error) {
	matches := fnPattern.FindAllStringSubmatch(source, -1)
	if len(matches) == 0 {
		return nil, &Error{
			Domain:      LibraryDomain,
			Code:        CodeCompileFailure,
			Description: "no entry points",
			Kind:        ErrCompileFailure,
		}
	}
	lib := &fakeLibrary{dev: d}
	for _, m := range matches {
		lib.names = append(lib.names, m[1])
	}
	return lib, d.libraryErr
}

func (d *fakeDevice) NewLibraryWithURL(u *url.URL) (Library, error) {
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return nil, &Error{Domain: LibraryDomain, Code: CodeFileNotFound, Description: err.Error(), Kind: ErrCompileFailure}
	}
	return d.NewLibraryWithSource(string(data))
}

func (d *fakeDevice) NewComputePipelineState(desc *PipelineDescriptor) (PipelineState, error) {
	if d.failPipeline {
		return nil, errors.New("pipeline backend failure")
	}
	fn, ok := desc.Function.(*fakeFunction)
	if !ok {
		return nil, errors.New("foreign function")
	}
	return &fakePipeline{dev: d, fn: fn}, d.pipelineErr
}

func (d *fakeDevice) NewBuffer(length int) (Buffer, error) {
	if d.failBuffer {
		return nil, errors.New("out of memory")
	}
	return &fakeBuffer{dev: d, data: make([]byte, length)}, nil
}

func (d *fakeDevice) NewCommandQueue() (Queue, error) {
	if d.failQueue {
		return nil, nil
	}
	return &fakeQueue{dev: d}, nil
}

type fakeLibrary struct {
	dev   *fakeDevice
	names []string
}

func (l *fakeLibrary) FunctionNames() []string { return l.names }
func (l *fakeLibrary) Release()                { l.dev.released.Add(1) }

func (l *fakeLibrary) NewFunction(name string) (Function, error) {
	if l.dev.functionErr != nil {
		return nil, l.dev.functionErr
	}
	for _, n := range l.names {
		if n == name {
			return &fakeFunction{lib: l, name: name}, nil
		}
	}
	return nil, nil
}

type fakeFunction struct {
	lib  *fakeLibrary
	name string
}

func (f *fakeFunction) Name() string     { return f.name }
func (f *fakeFunction) Library() Library { return f.lib }
func (f *fakeFunction) Release()         { f.lib.dev.released.Add(1) }

type fakePipeline struct {
	dev *fakeDevice
	fn  *fakeFunction
}

func (p *fakePipeline) Function() Function                 { return p.fn }
func (p *fakePipeline) Device() Device                     { return p.dev }
func (p *fakePipeline) MaxTotalThreadsPerThreadgroup() int { return p.dev.maxThreads }
func (p *fakePipeline) Release()                           { p.dev.released.Add(1) }

type fakeBuffer struct {
	dev  *fakeDevice
	data []byte
}

func (b *fakeBuffer) Device() Device   { return b.dev }
func (b *fakeBuffer) Length() int      { return len(b.data) }
func (b *fakeBuffer) Contents() []byte { return b.data }
func (b *fakeBuffer) Release()         { b.dev.released.Add(1) }

type fakeQueue struct {
	dev *fakeDevice
}

func (q *fakeQueue) Release() { q.dev.released.Add(1) }

func (q *fakeQueue) Submit(rec *Recording) (Fence, error) {
	q.dev.submitted.Add(1)
	if q.dev.nilFence {
		return nil, nil
	}
	f := &fakeFence{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		for _, p := range rec.Passes {
			for _, d := range p.Dispatches {
				if len(d.Bindings) < 3 {
					f.err = errors.New("missing bindings")
					return
				}
				a := Elements[uint32](d.Bindings[0].Buffer)
				b := Elements[uint32](d.Bindings[1].Buffer)
				out := Elements[uint32](d.Bindings[2].Buffer)
				var wg sync.WaitGroup
				for i := range d.Grid.Width {
					wg.Add(1)
					go func() {
						defer wg.Done()
						out[i] = a[i] + b[i]
					}()
				}
				wg.Wait()
			}
		}
	}()
	return f, nil
}

type fakeFence struct {
	done chan struct{}
	err  error
}

func (f *fakeFence) Wait() error {
	<-f.done
	return f.err
}
