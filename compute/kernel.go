// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// SourceKind tells how a KernelSource reaches the compiler.
type SourceKind int

const (
	// SourceInline is kernel text held in memory.
	SourceInline SourceKind = iota
	// SourceFile is a path whose contents the host reads and compiles as text.
	SourceFile
	// SourceURL is a path the device resolves and loads itself.
	SourceURL
)

// String returns the string representation of SourceKind.
func (k SourceKind) String() string {
	switch k {
	case SourceInline:
		return "inline"
	case SourceFile:
		return "file"
	case SourceURL:
		return "url"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// KernelSource is where kernel code comes from. It is immutable.
type KernelSource struct {
	kind SourceKind
	text string
	path string
}

// InlineSource returns a source compiled directly from text.
func InlineSource(text string) KernelSource {
	return KernelSource{kind: SourceInline, text: text}
}

// FileSource returns a source read from path on the host.
func FileSource(path string) KernelSource {
	return KernelSource{kind: SourceFile, path: path}
}

// URLSource returns a source the device loads from a file URL built from
// path. Relative paths are resolved against the working directory.
func URLSource(path string) KernelSource {
	return KernelSource{kind: SourceURL, path: path}
}

// Kind returns the loading strategy.
func (s KernelSource) Kind() SourceKind { return s.kind }

// Path returns the file path for file and URL sources.
func (s KernelSource) Path() string { return s.path }

// String describes the source for logs.
func (s KernelSource) String() string {
	if s.kind == SourceInline {
		return fmt.Sprintf("inline(%d bytes)", len(s.text))
	}
	return s.kind.String() + "(" + s.path + ")"
}

// FileURL converts a filesystem path into an absolute file:// URL.
func FileURL(path string) (*url.URL, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// LoadKernel compiles src on dev and resolves the entry point name.
//
// Compiler diagnostics come back as *Error with Code CodeCompileFailure, a
// missing file as CodeFileNotFound, and a missing entry point as
// CodeFunctionNotFound with Kind ErrFunctionNotFound.
//
// The returned Function owns its library: releasing it releases both.
func LoadKernel(dev Device, src KernelSource, name string) (Function, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	log := Logger()

	lib, err := compileLibrary(dev, src)
	if err != nil {
		return nil, err
	}
	log.Debug("compute: library compiled", "source", src.String(), "functions", lib.FunctionNames())

	fn, err := lib.NewFunction(name)
	if err != nil || fn == nil {
		if fn != nil {
			fn.Release()
		}
		lib.Release()
		if pe, ok := AsPlatformError(err); ok {
			if pe.Kind == nil {
				pe.Kind = ErrFunctionNotFound
			}
			return nil, pe
		}
		return nil, &Error{
			Domain:      LibraryDomain,
			Code:        CodeFunctionNotFound,
			Description: fmt.Sprintf("Function %s was not found in the library", name),
			Kind:        ErrFunctionNotFound,
		}
	}
	log.Debug("compute: function resolved", "name", fn.Name())
	return &ownedFunction{Function: fn, lib: lib}, nil
}

func compileLibrary(dev Device, src KernelSource) (Library, error) {
	var (
		lib Library
		err error
	)
	switch src.kind {
	case SourceInline:
		lib, err = dev.NewLibraryWithSource(src.text)
	case SourceFile:
		data, rerr := os.ReadFile(src.path)
		if rerr != nil {
			return nil, fileError(src.path, rerr)
		}
		lib, err = dev.NewLibraryWithSource(string(data))
	case SourceURL:
		u, uerr := FileURL(src.path)
		if uerr != nil {
			return nil, fileError(src.path, uerr)
		}
		lib, err = dev.NewLibraryWithURL(u)
	default:
		return nil, fmt.Errorf("compute: unknown kernel source kind %v", src.kind)
	}

	if err != nil {
		// A library that comes back with an error is not used.
		if lib != nil {
			lib.Release()
		}
		if pe, ok := AsPlatformError(err); ok {
			if pe.Kind == nil {
				pe.Kind = ErrCompileFailure
			}
			return nil, pe
		}
		return nil, &Error{
			Domain:      LibraryDomain,
			Code:        CodeCompileFailure,
			Description: err.Error(),
			Kind:        ErrCompileFailure,
		}
	}
	if lib == nil {
		return nil, &Error{
			Domain:      LibraryDomain,
			Code:        CodeInternal,
			Description: "Compiler returned no library",
			Kind:        ErrCompileFailure,
		}
	}
	return lib, nil
}

// fileError maps a host file failure onto the library error domain.
func fileError(path string, err error) *Error {
	code := CodeInternal
	if errors.Is(err, fs.ErrNotExist) {
		code = CodeFileNotFound
	}
	return &Error{
		Domain:        LibraryDomain,
		Code:          code,
		Description:   fmt.Sprintf("Library file %s could not be loaded", path),
		FailureReason: err.Error(),
		Kind:          ErrCompileFailure,
	}
}

// ownedFunction ties a function to the library it was resolved from.
type ownedFunction struct {
	Function
	lib Library
}

func (f *ownedFunction) Library() Library { return f.lib }

func (f *ownedFunction) Release() {
	f.Function.Release()
	f.lib.Release()
}

// unwrapFunction returns the backend's own Function value.
func unwrapFunction(fn Function) Function {
	if of, ok := fn.(*ownedFunction); ok {
		return of.Function
	}
	return fn
}
