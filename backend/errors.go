// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/gogpu/addarrays/compute"
)

// CompileError wraps a shader compiler diagnostic.
func CompileError(err error) *compute.Error {
	return &compute.Error{
		Domain:        compute.LibraryDomain,
		Code:          compute.CodeCompileFailure,
		Description:   "Compilation failed",
		FailureReason: err.Error(),
		Kind:          compute.ErrCompileFailure,
	}
}

// FunctionNotFound reports a missing entry point.
func FunctionNotFound(name string) *compute.Error {
	return &compute.Error{
		Domain:      compute.LibraryDomain,
		Code:        compute.CodeFunctionNotFound,
		Description: fmt.Sprintf("Function %s was not found in the library", name),
		Kind:        compute.ErrFunctionNotFound,
	}
}

// PipelineError reports a pipeline build failure.
func PipelineError(reason string) *compute.Error {
	return &compute.Error{
		Domain:        compute.LibraryDomain,
		Code:          compute.CodeInternal,
		Description:   "Pipeline creation failed",
		FailureReason: reason,
		Kind:          compute.ErrPipelineCompilation,
	}
}

// ReadFileURL reads the file a file:// URL names, reporting a missing file
// as CodeFileNotFound.
func ReadFileURL(u *url.URL) (string, error) {
	if u == nil || u.Scheme != "file" {
		return "", &compute.Error{
			Domain:      compute.LibraryDomain,
			Code:        compute.CodeUnsupported,
			Description: fmt.Sprintf("Unsupported library URL %v", u),
			Kind:        compute.ErrCompileFailure,
		}
	}
	data, err := os.ReadFile(u.Path)
	if err != nil {
		code := compute.CodeInternal
		if errors.Is(err, fs.ErrNotExist) {
			code = compute.CodeFileNotFound
		}
		return "", &compute.Error{
			Domain:        compute.LibraryDomain,
			Code:          code,
			Description:   fmt.Sprintf("Library file %s could not be loaded", u.Path),
			FailureReason: err.Error(),
			Kind:          compute.ErrCompileFailure,
		}
	}
	return string(data), nil
}
