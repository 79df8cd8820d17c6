// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Failure kinds. Platform failures wrap one of the first three in an *Error;
// resource failures wrap one of the last two in a *ResourceError.
var (
	// ErrCompileFailure is the kind of a library compilation failure.
	ErrCompileFailure = errors.New("compute: library compilation failed")

	// ErrFunctionNotFound is the kind of a failed entry point lookup.
	ErrFunctionNotFound = errors.New("compute: function not found")

	// ErrPipelineCompilation is the kind of a failed pipeline build.
	ErrPipelineCompilation = errors.New("compute: pipeline compilation failed")

	// ErrAllocationFailure is the kind of a failed buffer allocation.
	ErrAllocationFailure = errors.New("compute: buffer allocation failed")

	// ErrResourceExhausted is the kind of a failed queue, command buffer,
	// or encoder creation.
	ErrResourceExhausted = errors.New("compute: resource creation failed")
)

// LibraryDomain is the error domain used for library and pipeline errors.
const LibraryDomain = "MTLLibraryErrorDomain"

// Library error codes.
const (
	CodeUnsupported      = 1
	CodeInternal         = 2
	CodeCompileFailure   = 3
	CodeCompileWarning   = 4
	CodeFunctionNotFound = 5
	CodeFileNotFound     = 6
)

// Error is a platform error object: a numeric code plus up to three
// optional text fields reported by the device runtime or shader compiler.
type Error struct {
	Domain             string
	Code               int
	Description        string
	RecoverySuggestion string
	FailureReason      string

	// Kind classifies the failure for errors.Is.
	Kind error
}

// Error renders the error with Translate.
func (e *Error) Error() string {
	return Translate(e)
}

// Unwrap returns the failure kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Translate renders a platform error as a single diagnostic line: the code,
// then the description, recovery suggestion, and failure reason when
// present, each terminated by ". ".
func Translate(e *Error) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(e.Code))
	sb.WriteString(". ")
	for _, field := range []string{e.Description, e.RecoverySuggestion, e.FailureReason} {
		if field == "" {
			continue
		}
		sb.WriteString(asciiFold(field))
		sb.WriteString(". ")
	}
	return sb.String()
}

var nonASCII = runes.Map(func(r rune) rune {
	if r > unicode.MaxASCII {
		return '?'
	}
	return r
})

// asciiFold replaces every non-ASCII rune with '?'.
func asciiFold(s string) string {
	out, _, err := transform.String(nonASCII, s)
	if err != nil {
		return s
	}
	return out
}

// Processing stages used to number resource failures.
const (
	StepPrepareData    = 3
	StepInitSettings   = 4
	StepPrepareEncoder = 5
)

// ResourceError reports a null handle returned by the device with no
// accompanying platform error object.
type ResourceError struct {
	Step    int
	Message string

	// Kind is ErrAllocationFailure or ErrResourceExhausted.
	Kind error
	// Err is the backend's own error, if it reported one.
	Err error
}

func (e *ResourceError) Error() string {
	return strconv.Itoa(e.Step) + ". " + e.Message
}

// Unwrap exposes both the kind and the backend error.
func (e *ResourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// AsPlatformError returns the platform error in err's chain, if any.
func AsPlatformError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// State errors.
var (
	// ErrEncoderClosed is returned when an encoder is used after EndEncoding.
	ErrEncoderClosed = errors.New("compute: encoder already ended")

	// ErrEncoderOpen is returned when a second encoder is requested, or a
	// commit is attempted, while an encoder is still open.
	ErrEncoderOpen = errors.New("compute: an encoder is still open")

	// ErrAlreadyCommitted is returned when a committed command buffer is
	// encoded or committed again.
	ErrAlreadyCommitted = errors.New("compute: command buffer already committed")

	// ErrNotCommitted is returned when waiting on an uncommitted command buffer.
	ErrNotCommitted = errors.New("compute: command buffer not committed")

	// ErrDeviceMismatch is returned when a resource from another device is
	// bound to an encoder.
	ErrDeviceMismatch = errors.New("compute: resource belongs to a different device")

	// ErrNoPipeline is returned when dispatching without a pipeline state.
	ErrNoPipeline = errors.New("compute: no pipeline state set")

	// ErrInvalidDispatch is returned for empty grids, zero-width groups, or
	// groups wider than the pipeline allows.
	ErrInvalidDispatch = errors.New("compute: invalid dispatch size")

	// ErrNoFence is returned by Commit when the queue accepted a recording
	// but produced nothing to wait on.
	ErrNoFence = errors.New("compute: queue returned no fence")

	// ErrNilDevice is returned when an operation receives a nil device.
	ErrNilDevice = errors.New("compute: device is nil")
)
