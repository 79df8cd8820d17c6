// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"fmt"
	"unsafe"
)

// Element is the set of fixed-size scalar types a typed buffer may hold.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64
}

// Fill writes initial values into a freshly allocated typed buffer.
// A nil Fill leaves the buffer zeroed.
type Fill[T Element] func(dst []T)

// FillValues returns a Fill that copies vals. Elements past len(vals) stay
// zero.
func FillValues[T Element](vals ...T) Fill[T] {
	return func(dst []T) {
		copy(dst, vals)
	}
}

// FillFunc returns a Fill that sets dst[i] = gen(i).
func FillFunc[T Element](gen func(i int) T) Fill[T] {
	return func(dst []T) {
		for i := range dst {
			dst[i] = gen(i)
		}
	}
}

// Allocate requests elementCount*elementSize bytes of shared storage on dev
// and copies init into it. The copy happens before the buffer can be bound
// to any encoder.
//
// A device that cannot satisfy the request, or an empty request, yields a
// *ResourceError with Kind ErrAllocationFailure.
func Allocate(dev Device, elementCount, elementSize int, init []byte) (Buffer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if elementCount <= 0 || elementSize <= 0 {
		return nil, &ResourceError{
			Step:    StepPrepareData,
			Message: fmt.Sprintf("Failed to allocate buffer of %d x %d bytes.", elementCount, elementSize),
			Kind:    ErrAllocationFailure,
		}
	}
	length := elementCount * elementSize
	if len(init) > length {
		return nil, fmt.Errorf("compute: %d initial bytes exceed %d-byte buffer", len(init), length)
	}

	buf, err := dev.NewBuffer(length)
	if err != nil || buf == nil {
		return nil, &ResourceError{
			Step:    StepPrepareData,
			Message: "Failed to allocate buffer.",
			Kind:    ErrAllocationFailure,
			Err:     err,
		}
	}
	if len(init) > 0 {
		copy(buf.Contents(), init)
	}

	Logger().Debug("compute: buffer allocated",
		"bytes", length, "elements", elementCount, "device", dev.Name())
	return buf, nil
}

// NewBuffer allocates a buffer of count elements of T and applies fill.
func NewBuffer[T Element](dev Device, count int, fill Fill[T]) (Buffer, error) {
	var zero T
	buf, err := Allocate(dev, count, int(unsafe.Sizeof(zero)), nil)
	if err != nil {
		return nil, err
	}
	if fill != nil {
		fill(Elements[T](buf))
	}
	return buf, nil
}

// Elements returns a typed view of buf's host-visible contents. The view
// aliases the buffer memory; writes through it are seen by the device.
func Elements[T Element](buf Buffer) []T {
	b := buf.Contents()
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/size)
}
