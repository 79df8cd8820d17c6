// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package metal drives Apple's Metal API directly through the Objective-C
// runtime, loaded with purego. No cgo is involved.
//
// The device compiles Metal Shading Language and allocates buffers in
// shared storage mode, so Buffer.Contents is the memory the GPU writes and
// no copy-back is needed after a command buffer completes. Library and
// pipeline failures carry the NSError domain, code, and localized fields.
//
// On platforms other than darwin the package registers a stub whose factory
// reports backend.ErrBackendNotAvailable.
package metal
