// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !rust

package rust

import "github.com/gogpu/addarrays/backend"

// init registers a factory that reports ErrBackendNotAvailable when the
// rust tag is not set, so automatic selection falls through to the next
// backend.
func init() {
	backend.Register(backend.BackendRust, backend.NotAvailable("built without the rust tag"))
}
