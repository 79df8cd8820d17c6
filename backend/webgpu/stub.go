// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !webgpu

package webgpu

import "github.com/gogpu/addarrays/backend"

func init() {
	backend.Register(backend.BackendWebGPU, backend.NotAvailable("built without the webgpu tag"))
}
