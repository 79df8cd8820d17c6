// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !darwin

package metal

import "github.com/gogpu/addarrays/backend"

func init() {
	backend.Register(backend.BackendMetal, backend.NotAvailable("Metal requires darwin"))
}
