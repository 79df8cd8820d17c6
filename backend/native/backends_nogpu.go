// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build nogpu

package native

import "github.com/gogpu/gputypes"

// platformBackends is empty in nogpu builds; Open reports ErrNoHALBackend.
func platformBackends() []gputypes.Backend {
	return nil
}
