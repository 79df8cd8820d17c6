// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"github.com/gogpu/gputypes"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// platformBackends lists the HAL backends Open tries, in order.
func platformBackends() []gputypes.Backend {
	return []gputypes.Backend{gputypes.BackendVulkan}
}
