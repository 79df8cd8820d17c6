// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package metal

import "testing"

func TestCallFailed(t *testing.T) {
	tests := []struct {
		name       string
		obj, nsErr uintptr
		want       bool
	}{
		{"object without error", 0x10, 0, false},
		{"nil object without error", 0, 0, true},
		{"nil object with error", 0, 0x20, true},
		{"object with warning", 0x10, 0x20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := callFailed(tt.obj, tt.nsErr); got != tt.want {
				t.Errorf("callFailed(%#x, %#x) = %v, want %v", tt.obj, tt.nsErr, got, tt.want)
			}
		})
	}
}
