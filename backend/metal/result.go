// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package metal

// callFailed reports whether a Metal call returning an object plus an
// NSError out-parameter failed. Any error object counts, warnings included,
// even when an object came back with it.
func callFailed(obj, nsErr uintptr) bool {
	return obj == 0 || nsErr != 0
}
