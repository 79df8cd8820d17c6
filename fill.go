// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package addarrays

import (
	"math/rand/v2"

	"github.com/gogpu/addarrays/compute"
)

// Values fills an array with vals. Elements past len(vals) stay zero.
func Values(vals ...uint32) compute.Fill[uint32] {
	return compute.FillValues(vals...)
}

// Sequence fills an array with start, start+1, start+2, ...
func Sequence(start uint32) compute.Fill[uint32] {
	return compute.FillFunc(func(i int) uint32 {
		return start + uint32(i)
	})
}

// Random fills an array with pseudo-random values in [0, limit). A zero
// limit covers the full uint32 range. The same seed always yields the same
// values.
func Random(seed uint64, limit uint32) compute.Fill[uint32] {
	return func(dst []uint32) {
		r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		for i := range dst {
			if limit == 0 {
				dst[i] = r.Uint32()
			} else {
				dst[i] = r.Uint32N(limit)
			}
		}
	}
}
