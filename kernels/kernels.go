// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package kernels embeds the add_arrays kernel in every supported shading
// language.
package kernels

import (
	_ "embed"

	"github.com/gogpu/addarrays/compute"
)

// EntryPoint is the function name every kernel source exports.
const EntryPoint = "add_arrays"

//go:embed add_arrays.wgsl
var addArraysWGSL string

//go:embed add_arrays.metal
var addArraysMSL string

// Source returns the embedded add_arrays source for lang.
func Source(lang compute.Language) string {
	if lang == compute.LanguageMSL {
		return addArraysMSL
	}
	return addArraysWGSL
}

// FileName returns the conventional file name for the kernel in lang.
func FileName(lang compute.Language) string {
	return "add_arrays" + lang.Extension()
}
