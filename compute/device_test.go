// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "testing"

func TestLanguage(t *testing.T) {
	tests := []struct {
		lang Language
		name string
		ext  string
	}{
		{LanguageWGSL, "WGSL", ".wgsl"},
		{LanguageMSL, "MSL", ".metal"},
		{Language(5), "Unknown(5)", ".wgsl"},
	}
	for _, tt := range tests {
		if got := tt.lang.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.lang.Extension(); got != tt.ext {
			t.Errorf("%s.Extension() = %q, want %q", tt.name, got, tt.ext)
		}
	}
}

func TestAccess_String(t *testing.T) {
	if ReadOnly.String() != "read" || ReadWrite.String() != "read_write" {
		t.Errorf("Access strings = %q, %q", ReadOnly, ReadWrite)
	}
}

func TestSize(t *testing.T) {
	s := Size1D(8)
	if s.Total() != 8 {
		t.Errorf("Total() = %d, want 8", s.Total())
	}
	if got := (Size{Width: 2, Height: 3, Depth: 4}).String(); got != "(2, 3, 4)" {
		t.Errorf("String() = %q", got)
	}
}
