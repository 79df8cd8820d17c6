// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

// Recording is the work recorded into one command buffer. Each Pass
// corresponds to one encoder scope; each DispatchCommand carries the
// pipeline and bindings that were current when it was recorded.
type Recording struct {
	// Label identifies the command buffer in logs and debug labels.
	Label string

	Passes []Pass
}

// Pass is the set of dispatches recorded between opening an encoder and
// EndEncoding.
type Pass struct {
	Dispatches []DispatchCommand
}

// DispatchCommand is a single dispatch with its bound state.
type DispatchCommand struct {
	Pipeline PipelineState

	// Bindings is sorted by Index.
	Bindings []Binding

	Grid            Size
	ThreadsPerGroup Size
}

// Binding attaches a buffer to an argument index.
type Binding struct {
	Index  int
	Buffer Buffer
	Offset int
}

// Buffers returns every distinct buffer bound anywhere in the recording,
// in first-use order.
func (r *Recording) Buffers() []Buffer {
	seen := make(map[Buffer]struct{})
	var out []Buffer
	for _, p := range r.Passes {
		for _, d := range p.Dispatches {
			for _, b := range d.Bindings {
				if _, ok := seen[b.Buffer]; ok {
					continue
				}
				seen[b.Buffer] = struct{}{}
				out = append(out, b.Buffer)
			}
		}
	}
	return out
}

// DispatchCount returns the number of dispatches across all passes.
func (r *Recording) DispatchCount() int {
	n := 0
	for _, p := range r.Passes {
		n += len(p.Dispatches)
	}
	return n
}
