// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import (
	"slices"
	"testing"
)

type recordRelease struct {
	id  int
	log *[]int
}

func (r recordRelease) Release() { *r.log = append(*r.log, r.id) }

func TestScope_ReverseOrder(t *testing.T) {
	var log []int
	var s Scope
	for i := range 4 {
		s.Track(recordRelease{id: i, log: &log})
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	s.Release()
	if want := []int{3, 2, 1, 0}; !slices.Equal(log, want) {
		t.Errorf("release order = %v, want %v", log, want)
	}

	s.Release()
	if len(log) != 4 {
		t.Errorf("second Release() released again: %v", log)
	}
}

func TestScope_TrackAfterRelease(t *testing.T) {
	var log []int
	var s Scope
	s.Release()
	s.Track(recordRelease{id: 7, log: &log})
	if !slices.Equal(log, []int{7}) {
		t.Errorf("late Track should release immediately, got %v", log)
	}
}

func TestScope_DeferAndNil(t *testing.T) {
	var s Scope
	called := false
	s.Defer(func() { called = true })
	s.Track(nil)
	var q *CommandQueue
	s.Track(q)
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
	s.Release()
	if !called {
		t.Error("deferred func not called")
	}
}
