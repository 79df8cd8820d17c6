// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compute

import "sync"

// Scope collects resources and releases them in reverse acquisition order.
// The zero value is ready to use.
//
//	var scope compute.Scope
//	defer scope.Release()
type Scope struct {
	mu       sync.Mutex
	released bool
	items    []Releaser
}

// Track adds r to the scope and returns it. Nil values are ignored.
// Tracking on a released scope releases r immediately.
func (s *Scope) Track(r Releaser) Releaser {
	if isNil(r) {
		return r
	}
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		r.Release()
		return r
	}
	s.items = append(s.items, r)
	s.mu.Unlock()
	return r
}

// Defer adds a release function to the scope.
func (s *Scope) Defer(fn func()) {
	if fn == nil {
		return
	}
	s.Track(releaseFunc(fn))
}

// Len returns the number of resources still held.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Release releases every tracked resource, last tracked first. It is safe
// to call more than once.
func (s *Scope) Release() {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.released = true
	s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Release()
	}
}

type releaseFunc func()

func (f releaseFunc) Release() { f() }

// isNil catches typed nil pointers stored in the interface.
func isNil(r Releaser) bool {
	if r == nil {
		return true
	}
	switch v := r.(type) {
	case *CommandQueue:
		return v == nil
	case releaseFunc:
		return v == nil
	}
	return false
}
