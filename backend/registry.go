// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/addarrays/compute"
)

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for automatic selection (first that opens wins).
	// Metal > Native > Rust > WebGPU > Software.
	backendPriority = []string{BackendMetal, BackendNative, BackendRust, BackendWebGPU, BackendSoftware}
)

// Register registers a device factory under name. Backend packages call it
// from init. A later registration replaces an earlier one.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, priority order first.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device on the named backend. "auto" and "" behave like
// OpenDefault.
func Open(name string, opts Options) (compute.Device, error) {
	if name == "" || name == BackendAuto {
		return OpenDefault(opts)
	}
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	dev, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	if dev == nil {
		return nil, fmt.Errorf("backend %s: %w", name, ErrBackendNotAvailable)
	}
	compute.Logger().Info("backend: device opened", "backend", name, "device", dev.Name())
	return dev, nil
}

// OpenDefault opens the first backend in priority order that succeeds,
// then any remaining registered backend.
func OpenDefault(opts Options) (compute.Device, error) {
	var errs []error
	for _, name := range Available() {
		dev, err := Open(name, opts)
		if err == nil {
			return dev, nil
		}
		compute.Logger().Debug("backend: skipped", "backend", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// NotAvailable returns a factory that always fails with
// ErrBackendNotAvailable. Stub builds register it so the name stays visible.
func NotAvailable(reason string) Factory {
	return func(Options) (compute.Device, error) {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, reason)
	}
}
