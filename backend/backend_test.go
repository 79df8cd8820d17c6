// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/addarrays/compute"
)

func TestRegistry_SoftwareRegistered(t *testing.T) {
	if !IsRegistered(BackendSoftware) {
		t.Fatal("software backend should register on import")
	}
	if !slices.Contains(Available(), BackendSoftware) {
		t.Errorf("Available() = %v, missing software", Available())
	}
}

func TestRegistry_AvailablePriorityOrder(t *testing.T) {
	Register("zeta", NotAvailable("test"))
	Register("alpha", NotAvailable("test"))
	t.Cleanup(func() {
		Unregister("zeta")
		Unregister("alpha")
	})

	names := Available()
	sw := slices.Index(names, BackendSoftware)
	alpha := slices.Index(names, "alpha")
	zeta := slices.Index(names, "zeta")
	if sw < 0 || alpha < 0 || zeta < 0 {
		t.Fatalf("Available() = %v", names)
	}
	if !(sw < alpha && alpha < zeta) {
		t.Errorf("Available() = %v, want priority names first then sorted extras", names)
	}
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open("does-not-exist", Options{})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestOpen_NotAvailable(t *testing.T) {
	Register("broken", NotAvailable("no driver"))
	t.Cleanup(func() { Unregister("broken") })

	_, err := Open("broken", Options{})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpen_NilDevice(t *testing.T) {
	Register("nil", func(Options) (compute.Device, error) { return nil, nil })
	t.Cleanup(func() { Unregister("nil") })

	if _, err := Open("nil", Options{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenDefault_FallsBackToSoftware(t *testing.T) {
	// Hide every GPU backend so the result does not depend on the host.
	saved := map[string]Factory{}
	registryMu.Lock()
	for name, f := range backends {
		if name != BackendSoftware {
			saved[name] = f
			backends[name] = NotAvailable("hidden by test")
		}
	}
	registryMu.Unlock()
	t.Cleanup(func() {
		for name, f := range saved {
			Register(name, f)
		}
	})

	for _, name := range []string{"", BackendAuto} {
		dev, err := Open(name, Options{Workers: 1})
		if err != nil {
			t.Fatalf("Open(%q) error = %v", name, err)
		}
		if dev.Backend() != BackendSoftware {
			t.Errorf("Open(%q).Backend() = %q, want software", name, dev.Backend())
		}
		dev.Release()
	}
}

func TestOpenDefault_NothingOpens(t *testing.T) {
	registryMu.Lock()
	saved := backends
	backends = map[string]Factory{"broken": NotAvailable("test")}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})

	if _, err := OpenDefault(Options{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("OpenDefault() error = %v, want ErrBackendNotAvailable", err)
	}
}
