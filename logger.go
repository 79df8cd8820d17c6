// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package addarrays

import (
	"log/slog"

	"github.com/gogpu/addarrays/compute"
)

// SetLogger configures the logger for addarrays and all its sub-packages.
// By default, addarrays produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use. Pass nil to disable logging.
//
// Log levels used by addarrays:
//   - [slog.LevelDebug]: per-step dispatch diagnostics (library, pipeline,
//     buffers, clamped thread groups)
//   - [slog.LevelInfo]: lifecycle events (device opened, adapter selected)
//
// Example:
//
//	addarrays.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	compute.SetLogger(l)
}

// Logger returns the current logger. Backends share it through
// compute.Logger, which returns the same value.
func Logger() *slog.Logger {
	return compute.Logger()
}
