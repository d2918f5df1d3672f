package internal

import (
	"sync"
	"time"
)

// telemetry.go
// Hook layer for generation-run counters. By default the emitter is a no-op;
// callers may register a metrics-backed emitter or a test stub via
// RegisterTelemetryEmitter.

type telemetryEmitter func(name string, labels map[string]string, value any)

var (
	teleMu   sync.Mutex
	teleImpl telemetryEmitter = func(name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter registers a custom emitter function. Passing nil restores the no-op.
func RegisterTelemetryEmitter(fn telemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func emitter() telemetryEmitter {
	teleMu.Lock()
	defer teleMu.Unlock()
	return teleImpl
}

// EmitCount records a counter increment, e.g. "diagnostics" with {"kind": "..."}.
func EmitCount(name string, labels map[string]string, n int64) {
	emitter()(name, labels, n)
}

// EmitResolveLatency records how long a top-level resolution took.
// name: "apigen_resolve_latency_ms" with label {"kind": "document"|"resource"}
func EmitResolveLatency(kind string, elapsed time.Duration) {
	emitter()("apigen_resolve_latency_ms", map[string]string{"kind": kind}, elapsed.Milliseconds())
}
