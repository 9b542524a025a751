// Package metrics holds the process-wide Prometheus registry vaultd's
// dispatch core reports into, gated by configuration the way the teacher
// gates its own store-level metrics collectors behind InitRegistry/IsEnabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and creates the process-wide
// registry. Call once at startup before constructing any collector; callers
// that never call InitRegistry get IsEnabled()==false and every collector
// constructor in pkg/metrics/prometheus returns a nil, safe-to-use-as-noop
// collector.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the process-wide registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}
