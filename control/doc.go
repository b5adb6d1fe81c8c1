// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for corepool.
//
// Provides:
//   - YAML/JSON pool configuration with defaults and validation
//   - A Prometheus-backed implementation of api.Metrics
//   - Named debug probes and platform probes (CPU count, allowed cores, sockets)
package control
