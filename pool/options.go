// File: pool/options.go
// Package pool defines functional options for ThreadPool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"github.com/momentics/corepool/api"
	"github.com/momentics/corepool/control"
)

// Option customizes pool construction.
type Option func(*options)

type options struct {
	cfg      control.Config
	topology api.Topology
	binder   api.Binder
	metrics  api.Metrics
}

func defaultOptions() options {
	return options{cfg: control.DefaultConfig()}
}

// WithConfig replaces streams, threads, affinity and verbosity at once.
func WithConfig(cfg control.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithStreams sets the stream count. Zero uses the socket count.
func WithStreams(n int) Option {
	return func(o *options) {
		o.cfg.Streams = n
	}
}

// WithThreads sets the worker count. Zero uses the usable core count.
func WithThreads(n int) Option {
	return func(o *options) {
		o.cfg.Threads = n
	}
}

// WithAffinity selects the OS allowed core set (true) or every hardware
// core (false) as the placement domain.
func WithAffinity(use bool) Option {
	return func(o *options) {
		o.cfg.UseAffinity = use
	}
}

// WithVerbose logs the plan on every (re)creation and worker lifecycle events.
func WithVerbose(v bool) Option {
	return func(o *options) {
		o.cfg.Verbose = v
	}
}

// WithTopology overrides the host topology queries.
func WithTopology(t api.Topology) Option {
	return func(o *options) {
		o.topology = t
	}
}

// WithBinder overrides how workers pin their threads.
func WithBinder(b api.Binder) Option {
	return func(o *options) {
		o.binder = b
	}
}

// WithMetrics attaches a telemetry sink.
func WithMetrics(m api.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
