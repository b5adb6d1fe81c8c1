// File: cmd/corebench/main.go
// Author: momentics <momentics@gmail.com>
//
// corebench measures dispatch latency and throughput of a pinned pool with a
// busy-spinning workload: direct sync, queued sync and async + WaitAll.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/momentics/corepool/affinity"
	"github.com/momentics/corepool/control"
	"github.com/momentics/corepool/pool"
)

func main() {
	app := &cli.App{
		Name:  "corebench",
		Usage: "benchmark a CPU-pinned stream thread pool",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML pool config; flags override it"},
			&cli.IntFlag{Name: "streams", Usage: "stream count (0 = sockets)"},
			&cli.IntFlag{Name: "threads", Usage: "worker count (0 = usable cores)"},
			&cli.BoolFlag{Name: "affinity", Value: true, Usage: "place on the process allowed cores"},
			&cli.BoolFlag{Name: "verbose", Usage: "log the placement plan and worker lifecycle"},
			&cli.IntFlag{Name: "loop", Value: 1000, Usage: "tasks per sync scenario"},
			&cli.IntFlag{Name: "block-ms", Value: 10, Usage: "busy-spin time of each task"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus /metrics on this address"},
			&cli.BoolFlag{Name: "probes", Usage: "print debug probes before exiting"},
			&cli.IntFlag{Name: "v", Usage: "klog verbosity"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		klog.Errorf("corebench: %v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func initLogging(level int) error {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	return fs.Set("v", strconv.Itoa(level))
}

func loadConfig(c *cli.Context) (control.Config, error) {
	cfg := control.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = control.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("streams") {
		cfg.Streams = c.Int("streams")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("affinity") {
		cfg.UseAffinity = c.Bool("affinity")
	}
	if c.IsSet("verbose") {
		cfg.Verbose = c.Bool("verbose")
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	if err := initLogging(c.Int("v")); err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), 2)
	}

	reg := prom.NewRegistry()
	exporter, err := control.NewMetricsExporter("corepool", reg, control.MetricsOptions{})
	if err != nil {
		return err
	}
	if addr := c.String("metrics-addr"); addr != "" {
		srv := serveMetrics(addr, reg)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	p, err := pool.New(pool.WithConfig(cfg), pool.WithMetrics(exporter))
	if err != nil {
		return err
	}
	defer p.Close()

	b := bench{
		pool:  p,
		loop:  c.Int("loop"),
		block: time.Duration(c.Int("block-ms")) * time.Millisecond,
		out:   c.App.Writer,
	}
	if err := b.runAll(); err != nil {
		return err
	}

	if c.Bool("probes") {
		dp := control.NewDebugProbes()
		control.RegisterPlatformProbes(dp, affinity.System())
		p.RegisterProbes(dp)
		state := dp.DumpState()
		for _, name := range dp.Names() {
			fmt.Fprintf(c.App.Writer, "%s = %v\n", name, state[name])
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prom.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Errorf("metrics server: %v", err)
		}
	}()
	klog.Infof("serving metrics on http://%s/metrics", addr)
	return srv
}
