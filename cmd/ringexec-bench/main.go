//go:build linux

// Command ringexec-bench drives schedule and timer operations through an
// io_uring context from a pool of rate limited producers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brickingsoft/ringexec/pkg/aio"
	"github.com/brickingsoft/ringexec/pkg/logging"
	"github.com/brickingsoft/ringexec/pkg/process"
	"github.com/joeycumines/logiface"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stderr, level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Err().Err(err).Log("bench failed")
		cancel()
		os.Exit(1)
	}
	result.print(os.Stdout)
}

func parseFlags(args []string) (Config, error) {
	fs := flag.NewFlagSet("ringexec-bench", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	entries := fs.Uint("entries", 0, "submission ring entries")
	producers := fs.Int("producers", 0, "producer goroutines")
	operations := fs.Int("ops", 0, "operations per producer")
	limit := fs.Float64("rate", 0, "operations per second per producer, 0 is unlimited")
	delay := fs.Duration("delay", 0, "timer delay")
	ratio := fs.Float64("timer-ratio", 0, "share of timer operations")
	backpressure := fs.String("backpressure", "", "retry or reject")
	cpu := fs.Int("cpu", -1, "pin the reactor to this CPU")
	priority := fs.String("priority", "", "reactor priority: norm, idle, high, realtime")
	metricsAddr := fs.String("metrics", "", "serve prometheus metrics on this address")
	logLevel := fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "entries":
			cfg.Entries = uint32(*entries)
		case "producers":
			cfg.Producers = *producers
		case "ops":
			cfg.Operations = *operations
		case "rate":
			cfg.Rate = *limit
		case "delay":
			cfg.TimerDelay = *delay
		case "timer-ratio":
			cfg.TimerRatio = *ratio
		case "backpressure":
			cfg.Backpressure = *backpressure
		case "cpu":
			cfg.CPU = *cpu
		case "priority":
			cfg.Priority = *priority
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	return cfg, cfg.Validate()
}

type report struct {
	schedules int64
	timers    int64
	elapsed   time.Duration
}

func (r report) print(w io.Writer) {
	total := r.schedules + r.timers
	throughput := float64(total) / r.elapsed.Seconds()
	fmt.Fprintf(w, "operations: %d (schedule %d, timer %d)\n", total, r.schedules, r.timers)
	fmt.Fprintf(w, "elapsed:    %s\n", r.elapsed)
	fmt.Fprintf(w, "throughput: %.0f ops/s\n", throughput)
}

func run(ctx context.Context, cfg Config, logger *logiface.Logger[logiface.Event]) (r report, err error) {
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Info().Logf(format, args...)
	}))
	if err != nil {
		return
	}
	defer undo()

	backpressure, _ := cfg.backpressure()
	priority, _ := process.ParsePriorityLevel(cfg.Priority)
	registry := prometheus.NewRegistry()
	c, err := aio.New(
		aio.WithEntries(cfg.Entries),
		aio.WithBackpressure(backpressure),
		aio.WithCPUAffinity(cfg.CPU),
		aio.WithPriority(priority),
		aio.WithLogger(logger),
		aio.WithMetrics(aio.NewMetrics("ringexec")),
		aio.WithRegisterer(registry),
	)
	if err != nil {
		return
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	runDone := make(chan error, 1)
	go func() {
		runDone <- c.Run(ctx)
	}()

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:        cfg.MetricsAddr,
			Handler:     metricsHandler(registry),
			ReadTimeout: 5 * time.Second,
		}
		go func() {
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Err().Err(serveErr).Str("addr", cfg.MetricsAddr).Log("metrics server failed")
			}
		}()
		defer server.Close()
	}

	var schedules, timers atomic.Int64
	scheduler := c.Scheduler()
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < cfg.Producers; p++ {
		g.Go(func() error {
			limiter := rate.NewLimiter(rate.Inf, 1)
			if cfg.Rate > 0 {
				limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
			}
			for i := 0; i < cfg.Operations; i++ {
				if waitErr := limiter.Wait(gctx); waitErr != nil {
					return waitErr
				}
				if cfg.isTimer(i) {
					if _, opErr := aio.SyncWait(gctx, scheduler.ScheduleAfter(cfg.TimerDelay)); opErr != nil {
						return fmt.Errorf("producer %d timer %d: %w", p, i, opErr)
					}
					timers.Add(1)
					continue
				}
				if _, opErr := aio.SyncWait(gctx, scheduler.Schedule()); opErr != nil {
					return fmt.Errorf("producer %d schedule %d: %w", p, i, opErr)
				}
				schedules.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	r = report{schedules: schedules.Load(), timers: timers.Load(), elapsed: time.Since(start)}

	c.RequestStop()
	if runErr := <-runDone; runErr != nil && err == nil {
		err = runErr
	}
	logger.Debug().
		Int64("schedules", r.schedules).
		Int64("timers", r.timers).
		Dur("elapsed", r.elapsed).
		Log("bench done")
	return
}

func metricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	return mux
}
