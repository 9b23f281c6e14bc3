// Command solver-server serves the reference map-coloring solver over HTTP.
// Settings come from COLORTRACE_* environment variables; flags override
// them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/colortrace/internal/config"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/solverapi"
)

const (
	serviceName     = "colortrace-solver"
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "solver-server: %v\n", err)
		os.Exit(2)
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP address the solver listens on")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "HTTP address for Prometheus /metrics (empty disables)")
	flag.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "sustained solve requests per second")
	flag.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "solve request burst size")
	flag.IntVar(&cfg.MaxRegions, "max-regions", cfg.MaxRegions, "largest map accepted")
	flag.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "longest trace a solve may produce")
	flag.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format (text or json)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "solver-server: %v\n", err)
		os.Exit(2)
	}

	log, closer, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "solver-server: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(serviceName), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.Addr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "solver server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves solve requests on lis, and metrics on cfg.MetricsAddr when set,
// until ctx is cancelled.
func run(ctx context.Context, cfg config.Server, log logging.Logger, lis net.Listener) error {
	collector, err := observability.NewSolveCollector(nil, "solver_http")
	if err != nil {
		return fmt.Errorf("initialise metrics collector: %w", err)
	}

	api := solverapi.NewServer(
		solverapi.WithLogger(log),
		solverapi.WithMetrics(collector),
		solverapi.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		solverapi.WithMaxRegions(cfg.MaxRegions),
		solverapi.WithMaxSteps(cfg.MaxSteps),
		solverapi.WithServiceName(serviceName),
	)
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	servers := []*http.Server{srv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting solver server", logging.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("solver server: %w", err)
		}
		return nil
	})

	if cfg.MetricsAddr != "" {
		metricsSrv := metricsServer(cfg.MetricsAddr, collector)
		servers = append(servers, metricsSrv)
		g.Go(func() error {
			log.Info(gctx, "serving Prometheus metrics", logging.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down solver server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, s := range servers {
			_ = s.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}

func metricsServer(addr string, collector *observability.SolveCollector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
