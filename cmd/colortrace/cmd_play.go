package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/colortrace/catalog"
	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/tui"
	"github.com/signalsfoundry/colortrace/internal/view"
	"github.com/signalsfoundry/colortrace/timectrl"
)

type playOptions struct {
	tracePath string
	noTUI     bool
}

func newPlayCmd(a *app) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Solve the map (or load a trace file) and replay it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPlay(cmd, opts)
		},
	}
	a.addSolveFlags(cmd)
	cmd.Flags().StringVar(&opts.tracePath, "trace", "", "replay a saved trace file instead of solving")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "print one frame per step instead of the interactive screen")
	cmd.Flags().DurationVar(&a.cfg.Speed, "speed", a.cfg.Speed, "time between steps")
	cmd.Flags().BoolVar(&a.cfg.WatchMap, "watch", a.cfg.WatchMap, "reload --map when the file changes")
	cmd.Flags().StringVar(&a.cfg.MetricsAddr, "metrics-addr", a.cfg.MetricsAddr, "HTTP address for Prometheus /metrics (empty disables)")
	return cmd
}

func (a *app) runPlay(cmd *cobra.Command, opts playOptions) error {
	algorithm, err := a.algorithm()
	if err != nil {
		return err
	}
	log := a.logger()

	ctx, cancel := context.WithCancel(ctxOrBackground(cmd))
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var (
		playback *observability.PlaybackCollector
		solves   *observability.SolveCollector
	)
	if a.cfg.MetricsAddr != "" {
		if playback, err = observability.NewPlaybackCollector(nil); err != nil {
			return fmt.Errorf("initialise playback metrics: %w", err)
		}
		if solves, err = observability.NewSolveCollector(nil, "solve_client"); err != nil {
			return fmt.Errorf("initialise solve metrics: %w", err)
		}
		serveMetrics(gctx, g, a.cfg.MetricsAddr, playback.Handler(), log)
	}

	playerOpts := []core.PlaybackOption{
		core.WithClock(timectrl.NewRealClock()),
		core.WithLogger(log),
		core.WithSpeed(a.cfg.Speed),
	}
	sessionOpts := []core.SessionOption{core.WithSessionLogger(log)}
	if playback != nil {
		playerOpts = append(playerOpts, core.WithMetricsRecorder(playback))
		sessionOpts = append(sessionOpts, core.WithSessionMetrics(playback))
	}
	player := core.NewPlaybackController(playerOpts...)
	defer player.Close()

	solver, err := a.newSolver(solves)
	if err != nil {
		return err
	}

	graph, watcher, err := a.startGraph(gctx, opts.noTUI, log)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	session, err := core.NewSession(graph, solver, player, sessionOpts...)
	if err != nil {
		return err
	}
	if watcher != nil {
		unsubscribe := watcher.Catalog().Subscribe(func(ev catalog.Event) {
			if ev.Type == catalog.EventGraphReplaced {
				_ = session.SetGraph(ev.Graph)
			}
		})
		defer unsubscribe()
	}

	if opts.tracePath != "" {
		raw, err := readTrace(opts.tracePath)
		if err != nil {
			return err
		}
		if _, err := session.LoadRaw(gctx, raw); err != nil {
			return err
		}
	} else if _, err := session.Solve(gctx, algorithm, a.cfg.MaxColors); err != nil {
		return err
	}

	g.Go(func() error {
		defer cancel()
		if opts.noTUI {
			return follow(gctx, cmd, player)
		}
		title := fmt.Sprintf("colortrace · %s · %d colors", algorithm, a.cfg.MaxColors)
		return tui.Run(gctx, player,
			tui.WithTitle(title),
			tui.WithSolve(func(ctx context.Context) error {
				_, err := session.Solve(ctx, algorithm, a.cfg.MaxColors)
				return err
			}),
		)
	})
	return g.Wait()
}

// startGraph loads the map. With --watch and --map in interactive mode the
// file is watched and edits are published through a catalog.
func (a *app) startGraph(ctx context.Context, noTUI bool, log logging.Logger) (*core.RegionGraph, *catalog.Watcher, error) {
	if a.cfg.MapPath == "" || !a.cfg.WatchMap || noTUI {
		g, err := a.loadGraph()
		return g, nil, err
	}

	cat := catalog.NewCatalog()
	w, err := catalog.NewWatcher(a.cfg.MapPath, cat, catalog.WithWatcherLogger(log))
	if err != nil {
		return nil, nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, nil, err
	}
	names := cat.Names()
	if len(names) != 1 {
		w.Stop()
		return nil, nil, fmt.Errorf("%w: expected one map in %s, found %d", core.ErrGraph, a.cfg.MapPath, len(names))
	}
	g, err := cat.Get(names[0])
	if err != nil {
		w.Stop()
		return nil, nil, err
	}
	return g, w, nil
}

// follow plays the loaded trace to its end, writing a frame per step.
func follow(ctx context.Context, cmd *cobra.Command, player *core.PlaybackController) error {
	t := player.Trace()
	if t == nil {
		return errors.New("no trace loaded")
	}
	mapView, err := view.NewMapView(t.Graph())
	if err != nil {
		return err
	}
	follower := view.NewFollower(cmd.OutOrStdout(), mapView, view.NewLegendView())

	done := make(chan struct{})
	var once sync.Once
	finished := func(v core.View) {
		if v.HasTrace() && v.AtEnd() && !v.IsPlaying {
			once.Do(func() { close(done) })
		}
	}
	unsubscribe := player.Subscribe(func(v core.View) {
		follower.Observe(v)
		finished(v)
	})
	defer unsubscribe()

	follower.Observe(player.Snapshot())
	player.Play()
	finished(player.Snapshot())

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, handler http.Handler, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
