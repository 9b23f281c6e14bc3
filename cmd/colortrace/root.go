package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/config"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/observability"
	"github.com/signalsfoundry/colortrace/internal/solveclient"
	"github.com/signalsfoundry/colortrace/internal/solver"
	"github.com/signalsfoundry/colortrace/model"
)

// app carries the settings shared by every subcommand. Flags write straight
// into cfg, so environment values act as flag defaults.
type app struct {
	cfg   config.Player
	local bool

	log    logging.Logger
	closer io.Closer
}

func newRootCmd(cfg config.Player) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:          "colortrace",
		Short:        "Replay map-coloring solver traces step by step",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			log, closer, err := a.cfg.Log.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.log, a.closer = log, closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.MapPath, "map", a.cfg.MapPath, "YAML map file (defaults to the built-in six-region map)")
	flags.StringVar(&a.cfg.SolverURL, "solver-url", a.cfg.SolverURL, "base URL of the solver service")
	flags.DurationVar(&a.cfg.SolveTimeout, "solve-timeout", a.cfg.SolveTimeout, "deadline for one solve request")
	flags.BoolVar(&a.local, "local", false, "run the solver in-process instead of calling the solver service")
	flags.StringVar(&a.cfg.Log.Level, "log-level", a.cfg.Log.Level, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.Log.Format, "log-format", a.cfg.Log.Format, "log format (text or json)")
	flags.StringVar(&a.cfg.Log.File, "log-file", a.cfg.Log.File, "also write JSON logs to this file")

	root.AddCommand(
		newPlayCmd(a),
		newSolveCmd(a),
		newVerifyCmd(a),
	)
	return root
}

// addSolveFlags registers the flags that shape a solve request.
func (a *app) addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.cfg.Algorithm, "algorithm", "a", a.cfg.Algorithm, "solver strategy (backtracking, greedy, forward_checking)")
	cmd.Flags().IntVarP(&a.cfg.MaxColors, "colors", "c", a.cfg.MaxColors, "number of colors the solver may use")
}

func (a *app) algorithm() (model.Algorithm, error) {
	return model.ParseAlgorithm(a.cfg.Algorithm)
}

// loadGraph reads --map, or returns the built-in map when none was given.
func (a *app) loadGraph() (*core.RegionGraph, error) {
	if a.cfg.MapPath == "" {
		return core.DefaultMap(), nil
	}
	f, err := os.Open(a.cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()
	g, err := core.LoadRegionGraph(f)
	if err != nil {
		return nil, fmt.Errorf("load map %q: %w", a.cfg.MapPath, err)
	}
	return g, nil
}

// newSolver returns the in-process solver with --local, otherwise an HTTP
// client for the solver service.
func (a *app) newSolver(metrics *observability.SolveCollector) (core.Solver, error) {
	if a.local {
		return solver.Local{MaxSteps: solver.DefaultMaxSteps}, nil
	}
	client, err := solveclient.New(a.cfg.SolverURL,
		solveclient.WithTimeout(a.cfg.SolveTimeout),
		solveclient.WithLogger(a.log),
		solveclient.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// readTrace decodes a trace file without validating it.
func readTrace(path string) (*model.RawTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return core.DecodeTrace(f)
}

func (a *app) logger() logging.Logger {
	if a.log == nil {
		return logging.Noop()
	}
	return a.log
}

func ctxOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
