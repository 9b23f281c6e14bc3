package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/logging"
)

func newSolveCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Request a trace and write it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSolve(cmd, outPath)
		},
	}
	a.addSolveFlags(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the trace to this file instead of stdout")
	return cmd
}

func (a *app) runSolve(cmd *cobra.Command, outPath string) error {
	algorithm, err := a.algorithm()
	if err != nil {
		return err
	}
	graph, err := a.loadGraph()
	if err != nil {
		return err
	}
	solver, err := a.newSolver(nil)
	if err != nil {
		return err
	}

	ctx, log := logging.WithTraceLogger(ctxOrBackground(cmd), a.logger())
	req := graph.SolveRequest(a.cfg.MaxColors, nil)
	if err := req.Validate(); err != nil {
		return err
	}
	raw, err := solver.Solve(ctx, algorithm, req)
	if err != nil {
		return err
	}
	trace, err := core.Ingest(raw, graph)
	if err != nil {
		return err
	}
	log.Info(ctx, "trace received",
		logging.String("trace_id", trace.ID()),
		logging.Bool("success", trace.Success()),
		logging.Int("steps", trace.TotalSteps()),
		logging.Int("backtracks", trace.Backtracks()),
	)

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create trace file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(trace.Raw()); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
