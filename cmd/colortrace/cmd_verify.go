package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/colortrace/core"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify TRACE",
		Short: "Validate a trace file and report steps where neighbors share a color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, args[0])
		},
	}
}

func (a *app) runVerify(cmd *cobra.Command, path string) error {
	graph, err := a.loadGraph()
	if err != nil {
		return err
	}
	raw, err := readTrace(path)
	if err != nil {
		return err
	}
	trace, err := core.Ingest(raw, graph)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bad := core.VerifyTrace(trace)
	for _, i := range bad {
		pairs, err := core.Conflicts(trace, i)
		if err != nil {
			return err
		}
		step, _ := trace.Step(i)
		for _, p := range pairs {
			fmt.Fprintf(out, "step %d (%s %s): %s and %s share %q\n",
				i, step.StepType, step.Region, p[0], p[1], step.CurrentState[p[0]])
		}
	}

	fmt.Fprintf(out, "%d steps, %d backtracks, success=%t\n",
		trace.TotalSteps(), trace.Backtracks(), trace.Success())
	if len(bad) > 0 {
		return fmt.Errorf("%d of %d steps color adjacent regions alike", len(bad), trace.TotalSteps())
	}
	return nil
}
