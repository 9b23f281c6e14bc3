// Command colortrace replays map-coloring solver traces in the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/signalsfoundry/colortrace/internal/config"
)

func main() {
	cfg, err := config.LoadPlayer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "colortrace: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
