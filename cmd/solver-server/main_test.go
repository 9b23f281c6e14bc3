package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/signalsfoundry/colortrace/core"
	"github.com/signalsfoundry/colortrace/internal/config"
	"github.com/signalsfoundry/colortrace/internal/logging"
	"github.com/signalsfoundry/colortrace/internal/solveclient"
	"github.com/signalsfoundry/colortrace/model"
)

func testConfig() config.Server {
	return config.Server{
		Log:        config.Log{Level: "warn", Format: "text"},
		RateLimit:  100,
		RateBurst:  100,
		MaxRegions: 64,
		MaxSteps:   100_000,
	}
}

func TestSolverServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	cfg := testConfig()
	cfg.Addr = lis.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), lis)
	}()

	base := "http://" + cfg.Addr
	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", resp.StatusCode)
	}

	client, err := solveclient.New(base)
	if err != nil {
		t.Fatalf("solveclient.New: %v", err)
	}
	graph := core.DefaultMap()
	raw, err := client.Solve(ctx, model.AlgorithmBacktracking, graph.SolveRequest(4, nil))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	trace, err := core.Ingest(raw, graph)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !trace.Success() {
		t.Fatalf("default map with 4 colors should be solvable")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancellation")
	}
}

func TestSolverServerMetricsEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	metricsLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	metricsAddr := metricsLis.Addr().String()
	metricsLis.Close()

	cfg := testConfig()
	cfg.Addr = lis.Addr().String()
	cfg.MetricsAddr = metricsAddr

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, logging.Noop(), lis)
	}()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err = http.Get("http://" + metricsAddr + "/metrics")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics endpoint never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", resp.StatusCode)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}
