package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperledger/fabric/common/flogging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"certregistry/events"
	"certregistry/gateway"
	"certregistry/internal/platform/config"
	"certregistry/internal/platform/httpserver"
	"certregistry/internal/platform/metrics"
	"certregistry/registry"
)

var logger = flogging.MustGetLogger("certregistry.main")

// main wires the off-ledger registry, its event sinks and the HTTP gateway.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	flogging.Init(flogging.Config{
		Format:  cfg.LogFormat,
		LogSpec: cfg.LogSpec,
		Writer:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := events.NewRecorder(0)
	sinks, closers, err := buildSinks(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to set up event sinks: %v", err)
	}
	defer closeAll(closers)

	reg, err := registry.New(registry.NewMemoryStore(),
		registry.WithPublisher(append(events.Fanout{recorder}, sinks...)))
	if err != nil {
		logger.Fatalf("failed to create registry: %v", err)
	}
	if cfg.AdminIdentity != "" {
		if err := reg.Initialize(cfg.AdminIdentity); err != nil {
			logger.Fatalf("failed to initialize registry: %v", err)
		}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	server := gateway.New(reg,
		gateway.WithMetrics(metrics.New(promReg), promReg),
		gateway.WithRecorder(recorder),
		gateway.WithIdentityHeaders(cfg.IdentityHeader, cfg.AdminHeader),
	)
	srv := httpserver.New(cfg.Addr, server.Routes())

	logger.Infof("starting registry gateway on %s with sinks %v", cfg.Addr, cfg.EventSinks)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
	logger.Info("registry gateway stopped")
}
