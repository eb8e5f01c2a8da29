package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"k8s.io/client-go/kubernetes"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/kubeadapt/kubeadapt-console/internal/cluster"
	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/config"
	"github.com/kubeadapt/kubeadapt-console/internal/console"
	"github.com/kubeadapt/kubeadapt-console/internal/discovery"
	"github.com/kubeadapt/kubeadapt-console/internal/editor"
	"github.com/kubeadapt/kubeadapt-console/internal/enrichment"
	"github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/server"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

func main() {
	// 1. Load and validate config.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// 2. Create context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig)
		cancel()
	}()

	slog.Info("kubeadapt-console starting",
		"version", cfg.Version,
		"instance_id", cfg.InstanceID,
		"listen_port", cfg.ListenPort,
		"cluster_enabled", cfg.ClusterEnabled,
		"namespace", cfg.Namespace,
	)

	// 3. Create shared infrastructure.
	metrics := observability.NewMetrics()
	errCollector := errors.NewErrorCollector(errors.RealClock{})
	st := store.NewStore()
	ed := editor.New(errors.RealClock{}, errCollector, metrics, cfg.ErrorDisplayLimit)
	sm := console.NewStateMachine(errors.RealClock{}, metrics)

	deps := server.Deps{
		Metrics: metrics,
		Editor:  ed,
		Store:   st,
		Errors:  errCollector,
	}

	// 4. Connect to the cluster. Any failure here leaves the console standalone.
	var registry *collector.Registry
	if cfg.ClusterEnabled {
		registry = connectCluster(ctx, &cfg, st, metrics, errCollector, &deps)
	}

	// 5. Create the console and start the API server.
	con := console.New(&cfg, registry, st, ed, sm, errCollector, metrics)
	deps.Readiness = con
	if registry != nil {
		deps.ClusterStatus = con
	}

	srv := server.NewServer(server.Options{
		Port:              cfg.ListenPort,
		APIKey:            cfg.APIKey,
		MaxRequestBytes:   cfg.MaxRequestBytes,
		RequestTimeout:    cfg.RequestTimeout,
		ErrorDisplayLimit: cfg.ErrorDisplayLimit,
		EnableDebug:       cfg.DebugEndpoints,
	}, deps)
	if err := srv.Start(); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	// 6. Start memory pressure monitor.
	memMon := console.NewMemoryPressureMonitor(con.RelieveMemoryPressure, console.PressureOptions{})
	memMon.Start()

	// 7. Run console (blocks until context is canceled).
	if err := con.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("console exited with error", "error", err)
	}

	// 8. Graceful shutdown.
	memMon.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("kubeadapt-console stopped")
}

// connectCluster builds the Kubernetes client, detects capabilities, and
// registers collectors for the permitted kinds. It fills the cluster-facing
// server deps and returns nil when the cluster cannot be reached.
func connectCluster(
	ctx context.Context,
	cfg *config.Config,
	st *store.Store,
	metrics *observability.Metrics,
	errCollector *errors.ErrorCollector,
	deps *server.Deps,
) *collector.Registry {
	restCfg, err := cluster.RESTConfig("")
	if err != nil {
		slog.Warn("no kubernetes config, running standalone", "error", err)
		errCollector.ReportError(errors.ErrClusterUnreachable, "cluster", err)
		return nil
	}
	restCfg.UserAgent = "kubeadapt-console/" + cfg.Version

	kubeClient, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		slog.Warn("failed to build kubernetes client, running standalone", "error", err)
		errCollector.ReportError(errors.ErrClusterUnreachable, "cluster", err)
		return nil
	}

	caps, err := discovery.Detect(kubeClient.Discovery())
	if err != nil {
		slog.Warn("cluster unreachable, running standalone", "error", err)
		errCollector.ReportError(errors.ErrClusterUnreachable, "cluster", err)
		return nil
	}
	slog.Info("cluster capabilities detected",
		"server_version", caps.ServerVersion,
		"platform", caps.Platform,
		"api_groups", len(caps.APIGroups),
	)

	registry, err := console.BuildRegistry(ctx, cfg, kubeClient, kubeClient.Discovery(), st, metrics, errCollector)
	if err != nil {
		slog.Warn("failed to register collectors, running standalone", "error", err)
		errCollector.ReportError(errors.ErrClusterUnreachable, "cluster", err)
		return nil
	}

	enrichers := []enrichment.Enricher{
		enrichment.NewOwnershipEnricher(),
		enrichment.NewMountsEnricher(),
		enrichment.NewRoutesEnricher(),
	}

	// Pod stats are optional; the console works without metrics-server.
	if metricsClient, err := metricsclient.NewForConfig(restCfg); err != nil {
		slog.Warn("failed to build metrics client, pod stats disabled", "error", err)
	} else {
		statsStore := store.NewStatsStore()
		if console.RegisterStats(registry, cfg, caps, metricsClient.MetricsV1beta1(), statsStore, metrics, errCollector) {
			deps.Stats = statsStore
			enrichers = append(enrichers, enrichment.NewUsageEnricher(statsStore))
		}
	}

	deps.Cluster = cluster.NewClient(kubeClient, metrics, errCollector)
	deps.Resources = enrichment.NewLister(st, enrichment.NewPipeline(metrics, enrichers...))
	deps.Capabilities = caps
	return registry
}
