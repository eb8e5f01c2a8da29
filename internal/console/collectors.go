package console

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
	metricsv1beta1client "k8s.io/metrics/pkg/client/clientset/versioned/typed/metrics/v1beta1"

	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/collector/resource"
	"github.com/kubeadapt/kubeadapt-console/internal/collector/stats"
	"github.com/kubeadapt/kubeadapt-console/internal/config"
	consolediscovery "github.com/kubeadapt/kubeadapt-console/internal/discovery"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// SelectedKinds returns the store kinds cfg.Resources enables, in store
// order. An empty list selects every kind; unknown names are logged and
// ignored.
func SelectedKinds(cfg *config.Config) []string {
	if len(cfg.Resources) == 0 {
		return slices.Clone(store.Kinds)
	}
	var out []string
	for _, kind := range store.Kinds {
		if slices.Contains(cfg.Resources, kind) {
			out = append(out, kind)
		}
	}
	for _, name := range cfg.Resources {
		if !slices.Contains(store.Kinds, name) {
			slog.Warn("ignoring unknown resource kind", "kind", name)
		}
	}
	return out
}

// BuildRegistry registers a collector for every selected kind the console
// may list and watch. Denied kinds are skipped with an RBAC_DENIED report.
func BuildRegistry(
	ctx context.Context,
	cfg *config.Config,
	client kubernetes.Interface,
	discoveryClient discovery.DiscoveryInterface,
	st *store.Store,
	metrics *observability.Metrics,
	errCollector *consoleerrors.ErrorCollector,
) (*collector.Registry, error) {
	kinds := SelectedKinds(cfg)
	targets := make([]consolediscovery.Target, 0, len(kinds))
	for _, kind := range kinds {
		gvr, _ := resource.GVR(kind)
		targets = append(targets, consolediscovery.Target{Kind: kind, GVR: gvr})
	}

	permitted, denied, err := consolediscovery.Partition(ctx, client, discoveryClient, cfg.Namespace, targets)
	if err != nil {
		errCollector.ReportError(consoleerrors.ErrClusterUnreachable, "console", err)
		return nil, err
	}
	for _, kind := range denied {
		slog.Warn("skipping collector, list/watch not permitted", "kind", kind, "namespace", cfg.Namespace)
		errCollector.ReportError(consoleerrors.ErrRBACDenied, "collector/"+kind,
			fmt.Errorf("list/watch %s not permitted", kind))
	}

	registry := collector.NewRegistry()
	opts := resource.Options{Namespace: cfg.Namespace, ResyncPeriod: cfg.InformerResyncPeriod}
	for _, kind := range permitted {
		c, err := resource.New(kind, client, st, metrics, opts)
		if err != nil {
			return nil, err
		}
		registry.Register(c)
	}
	return registry, nil
}

// RegisterStats adds the pod stats collector when stats are enabled and
// the cluster serves metrics.k8s.io. It reports whether the collector was
// registered.
func RegisterStats(
	registry *collector.Registry,
	cfg *config.Config,
	caps *consolediscovery.Capabilities,
	client metricsv1beta1client.MetricsV1beta1Interface,
	st *store.StatsStore,
	metrics *observability.Metrics,
	errCollector *consoleerrors.ErrorCollector,
) bool {
	if !cfg.StatsEnabled {
		return false
	}
	if caps == nil || !caps.APIGroups[stats.MetricsGroup] {
		slog.Info("metrics-server not detected, pod stats disabled")
		return false
	}
	registry.Register(stats.NewCollectorFromClient(client, st, metrics, errCollector, cfg.Namespace, cfg.StatsInterval))
	return true
}
