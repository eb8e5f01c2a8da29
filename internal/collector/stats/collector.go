// Package stats polls metrics-server for per-container pod usage, the
// data behind the console's stats view.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsv1beta1client "k8s.io/metrics/pkg/client/clientset/versioned/typed/metrics/v1beta1"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// Name is the collector name reported to the registry.
const Name = "stats"

// MetricsGroup is the API group metrics-server serves.
const MetricsGroup = "metrics.k8s.io"

// PodMetricsAPI abstracts the metrics-server pod metrics list.
type PodMetricsAPI interface {
	ListPodMetrics(ctx context.Context, namespace string) ([]metricsv1beta1.PodMetrics, error)
}

type podMetricsClient struct {
	client metricsv1beta1client.MetricsV1beta1Interface
}

func (c *podMetricsClient) ListPodMetrics(ctx context.Context, namespace string) ([]metricsv1beta1.PodMetrics, error) {
	list, err := c.client.PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Collector polls pod metrics on a timer and replaces the stats store
// contents with each complete result.
type Collector struct {
	api          PodMetricsAPI
	stats        *store.StatsStore
	metrics      *observability.Metrics
	errCollector *consoleerrors.ErrorCollector
	namespace    string
	interval     time.Duration

	running  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	syncOnce sync.Once
	synced   chan struct{}
}

// NewCollector creates a Collector over api. An empty namespace polls
// every namespace.
func NewCollector(api PodMetricsAPI, stats *store.StatsStore, metrics *observability.Metrics, errCollector *consoleerrors.ErrorCollector, namespace string, interval time.Duration) *Collector {
	return &Collector{
		api:          api,
		stats:        stats,
		metrics:      metrics,
		errCollector: errCollector,
		namespace:    namespace,
		interval:     interval,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
		synced:       make(chan struct{}),
	}
}

// NewCollectorFromClient creates a Collector over a metrics.k8s.io client.
func NewCollectorFromClient(client metricsv1beta1client.MetricsV1beta1Interface, stats *store.StatsStore, metrics *observability.Metrics, errCollector *consoleerrors.ErrorCollector, namespace string, interval time.Duration) *Collector {
	return NewCollector(&podMetricsClient{client: client}, stats, metrics, errCollector, namespace, interval)
}

// Name returns the collector name.
func (c *Collector) Name() string { return Name }

// Start launches the polling goroutine.
func (c *Collector) Start(ctx context.Context) error {
	c.running.Store(true)
	go c.run(ctx)
	return nil
}

// WaitForSync blocks until the first poll completes or ctx is done. A
// failed first poll still counts as synced; the stats view stays empty.
func (c *Collector) WaitForSync(ctx context.Context) error {
	select {
	case <-c.synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop signals the polling goroutine and waits for it to exit.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.running.Load() {
		<-c.done
	}
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)

	c.poll(ctx)
	c.syncOnce.Do(func() { close(c.synced) })

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.poll(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Collector) poll(ctx context.Context) {
	start := time.Now()
	defer func() { c.metrics.StatsPollDuration.Observe(time.Since(start).Seconds()) }()

	list, err := c.api.ListPodMetrics(ctx, c.namespace)
	if err != nil {
		// Previous samples stay in place until a poll succeeds.
		slog.Error("failed to list pod metrics", "namespace", c.namespace, "error", err)
		c.errCollector.ReportError(consoleerrors.ErrStatsUnavailable, "collector/"+Name,
			fmt.Errorf("list pod metrics: %w", err))
		return
	}

	samples := make([]model.PodStats, 0, len(list))
	for _, pm := range list {
		samples = append(samples, ToPodStats(pm))
	}
	c.stats.Replace(samples)
}

// ToPodStats converts a metrics-server sample. CPU is reported in cores.
func ToPodStats(pm metricsv1beta1.PodMetrics) model.PodStats {
	containers := make([]model.ContainerUsage, 0, len(pm.Containers))
	for _, cm := range pm.Containers {
		cpu := cm.Usage[corev1.ResourceCPU]
		mem := cm.Usage[corev1.ResourceMemory]
		containers = append(containers, model.ContainerUsage{
			Name:             cm.Name,
			CPUUsageCores:    cpu.AsApproximateFloat64(),
			MemoryUsageBytes: mem.Value(),
		})
	}
	return model.PodStats{
		Name:       pm.Name,
		Namespace:  pm.Namespace,
		Containers: containers,
		Window:     pm.Window.Duration.Milliseconds(),
		Timestamp:  pm.Timestamp.UnixMilli(),
	}
}
