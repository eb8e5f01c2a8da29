package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clienttesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

const (
	waitTimeout  = 5 * time.Second
	pollInterval = 20 * time.Millisecond
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func podMetrics(ns, name string, ts metav1.Time, usage ...string) metricsv1beta1.PodMetrics {
	pm := metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns},
		Timestamp:  ts,
		Window:     metav1.Duration{Duration: 15 * time.Second},
	}
	for i := 0; i+2 < len(usage); i += 3 {
		pm.Containers = append(pm.Containers, metricsv1beta1.ContainerMetrics{
			Name: usage[i],
			Usage: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(usage[i+1]),
				corev1.ResourceMemory: resource.MustParse(usage[i+2]),
			},
		})
	}
	return pm
}

// newFakeMetrics returns a metrics clientset whose pod metrics list serves
// items, recording the namespace of each list call.
func newFakeMetrics(items func() ([]metricsv1beta1.PodMetrics, error), namespaces *[]string) *metricsfake.Clientset {
	client := metricsfake.NewSimpleClientset()
	client.PrependReactor("list", "pods", func(action clienttesting.Action) (bool, runtime.Object, error) {
		if namespaces != nil {
			*namespaces = append(*namespaces, action.GetNamespace())
		}
		list, err := items()
		if err != nil {
			return true, nil, err
		}
		return true, &metricsv1beta1.PodMetricsList{Items: list}, nil
	})
	return client
}

type fixture struct {
	stats   *store.StatsStore
	metrics *observability.Metrics
	errs    *consoleerrors.ErrorCollector
}

func newFixture() *fixture {
	return &fixture{
		stats:   store.NewStatsStore(),
		metrics: observability.NewMetrics(),
		errs:    consoleerrors.NewErrorCollector(fixedClock{now: time.Unix(1700000000, 0)}),
	}
}

func (f *fixture) start(t *testing.T, client *metricsfake.Clientset, namespace string, interval time.Duration) *Collector {
	t.Helper()
	c := NewCollectorFromClient(client.MetricsV1beta1(), f.stats, f.metrics, f.errs, namespace, interval)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	require.NoError(t, c.Start(ctx))
	t.Cleanup(c.Stop)
	require.NoError(t, c.WaitForSync(ctx))
	return c
}

func TestCollector_Name(t *testing.T) {
	f := newFixture()
	c := NewCollector(nil, f.stats, f.metrics, f.errs, "", time.Minute)
	assert.Equal(t, "stats", c.Name())
}

func TestCollector_StoresPodStatsAfterFirstPoll(t *testing.T) {
	ts := metav1.Now()
	client := newFakeMetrics(func() ([]metricsv1beta1.PodMetrics, error) {
		return []metricsv1beta1.PodMetrics{
			podMetrics("prod", "web-1", ts, "app", "100m", "256Mi", "sidecar", "50m", "64Mi"),
		}, nil
	}, nil)

	f := newFixture()
	f.start(t, client, "", time.Minute)

	got, ok := f.stats.PodStats("prod", "web-1")
	require.True(t, ok, "stats should be stored once WaitForSync returns")
	assert.Equal(t, ts.UnixMilli(), got.Timestamp)
	assert.Equal(t, int64(15000), got.Window)
	require.Len(t, got.Containers, 2)
	assert.Equal(t, "app", got.Containers[0].Name)
	assert.InDelta(t, 0.1, got.Containers[0].CPUUsageCores, 0.001)
	assert.Equal(t, int64(256*1024*1024), got.Containers[0].MemoryUsageBytes)
	assert.Equal(t, "sidecar", got.Containers[1].Name)
	assert.InDelta(t, 0.05, got.Containers[1].CPUUsageCores, 0.001)

	var m dto.Metric
	require.NoError(t, f.metrics.StatsPollDuration.Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestCollector_ScopedToNamespace(t *testing.T) {
	var namespaces []string
	client := newFakeMetrics(func() ([]metricsv1beta1.PodMetrics, error) { return nil, nil }, &namespaces)

	f := newFixture()
	f.start(t, client, "prod", time.Minute)

	require.NotEmpty(t, namespaces)
	assert.Equal(t, "prod", namespaces[0])
}

func TestCollector_DropsPodsGoneFromLaterPolls(t *testing.T) {
	ts := metav1.Now()
	polls := make(chan []metricsv1beta1.PodMetrics, 1)
	first := []metricsv1beta1.PodMetrics{
		podMetrics("prod", "web-1", ts, "app", "1", "1Gi"),
		podMetrics("prod", "web-2", ts, "app", "1", "1Gi"),
	}
	later := []metricsv1beta1.PodMetrics{podMetrics("prod", "web-2", ts, "app", "2", "1Gi")}
	polls <- first
	client := newFakeMetrics(func() ([]metricsv1beta1.PodMetrics, error) {
		select {
		case items := <-polls:
			return items, nil
		default:
			return later, nil
		}
	}, nil)

	f := newFixture()
	f.start(t, client, "", pollInterval)

	require.Eventually(t, func() bool {
		_, present := f.stats.PodStats("prod", "web-1")
		return !present && f.stats.Pods.Len() == 1
	}, waitTimeout, pollInterval)

	got, ok := f.stats.PodStats("prod", "web-2")
	require.True(t, ok)
	assert.InDelta(t, 2.0, got.Containers[0].CPUUsageCores, 0.001)
}

func TestCollector_ListErrorKeepsSamplesAndReports(t *testing.T) {
	ts := metav1.Now()
	fail := make(chan struct{})
	client := newFakeMetrics(func() ([]metricsv1beta1.PodMetrics, error) {
		select {
		case <-fail:
			return nil, errors.New("metrics-server unavailable")
		default:
			return []metricsv1beta1.PodMetrics{podMetrics("prod", "web-1", ts, "app", "1", "1Gi")}, nil
		}
	}, nil)

	f := newFixture()
	f.start(t, client, "", pollInterval)
	require.Equal(t, 1, f.stats.Pods.Len())

	close(fail)
	require.Eventually(t, func() bool {
		for _, code := range f.errs.GetActiveErrorCodes() {
			if code == string(consoleerrors.ErrStatsUnavailable) {
				return true
			}
		}
		return false
	}, waitTimeout, pollInterval)

	_, ok := f.stats.PodStats("prod", "web-1")
	assert.True(t, ok, "samples from the last good poll should be kept")
}

func TestCollector_StopIsIdempotent(t *testing.T) {
	client := newFakeMetrics(func() ([]metricsv1beta1.PodMetrics, error) { return nil, nil }, nil)
	f := newFixture()
	c := f.start(t, client, "", pollInterval)

	c.Stop()
	c.Stop()

	select {
	case <-c.done:
	case <-time.After(waitTimeout):
		t.Fatal("collector goroutine did not exit after Stop()")
	}
}

func TestCollector_StopWithoutStart(t *testing.T) {
	c := NewCollector(nil, store.NewStatsStore(), nil, nil, "", pollInterval)

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(waitTimeout):
		t.Fatal("Stop() blocked on a collector that never started")
	}
}

func TestToPodStats_MissingResources(t *testing.T) {
	pm := metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Name: "p", Namespace: "ns"},
		Containers: []metricsv1beta1.ContainerMetrics{{Name: "app"}},
	}
	got := ToPodStats(pm)
	require.Len(t, got.Containers, 1)
	assert.Equal(t, 0.0, got.Containers[0].CPUUsageCores)
	assert.Equal(t, int64(0), got.Containers[0].MemoryUsageBytes)
}
