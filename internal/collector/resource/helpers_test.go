package resource

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"k8s.io/client-go/kubernetes/fake"
)

const (
	testResyncPeriod = 0 // no resync in tests
	waitTimeout      = 5 * time.Second
	pollInterval     = 50 * time.Millisecond
)

// testEnv bundles the dependencies shared by every collector test.
type testEnv struct {
	client  *fake.Clientset
	store   *store.Store
	metrics *observability.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &testEnv{
		client:  fake.NewSimpleClientset(),
		store:   store.NewStore(),
		metrics: observability.NewMetrics(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// startCollector is a helper that starts a collector and waits for sync.
func startCollector(t *testing.T, env *testEnv, c collector.Collector) {
	t.Helper()
	err := c.Start(env.ctx)
	require.NoError(t, err, "Start() should succeed")
	err = c.WaitForSync(env.ctx)
	require.NoError(t, err, "WaitForSync() should succeed")
	t.Cleanup(c.Stop)
}

func testOptions() Options {
	return Options{ResyncPeriod: testResyncPeriod}
}

// counterValue reads an informer event counter.
func counterValue(t *testing.T, env *testEnv, resource, event string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, env.metrics.InformerEventsTotal.WithLabelValues(resource, event).Write(&m))
	return m.GetCounter().GetValue()
}
