package console

import (
	"context"
	"errors"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authorizationv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
	clienttesting "k8s.io/client-go/testing"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/config"
	consolediscovery "github.com/kubeadapt/kubeadapt-console/internal/discovery"
	"github.com/kubeadapt/kubeadapt-console/internal/editor"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// --- mock collector ---

type stubCollector struct {
	name    string
	syncErr bool
}

func (s *stubCollector) Name() string                  { return s.name }
func (s *stubCollector) Start(_ context.Context) error { return nil }
func (s *stubCollector) WaitForSync(ctx context.Context) error {
	if s.syncErr {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}
func (s *stubCollector) Stop() {}

type failingCollector struct{ stubCollector }

func (f *failingCollector) Start(_ context.Context) error { return errors.New("boom") }

// --- test helpers ---

type testEnv struct {
	cfg     *config.Config
	clock   *mockClock
	store   *store.Store
	editor  *editor.Editor
	errs    *consoleerrors.ErrorCollector
	metrics *observability.Metrics
	sm      *StateMachine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := newMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := observability.NewMetrics()
	ec := consoleerrors.NewErrorCollector(clk)
	return &testEnv{
		cfg: &config.Config{
			InformerSyncTimeout: 200 * time.Millisecond,
			SessionIdleTimeout:  time.Hour,
		},
		clock:   clk,
		store:   store.NewStore(),
		editor:  editor.New(clk, ec, m, 5),
		errs:    ec,
		metrics: m,
		sm:      NewStateMachine(clk, m),
	}
}

func (e *testEnv) console(registry *collector.Registry) *Console {
	c := New(e.cfg, registry, e.store, e.editor, e.sm, e.errs, e.metrics)
	c.HousekeepingInterval = 10 * time.Millisecond
	return c
}

// runConsole runs c in the background and returns a stop func that cancels
// and waits for Run to return.
func runConsole(t *testing.T, c *Console) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
}

func TestConsole_Standalone(t *testing.T) {
	env := newTestEnv(t)
	c := env.console(nil)
	stop := runConsole(t, c)

	require.Eventually(t, c.IsReady, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateStandalone, c.State().State())
	assert.False(t, c.ClusterConnected())

	err := stop()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateStopped, c.State().State())
}

func TestConsole_ReadyAfterSync(t *testing.T) {
	env := newTestEnv(t)
	env.store.Pods.Set("prod/web-0", model.PodInfo{Name: "web-0", Namespace: "prod"})

	reg := collector.NewRegistry()
	reg.Register(&stubCollector{name: store.KindPods})
	c := env.console(reg)
	stop := runConsole(t, c)
	defer stop()

	require.Eventually(t, c.IsReady, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateReady, c.State().State())
	assert.True(t, c.ClusterConnected())

	var m dto.Metric
	require.NoError(t, env.metrics.StoreItems.WithLabelValues(store.KindPods).Write(&m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())
}

func TestConsole_SyncTimeoutContinues(t *testing.T) {
	env := newTestEnv(t)
	reg := collector.NewRegistry()
	reg.Register(&stubCollector{name: store.KindPods})
	reg.Register(&stubCollector{name: store.KindSecrets, syncErr: true})
	c := env.console(reg)
	stop := runConsole(t, c)
	defer stop()

	require.Eventually(t, c.IsReady, 2*time.Second, 10*time.Millisecond)

	errs := env.errs.GetActiveErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, consoleerrors.ErrInformerSyncTimeout, errs[0].Code)
	assert.Contains(t, errs[0].Message, store.KindSecrets)
}

func TestConsole_AllCollectorsFailToStart(t *testing.T) {
	env := newTestEnv(t)
	reg := collector.NewRegistry()
	reg.Register(&failingCollector{stubCollector{name: store.KindPods}})
	c := env.console(reg)

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, c.State().State())
	assert.Contains(t, env.errs.GetActiveErrorCodes(), string(consoleerrors.ErrClusterUnreachable))
}

func TestConsole_HousekeepingEvictsIdleSessions(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.editor.Create(nil)
	require.NoError(t, err)

	c := env.console(nil)
	stop := runConsole(t, c)
	defer stop()

	env.clock.Advance(2 * time.Hour)
	require.Eventually(t, func() bool { return env.editor.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestConsole_RelieveMemoryPressure(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.editor.Create(nil)
	require.NoError(t, err)
	env.clock.Advance(20 * time.Minute)
	_, err = env.editor.Create(nil)
	require.NoError(t, err)

	c := env.console(nil)
	c.RelieveMemoryPressure(0.9)

	assert.Equal(t, 1, env.editor.Len(), "only the session idle past a quarter of the timeout is evicted")
}

func TestSelectedKinds(t *testing.T) {
	assert.Equal(t, store.Kinds, SelectedKinds(&config.Config{}))
	assert.Equal(t,
		[]string{store.KindDeployments, store.KindSecrets},
		SelectedKinds(&config.Config{Resources: []string{"secrets", "nodes", "deployments"}}),
	)
}

func TestBuildRegistry_SkipsDeniedKinds(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Resources = []string{store.KindPods, store.KindSecrets}

	client := fake.NewSimpleClientset()
	client.PrependReactor("create", "selfsubjectaccessreviews", func(action clienttesting.Action) (bool, runtime.Object, error) {
		review := action.(clienttesting.CreateAction).GetObject().(*authorizationv1.SelfSubjectAccessReview)
		return true, &authorizationv1.SelfSubjectAccessReview{
			Status: authorizationv1.SubjectAccessReviewStatus{Allowed: review.Spec.ResourceAttributes.Resource == store.KindPods},
		}, nil
	})
	disco := &fakediscovery.FakeDiscovery{Fake: &clienttesting.Fake{Resources: []*metav1.APIResourceList{
		{GroupVersion: "v1", APIResources: []metav1.APIResource{{Name: "pods"}, {Name: "secrets"}}},
	}}}

	reg, err := BuildRegistry(context.Background(), env.cfg, client, disco, env.store, env.metrics, env.errs)
	require.NoError(t, err)
	assert.Equal(t, []string{store.KindPods}, reg.Names())
	assert.Contains(t, env.errs.GetActiveErrorCodes(), string(consoleerrors.ErrRBACDenied))
}

func TestRegisterStats(t *testing.T) {
	withMetrics := &consolediscovery.Capabilities{APIGroups: map[string]bool{"apps": true, "metrics.k8s.io": true}}
	withoutMetrics := &consolediscovery.Capabilities{APIGroups: map[string]bool{"apps": true}}

	tests := []struct {
		name    string
		enabled bool
		caps    *consolediscovery.Capabilities
		want    bool
	}{
		{"enabled with metrics-server", true, withMetrics, true},
		{"enabled without metrics-server", true, withoutMetrics, false},
		{"disabled", false, withMetrics, false},
		{"no capabilities", true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.cfg.StatsEnabled = tt.enabled
			env.cfg.StatsInterval = time.Minute
			reg := collector.NewRegistry()

			got := RegisterStats(reg, env.cfg, tt.caps, metricsfake.NewSimpleClientset().MetricsV1beta1(),
				store.NewStatsStore(), env.metrics, env.errs)
			assert.Equal(t, tt.want, got)
			if tt.want {
				assert.Equal(t, []string{"stats"}, reg.Names())
			} else {
				assert.Empty(t, reg.Names())
			}
		})
	}
}
