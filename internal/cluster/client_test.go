package cluster

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	clienttesting "k8s.io/client-go/testing"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/templates"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	kube    *fake.Clientset
	client  *Client
	metrics *observability.Metrics
	errs    *consoleerrors.ErrorCollector
}

func newFixture(t *testing.T, objects ...runtime.Object) *fixture {
	t.Helper()
	kube := fake.NewSimpleClientset(objects...)
	m := observability.NewMetrics()
	ec := consoleerrors.NewErrorCollector(fixedClock{now: time.Unix(1700000000, 0)})
	return &fixture{kube: kube, client: NewClient(kube, m, ec), metrics: m, errs: ec}
}

func (f *fixture) applyCount(t *testing.T, kind, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, f.metrics.ApplyTotal.WithLabelValues(kind, status).Write(&m))
	return m.GetCounter().GetValue()
}

const deploymentYAML = `
apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  namespace: prod
spec:
  replicas: 2
  selector:
    matchLabels:
      app: web
  template:
    metadata:
      labels:
        app: web
    spec:
      containers:
        - name: web
          image: nginx:1.25
`

func TestApply_CreatesThenUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.client.Apply(ctx, deploymentYAML)
	require.NoError(t, err)
	assert.Equal(t, model.ApplyResult{Kind: "Deployment", Namespace: "prod", Name: "web", Action: model.ActionCreated}, res)

	dep, err := f.kube.AppsV1().Deployments("prod").Get(ctx, "web", metav1.GetOptions{})
	require.NoError(t, err)
	if *dep.Spec.Replicas != 2 {
		t.Errorf("Replicas = %d, want 2", *dep.Spec.Replicas)
	}

	res, err = f.client.Apply(ctx, deploymentYAML)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdated, res.Action)
	assert.Equal(t, float64(2), f.applyCount(t, "Deployment", statusSuccess))
}

func TestApply_DefaultNamespace(t *testing.T) {
	f := newFixture(t)
	res, err := f.client.Apply(context.Background(), `
apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
data:
  mode: prod
`)
	require.NoError(t, err)
	assert.Equal(t, DefaultNamespace, res.Namespace)

	cm, err := f.kube.CoreV1().ConfigMaps(DefaultNamespace).Get(context.Background(), "settings", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "prod", cm.Data["mode"])
}

func TestApply_ServiceUpdateKeepsClusterIP(t *testing.T) {
	f := newFixture(t, &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "prod", ResourceVersion: "7"},
		Spec:       corev1.ServiceSpec{ClusterIP: "10.0.0.12", ClusterIPs: []string{"10.0.0.12"}},
	})

	res, err := f.client.Apply(context.Background(), `
apiVersion: v1
kind: Service
metadata:
  name: web
  namespace: prod
spec:
  selector:
    app: web
  ports:
    - port: 80
`)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdated, res.Action)

	svc, err := f.kube.CoreV1().Services("prod").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.12", svc.Spec.ClusterIP)
	assert.Equal(t, map[string]string{"app": "web"}, svc.Spec.Selector)
}

func TestApply_SecretAndIngress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Apply(ctx, `
apiVersion: v1
kind: Secret
metadata:
  name: db
stringData:
  password: hunter2
`)
	require.NoError(t, err)

	_, err = f.client.Apply(ctx, `
apiVersion: networking.k8s.io/v1
kind: Ingress
metadata:
  name: web
spec:
  rules:
    - host: web.example.com
`)
	require.NoError(t, err)

	ing, err := f.kube.NetworkingV1().Ingresses(DefaultNamespace).Get(ctx, "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "web.example.com", ing.Spec.Rules[0].Host)
}

func TestApply_EveryStarterTemplate(t *testing.T) {
	list, err := templates.List()
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for _, tmpl := range list {
		t.Run(tmpl.Type, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			res, err := f.client.Apply(ctx, tmpl.YAML)
			require.NoError(t, err)
			assert.Equal(t, model.ActionCreated, res.Action)
			assert.Equal(t, float64(1), f.applyCount(t, res.Kind, statusSuccess))

			res, err = f.client.Apply(ctx, tmpl.YAML)
			require.NoError(t, err)
			assert.Equal(t, model.ActionUpdated, res.Action)

			res, err = f.client.Delete(ctx, tmpl.YAML)
			require.NoError(t, err)
			assert.Equal(t, model.ActionDeleted, res.Action)
		})
	}
}

func TestApply_BatchAndStatefulKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Apply(ctx, `
apiVersion: batch/v1
kind: Job
metadata:
  name: migrate
  namespace: prod
spec:
  backoffLimit: 2
  template:
    spec:
      restartPolicy: Never
      containers:
        - name: migrate
          image: busybox
`)
	require.NoError(t, err)
	job, err := f.kube.BatchV1().Jobs("prod").Get(ctx, "migrate", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), *job.Spec.BackoffLimit)

	_, err = f.client.Apply(ctx, `
apiVersion: apps/v1
kind: DaemonSet
metadata:
  name: agent
spec:
  selector:
    matchLabels:
      app: agent
  template:
    metadata:
      labels:
        app: agent
    spec:
      containers:
        - name: agent
          image: busybox
`)
	require.NoError(t, err)
	_, err = f.kube.AppsV1().DaemonSets(DefaultNamespace).Get(ctx, "agent", metav1.GetOptions{})
	require.NoError(t, err)
}

func TestApply_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"malformed", "kind: [", consoleerrors.ErrInvalidManifest},
		{"missing kind", "metadata:\n  name: x\n", consoleerrors.ErrInvalidManifest},
		{"missing name", "kind: ConfigMap\nmetadata: {}\n", consoleerrors.ErrInvalidManifest},
		{"unknown field", "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: x\ndatum: {}\n", consoleerrors.ErrInvalidManifest},
		{"unsupported kind", "apiVersion: v1\nkind: Node\nmetadata:\n  name: x\n", consoleerrors.ErrUnsupportedKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.client.Apply(context.Background(), tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "err = %v, want %v", err, tt.wantErr)
		})
	}
}

func TestApply_ClusterErrorReported(t *testing.T) {
	f := newFixture(t)
	f.kube.PrependReactor("create", "deployments", func(action clienttesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("admission webhook denied")
	})

	_, err := f.client.Apply(context.Background(), deploymentYAML)
	require.Error(t, err)
	assert.Equal(t, float64(1), f.applyCount(t, "Deployment", statusFailure))
	assert.Contains(t, f.errs.GetActiveErrorCodes(), string(consoleerrors.ErrApplyFailed))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.client.Apply(ctx, deploymentYAML)
	require.NoError(t, err)

	res, err := f.client.Delete(ctx, deploymentYAML)
	require.NoError(t, err)
	assert.Equal(t, model.ActionDeleted, res.Action)

	_, err = f.kube.AppsV1().Deployments("prod").Get(ctx, "web", metav1.GetOptions{})
	assert.Error(t, err)

	_, err = f.client.Delete(ctx, deploymentYAML)
	assert.True(t, errors.Is(err, consoleerrors.ErrNotFound))
}

func TestDelete_JobPropagatesToPods(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	text := "apiVersion: batch/v1\nkind: Job\nmetadata:\n  name: once\nspec:\n  template:\n    spec:\n      restartPolicy: Never\n      containers:\n        - name: c\n          image: busybox\n"
	_, err := f.client.Apply(ctx, text)
	require.NoError(t, err)

	var policy *metav1.DeletionPropagation
	f.kube.PrependReactor("delete", "jobs", func(action clienttesting.Action) (bool, runtime.Object, error) {
		policy = action.(clienttesting.DeleteAction).GetDeleteOptions().PropagationPolicy
		return false, nil, nil
	})

	_, err = f.client.Delete(ctx, text)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, metav1.DeletePropagationBackground, *policy)
}

func TestDelete_UnsupportedKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Delete(context.Background(), "kind: Node\nmetadata:\n  name: n1\n")
	assert.True(t, errors.Is(err, consoleerrors.ErrUnsupportedKind))
}

func TestLogs(t *testing.T) {
	f := newFixture(t)
	tail := int64(10)
	stream, err := f.client.Logs(context.Background(), model.LogOptions{Pod: "web-0", TailLines: &tail})
	require.NoError(t, err)
	defer stream.Close()

	body, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestLogs_PodRequired(t *testing.T) {
	f := newFixture(t)
	_, err := f.client.Logs(context.Background(), model.LogOptions{Namespace: "prod"})
	assert.Error(t, err)
}
