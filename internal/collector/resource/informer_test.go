package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func testDeployment(ns, name string, replicas int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns, UID: "uid-" + name},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(replicas),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": name}},
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: name, Image: "nginx"}}},
			},
		},
	}
}

func TestDeploymentCollector_AddUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	c := NewDeploymentCollector(env.client, env.store, env.metrics, testOptions())
	startCollector(t, env, c)

	deps := env.client.AppsV1().Deployments("prod")
	_, err := deps.Create(env.ctx, testDeployment("prod", "web", 2), metav1.CreateOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := env.store.Deployments.Get("prod/web")
		return ok
	}, waitTimeout, pollInterval, "deployment should be added to store")

	got, _ := env.store.Deployments.Get("prod/web")
	if got.Replicas != 2 {
		t.Errorf("Replicas = %d, want 2", got.Replicas)
	}

	_, err = deps.Update(env.ctx, testDeployment("prod", "web", 5), metav1.UpdateOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		d, _ := env.store.Deployments.Get("prod/web")
		return d.Replicas == 5
	}, waitTimeout, pollInterval, "deployment update should reach the store")

	require.NoError(t, deps.Delete(env.ctx, "web", metav1.DeleteOptions{}))
	require.Eventually(t, func() bool {
		return env.store.Deployments.Len() == 0
	}, waitTimeout, pollInterval, "deployment should be removed from store")
}

func TestCollector_InitialListPopulatesStore(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client.CoreV1().Pods("prod").Create(context.Background(), &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-0", Namespace: "prod"},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "web", Image: "nginx"}}},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}, metav1.CreateOptions{})
	require.NoError(t, err)

	c := NewPodCollector(env.client, env.store, env.metrics, testOptions())
	startCollector(t, env, c)

	pod, ok := env.store.Pods.Get("prod/web-0")
	require.True(t, ok, "pod existing before Start should be in store after sync")
	if pod.Phase != "Running" {
		t.Errorf("Phase = %q, want %q", pod.Phase, "Running")
	}
}

func TestCollector_NamespaceScoped(t *testing.T) {
	env := newTestEnv(t)
	for _, ns := range []string{"prod", "dev"} {
		_, err := env.client.CoreV1().ConfigMaps(ns).Create(env.ctx, &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: "settings", Namespace: ns},
			Data:       map[string]string{"mode": ns},
		}, metav1.CreateOptions{})
		require.NoError(t, err)
	}

	c := NewConfigMapCollector(env.client, env.store, env.metrics, Options{Namespace: "prod"})
	startCollector(t, env, c)

	assert.Equal(t, 1, env.store.ConfigMaps.Len())
	_, ok := env.store.ConfigMaps.Get("prod/settings")
	assert.True(t, ok)
	_, ok = env.store.ConfigMaps.Get("dev/settings")
	assert.False(t, ok)
}

func TestSecretCollector_StoresKeysOnly(t *testing.T) {
	env := newTestEnv(t)
	c := NewSecretCollector(env.client, env.store, env.metrics, testOptions())
	startCollector(t, env, c)

	_, err := env.client.CoreV1().Secrets("prod").Create(env.ctx, &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "prod"},
		Data:       map[string][]byte{"password": []byte("hunter2"), "user": []byte("app")},
	}, metav1.CreateOptions{})
	require.NoError(t, err)

	var got model.SecretInfo
	require.Eventually(t, func() bool {
		var ok bool
		got, ok = env.store.Secrets.Get("prod/db")
		return ok
	}, waitTimeout, pollInterval)
	assert.Equal(t, []string{"password", "user"}, got.Keys)
}

func TestServiceAndIngressCollectors(t *testing.T) {
	env := newTestEnv(t)
	startCollector(t, env, NewServiceCollector(env.client, env.store, env.metrics, testOptions()))
	startCollector(t, env, NewIngressCollector(env.client, env.store, env.metrics, testOptions()))

	_, err := env.client.CoreV1().Services("prod").Create(env.ctx, &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "prod"},
		Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeClusterIP},
	}, metav1.CreateOptions{})
	require.NoError(t, err)
	_, err = env.client.NetworkingV1().Ingresses("prod").Create(env.ctx, &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "prod"},
	}, metav1.CreateOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return env.store.Services.Len() == 1 && env.store.Ingresses.Len() == 1
	}, waitTimeout, pollInterval)
}

func TestCollector_RecordsMetrics(t *testing.T) {
	env := newTestEnv(t)
	c := NewDeploymentCollector(env.client, env.store, env.metrics, testOptions())
	startCollector(t, env, c)

	_, err := env.client.AppsV1().Deployments("prod").Create(env.ctx, testDeployment("prod", "web", 1), metav1.CreateOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return counterValue(t, env, store.KindDeployments, "add") == 1
	}, waitTimeout, pollInterval)
}

func TestNew(t *testing.T) {
	env := newTestEnv(t)
	for _, kind := range store.Kinds {
		c, err := New(kind, env.client, env.store, env.metrics, testOptions())
		require.NoError(t, err, kind)
		if c.Name() != kind {
			t.Errorf("Name() = %q, want %q", c.Name(), kind)
		}
	}

	_, err := New("nodes", env.client, env.store, env.metrics, testOptions())
	assert.True(t, errors.Is(err, consoleerrors.ErrUnsupportedKind))
}

func TestGVR(t *testing.T) {
	gvr, ok := GVR(store.KindDeployments)
	require.True(t, ok)
	assert.Equal(t, "apps/v1, Resource=deployments", gvr.String())

	gvr, ok = GVR(store.KindIngresses)
	require.True(t, ok)
	assert.Equal(t, "networking.k8s.io", gvr.Group)

	gvr, ok = GVR(store.KindSecrets)
	require.True(t, ok)
	assert.Equal(t, "", gvr.Group)
	assert.Equal(t, "v1", gvr.Version)

	_, ok = GVR("nodes")
	assert.False(t, ok)
}

func TestCollector_StopWithoutStart(t *testing.T) {
	env := newTestEnv(t)
	c := NewPodCollector(env.client, env.store, env.metrics, testOptions())
	done := make(chan struct{})
	go func() {
		c.Stop()
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Stop() without Start() should not block")
	}
}

func TestCollector_WaitForSyncBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	c := NewPodCollector(env.client, env.store, env.metrics, testOptions())
	assert.Error(t, c.WaitForSync(env.ctx))
}
