package resource

import (
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"

	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/convert"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// Options scopes every collector.
type Options struct {
	Namespace    string // "" watches all namespaces
	ResyncPeriod time.Duration
}

// NewDeploymentCollector mirrors Deployments into s.Deployments.
func NewDeploymentCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindDeployments, client, s.Deployments, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer { return f.Apps().V1().Deployments().Informer() },
		convert.DeploymentToModel)
}

// NewPodCollector mirrors Pods into s.Pods.
func NewPodCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindPods, client, s.Pods, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer { return f.Core().V1().Pods().Informer() },
		convert.PodToModel)
}

// NewServiceCollector mirrors Services into s.Services.
func NewServiceCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindServices, client, s.Services, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer { return f.Core().V1().Services().Informer() },
		convert.ServiceToModel)
}

// NewIngressCollector mirrors Ingresses into s.Ingresses.
func NewIngressCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindIngresses, client, s.Ingresses, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer {
			return f.Networking().V1().Ingresses().Informer()
		},
		convert.IngressToModel)
}

// NewConfigMapCollector mirrors ConfigMaps into s.ConfigMaps.
func NewConfigMapCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindConfigMaps, client, s.ConfigMaps, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer { return f.Core().V1().ConfigMaps().Informer() },
		convert.ConfigMapToModel)
}

// NewSecretCollector mirrors Secrets into s.Secrets. Only key names are stored.
func NewSecretCollector(client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) collector.Collector {
	return newInformerCollector(store.KindSecrets, client, s.Secrets, m, opts,
		func(f informers.SharedInformerFactory) cache.SharedIndexInformer { return f.Core().V1().Secrets().Informer() },
		convert.SecretToModel)
}

type constructor func(kubernetes.Interface, *store.Store, *observability.Metrics, Options) collector.Collector

var constructors = map[string]constructor{
	store.KindDeployments: NewDeploymentCollector,
	store.KindPods:        NewPodCollector,
	store.KindServices:    NewServiceCollector,
	store.KindIngresses:   NewIngressCollector,
	store.KindConfigMaps:  NewConfigMapCollector,
	store.KindSecrets:     NewSecretCollector,
}

// New builds the collector for a store kind.
func New(kind string, client kubernetes.Interface, s *store.Store, m *observability.Metrics, opts Options) (collector.Collector, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("resource: collector %q: %w", kind, consoleerrors.ErrUnsupportedKind)
	}
	return ctor(client, s, m, opts), nil
}

// GVR returns the group/version/resource RBAC and discovery checks use for a
// store kind.
func GVR(kind string) (schema.GroupVersionResource, bool) {
	switch kind {
	case store.KindDeployments:
		return appsv1.SchemeGroupVersion.WithResource(kind), true
	case store.KindIngresses:
		return networkingv1.SchemeGroupVersion.WithResource(kind), true
	case store.KindPods, store.KindServices, store.KindConfigMaps, store.KindSecrets:
		return corev1.SchemeGroupVersion.WithResource(kind), true
	}
	return schema.GroupVersionResource{}, false
}
