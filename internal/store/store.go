package store

import (
	"fmt"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// Resource kinds served by the store. They double as collector names and
// as the {kind} segment of the resources API.
const (
	KindDeployments = "deployments"
	KindPods        = "pods"
	KindServices    = "services"
	KindIngresses   = "ingresses"
	KindConfigMaps  = "configmaps"
	KindSecrets     = "secrets"
)

// Kinds lists every resource kind in display order.
var Kinds = []string{
	KindDeployments,
	KindPods,
	KindServices,
	KindIngresses,
	KindConfigMaps,
	KindSecrets,
}

// Key builds the store key for a namespaced object.
func Key(namespace, name string) string {
	return namespace + "/" + name
}

// Store is the composite in-memory store holding one TypedStore per
// resource kind the console lists.
type Store struct {
	Deployments *TypedStore[model.DeploymentInfo]
	Pods        *TypedStore[model.PodInfo]
	Services    *TypedStore[model.ServiceInfo]
	Ingresses   *TypedStore[model.IngressInfo]
	ConfigMaps  *TypedStore[model.ConfigMapInfo]
	Secrets     *TypedStore[model.SecretInfo]
}

// NewStore creates a Store with every TypedStore initialized.
func NewStore() *Store {
	return &Store{
		Deployments: NewTypedStore[model.DeploymentInfo](),
		Pods:        NewTypedStore[model.PodInfo](),
		Services:    NewTypedStore[model.ServiceInfo](),
		Ingresses:   NewTypedStore[model.IngressInfo](),
		ConfigMaps:  NewTypedStore[model.ConfigMapInfo](),
		Secrets:     NewTypedStore[model.SecretInfo](),
	}
}

// List returns the summaries of one kind, sorted by namespace then name.
// An empty namespace lists every namespace.
func (s *Store) List(kind, namespace string) (any, error) {
	prefix := ""
	if namespace != "" {
		prefix = namespace + "/"
	}
	switch kind {
	case KindDeployments:
		return s.Deployments.ValuesWithPrefix(prefix), nil
	case KindPods:
		return s.Pods.ValuesWithPrefix(prefix), nil
	case KindServices:
		return s.Services.ValuesWithPrefix(prefix), nil
	case KindIngresses:
		return s.Ingresses.ValuesWithPrefix(prefix), nil
	case KindConfigMaps:
		return s.ConfigMaps.ValuesWithPrefix(prefix), nil
	case KindSecrets:
		return s.Secrets.ValuesWithPrefix(prefix), nil
	}
	return nil, fmt.Errorf("store: kind %q: %w", kind, consoleerrors.ErrUnsupportedKind)
}

// LastUpdatedTimes returns the UnixMilli timestamp of the last update for each kind.
func (s *Store) LastUpdatedTimes() map[string]int64 {
	return map[string]int64{
		KindDeployments: s.Deployments.LastUpdated(),
		KindPods:        s.Pods.LastUpdated(),
		KindServices:    s.Services.LastUpdated(),
		KindIngresses:   s.Ingresses.LastUpdated(),
		KindConfigMaps:  s.ConfigMaps.LastUpdated(),
		KindSecrets:     s.Secrets.LastUpdated(),
	}
}

// ItemCounts returns the number of items held for each kind.
// Implements server.StoreStats.
func (s *Store) ItemCounts() map[string]int {
	return map[string]int{
		KindDeployments: s.Deployments.Len(),
		KindPods:        s.Pods.Len(),
		KindServices:    s.Services.Len(),
		KindIngresses:   s.Ingresses.Len(),
		KindConfigMaps:  s.ConfigMaps.Len(),
		KindSecrets:     s.Secrets.Len(),
	}
}
