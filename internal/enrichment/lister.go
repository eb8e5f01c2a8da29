package enrichment

import (
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// Lister serves resource listings from the store with the pipeline's
// derived fields filled in.
type Lister struct {
	store    *store.Store
	pipeline *Pipeline
}

// NewLister creates a Lister over st.
func NewLister(st *store.Store, pipeline *Pipeline) *Lister {
	return &Lister{store: st, pipeline: pipeline}
}

// List returns the summaries of one kind, sorted by namespace then name.
// Implements server.ResourceLister.
func (l *Lister) List(kind, namespace string) (any, error) {
	switch kind {
	case store.KindDeployments, store.KindPods, store.KindConfigMaps, store.KindSecrets, store.KindServices:
	default:
		return l.store.List(kind, namespace)
	}

	prefix := ""
	if namespace != "" {
		prefix = namespace + "/"
	}
	v := &View{
		Deployments: l.store.Deployments.ValuesWithPrefix(prefix),
		Pods:        l.store.Pods.ValuesWithPrefix(prefix),
		ConfigMaps:  l.store.ConfigMaps.ValuesWithPrefix(prefix),
		Secrets:     l.store.Secrets.ValuesWithPrefix(prefix),
		Services:    l.store.Services.ValuesWithPrefix(prefix),
	}
	l.pipeline.Run(v)

	switch kind {
	case store.KindDeployments:
		return v.Deployments, nil
	case store.KindPods:
		return v.Pods, nil
	case store.KindConfigMaps:
		return v.ConfigMaps, nil
	case store.KindServices:
		return v.Services, nil
	default:
		return v.Secrets, nil
	}
}
