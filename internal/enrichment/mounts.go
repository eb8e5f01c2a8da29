package enrichment

import (
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// MountsEnricher records which Deployments reference each ConfigMap and
// Secret.
type MountsEnricher struct{}

// NewMountsEnricher creates a new MountsEnricher.
func NewMountsEnricher() *MountsEnricher {
	return &MountsEnricher{}
}

// Name returns the enricher name.
func (m *MountsEnricher) Name() string { return "mounts" }

// Enrich fills UsedBy on ConfigMaps and Secrets. Deployments are visited
// in list order, so UsedBy is sorted when the view is.
func (m *MountsEnricher) Enrich(v *View) error {
	cms := make(map[string]int, len(v.ConfigMaps))
	for i := range v.ConfigMaps {
		v.ConfigMaps[i].UsedBy = nil
		cms[store.Key(v.ConfigMaps[i].Namespace, v.ConfigMaps[i].Name)] = i
	}
	secs := make(map[string]int, len(v.Secrets))
	for i := range v.Secrets {
		v.Secrets[i].UsedBy = nil
		secs[store.Key(v.Secrets[i].Namespace, v.Secrets[i].Name)] = i
	}

	for _, dep := range v.Deployments {
		for _, name := range dep.ConfigMapRefs {
			if i, ok := cms[store.Key(dep.Namespace, name)]; ok {
				v.ConfigMaps[i].UsedBy = append(v.ConfigMaps[i].UsedBy, dep.Name)
			}
		}
		for _, name := range dep.SecretRefs {
			if i, ok := secs[store.Key(dep.Namespace, name)]; ok {
				v.Secrets[i].UsedBy = append(v.Secrets[i].UsedBy, dep.Name)
			}
		}
	}
	return nil
}
