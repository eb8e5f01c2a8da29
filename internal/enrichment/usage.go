package enrichment

import (
	"slices"

	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// UsageEnricher copies the latest metrics-server sample onto each pod.
type UsageEnricher struct {
	stats *store.StatsStore
}

// NewUsageEnricher creates a UsageEnricher reading from stats.
func NewUsageEnricher(stats *store.StatsStore) *UsageEnricher {
	return &UsageEnricher{stats: stats}
}

// Name returns the enricher name.
func (u *UsageEnricher) Name() string { return "usage" }

// Enrich sets Usage on every pod with a sample and clears it elsewhere.
func (u *UsageEnricher) Enrich(v *View) error {
	for i := range v.Pods {
		v.Pods[i].Usage = nil
		if ps, ok := u.stats.PodStats(v.Pods[i].Namespace, v.Pods[i].Name); ok {
			v.Pods[i].Usage = slices.Clone(ps.Containers)
		}
	}
	return nil
}
