package store

import "github.com/kubeadapt/kubeadapt-console/pkg/model"

// StatsStore holds metrics-server samples apart from the resource store.
// Samples are keyed like pods, by namespace/name.
type StatsStore struct {
	Pods *TypedStore[model.PodStats]
}

// NewStatsStore creates an empty StatsStore.
func NewStatsStore() *StatsStore {
	return &StatsStore{Pods: NewTypedStore[model.PodStats]()}
}

// PodStats returns the latest sample for a pod.
func (s *StatsStore) PodStats(namespace, name string) (model.PodStats, bool) {
	return s.Pods.Get(Key(namespace, name))
}

// Replace swaps in a complete poll result. Pods missing from samples are
// dropped so deleted pods do not linger.
func (s *StatsStore) Replace(samples []model.PodStats) {
	seen := make(map[string]struct{}, len(samples))
	for _, ps := range samples {
		key := Key(ps.Namespace, ps.Name)
		seen[key] = struct{}{}
		s.Pods.Set(key, ps)
	}
	for key := range s.Pods.Snapshot() {
		if _, ok := seen[key]; !ok {
			s.Pods.Delete(key)
		}
	}
}
