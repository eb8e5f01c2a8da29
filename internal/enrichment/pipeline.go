// Package enrichment derives cross-object relations (pod ownership,
// ConfigMap and Secret usage, service routing) and attaches live pod usage
// when resources are listed.
package enrichment

import (
	"log/slog"
	"time"

	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// View is the set of store summaries one listing works on. Enrichers
// modify it in place.
type View struct {
	Deployments []model.DeploymentInfo
	Pods        []model.PodInfo
	ConfigMaps  []model.ConfigMapInfo
	Secrets     []model.SecretInfo
	Services    []model.ServiceInfo
}

// Enricher adds derived data to a View.
type Enricher interface {
	Name() string
	Enrich(v *View) error
}

// Pipeline runs a sequence of enrichers against a view.
type Pipeline struct {
	enrichers []Enricher
	metrics   *observability.Metrics
}

// NewPipeline creates a pipeline that runs the given enrichers in order.
// metrics may be nil.
func NewPipeline(metrics *observability.Metrics, enrichers ...Enricher) *Pipeline {
	return &Pipeline{
		enrichers: enrichers,
		metrics:   metrics,
	}
}

// Run executes every enricher in order. If one fails, it logs a warning
// and continues with the remaining enrichers.
func (p *Pipeline) Run(v *View) {
	for _, e := range p.enrichers {
		start := time.Now()
		if err := e.Enrich(v); err != nil {
			slog.Warn("enricher failed", "enricher", e.Name(), "error", err)
		}
		if p.metrics != nil {
			p.metrics.EnricherDuration.WithLabelValues(e.Name()).Observe(time.Since(start).Seconds())
		}
	}
}
