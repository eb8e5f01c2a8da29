package enrichment

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/kubeadapt/kubeadapt-console/internal/observability"
)

// orderTracker records the order enrichers were called.
type orderTracker struct {
	order []string
}

type trackingEnricher struct {
	name    string
	err     error
	tracker *orderTracker
}

func (t *trackingEnricher) Name() string { return t.name }

func (t *trackingEnricher) Enrich(_ *View) error {
	t.tracker.order = append(t.tracker.order, t.name)
	return t.err
}

func TestPipeline_AllEnrichersRunInOrder(t *testing.T) {
	tracker := &orderTracker{}
	p := NewPipeline(nil,
		&trackingEnricher{name: "first", tracker: tracker},
		&trackingEnricher{name: "second", tracker: tracker},
		&trackingEnricher{name: "third", tracker: tracker},
	)
	p.Run(&View{})

	if len(tracker.order) != 3 {
		t.Fatalf("expected 3 enrichers called, got %d", len(tracker.order))
	}
	if tracker.order[0] != "first" || tracker.order[1] != "second" || tracker.order[2] != "third" {
		t.Fatalf("unexpected order: %v", tracker.order)
	}
}

func TestPipeline_ErrorDoesNotStopPipeline(t *testing.T) {
	tracker := &orderTracker{}
	p := NewPipeline(nil,
		&trackingEnricher{name: "failing", err: errors.New("boom"), tracker: tracker},
		&trackingEnricher{name: "after", tracker: tracker},
	)
	p.Run(&View{})

	if len(tracker.order) != 2 || tracker.order[1] != "after" {
		t.Fatalf("expected both enrichers to run, got %v", tracker.order)
	}
}

func TestPipeline_RecordsDuration(t *testing.T) {
	metrics := observability.NewMetrics()
	p := NewPipeline(metrics, NewOwnershipEnricher(), NewMountsEnricher())
	p.Run(&View{})

	for _, name := range []string{"ownership", "mounts"} {
		pb := &dto.Metric{}
		h := metrics.EnricherDuration.WithLabelValues(name).(prometheus.Metric)
		if err := h.Write(pb); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if got := pb.GetHistogram().GetSampleCount(); got != 1 {
			t.Errorf("EnricherDuration(%s) sample count = %d, want 1", name, got)
		}
	}
}
