package enrichment

import (
	"log/slog"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// OwnershipEnricher links pods to the Deployment behind their ReplicaSet.
// ReplicaSets are not collected, so the Deployment is recovered from the
// ReplicaSet name: "<deployment>-<pod-template-hash>".
type OwnershipEnricher struct{}

// NewOwnershipEnricher creates a new OwnershipEnricher.
func NewOwnershipEnricher() *OwnershipEnricher {
	return &OwnershipEnricher{}
}

// Name returns the enricher name.
func (o *OwnershipEnricher) Name() string { return "ownership" }

// Enrich sets PodInfo.Deployment and fills DeploymentInfo.Pods.
func (o *OwnershipEnricher) Enrich(v *View) error {
	deps := make(map[string]int, len(v.Deployments))
	for i := range v.Deployments {
		v.Deployments[i].Pods = nil
		deps[store.Key(v.Deployments[i].Namespace, v.Deployments[i].Name)] = i
	}

	for i := range v.Pods {
		pod := &v.Pods[i]
		pod.Deployment = ""

		name, ok := deploymentName(pod)
		if !ok {
			continue
		}
		idx, ok := deps[store.Key(pod.Namespace, name)]
		if !ok {
			continue
		}
		dep := &v.Deployments[idx]
		if len(dep.Selector) > 0 && !labels.SelectorFromSet(dep.Selector).Matches(labels.Set(pod.Labels)) {
			slog.Debug("pod owner name matches deployment but selector does not",
				"pod", pod.Name, "namespace", pod.Namespace, "deployment", name)
			continue
		}
		pod.Deployment = name
		dep.Pods = append(dep.Pods, pod.Name)
	}
	return nil
}

// deploymentName derives the Deployment name from a ReplicaSet-owned pod.
func deploymentName(pod *model.PodInfo) (string, bool) {
	if pod.OwnerKind != "ReplicaSet" {
		return "", false
	}
	hash := pod.Labels[appsv1.DefaultDeploymentUniqueLabelKey]
	if hash == "" {
		return "", false
	}
	name, ok := strings.CutSuffix(pod.OwnerName, "-"+hash)
	return name, ok && name != ""
}
