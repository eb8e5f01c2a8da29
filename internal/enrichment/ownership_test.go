package enrichment

import (
	"slices"
	"testing"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func rsPod(name, namespace, rs, hash string, podLabels map[string]string) model.PodInfo {
	l := map[string]string{"pod-template-hash": hash}
	for k, v := range podLabels {
		l[k] = v
	}
	return model.PodInfo{
		Name:      name,
		Namespace: namespace,
		OwnerKind: "ReplicaSet",
		OwnerName: rs,
		Labels:    l,
	}
}

func TestOwnership_PodToDeployment(t *testing.T) {
	v := &View{
		Deployments: []model.DeploymentInfo{
			{Name: "web", Namespace: "default", Selector: map[string]string{"app": "web"}},
		},
		Pods: []model.PodInfo{
			rsPod("web-5d8f7c9b6d-abcde", "default", "web-5d8f7c9b6d", "5d8f7c9b6d", map[string]string{"app": "web"}),
			rsPod("web-5d8f7c9b6d-fghij", "default", "web-5d8f7c9b6d", "5d8f7c9b6d", map[string]string{"app": "web"}),
		},
	}

	if err := NewOwnershipEnricher().Enrich(v); err != nil {
		t.Fatal(err)
	}

	for _, pod := range v.Pods {
		if pod.Deployment != "web" {
			t.Errorf("pod %s Deployment = %q, want web", pod.Name, pod.Deployment)
		}
	}
	want := []string{"web-5d8f7c9b6d-abcde", "web-5d8f7c9b6d-fghij"}
	if !slices.Equal(v.Deployments[0].Pods, want) {
		t.Errorf("Pods = %v, want %v", v.Deployments[0].Pods, want)
	}
}

func TestOwnership_HyphenatedDeploymentName(t *testing.T) {
	v := &View{
		Deployments: []model.DeploymentInfo{{Name: "api-gateway-v2", Namespace: "prod"}},
		Pods:        []model.PodInfo{rsPod("api-gateway-v2-7f9c-x1", "prod", "api-gateway-v2-7f9c", "7f9c", nil)},
	}
	_ = NewOwnershipEnricher().Enrich(v)

	if v.Pods[0].Deployment != "api-gateway-v2" {
		t.Errorf("Deployment = %q, want api-gateway-v2", v.Pods[0].Deployment)
	}
}

func TestOwnership_Unresolved(t *testing.T) {
	tests := []struct {
		name string
		pod  model.PodInfo
	}{
		{"orphan pod", model.PodInfo{Name: "debug", Namespace: "default"}},
		{"statefulset pod", model.PodInfo{Name: "db-0", Namespace: "default", OwnerKind: "StatefulSet", OwnerName: "db"}},
		{"standalone replicaset", model.PodInfo{Name: "rs-x", Namespace: "default", OwnerKind: "ReplicaSet", OwnerName: "web-abc"}},
		{"hash not a suffix", rsPod("p", "default", "web-abc", "zzz", nil)},
		{"other namespace", rsPod("p", "staging", "web-abc", "abc", nil)},
		{"deployment missing", rsPod("p", "default", "api-abc", "abc", nil)},
		{"selector mismatch", rsPod("p", "default", "web-abc", "abc", map[string]string{"app": "other"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &View{
				Deployments: []model.DeploymentInfo{
					{Name: "web", Namespace: "default", Selector: map[string]string{"app": "web"}},
				},
				Pods: []model.PodInfo{tt.pod},
			}
			if tt.name != "selector mismatch" && v.Pods[0].Labels != nil {
				v.Pods[0].Labels["app"] = "web"
			}

			_ = NewOwnershipEnricher().Enrich(v)

			if v.Pods[0].Deployment != "" {
				t.Errorf("Deployment = %q, want empty", v.Pods[0].Deployment)
			}
			if v.Deployments[0].Pods != nil {
				t.Errorf("Pods = %v, want nil", v.Deployments[0].Pods)
			}
		})
	}
}

func TestOwnership_ResetsStaleValues(t *testing.T) {
	v := &View{
		Deployments: []model.DeploymentInfo{{Name: "web", Namespace: "default", Pods: []string{"gone"}}},
		Pods:        []model.PodInfo{{Name: "p", Namespace: "default", Deployment: "web"}},
	}
	_ = NewOwnershipEnricher().Enrich(v)

	if v.Deployments[0].Pods != nil || v.Pods[0].Deployment != "" {
		t.Errorf("stale values kept: pods=%v deployment=%q", v.Deployments[0].Pods, v.Pods[0].Deployment)
	}
}
