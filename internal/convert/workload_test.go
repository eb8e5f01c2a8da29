package convert

import (
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"
)

func makeDeployment() *appsv1.Deployment {
	maxSurge := intstr.FromString("25%")
	maxUnavailable := intstr.FromInt32(1)
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:              "web",
			Namespace:         "production",
			UID:               "dep-uid-1",
			CreationTimestamp: metav1.NewTime(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)),
			Labels:            map[string]string{"app": "web"},
			Annotations:       map[string]string{"kubectl.kubernetes.io/last-applied-configuration": "{}", "team": "core"},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(3)),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}},
			Strategy: appsv1.DeploymentStrategy{
				Type: appsv1.RollingUpdateDeploymentStrategyType,
				RollingUpdate: &appsv1.RollingUpdateDeployment{
					MaxSurge:       &maxSurge,
					MaxUnavailable: &maxUnavailable,
				},
			},
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:  "web",
						Image: "nginx:1.25",
						Resources: corev1.ResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceCPU:    resource.MustParse("250m"),
								corev1.ResourceMemory: resource.MustParse("256Mi"),
							},
							Limits: corev1.ResourceList{
								corev1.ResourceMemory: resource.MustParse("512Mi"),
							},
						},
					}},
				},
			},
		},
		Status: appsv1.DeploymentStatus{
			ReadyReplicas:     2,
			AvailableReplicas: 2,
			UpdatedReplicas:   3,
			Conditions: []appsv1.DeploymentCondition{
				{Type: appsv1.DeploymentAvailable, Status: corev1.ConditionTrue, Reason: "MinimumReplicasAvailable"},
			},
		},
	}
}

func TestDeploymentToModel(t *testing.T) {
	got := DeploymentToModel(makeDeployment())

	assertEqual(t, "Name", got.Name, "web")
	assertEqual(t, "Namespace", got.Namespace, "production")
	assertEqual(t, "UID", got.UID, "dep-uid-1")
	assertInt32(t, "Replicas", got.Replicas, 3)
	assertInt32(t, "ReadyReplicas", got.ReadyReplicas, 2)
	assertInt32(t, "UpdatedReplicas", got.UpdatedReplicas, 3)
	assertEqual(t, "Strategy", got.Strategy, "RollingUpdate")
	assertEqual(t, "MaxSurge", got.MaxSurge, "25%")
	assertEqual(t, "MaxUnavailable", got.MaxUnavailable, "1")
	assertEqual(t, "Selector[app]", got.Selector["app"], "web")

	if _, ok := got.Annotations["kubectl.kubernetes.io/last-applied-configuration"]; ok {
		t.Error("last-applied-configuration annotation should be filtered")
	}
	if got.CreationTimestamp != time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("CreationTimestamp = %d", got.CreationTimestamp)
	}

	if len(got.ContainerSpecs) != 1 {
		t.Fatalf("ContainerSpecs len = %d, want 1", len(got.ContainerSpecs))
	}
	cs := got.ContainerSpecs[0]
	assertEqual(t, "CPURequest", cs.CPURequest, "250m")
	assertEqual(t, "MemoryRequest", cs.MemoryRequest, "256Mi")
	assertEqual(t, "CPULimit", cs.CPULimit, "")
	assertEqual(t, "MemoryLimit", cs.MemoryLimit, "512Mi")

	if len(got.Conditions) != 1 || got.Conditions[0].Reason != "MinimumReplicasAvailable" {
		t.Errorf("Conditions = %+v", got.Conditions)
	}
}

func TestDeploymentToModel_Defaults(t *testing.T) {
	dep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: "bare", Namespace: "default"}}
	got := DeploymentToModel(dep)

	assertInt32(t, "Replicas", got.Replicas, 1)
	if got.Selector != nil {
		t.Errorf("Selector = %v, want nil", got.Selector)
	}
	if got.ContainerSpecs != nil {
		t.Errorf("ContainerSpecs = %v, want nil", got.ContainerSpecs)
	}
	if got.Conditions != nil {
		t.Errorf("Conditions = %v, want nil", got.Conditions)
	}
	assertEqual(t, "MaxSurge", got.MaxSurge, "")
}

func TestDeploymentToModel_ConfigRefs(t *testing.T) {
	dep := makeDeployment()
	spec := &dep.Spec.Template.Spec
	spec.Volumes = []corev1.Volume{
		{Name: "cfg", VolumeSource: corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: "web-config"},
		}}},
		{Name: "tls", VolumeSource: corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: "web-tls"}}},
		{Name: "bundle", VolumeSource: corev1.VolumeSource{Projected: &corev1.ProjectedVolumeSource{
			Sources: []corev1.VolumeProjection{
				{ConfigMap: &corev1.ConfigMapProjection{LocalObjectReference: corev1.LocalObjectReference{Name: "ca-bundle"}}},
				{Secret: &corev1.SecretProjection{LocalObjectReference: corev1.LocalObjectReference{Name: "web-tls"}}},
			},
		}}},
		{Name: "scratch", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}},
	}
	spec.InitContainers = []corev1.Container{{
		Name: "migrate",
		EnvFrom: []corev1.EnvFromSource{
			{SecretRef: &corev1.SecretEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: "db"}}},
		},
	}}
	spec.Containers[0].Env = []corev1.EnvVar{
		{Name: "PLAIN", Value: "x"},
		{Name: "MODE", ValueFrom: &corev1.EnvVarSource{ConfigMapKeyRef: &corev1.ConfigMapKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: "web-config"}, Key: "mode",
		}}},
		{Name: "TOKEN", ValueFrom: &corev1.EnvVarSource{SecretKeyRef: &corev1.SecretKeySelector{
			LocalObjectReference: corev1.LocalObjectReference{Name: "api"}, Key: "token",
		}}},
	}
	spec.Containers[0].EnvFrom = []corev1.EnvFromSource{
		{ConfigMapRef: &corev1.ConfigMapEnvSource{LocalObjectReference: corev1.LocalObjectReference{Name: "flags"}}},
	}
	spec.ImagePullSecrets = []corev1.LocalObjectReference{{Name: "registry"}}

	got := DeploymentToModel(dep)

	assertStrings(t, "ConfigMapRefs", got.ConfigMapRefs, []string{"ca-bundle", "flags", "web-config"})
	assertStrings(t, "SecretRefs", got.SecretRefs, []string{"api", "db", "registry", "web-tls"})
}

func TestDeploymentToModel_NoConfigRefs(t *testing.T) {
	got := DeploymentToModel(makeDeployment())
	if got.ConfigMapRefs != nil || got.SecretRefs != nil {
		t.Errorf("refs = %v / %v, want nil", got.ConfigMapRefs, got.SecretRefs)
	}
}
