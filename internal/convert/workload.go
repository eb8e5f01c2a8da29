package convert

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// DeploymentToModel converts a Kubernetes Deployment to model.DeploymentInfo.
// Pure function with no side effects.
func DeploymentToModel(dep *appsv1.Deployment) model.DeploymentInfo {
	replicas := int32(1)
	if dep.Spec.Replicas != nil {
		replicas = *dep.Spec.Replicas
	}

	info := model.DeploymentInfo{
		Name:                dep.Name,
		UID:                 string(dep.UID),
		Namespace:           dep.Namespace,
		Replicas:            replicas,
		ReadyReplicas:       dep.Status.ReadyReplicas,
		AvailableReplicas:   dep.Status.AvailableReplicas,
		UnavailableReplicas: dep.Status.UnavailableReplicas,
		UpdatedReplicas:     dep.Status.UpdatedReplicas,
		Strategy:            string(dep.Spec.Strategy.Type),

		ContainerSpecs: extractContainerSpecs(dep.Spec.Template.Spec.Containers),

		Labels:            dep.Labels,
		Annotations:       FilterAnnotations(dep.Annotations),
		CreationTimestamp: dep.CreationTimestamp.UnixMilli(),

		Paused: dep.Spec.Paused,
	}

	if dep.Spec.Selector != nil {
		info.Selector = dep.Spec.Selector.MatchLabels
	}

	if ru := dep.Spec.Strategy.RollingUpdate; ru != nil {
		if ru.MaxSurge != nil {
			info.MaxSurge = ru.MaxSurge.String()
		}
		if ru.MaxUnavailable != nil {
			info.MaxUnavailable = ru.MaxUnavailable.String()
		}
	}

	info.ConfigMapRefs, info.SecretRefs = podSpecRefs(&dep.Spec.Template.Spec)
	info.Conditions = convertDeploymentConditions(dep.Status.Conditions)

	return info
}

// extractContainerSpecs summarizes the pod template's containers.
func extractContainerSpecs(containers []corev1.Container) []model.ContainerSpecInfo {
	if len(containers) == 0 {
		return nil
	}
	out := make([]model.ContainerSpecInfo, len(containers))
	for i, c := range containers {
		out[i] = model.ContainerSpecInfo{
			Name:          c.Name,
			Image:         c.Image,
			CPURequest:    quantityString(c.Resources.Requests, corev1.ResourceCPU),
			MemoryRequest: quantityString(c.Resources.Requests, corev1.ResourceMemory),
			CPULimit:      quantityString(c.Resources.Limits, corev1.ResourceCPU),
			MemoryLimit:   quantityString(c.Resources.Limits, corev1.ResourceMemory),
		}
	}
	return out
}

func convertDeploymentConditions(conditions []appsv1.DeploymentCondition) []model.WorkloadConditionInfo {
	if len(conditions) == 0 {
		return nil
	}
	out := make([]model.WorkloadConditionInfo, len(conditions))
	for i, c := range conditions {
		out[i] = model.WorkloadConditionInfo{
			Type:    string(c.Type),
			Status:  string(c.Status),
			Reason:  c.Reason,
			Message: c.Message,
		}
	}
	return out
}

// podSpecRefs collects the ConfigMap and Secret names a pod spec reads.
func podSpecRefs(spec *corev1.PodSpec) (configMaps, secrets []string) {
	cms := map[string]struct{}{}
	secs := map[string]struct{}{}

	for _, v := range spec.Volumes {
		switch {
		case v.ConfigMap != nil:
			cms[v.ConfigMap.Name] = struct{}{}
		case v.Secret != nil:
			secs[v.Secret.SecretName] = struct{}{}
		case v.Projected != nil:
			for _, src := range v.Projected.Sources {
				if src.ConfigMap != nil {
					cms[src.ConfigMap.Name] = struct{}{}
				}
				if src.Secret != nil {
					secs[src.Secret.Name] = struct{}{}
				}
			}
		}
	}

	containers := make([]corev1.Container, 0, len(spec.InitContainers)+len(spec.Containers))
	containers = append(containers, spec.InitContainers...)
	containers = append(containers, spec.Containers...)
	for _, c := range containers {
		for _, e := range c.Env {
			if e.ValueFrom == nil {
				continue
			}
			if ref := e.ValueFrom.ConfigMapKeyRef; ref != nil {
				cms[ref.Name] = struct{}{}
			}
			if ref := e.ValueFrom.SecretKeyRef; ref != nil {
				secs[ref.Name] = struct{}{}
			}
		}
		for _, ef := range c.EnvFrom {
			if ef.ConfigMapRef != nil {
				cms[ef.ConfigMapRef.Name] = struct{}{}
			}
			if ef.SecretRef != nil {
				secs[ef.SecretRef.Name] = struct{}{}
			}
		}
	}

	for _, ps := range spec.ImagePullSecrets {
		secs[ps.Name] = struct{}{}
	}

	delete(cms, "")
	delete(secs, "")
	return sortedKeys(cms), sortedKeys(secs)
}
