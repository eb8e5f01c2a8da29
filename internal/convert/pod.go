package convert

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// Container states reported in model.ContainerInfo.State.
const (
	containerRunning    = "running"
	containerWaiting    = "waiting"
	containerTerminated = "terminated"
)

// PodToModel converts a Kubernetes Pod object to a model.PodInfo.
// Pure function: no time.Now() and no external calls.
func PodToModel(pod *corev1.Pod) model.PodInfo {
	info := model.PodInfo{
		Name:      pod.Name,
		UID:       string(pod.UID),
		Namespace: pod.Namespace,
		NodeName:  pod.Spec.NodeName,
		Phase:     string(pod.Status.Phase),
		Reason:    pod.Status.Reason,

		Labels:            pod.Labels,
		CreationTimestamp: pod.CreationTimestamp.UnixMilli(),

		PodIP:  pod.Status.PodIP,
		HostIP: pod.Status.HostIP,
	}

	// Owner: immediate ownerReferences[0] only
	if len(pod.OwnerReferences) > 0 {
		info.OwnerKind = pod.OwnerReferences[0].Kind
		info.OwnerName = pod.OwnerReferences[0].Name
	}

	statuses := make(map[string]corev1.ContainerStatus, len(pod.Status.ContainerStatuses))
	for _, s := range pod.Status.ContainerStatuses {
		statuses[s.Name] = s
	}

	// Spec is the source of truth; status is matched by name.
	if len(pod.Spec.Containers) > 0 {
		info.Containers = make([]model.ContainerInfo, len(pod.Spec.Containers))
		for i, spec := range pod.Spec.Containers {
			status, ok := statuses[spec.Name]
			info.Containers[i] = containerToModel(spec, status, ok)
			info.Restarts += info.Containers[i].RestartCount
		}
	}

	info.Conditions = convertPodConditions(pod.Status.Conditions)

	return info
}

// containerToModel pairs a container spec with its status. Without a status
// the container is reported as waiting.
func containerToModel(spec corev1.Container, status corev1.ContainerStatus, hasStatus bool) model.ContainerInfo {
	c := model.ContainerInfo{
		Name:  spec.Name,
		Image: spec.Image,
		Ports: convertContainerPorts(spec.Ports),
		State: containerWaiting,
	}
	if !hasStatus {
		return c
	}

	c.Ready = status.Ready
	c.RestartCount = status.RestartCount
	switch {
	case status.State.Running != nil:
		c.State = containerRunning
	case status.State.Waiting != nil:
		c.StateReason = status.State.Waiting.Reason
	case status.State.Terminated != nil:
		c.State = containerTerminated
		c.StateReason = status.State.Terminated.Reason
	}
	return c
}

func convertContainerPorts(ports []corev1.ContainerPort) []model.ContainerPortInfo {
	if len(ports) == 0 {
		return nil
	}
	out := make([]model.ContainerPortInfo, len(ports))
	for i, p := range ports {
		out[i] = model.ContainerPortInfo{
			Name:          p.Name,
			ContainerPort: p.ContainerPort,
			Protocol:      string(p.Protocol),
		}
	}
	return out
}

func convertPodConditions(conditions []corev1.PodCondition) []model.PodConditionInfo {
	if len(conditions) == 0 {
		return nil
	}
	out := make([]model.PodConditionInfo, len(conditions))
	for i, c := range conditions {
		out[i] = model.PodConditionInfo{
			Type:   string(c.Type),
			Status: string(c.Status),
			Reason: c.Reason,
		}
	}
	return out
}
