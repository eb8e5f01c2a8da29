package model

// PodInfo represents a Kubernetes pod with its containers and status.
type PodInfo struct {
	Name      string `json:"name"`
	UID       string `json:"uid"`
	Namespace string `json:"namespace"`
	NodeName  string `json:"node_name"`
	Phase     string `json:"phase"`
	Reason    string `json:"reason"`

	OwnerKind string `json:"owner_kind"`
	OwnerName string `json:"owner_name"`

	// Deployment is the Deployment that manages the pod through its
	// ReplicaSet, filled in at list time.
	Deployment string `json:"deployment,omitempty"`

	Containers []ContainerInfo `json:"containers"`

	// Usage is the latest per-container sample, when stats are collected.
	Usage []ContainerUsage `json:"usage,omitempty"`

	Restarts int32 `json:"restarts"`

	Labels            map[string]string `json:"labels"`
	CreationTimestamp int64             `json:"creation_timestamp"`

	PodIP  string `json:"pod_ip"`
	HostIP string `json:"host_ip"`

	Conditions []PodConditionInfo `json:"conditions"`
}

// ContainerInfo represents a container within a pod including spec and status.
type ContainerInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`

	Ready        bool   `json:"ready"`
	RestartCount int32  `json:"restart_count"`
	State        string `json:"state"`
	StateReason  string `json:"state_reason"`

	Ports []ContainerPortInfo `json:"ports"`
}

// ContainerPortInfo represents a port exposed by a container.
type ContainerPortInfo struct {
	Name          string `json:"name"`
	ContainerPort int32  `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// PodConditionInfo represents a pod condition (Ready, PodScheduled, etc.).
type PodConditionInfo struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}
