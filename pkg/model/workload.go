package model

// DeploymentInfo represents a Kubernetes Deployment as listed by the console.
type DeploymentInfo struct {
	Name                string `json:"name"`
	UID                 string `json:"uid"`
	Namespace           string `json:"namespace"`
	Replicas            int32  `json:"replicas"`
	ReadyReplicas       int32  `json:"ready_replicas"`
	AvailableReplicas   int32  `json:"available_replicas"`
	UnavailableReplicas int32  `json:"unavailable_replicas"`
	UpdatedReplicas     int32  `json:"updated_replicas"`
	Strategy            string `json:"strategy"`
	MaxSurge            string `json:"max_surge"`
	MaxUnavailable      string `json:"max_unavailable"`

	ContainerSpecs []ContainerSpecInfo `json:"container_specs"`

	// ConfigMapRefs and SecretRefs name the objects the pod template reads
	// through volumes, env, envFrom or imagePullSecrets. Sorted, no duplicates.
	ConfigMapRefs []string `json:"config_map_refs,omitempty"`
	SecretRefs    []string `json:"secret_refs,omitempty"`

	// Pods lists the names of the pods currently owned, filled in at list time.
	Pods []string `json:"pods,omitempty"`

	Selector          map[string]string `json:"selector"`
	Labels            map[string]string `json:"labels"`
	Annotations       map[string]string `json:"annotations"`
	CreationTimestamp int64             `json:"creation_timestamp"`

	Conditions []WorkloadConditionInfo `json:"conditions"`
	Paused     bool                    `json:"paused"`
}

// ContainerSpecInfo represents a container spec from a workload's pod template.
// Quantities are kept as the strings the user wrote.
type ContainerSpecInfo struct {
	Name          string `json:"name"`
	Image         string `json:"image"`
	CPURequest    string `json:"cpu_request,omitempty"`
	MemoryRequest string `json:"memory_request,omitempty"`
	CPULimit      string `json:"cpu_limit,omitempty"`
	MemoryLimit   string `json:"memory_limit,omitempty"`
}

// WorkloadConditionInfo represents a workload condition (Available, Progressing, etc.).
type WorkloadConditionInfo struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
