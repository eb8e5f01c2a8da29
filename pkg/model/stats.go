package model

// ContainerUsage is the live resource usage of one container as reported
// by metrics-server.
type ContainerUsage struct {
	Name             string  `json:"name"`
	CPUUsageCores    float64 `json:"cpu_usage_cores"`
	MemoryUsageBytes int64   `json:"memory_usage_bytes"`
}

// PodStats is the latest metrics-server sample for a pod.
type PodStats struct {
	Name       string           `json:"name"`
	Namespace  string           `json:"namespace"`
	Containers []ContainerUsage `json:"containers"`
	Window     int64            `json:"window_ms"`
	Timestamp  int64            `json:"timestamp"`
}
