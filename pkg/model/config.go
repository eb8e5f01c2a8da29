package model

// ConfigMapInfo represents a ConfigMap. Only key names are exposed.
type ConfigMapInfo struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	Keys              []string          `json:"keys"`
	BinaryKeys        []string          `json:"binary_keys"`
	Immutable         bool              `json:"immutable"`
	Labels            map[string]string `json:"labels"`
	CreationTimestamp int64             `json:"creation_timestamp"`

	// UsedBy lists the Deployments in the same namespace that reference
	// this object, filled in at list time.
	UsedBy []string `json:"used_by,omitempty"`
}

// SecretInfo represents a Secret. Values never leave the cluster.
type SecretInfo struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	Type              string            `json:"type"`
	Keys              []string          `json:"keys"`
	Immutable         bool              `json:"immutable"`
	Labels            map[string]string `json:"labels"`
	CreationTimestamp int64             `json:"creation_timestamp"`

	// UsedBy lists the Deployments in the same namespace that reference
	// this object, filled in at list time.
	UsedBy []string `json:"used_by,omitempty"`
}
