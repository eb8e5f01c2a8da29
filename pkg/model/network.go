package model

// ServiceInfo is a Service as listed by the console. The editor's
// service_ports only ever produce ClusterIP services, but listings show
// whatever the cluster holds.
type ServiceInfo struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Type      string `json:"type"`

	ClusterIP   string   `json:"cluster_ip"`
	ClusterIPs  []string `json:"cluster_ips"`
	ExternalIPs []string `json:"external_ips"`

	// LoadBalancerIngress holds one address per ingress point, hostname
	// preferred over IP.
	LoadBalancerIngress []string `json:"load_balancer_ingress"`

	Ports    []ServicePortInfo `json:"ports"`
	Selector map[string]string `json:"selector"`

	// Deployments names the same-namespace Deployments whose selector
	// carries every selector pair of the service. Filled in at list time.
	Deployments []string `json:"deployments,omitempty"`

	Labels            map[string]string `json:"labels"`
	Annotations       map[string]string `json:"annotations"`
	CreationTimestamp int64             `json:"creation_timestamp"`

	SessionAffinity string `json:"session_affinity"`
}

// ServicePortInfo is one service port. TargetPort keeps the int-or-string
// form the manifest used.
type ServicePortInfo struct {
	Name       string `json:"name"`
	Protocol   string `json:"protocol"`
	Port       int32  `json:"port"`
	TargetPort string `json:"target_port"`
	NodePort   int32  `json:"node_port"`
}

// IngressInfo is an Ingress as listed by the console.
type IngressInfo struct {
	Name                  string              `json:"name"`
	Namespace             string              `json:"namespace"`
	IngressClassName      string              `json:"ingress_class_name"`
	Rules                 []IngressRuleInfo   `json:"rules"`
	TLS                   []IngressTLSInfo    `json:"tls"`
	DefaultBackend        *IngressBackendInfo `json:"default_backend,omitempty"`
	Labels                map[string]string   `json:"labels"`
	Annotations           map[string]string   `json:"annotations"`
	CreationTimestamp     int64               `json:"creation_timestamp"`
	LoadBalancerHostnames []string            `json:"load_balancer_hostnames"`
}

type IngressRuleInfo struct {
	Host  string            `json:"host"`
	Paths []IngressPathInfo `json:"paths"`
}

// IngressPathInfo is a path routed to a service backend. Resource backends
// leave BackendService empty.
type IngressPathInfo struct {
	Path           string `json:"path"`
	PathType       string `json:"path_type"`
	BackendService string `json:"backend_service"`
	BackendPort    string `json:"backend_port"`
}

type IngressTLSInfo struct {
	Hosts      []string `json:"hosts"`
	SecretName string   `json:"secret_name"`
}

type IngressBackendInfo struct {
	ServiceName string `json:"service_name"`
	ServicePort string `json:"service_port"`
}
