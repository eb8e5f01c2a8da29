package model

import (
	corev1 "k8s.io/api/core/v1"
)

// FormState is the flat record behind the deployment composer form.
// It is converted into a Deployment manifest on every change; the manifest
// itself is never stored.
type FormState struct {
	Type           string `json:"type"`
	Namespace      string `json:"namespace"`
	DeploymentName string `json:"deployment_name"`
	Tag            string `json:"tag"`
	SCMName        string `json:"scm_name"`
	StrategyID     string `json:"strategy_id"`
	Replicas       int32  `json:"replicas"`

	Containers   []Container   `json:"containers"`
	ServicePorts []ServicePort `json:"service_ports"`

	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	NodeSelector map[string]string `json:"node_selector"`

	Tolerations []Toleration `json:"tolerations"`
	Affinity    *Affinity    `json:"affinity,omitempty"`
	Volumes     []Volume     `json:"volumes"`
}

// Image pull policies accepted by the validator.
const (
	PullAlways       = "Always"
	PullIfNotPresent = "IfNotPresent"
	PullNever        = "Never"
)

// Container port protocols accepted by the validator.
const (
	ProtocolTCP  = "TCP"
	ProtocolUDP  = "UDP"
	ProtocolSCTP = "SCTP"
)

// Container describes one container of the pod template.
type Container struct {
	Name            string   `json:"name"`
	Image           string   `json:"image"`
	ImagePullPolicy string   `json:"image_pull_policy"`
	Command         []string `json:"command"`
	Args            []string `json:"args"`
	WorkingDir      string   `json:"working_dir"`

	Env     []EnvVar        `json:"env"`
	EnvFrom []EnvFromSource `json:"env_from"`
	Ports   []ContainerPort `json:"ports"`

	Resources    Resources     `json:"resources"`
	VolumeMounts []VolumeMount `json:"volume_mounts"`

	LivenessProbe  *Probe `json:"liveness_probe,omitempty"`
	ReadinessProbe *Probe `json:"readiness_probe,omitempty"`
	StartupProbe   *Probe `json:"startup_probe,omitempty"`

	Lifecycle       *Lifecycle       `json:"lifecycle,omitempty"`
	SecurityContext *SecurityContext `json:"security_context,omitempty"`

	Stdin bool `json:"stdin"`
	TTY   bool `json:"tty"`
}

// ContainerPort is a port exposed by a container.
type ContainerPort struct {
	ContainerPort int32  `json:"container_port"`
	Name          string `json:"name,omitempty"`
	Protocol      string `json:"protocol,omitempty"`
}

// ResourceValues holds opaque quantity strings ("250m", "512Mi").
type ResourceValues struct {
	CPU    string `json:"cpu,omitempty"`
	Memory string `json:"memory,omitempty"`
}

// Resources holds container requests and limits.
type Resources struct {
	Requests ResourceValues `json:"requests"`
	Limits   ResourceValues `json:"limits"`
}

// VolumeMount mounts a named pod volume into a container.
type VolumeMount struct {
	Name      string `json:"name"`
	MountPath string `json:"mount_path"`
	SubPath   string `json:"sub_path,omitempty"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// ServicePort describes a port the workload should expose through a Service.
type ServicePort struct {
	Name       string `json:"name,omitempty"`
	Port       int32  `json:"port"`
	TargetPort int32  `json:"target_port"`
	Protocol   string `json:"protocol,omitempty"`
}

// Toleration mirrors a pod toleration.
type Toleration struct {
	Key               string `json:"key,omitempty"`
	Operator          string `json:"operator,omitempty"`
	Value             string `json:"value,omitempty"`
	Effect            string `json:"effect,omitempty"`
	TolerationSeconds *int64 `json:"toleration_seconds,omitempty"`
}

// SecurityContext holds the container security fields exposed by the form.
type SecurityContext struct {
	RunAsUser                *int64 `json:"run_as_user,omitempty"`
	RunAsGroup               *int64 `json:"run_as_group,omitempty"`
	RunAsNonRoot             *bool  `json:"run_as_non_root,omitempty"`
	Privileged               *bool  `json:"privileged,omitempty"`
	ReadOnlyRootFilesystem   *bool  `json:"read_only_root_filesystem,omitempty"`
	AllowPrivilegeEscalation *bool  `json:"allow_privilege_escalation,omitempty"`
}

// Lifecycle holds the container lifecycle hooks.
type Lifecycle struct {
	PostStart *Handler `json:"post_start,omitempty"`
	PreStop   *Handler `json:"pre_stop,omitempty"`
}

// HandlerKind discriminates the Handler union.
type HandlerKind string

// Handler kinds.
const (
	HandlerExec      HandlerKind = "exec"
	HandlerHTTPGet   HandlerKind = "httpGet"
	HandlerTCPSocket HandlerKind = "tcpSocket"
)

// Handler is the action of a probe or lifecycle hook. Only the field
// matching Kind is used.
type Handler struct {
	Kind      HandlerKind      `json:"kind"`
	Exec      *ExecAction      `json:"exec,omitempty"`
	HTTPGet   *HTTPGetAction   `json:"http_get,omitempty"`
	TCPSocket *TCPSocketAction `json:"tcp_socket,omitempty"`
}

// ExecAction runs a command inside the container.
type ExecAction struct {
	Command []string `json:"command"`
}

// HTTPGetAction performs an HTTP GET against the container.
// Port is either a number or a named port.
type HTTPGetAction struct {
	Path   string `json:"path,omitempty"`
	Port   string `json:"port"`
	Host   string `json:"host,omitempty"`
	Scheme string `json:"scheme,omitempty"`
}

// TCPSocketAction opens a TCP connection to the container.
type TCPSocketAction struct {
	Port string `json:"port"`
	Host string `json:"host,omitempty"`
}

// Probe is a Handler plus the common timing fields. Zero timing values are
// left to the cluster defaults.
type Probe struct {
	Handler
	InitialDelaySeconds int32 `json:"initial_delay_seconds,omitempty"`
	PeriodSeconds       int32 `json:"period_seconds,omitempty"`
	TimeoutSeconds      int32 `json:"timeout_seconds,omitempty"`
	SuccessThreshold    int32 `json:"success_threshold,omitempty"`
	FailureThreshold    int32 `json:"failure_threshold,omitempty"`
}

// EnvVar is either a literal value or a reference (ValueFrom != nil).
type EnvVar struct {
	Name      string        `json:"name"`
	Value     string        `json:"value"`
	ValueFrom *EnvVarSource `json:"value_from,omitempty"`
}

// EnvSourceKind discriminates EnvVarSource.
type EnvSourceKind string

// Environment reference kinds.
const (
	EnvConfigMapKeyRef  EnvSourceKind = "configMapKeyRef"
	EnvSecretKeyRef     EnvSourceKind = "secretKeyRef"
	EnvFieldRef         EnvSourceKind = "fieldRef"
	EnvResourceFieldRef EnvSourceKind = "resourceFieldRef"
)

// EnvVarSource references a ConfigMap/Secret key, a pod field or a container resource.
type EnvVarSource struct {
	Kind          EnvSourceKind `json:"kind"`
	Name          string        `json:"name,omitempty"`
	Key           string        `json:"key,omitempty"`
	FieldPath     string        `json:"field_path,omitempty"`
	Resource      string        `json:"resource,omitempty"`
	ContainerName string        `json:"container_name,omitempty"`
	Optional      *bool         `json:"optional,omitempty"`
}

// EnvFromKind discriminates EnvFromSource.
type EnvFromKind string

// envFrom kinds.
const (
	EnvFromConfigMap EnvFromKind = "configMapRef"
	EnvFromSecret    EnvFromKind = "secretRef"
)

// EnvFromSource imports every key of a ConfigMap or Secret.
type EnvFromSource struct {
	Kind   EnvFromKind `json:"kind"`
	Name   string      `json:"name"`
	Prefix string      `json:"prefix,omitempty"`
}

// VolumeKind discriminates Volume.
type VolumeKind string

// Supported volume kinds, in the order the parser probes for them.
const (
	VolumeEmptyDir  VolumeKind = "emptyDir"
	VolumeConfigMap VolumeKind = "configMap"
	VolumeSecret    VolumeKind = "secret"
	VolumePVC       VolumeKind = "persistentVolumeClaim"
)

// VolumeKinds lists the volume kinds in canonical order.
var VolumeKinds = []VolumeKind{VolumeEmptyDir, VolumeConfigMap, VolumeSecret, VolumePVC}

// Volume is a pod volume. Only the source matching Kind is emitted.
type Volume struct {
	Name                  string                 `json:"name"`
	Kind                  VolumeKind             `json:"kind"`
	EmptyDir              *EmptyDirSource        `json:"empty_dir,omitempty"`
	ConfigMap             *ConfigMapVolumeSource `json:"config_map,omitempty"`
	Secret                *SecretVolumeSource    `json:"secret,omitempty"`
	PersistentVolumeClaim *PVCVolumeSource       `json:"persistent_volume_claim,omitempty"`
}

// EmptyDirSource configures an emptyDir volume.
type EmptyDirSource struct {
	Medium    string `json:"medium,omitempty"`
	SizeLimit string `json:"size_limit,omitempty"`
}

// KeyToPath projects a single key into a file.
type KeyToPath struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

// ConfigMapVolumeSource mounts a ConfigMap.
type ConfigMapVolumeSource struct {
	Name  string      `json:"name"`
	Items []KeyToPath `json:"items,omitempty"`
}

// SecretVolumeSource mounts a Secret.
type SecretVolumeSource struct {
	SecretName string      `json:"secret_name"`
	Items      []KeyToPath `json:"items,omitempty"`
}

// PVCVolumeSource mounts a PersistentVolumeClaim.
type PVCVolumeSource struct {
	ClaimName string `json:"claim_name"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// AffinityKind discriminates Affinity.
type AffinityKind string

// Affinity kinds, in the order the parser probes for them.
const (
	AffinityNode    AffinityKind = "nodeAffinity"
	AffinityPod     AffinityKind = "podAffinity"
	AffinityPodAnti AffinityKind = "podAntiAffinity"
)

// AffinityKinds lists the affinity kinds in canonical order.
var AffinityKinds = []AffinityKind{AffinityNode, AffinityPod, AffinityPodAnti}

// Affinity carries one affinity sub-tree in the Kubernetes grammar.
type Affinity struct {
	Kind    AffinityKind            `json:"kind"`
	Node    *corev1.NodeAffinity    `json:"node,omitempty"`
	Pod     *corev1.PodAffinity     `json:"pod,omitempty"`
	PodAnti *corev1.PodAntiAffinity `json:"pod_anti,omitempty"`
}

// NewFormState returns the defaults the composer starts from.
func NewFormState() FormState {
	return FormState{
		Type:      "deployment",
		Namespace: "default",
		Replicas:  1,
		Containers: []Container{
			{ImagePullPolicy: PullIfNotPresent},
		},
		Labels:       map[string]string{},
		Annotations:  map[string]string{},
		NodeSelector: map[string]string{},
	}
}
