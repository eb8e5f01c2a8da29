package model

import "maps"

// FormPatch is a partial FormState extracted from a manifest. A nil field
// means the manifest did not carry that value.
type FormPatch struct {
	Namespace      *string `json:"namespace,omitempty"`
	DeploymentName *string `json:"deployment_name,omitempty"`
	Replicas       *int32  `json:"replicas,omitempty"`

	Containers   []Container   `json:"containers,omitempty"`
	ServicePorts []ServicePort `json:"service_ports,omitempty"`

	Labels       map[string]string `json:"labels,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	NodeSelector map[string]string `json:"node_selector,omitempty"`

	Tolerations []Toleration `json:"tolerations,omitempty"`
	Affinity    *Affinity    `json:"affinity,omitempty"`
	Volumes     []Volume     `json:"volumes,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p FormPatch) IsEmpty() bool {
	return p.Namespace == nil && p.DeploymentName == nil && p.Replicas == nil &&
		p.Containers == nil && p.ServicePorts == nil &&
		p.Labels == nil && p.Annotations == nil && p.NodeSelector == nil &&
		p.Tolerations == nil && p.Affinity == nil && p.Volumes == nil
}

// Apply returns a copy of s with every present field of p laid over it.
// The receiver is not modified.
func (s FormState) Apply(p FormPatch) FormState {
	out := s
	if p.Namespace != nil {
		out.Namespace = *p.Namespace
	}
	if p.DeploymentName != nil {
		out.DeploymentName = *p.DeploymentName
	}
	if p.Replicas != nil {
		out.Replicas = *p.Replicas
	}
	if p.Containers != nil {
		out.Containers = append([]Container(nil), p.Containers...)
	}
	if p.ServicePorts != nil {
		out.ServicePorts = append([]ServicePort(nil), p.ServicePorts...)
	}
	if p.Labels != nil {
		out.Labels = maps.Clone(p.Labels)
	}
	if p.Annotations != nil {
		out.Annotations = maps.Clone(p.Annotations)
	}
	if p.NodeSelector != nil {
		out.NodeSelector = maps.Clone(p.NodeSelector)
	}
	if p.Tolerations != nil {
		out.Tolerations = append([]Toleration(nil), p.Tolerations...)
	}
	if p.Affinity != nil {
		a := *p.Affinity
		out.Affinity = &a
	}
	if p.Volumes != nil {
		out.Volumes = append([]Volume(nil), p.Volumes...)
	}
	return out
}
