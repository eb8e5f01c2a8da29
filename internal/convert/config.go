package convert

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// ConfigMapToModel converts a ConfigMap to model.ConfigMapInfo. Only key
// names are carried over.
func ConfigMapToModel(cm *corev1.ConfigMap) model.ConfigMapInfo {
	return model.ConfigMapInfo{
		Name:              cm.Name,
		Namespace:         cm.Namespace,
		Keys:              sortedKeys(cm.Data),
		BinaryKeys:        sortedKeys(cm.BinaryData),
		Immutable:         cm.Immutable != nil && *cm.Immutable,
		Labels:            cm.Labels,
		CreationTimestamp: cm.CreationTimestamp.UnixMilli(),
	}
}

// SecretToModel converts a Secret to model.SecretInfo. Values are dropped;
// keys from data and stringData are merged.
func SecretToModel(s *corev1.Secret) model.SecretInfo {
	keys := make(map[string]struct{}, len(s.Data)+len(s.StringData))
	for k := range s.Data {
		keys[k] = struct{}{}
	}
	for k := range s.StringData {
		keys[k] = struct{}{}
	}
	return model.SecretInfo{
		Name:              s.Name,
		Namespace:         s.Namespace,
		Type:              string(s.Type),
		Keys:              sortedKeys(keys),
		Immutable:         s.Immutable != nil && *s.Immutable,
		Labels:            s.Labels,
		CreationTimestamp: s.CreationTimestamp.UnixMilli(),
	}
}
