package convert

import (
	"maps"
	"slices"

	corev1 "k8s.io/api/core/v1"
)

// FilterAnnotations returns a filtered copy of the annotations map.
// It skips kubectl.kubernetes.io/last-applied-configuration entirely
// and truncates any value longer than 1024 bytes.
func FilterAnnotations(annotations map[string]string) map[string]string {
	if annotations == nil {
		return nil
	}
	filtered := make(map[string]string, len(annotations))
	for k, v := range annotations {
		if k == "kubectl.kubernetes.io/last-applied-configuration" {
			continue
		}
		if len(v) > 1024 {
			filtered[k] = v[:1024]
			continue
		}
		filtered[k] = v
	}
	return filtered
}

// quantityString renders a resource list entry in canonical form, or "" when absent.
func quantityString(rl corev1.ResourceList, name corev1.ResourceName) string {
	q, ok := rl[name]
	if !ok {
		return ""
	}
	return q.String()
}

// sortedKeys returns the keys of m in lexical order, or nil for an empty map.
func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m))
}
