package manifest

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

var dnsLabel = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

var (
	pullPolicies = []string{model.PullAlways, model.PullIfNotPresent, model.PullNever}
	protocols    = []string{model.ProtocolTCP, model.ProtocolUDP, model.ProtocolSCTP}
)

// isDNSLabel treats the empty string as valid; emptiness is left to
// required-field checks.
func isDNSLabel(s string) bool {
	return s == "" || dnsLabel.MatchString(s)
}

// Validate checks a decoded document against the structural rules for a
// Deployment. Checks accumulate, except that a missing spec stops the walk.
// It never panics on unexpected shapes.
func Validate(doc any) model.ValidationResult {
	v := &validator{}
	v.document(doc)
	return model.ValidationResult{Valid: len(v.errs) == 0, Errors: v.errs}
}

type validator struct {
	errs []model.FieldError
}

func (v *validator) add(path, format string, args ...any) {
	v.errs = append(v.errs, model.FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) document(doc any) {
	if doc == nil {
		v.add("", "document is empty")
		return
	}
	root, ok := doc.(map[string]any)
	if !ok {
		v.add("", "document must be a mapping")
		return
	}

	if kind, _ := root["kind"].(string); kind != deploymentKind {
		v.add("kind", "kind must be %q", deploymentKind)
	}

	apiVersion, _ := root["apiVersion"].(string)
	switch {
	case apiVersion == "":
		v.add("apiVersion", "apiVersion is required")
	case !strings.Contains(apiVersion, "apps/v1") && !strings.Contains(apiVersion, "v1"):
		v.add("apiVersion", "apiVersion must be %q", deploymentAPIVersion)
	}

	if meta, ok := root["metadata"].(map[string]any); !ok {
		v.add("metadata", "metadata is required")
	} else if name, ok := meta["name"].(string); !ok {
		v.add("metadata.name", "metadata.name is required and must be a string")
	} else if !isDNSLabel(name) {
		v.add("metadata.name", "metadata.name must be a valid DNS label (lowercase alphanumerics and '-')")
	}

	spec, ok := root["spec"].(map[string]any)
	if !ok {
		v.add("spec", "spec is required")
		return
	}
	v.spec(spec)
}

func (v *validator) spec(spec map[string]any) {
	if r, present := spec["replicas"]; present {
		if n, ok := asNumber(r); !ok || n < 0 {
			v.add("spec.replicas", "replicas must be a non-negative number")
		}
	}

	if _, ok := spec["selector"].(map[string]any); !ok {
		v.add("spec.selector", "spec.selector is required")
	}

	template, ok := spec["template"].(map[string]any)
	if !ok {
		v.add("spec.template", "spec.template is required")
		return
	}
	if _, ok := template["metadata"].(map[string]any); !ok {
		v.add("spec.template.metadata", "spec.template.metadata is required")
	}
	podSpec, ok := template["spec"].(map[string]any)
	if !ok {
		v.add("spec.template.spec", "spec.template.spec is required")
		return
	}

	containers, ok := podSpec["containers"].([]any)
	if !ok {
		v.add("spec.template.spec.containers", "containers is required and must be an array")
		return
	}
	for i, c := range containers {
		v.container(fmt.Sprintf("spec.template.spec.containers[%d]", i), c)
	}
}

func (v *validator) container(path string, raw any) {
	c, ok := raw.(map[string]any)
	if !ok {
		v.add(path, "container must be a mapping")
		return
	}

	name, _ := c["name"].(string)
	switch {
	case name == "":
		v.add(path+".name", "container name is required")
	case !isDNSLabel(name):
		v.add(path+".name", "container name must be a valid DNS label (lowercase alphanumerics and '-')")
	}

	if policy, present := c["imagePullPolicy"]; present {
		if s, _ := policy.(string); !slices.Contains(pullPolicies, s) {
			v.add(path+".imagePullPolicy", "imagePullPolicy must be one of %s", strings.Join(pullPolicies, ", "))
		}
	}

	for j, raw := range listOf(c["ports"]) {
		pp := fmt.Sprintf("%s.ports[%d]", path, j)
		port, ok := raw.(map[string]any)
		if !ok {
			v.add(pp, "port must be a mapping")
			continue
		}
		// Only the range is checked here; a missing port is left to the schema gate.
		if cp, present := port["containerPort"]; present {
			if n, ok := asNumber(cp); !ok || n < 0 || n > 65535 {
				v.add(pp+".containerPort", "containerPort must be a number between 0 and 65535")
			}
		}
		if proto, present := port["protocol"]; present {
			if s, _ := proto.(string); !slices.Contains(protocols, s) {
				v.add(pp+".protocol", "protocol must be one of %s", strings.Join(protocols, ", "))
			}
		}
	}

	if res, ok := c["resources"].(map[string]any); ok {
		for _, section := range []string{"requests", "limits"} {
			values, ok := res[section].(map[string]any)
			if !ok {
				continue
			}
			for _, key := range slices.Sorted(maps.Keys(values)) {
				if _, ok := values[key].(string); !ok {
					v.add(fmt.Sprintf("%s.resources.%s.%s", path, section, key), "resource quantity must be a string")
				}
			}
		}
	}

	for k, raw := range listOf(c["env"]) {
		e, _ := raw.(map[string]any)
		if s, _ := e["name"].(string); s == "" {
			v.add(fmt.Sprintf("%s.env[%d].name", path, k), "env name is required")
		}
	}

	for k, raw := range listOf(c["volumeMounts"]) {
		vm, _ := raw.(map[string]any)
		mp := fmt.Sprintf("%s.volumeMounts[%d]", path, k)
		if s, _ := vm["name"].(string); s == "" {
			v.add(mp+".name", "volumeMount name is required")
		}
		if s, _ := vm["mountPath"].(string); s == "" {
			v.add(mp+".mountPath", "volumeMount mountPath is required")
		}
	}
}

func listOf(v any) []any {
	l, _ := v.([]any)
	return l
}

// asNumber accepts every numeric type a YAML or JSON decoder may produce.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// Summarize renders the first limit errors as "path: message" joined by
// "; " and counts the rest. A non-positive limit shows everything.
func Summarize(errs []model.FieldError, limit int) string {
	if len(errs) == 0 {
		return ""
	}
	if limit <= 0 || limit > len(errs) {
		limit = len(errs)
	}
	parts := make([]string, 0, limit)
	for _, e := range errs[:limit] {
		parts = append(parts, e.String())
	}
	s := strings.Join(parts, "; ")
	if rest := len(errs) - limit; rest > 0 {
		s += fmt.Sprintf(" (and %d more)", rest)
	}
	return s
}
