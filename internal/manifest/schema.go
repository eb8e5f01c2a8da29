package manifest

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/validation"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// CheckSchema is the strict gate applied to a merged FormState before it is
// accepted. It returns the first offending field, or nil when f is acceptable.
func CheckSchema(f model.FormState) *model.FieldError {
	for i, c := range f.Containers {
		if fe := checkQuantities(fmt.Sprintf("spec.template.spec.containers[%d].resources", i), c.Resources); fe != nil {
			return fe
		}
	}

	text, err := ToYAML(f)
	if err != nil {
		return &model.FieldError{Message: err.Error()}
	}
	var dep appsv1.Deployment
	if err := sigsyaml.UnmarshalStrict([]byte(text), &dep); err != nil {
		return &model.FieldError{Message: fmt.Sprintf("manifest does not decode as a Deployment: %v", err)}
	}
	return checkDeployment(&dep)
}

func checkQuantities(path string, r model.Resources) *model.FieldError {
	for _, q := range []struct {
		field string
		value string
	}{
		{"requests.cpu", r.Requests.CPU},
		{"requests.memory", r.Requests.Memory},
		{"limits.cpu", r.Limits.CPU},
		{"limits.memory", r.Limits.Memory},
	} {
		if q.value == "" {
			continue
		}
		if _, err := resource.ParseQuantity(q.value); err != nil {
			return &model.FieldError{Path: path + "." + q.field, Message: fmt.Sprintf("invalid quantity %q", q.value)}
		}
	}
	return nil
}

func checkDeployment(dep *appsv1.Deployment) *model.FieldError {
	if msgs := validation.IsDNS1123Label(dep.Name); len(msgs) > 0 {
		return fieldErr("metadata.name", msgs)
	}
	if dep.Namespace != "" {
		if msgs := validation.IsDNS1123Label(dep.Namespace); len(msgs) > 0 {
			return fieldErr("metadata.namespace", msgs)
		}
	}
	if dep.Spec.Replicas != nil && *dep.Spec.Replicas < 0 {
		return &model.FieldError{Path: "spec.replicas", Message: "must be greater than or equal to 0"}
	}

	tmpl := dep.Spec.Template
	if fe := checkLabels("spec.template.metadata.labels", tmpl.Labels); fe != nil {
		return fe
	}
	for _, k := range slices.Sorted(maps.Keys(tmpl.Annotations)) {
		if msgs := validation.IsQualifiedName(k); len(msgs) > 0 {
			return fieldErr("spec.template.metadata.annotations."+k, msgs)
		}
	}

	if dep.Spec.Selector == nil {
		return &model.FieldError{Path: "spec.selector", Message: "required value"}
	}
	sel, err := metav1.LabelSelectorAsSelector(dep.Spec.Selector)
	if err != nil {
		return &model.FieldError{Path: "spec.selector", Message: err.Error()}
	}
	if sel.Empty() || !sel.Matches(labels.Set(tmpl.Labels)) {
		return &model.FieldError{Path: "spec.template.metadata.labels", Message: "`selector` does not match template `labels`"}
	}

	pod := tmpl.Spec
	if len(pod.Containers) == 0 {
		return &model.FieldError{Path: "spec.template.spec.containers", Message: "at least one container is required"}
	}
	volumes := make(map[string]struct{}, len(pod.Volumes))
	for i, v := range pod.Volumes {
		path := fmt.Sprintf("spec.template.spec.volumes[%d].name", i)
		if msgs := validation.IsDNS1123Label(v.Name); len(msgs) > 0 {
			return fieldErr(path, msgs)
		}
		if _, dup := volumes[v.Name]; dup {
			return &model.FieldError{Path: path, Message: fmt.Sprintf("duplicate volume %q", v.Name)}
		}
		volumes[v.Name] = struct{}{}
	}

	names := make(map[string]struct{}, len(pod.Containers))
	for i, c := range pod.Containers {
		path := fmt.Sprintf("spec.template.spec.containers[%d]", i)
		if msgs := validation.IsDNS1123Label(c.Name); len(msgs) > 0 {
			return fieldErr(path+".name", msgs)
		}
		if _, dup := names[c.Name]; dup {
			return &model.FieldError{Path: path + ".name", Message: fmt.Sprintf("duplicate container name %q", c.Name)}
		}
		names[c.Name] = struct{}{}
		if strings.TrimSpace(c.Image) == "" {
			return &model.FieldError{Path: path + ".image", Message: "image is required"}
		}
		for j, p := range c.Ports {
			if msgs := validation.IsValidPortNum(int(p.ContainerPort)); len(msgs) > 0 {
				return fieldErr(fmt.Sprintf("%s.ports[%d].containerPort", path, j), msgs)
			}
		}
		for j, e := range c.Env {
			if msgs := validation.IsEnvVarName(e.Name); len(msgs) > 0 {
				return fieldErr(fmt.Sprintf("%s.env[%d].name", path, j), msgs)
			}
		}
		for j, vm := range c.VolumeMounts {
			if _, ok := volumes[vm.Name]; !ok {
				return &model.FieldError{
					Path:    fmt.Sprintf("%s.volumeMounts[%d].name", path, j),
					Message: fmt.Sprintf("volume %q not found", vm.Name),
				}
			}
		}
	}
	return nil
}

func checkLabels(path string, set map[string]string) *model.FieldError {
	for _, k := range slices.Sorted(maps.Keys(set)) {
		if msgs := validation.IsQualifiedName(k); len(msgs) > 0 {
			return fieldErr(path+"."+k, msgs)
		}
		if msgs := validation.IsValidLabelValue(set[k]); len(msgs) > 0 {
			return fieldErr(path+"."+k, msgs)
		}
	}
	return nil
}

func fieldErr(path string, msgs []string) *model.FieldError {
	return &model.FieldError{Path: path, Message: msgs[0]}
}
