package manifest

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/utils/ptr"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// Parse decodes YAML text and extracts the fields the form understands.
// Malformed text is logged and yields an empty patch; callers validate
// separately before trusting the result.
func Parse(text string) model.FormPatch {
	doc, err := Decode(text)
	if err != nil {
		slog.Debug("manifest parse failed, returning empty form patch", "error", err)
		return model.FormPatch{}
	}
	return Extract(doc)
}

// Extract maps a decoded Deployment document back onto a FormPatch.
// Missing or mistyped sections are skipped.
// Pure function with no side effects.
func Extract(doc any) model.FormPatch {
	root, ok := doc.(map[string]any)
	if !ok {
		return model.FormPatch{}
	}

	var p model.FormPatch

	meta := asMap(root["metadata"])
	if s, ok := meta["namespace"].(string); ok {
		p.Namespace = ptr.To(s)
	}
	if s, ok := meta["name"].(string); ok {
		p.DeploymentName = ptr.To(s)
	}
	p.Labels = stringMapOf(meta["labels"])
	p.Annotations = stringMapOf(meta["annotations"])

	spec := asMap(root["spec"])
	if n, ok := asInt(spec["replicas"]); ok {
		p.Replicas = ptr.To(clampInt32(n))
	}

	template := asMap(spec["template"])
	// Template metadata is where the builder writes labels, so it wins.
	tmeta := asMap(template["metadata"])
	if l := stringMapOf(tmeta["labels"]); l != nil {
		p.Labels = l
	}
	if a := stringMapOf(tmeta["annotations"]); a != nil {
		p.Annotations = a
	}

	podSpec := asMap(template["spec"])
	if list, ok := podSpec["containers"].([]any); ok {
		p.Containers = extractContainers(list)
		p.ServicePorts = flattenServicePorts(p.Containers)
	}
	p.NodeSelector = stringMapOf(podSpec["nodeSelector"])
	if list, ok := podSpec["tolerations"].([]any); ok {
		p.Tolerations = extractTolerations(list)
	}
	p.Affinity = extractAffinity(asMap(podSpec["affinity"]))
	if list, ok := podSpec["volumes"].([]any); ok {
		p.Volumes = extractVolumes(list)
	}
	return p
}

// flattenServicePorts turns every container port into a service port with
// port and target port both set to the container port. The Deployment alone
// cannot tell the two apart.
func flattenServicePorts(cs []model.Container) []model.ServicePort {
	out := []model.ServicePort{}
	for _, c := range cs {
		for _, cp := range c.Ports {
			out = append(out, model.ServicePort{
				Name:       cp.Name,
				Port:       cp.ContainerPort,
				TargetPort: cp.ContainerPort,
				Protocol:   cp.Protocol,
			})
		}
	}
	return out
}

func extractContainers(list []any) []model.Container {
	out := make([]model.Container, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := model.Container{
			Name:            stringOf(m["name"]),
			Image:           stringOf(m["image"]),
			ImagePullPolicy: stringOf(m["imagePullPolicy"]),
			Command:         stringsOf(m["command"]),
			Args:            stringsOf(m["args"]),
			WorkingDir:      stringOf(m["workingDir"]),
			Env:             extractEnv(m["env"]),
			EnvFrom:         extractEnvFrom(m["envFrom"]),
			Ports:           extractPorts(m["ports"]),
			VolumeMounts:    extractVolumeMounts(m["volumeMounts"]),
			LivenessProbe:   extractProbe(asMap(m["livenessProbe"])),
			ReadinessProbe:  extractProbe(asMap(m["readinessProbe"])),
			StartupProbe:    extractProbe(asMap(m["startupProbe"])),
			SecurityContext: extractSecurityContext(asMap(m["securityContext"])),
		}
		res := asMap(m["resources"])
		c.Resources.Requests = extractResourceValues(asMap(res["requests"]))
		c.Resources.Limits = extractResourceValues(asMap(res["limits"]))

		if lc := asMap(m["lifecycle"]); lc != nil {
			c.Lifecycle = &model.Lifecycle{
				PostStart: extractHandler(asMap(lc["postStart"])),
				PreStop:   extractHandler(asMap(lc["preStop"])),
			}
		}
		c.Stdin, _ = m["stdin"].(bool)
		c.TTY, _ = m["tty"].(bool)
		out = append(out, c)
	}
	return out
}

// extractEnv keeps references as ValueFrom and turns entries carrying
// neither value nor valueFrom into an empty literal.
func extractEnv(v any) []model.EnvVar {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.EnvVar, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		e := model.EnvVar{Name: stringOf(m["name"])}
		if src := extractEnvSource(asMap(m["valueFrom"])); src != nil {
			e.ValueFrom = src
		} else {
			e.Value = stringOf(m["value"])
		}
		out = append(out, e)
	}
	return out
}

func extractEnvSource(m map[string]any) *model.EnvVarSource {
	if m == nil {
		return nil
	}
	for _, kind := range []model.EnvSourceKind{
		model.EnvConfigMapKeyRef, model.EnvSecretKeyRef, model.EnvFieldRef, model.EnvResourceFieldRef,
	} {
		ref := asMap(m[string(kind)])
		if ref == nil {
			continue
		}
		src := &model.EnvVarSource{
			Kind:          kind,
			Name:          stringOf(ref["name"]),
			Key:           stringOf(ref["key"]),
			FieldPath:     stringOf(ref["fieldPath"]),
			Resource:      stringOf(ref["resource"]),
			ContainerName: stringOf(ref["containerName"]),
		}
		if b, ok := ref["optional"].(bool); ok {
			src.Optional = ptr.To(b)
		}
		return src
	}
	return nil
}

func extractEnvFrom(v any) []model.EnvFromSource {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.EnvFromSource, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, kind := range []model.EnvFromKind{model.EnvFromConfigMap, model.EnvFromSecret} {
			if ref := asMap(m[string(kind)]); ref != nil {
				out = append(out, model.EnvFromSource{
					Kind:   kind,
					Name:   stringOf(ref["name"]),
					Prefix: stringOf(m["prefix"]),
				})
				break
			}
		}
	}
	return out
}

func extractPorts(v any) []model.ContainerPort {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.ContainerPort, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		n, _ := asInt(m["containerPort"])
		out = append(out, model.ContainerPort{
			ContainerPort: clampInt32(n),
			Name:          stringOf(m["name"]),
			Protocol:      stringOf(m["protocol"]),
		})
	}
	return out
}

func extractVolumeMounts(v any) []model.VolumeMount {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.VolumeMount, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ro, _ := m["readOnly"].(bool)
		out = append(out, model.VolumeMount{
			Name:      stringOf(m["name"]),
			MountPath: stringOf(m["mountPath"]),
			SubPath:   stringOf(m["subPath"]),
			ReadOnly:  ro,
		})
	}
	return out
}

func extractResourceValues(m map[string]any) model.ResourceValues {
	return model.ResourceValues{CPU: stringOf(m["cpu"]), Memory: stringOf(m["memory"])}
}

func extractProbe(m map[string]any) *model.Probe {
	h := extractHandler(m)
	if h == nil {
		return nil
	}
	p := &model.Probe{Handler: *h}
	p.InitialDelaySeconds = int32Of(m["initialDelaySeconds"])
	p.PeriodSeconds = int32Of(m["periodSeconds"])
	p.TimeoutSeconds = int32Of(m["timeoutSeconds"])
	p.SuccessThreshold = int32Of(m["successThreshold"])
	p.FailureThreshold = int32Of(m["failureThreshold"])
	return p
}

// extractHandler picks the first action present in exec, httpGet, tcpSocket order.
func extractHandler(m map[string]any) *model.Handler {
	if m == nil {
		return nil
	}
	if a := asMap(m["exec"]); a != nil {
		return &model.Handler{Kind: model.HandlerExec, Exec: &model.ExecAction{Command: stringsOf(a["command"])}}
	}
	if a := asMap(m["httpGet"]); a != nil {
		return &model.Handler{Kind: model.HandlerHTTPGet, HTTPGet: &model.HTTPGetAction{
			Path:   stringOf(a["path"]),
			Port:   stringOf(a["port"]),
			Host:   stringOf(a["host"]),
			Scheme: stringOf(a["scheme"]),
		}}
	}
	if a := asMap(m["tcpSocket"]); a != nil {
		return &model.Handler{Kind: model.HandlerTCPSocket, TCPSocket: &model.TCPSocketAction{
			Port: stringOf(a["port"]),
			Host: stringOf(a["host"]),
		}}
	}
	return nil
}

func extractSecurityContext(m map[string]any) *model.SecurityContext {
	if m == nil {
		return nil
	}
	sc := &model.SecurityContext{}
	if n, ok := asInt(m["runAsUser"]); ok {
		sc.RunAsUser = ptr.To(n)
	}
	if n, ok := asInt(m["runAsGroup"]); ok {
		sc.RunAsGroup = ptr.To(n)
	}
	sc.RunAsNonRoot = boolPtrOf(m["runAsNonRoot"])
	sc.Privileged = boolPtrOf(m["privileged"])
	sc.ReadOnlyRootFilesystem = boolPtrOf(m["readOnlyRootFilesystem"])
	sc.AllowPrivilegeEscalation = boolPtrOf(m["allowPrivilegeEscalation"])
	return sc
}

func extractTolerations(list []any) []model.Toleration {
	out := make([]model.Toleration, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t := model.Toleration{
			Key:      stringOf(m["key"]),
			Operator: stringOf(m["operator"]),
			Value:    stringOf(m["value"]),
			Effect:   stringOf(m["effect"]),
		}
		if n, ok := asInt(m["tolerationSeconds"]); ok {
			t.TolerationSeconds = ptr.To(n)
		}
		out = append(out, t)
	}
	return out
}

// extractAffinity keeps the first sub-tree present in canonical order.
// Sub-trees that do not fit the API types are dropped.
func extractAffinity(m map[string]any) *model.Affinity {
	if m == nil {
		return nil
	}
	conv := runtime.DefaultUnstructuredConverter
	for _, kind := range model.AffinityKinds {
		tree := asMap(m[string(kind)])
		if tree == nil {
			continue
		}
		a := &model.Affinity{Kind: kind}
		var err error
		switch kind {
		case model.AffinityNode:
			a.Node = &corev1.NodeAffinity{}
			err = conv.FromUnstructured(tree, a.Node)
		case model.AffinityPod:
			a.Pod = &corev1.PodAffinity{}
			err = conv.FromUnstructured(tree, a.Pod)
		case model.AffinityPodAnti:
			a.PodAnti = &corev1.PodAntiAffinity{}
			err = conv.FromUnstructured(tree, a.PodAnti)
		}
		if err != nil {
			slog.Debug("manifest affinity ignored", "kind", kind, "error", err)
			return nil
		}
		return a
	}
	return nil
}

// extractVolumes detects the source by key in canonical order. A volume with
// no recognised source is an emptyDir, matching API server defaulting.
func extractVolumes(list []any) []model.Volume {
	out := make([]model.Volume, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		v := model.Volume{Name: stringOf(m["name"]), Kind: model.VolumeEmptyDir}
		for _, kind := range model.VolumeKinds {
			if _, present := m[string(kind)]; present {
				v.Kind = kind
				break
			}
		}
		switch v.Kind {
		case model.VolumeEmptyDir:
			src := asMap(m["emptyDir"])
			if src != nil {
				v.EmptyDir = &model.EmptyDirSource{Medium: stringOf(src["medium"]), SizeLimit: stringOf(src["sizeLimit"])}
			}
		case model.VolumeConfigMap:
			src := asMap(m["configMap"])
			v.ConfigMap = &model.ConfigMapVolumeSource{Name: stringOf(src["name"]), Items: extractKeyPaths(src["items"])}
		case model.VolumeSecret:
			src := asMap(m["secret"])
			v.Secret = &model.SecretVolumeSource{SecretName: stringOf(src["secretName"]), Items: extractKeyPaths(src["items"])}
		case model.VolumePVC:
			src := asMap(m["persistentVolumeClaim"])
			ro, _ := src["readOnly"].(bool)
			v.PersistentVolumeClaim = &model.PVCVolumeSource{ClaimName: stringOf(src["claimName"]), ReadOnly: ro}
		}
		out = append(out, v)
	}
	return out
}

func extractKeyPaths(v any) []model.KeyToPath {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.KeyToPath, 0, len(list))
	for _, item := range list {
		m := asMap(item)
		out = append(out, model.KeyToPath{Key: stringOf(m["key"]), Path: stringOf(m["path"])})
	}
	return out
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// stringOf renders scalars as strings; YAML may decode "8080" or 1 as numbers.
func stringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func stringsOf(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, stringOf(item))
	}
	return out
}

// stringMapOf returns nil when v is not a mapping.
func stringMapOf(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = stringOf(val)
	}
	return out
}

func boolPtrOf(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return ptr.To(b)
}

func int32Of(v any) int32 {
	n, _ := asInt(v)
	return clampInt32(n)
}

func clampInt32(n int64) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	default:
		return int32(n)
	}
}

// asInt accepts any integral number, plus floats without a fractional part
// and numeric strings.
func asInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
