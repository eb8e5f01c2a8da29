// Package manifest maps deployment form state to Kubernetes Deployment manifests
// and back, and validates manifest documents.
package manifest

import (
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

const (
	deploymentAPIVersion = "apps/v1"
	deploymentKind       = "Deployment"
)

// NormalizeName lower-cases and trims a resource name.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Build projects a FormState onto an unpruned Deployment tree.
// Pure function with no side effects.
func Build(f model.FormState) map[string]any {
	name := NormalizeName(f.DeploymentName)

	metadata := map[string]any{"name": name}
	putString(metadata, "namespace", f.Namespace)

	podSpec := map[string]any{
		"containers":    buildContainers(f.Containers),
		"volumes":       buildVolumes(f.Volumes),
		"nodeSelector":  stringMap(f.NodeSelector),
		"tolerations":   buildTolerations(f.Tolerations),
		"restartPolicy": "Always",
	}
	if a := buildAffinity(f.Affinity); a != nil {
		podSpec["affinity"] = a
	}

	return map[string]any{
		"apiVersion": deploymentAPIVersion,
		"kind":       deploymentKind,
		"metadata":   metadata,
		"spec": map[string]any{
			"replicas": int(f.Replicas),
			"selector": map[string]any{
				"matchLabels": map[string]any{"app": name},
			},
			"template": map[string]any{
				"metadata": map[string]any{
					"labels":      stringMap(f.Labels),
					"annotations": stringMap(f.Annotations),
				},
				"spec": podSpec,
			},
		},
	}
}

// Manifest returns the pruned Deployment tree for f, or nil when nothing
// survives pruning.
func Manifest(f model.FormState) map[string]any {
	m, _ := Prune(Build(f), StructuralKeys).(map[string]any)
	return m
}

// ToYAML renders f as Deployment YAML. It returns "" when the pruned tree is empty.
func ToYAML(f model.FormState) (string, error) {
	m := Manifest(f)
	if m == nil {
		return "", nil
	}
	return Marshal(m)
}

func buildContainers(cs []model.Container) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, buildContainer(c))
	}
	return out
}

func buildContainer(c model.Container) map[string]any {
	m := map[string]any{
		"name":         NormalizeName(c.Name),
		"command":      stringList(c.Command),
		"args":         stringList(c.Args),
		"env":          buildEnv(c.Env),
		"envFrom":      buildEnvFrom(c.EnvFrom),
		"ports":        buildPorts(c.Ports),
		"volumeMounts": buildVolumeMounts(c.VolumeMounts),
		"resources": map[string]any{
			"requests": resourceValues(c.Resources.Requests),
			"limits":   resourceValues(c.Resources.Limits),
		},
	}
	putString(m, "image", c.Image)
	putString(m, "imagePullPolicy", c.ImagePullPolicy)
	putString(m, "workingDir", c.WorkingDir)

	putMap(m, "livenessProbe", buildProbe(c.LivenessProbe))
	putMap(m, "readinessProbe", buildProbe(c.ReadinessProbe))
	putMap(m, "startupProbe", buildProbe(c.StartupProbe))
	if c.Lifecycle != nil {
		m["lifecycle"] = map[string]any{
			"postStart": buildHandler(c.Lifecycle.PostStart),
			"preStop":   buildHandler(c.Lifecycle.PreStop),
		}
	}
	putMap(m, "securityContext", buildSecurityContext(c.SecurityContext))

	if c.Stdin {
		m["stdin"] = true
	}
	if c.TTY {
		m["tty"] = true
	}
	return m
}

// buildEnv emits {name, valueFrom} for references and {name, value} otherwise.
func buildEnv(env []model.EnvVar) []any {
	out := make([]any, 0, len(env))
	for _, e := range env {
		entry := map[string]any{"name": e.Name}
		if e.ValueFrom != nil {
			entry["valueFrom"] = buildEnvSource(*e.ValueFrom)
		} else {
			entry["value"] = e.Value
		}
		out = append(out, entry)
	}
	return out
}

func buildEnvSource(s model.EnvVarSource) map[string]any {
	ref := map[string]any{}
	switch s.Kind {
	case model.EnvConfigMapKeyRef, model.EnvSecretKeyRef:
		ref["name"] = s.Name
		ref["key"] = s.Key
		if s.Optional != nil {
			ref["optional"] = *s.Optional
		}
	case model.EnvFieldRef:
		putString(ref, "fieldPath", s.FieldPath)
	case model.EnvResourceFieldRef:
		putString(ref, "resource", s.Resource)
		putString(ref, "containerName", s.ContainerName)
	default:
		return nil
	}
	return map[string]any{string(s.Kind): ref}
}

func buildEnvFrom(sources []model.EnvFromSource) []any {
	out := make([]any, 0, len(sources))
	for _, s := range sources {
		if s.Kind != model.EnvFromConfigMap && s.Kind != model.EnvFromSecret {
			continue
		}
		entry := map[string]any{string(s.Kind): map[string]any{"name": s.Name}}
		putString(entry, "prefix", s.Prefix)
		out = append(out, entry)
	}
	return out
}

func buildPorts(ports []model.ContainerPort) []any {
	out := make([]any, 0, len(ports))
	for _, p := range ports {
		entry := map[string]any{"containerPort": int(p.ContainerPort)}
		putString(entry, "name", p.Name)
		putString(entry, "protocol", p.Protocol)
		out = append(out, entry)
	}
	return out
}

func buildVolumeMounts(mounts []model.VolumeMount) []any {
	out := make([]any, 0, len(mounts))
	for _, vm := range mounts {
		entry := map[string]any{"name": vm.Name, "mountPath": vm.MountPath}
		putString(entry, "subPath", vm.SubPath)
		if vm.ReadOnly {
			entry["readOnly"] = true
		}
		out = append(out, entry)
	}
	return out
}

func resourceValues(r model.ResourceValues) map[string]any {
	m := map[string]any{}
	putString(m, "cpu", r.CPU)
	putString(m, "memory", r.Memory)
	return m
}

func buildProbe(p *model.Probe) map[string]any {
	if p == nil {
		return nil
	}
	m := buildHandler(&p.Handler)
	if m == nil {
		return nil
	}
	putInt(m, "initialDelaySeconds", p.InitialDelaySeconds)
	putInt(m, "periodSeconds", p.PeriodSeconds)
	putInt(m, "timeoutSeconds", p.TimeoutSeconds)
	putInt(m, "successThreshold", p.SuccessThreshold)
	putInt(m, "failureThreshold", p.FailureThreshold)
	return m
}

// buildHandler emits only the action selected by h.Kind.
func buildHandler(h *model.Handler) map[string]any {
	if h == nil {
		return nil
	}
	switch h.Kind {
	case model.HandlerExec:
		if h.Exec == nil {
			return nil
		}
		return map[string]any{"exec": map[string]any{"command": stringList(h.Exec.Command)}}
	case model.HandlerHTTPGet:
		if h.HTTPGet == nil {
			return nil
		}
		action := map[string]any{}
		putString(action, "path", h.HTTPGet.Path)
		putPort(action, h.HTTPGet.Port)
		putString(action, "host", h.HTTPGet.Host)
		putString(action, "scheme", h.HTTPGet.Scheme)
		return map[string]any{"httpGet": action}
	case model.HandlerTCPSocket:
		if h.TCPSocket == nil {
			return nil
		}
		action := map[string]any{}
		putPort(action, h.TCPSocket.Port)
		putString(action, "host", h.TCPSocket.Host)
		return map[string]any{"tcpSocket": action}
	default:
		return nil
	}
}

func buildSecurityContext(sc *model.SecurityContext) map[string]any {
	if sc == nil {
		return nil
	}
	m := map[string]any{}
	if sc.RunAsUser != nil {
		m["runAsUser"] = *sc.RunAsUser
	}
	if sc.RunAsGroup != nil {
		m["runAsGroup"] = *sc.RunAsGroup
	}
	if sc.RunAsNonRoot != nil {
		m["runAsNonRoot"] = *sc.RunAsNonRoot
	}
	if sc.Privileged != nil {
		m["privileged"] = *sc.Privileged
	}
	if sc.ReadOnlyRootFilesystem != nil {
		m["readOnlyRootFilesystem"] = *sc.ReadOnlyRootFilesystem
	}
	if sc.AllowPrivilegeEscalation != nil {
		m["allowPrivilegeEscalation"] = *sc.AllowPrivilegeEscalation
	}
	return m
}

// buildVolumes emits each volume with only the source selected by Kind.
// An emptyDir without options prunes down to a bare name, which the API
// server defaults back to emptyDir.
func buildVolumes(vols []model.Volume) []any {
	out := make([]any, 0, len(vols))
	for _, v := range vols {
		entry := map[string]any{"name": v.Name}
		switch v.Kind {
		case model.VolumeEmptyDir:
			src := map[string]any{}
			if v.EmptyDir != nil {
				putString(src, "medium", v.EmptyDir.Medium)
				putString(src, "sizeLimit", v.EmptyDir.SizeLimit)
			}
			entry["emptyDir"] = src
		case model.VolumeConfigMap:
			if v.ConfigMap != nil {
				entry["configMap"] = map[string]any{"name": v.ConfigMap.Name, "items": keyPaths(v.ConfigMap.Items)}
			}
		case model.VolumeSecret:
			if v.Secret != nil {
				entry["secret"] = map[string]any{"secretName": v.Secret.SecretName, "items": keyPaths(v.Secret.Items)}
			}
		case model.VolumePVC:
			if v.PersistentVolumeClaim != nil {
				src := map[string]any{"claimName": v.PersistentVolumeClaim.ClaimName}
				if v.PersistentVolumeClaim.ReadOnly {
					src["readOnly"] = true
				}
				entry["persistentVolumeClaim"] = src
			}
		}
		out = append(out, entry)
	}
	return out
}

func keyPaths(items []model.KeyToPath) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{"key": it.Key, "path": it.Path})
	}
	return out
}

func buildTolerations(ts []model.Toleration) []any {
	out := make([]any, 0, len(ts))
	for _, t := range ts {
		entry := map[string]any{}
		putString(entry, "key", t.Key)
		putString(entry, "operator", t.Operator)
		putString(entry, "value", t.Value)
		putString(entry, "effect", t.Effect)
		if t.TolerationSeconds != nil {
			entry["tolerationSeconds"] = *t.TolerationSeconds
		}
		out = append(out, entry)
	}
	return out
}

// buildAffinity converts the selected affinity sub-tree through the
// unstructured converter so the output follows the API field names.
func buildAffinity(a *model.Affinity) map[string]any {
	if a == nil {
		return nil
	}
	var obj any
	switch a.Kind {
	case model.AffinityNode:
		if a.Node != nil {
			obj = a.Node
		}
	case model.AffinityPod:
		if a.Pod != nil {
			obj = a.Pod
		}
	case model.AffinityPodAnti:
		if a.PodAnti != nil {
			obj = a.PodAnti
		}
	}
	if obj == nil {
		return nil
	}
	tree, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil
	}
	return map[string]any{string(a.Kind): tree}
}

func putString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func putInt(m map[string]any, key string, v int32) {
	if v != 0 {
		m[key] = int(v)
	}
}

func putMap(m map[string]any, key string, v map[string]any) {
	if v != nil {
		m[key] = v
	}
}

// putPort writes a numeric port as an integer and a named port as a string.
func putPort(m map[string]any, port string) {
	if port == "" {
		return
	}
	p := intstr.Parse(port)
	if p.Type == intstr.Int {
		m["port"] = int(p.IntVal)
		return
	}
	m["port"] = p.StrVal
}

func stringMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stringList(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
