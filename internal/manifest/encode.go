package manifest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// keyOrder ranks well-known Kubernetes keys so generated manifests read the
// way kubectl prints them. Unknown keys follow in alphabetical order.
var keyOrder = map[string]int{}

func init() {
	for i, k := range []string{
		"apiVersion", "kind", "metadata", "spec",
		"name", "namespace", "labels", "annotations",
		"replicas", "selector", "matchLabels", "template",
		"containers", "image", "imagePullPolicy", "command", "args", "workingDir",
		"ports", "containerPort", "port", "protocol",
		"env", "value", "valueFrom", "envFrom", "prefix",
		"resources", "requests", "limits", "cpu", "memory",
		"volumeMounts", "mountPath", "subPath", "readOnly",
		"livenessProbe", "readinessProbe", "startupProbe",
		"exec", "httpGet", "tcpSocket", "path", "host", "scheme",
		"initialDelaySeconds", "periodSeconds", "timeoutSeconds", "successThreshold", "failureThreshold",
		"lifecycle", "postStart", "preStop",
		"securityContext", "stdin", "tty",
		"volumes", "nodeSelector", "tolerations", "affinity", "restartPolicy",
		"key", "operator", "effect", "tolerationSeconds",
	} {
		keyOrder[k] = i
	}
}

func lessKey(a, b string) bool {
	ra, okA := keyOrder[a]
	rb, okB := keyOrder[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// Marshal renders a manifest tree as YAML with a 2-space indent, no line
// wrapping and no anchors. Key order is deterministic. A nil tree renders as "".
func Marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	node, err := toNode(v)
	if err != nil {
		return "", fmt.Errorf("manifest: encode: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("manifest: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("manifest: encode: %w", err)
	}
	return buf.String(), nil
}

func toNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			child, err := toNode(t[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range t {
			child, err := toNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(t); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// Decode parses the first YAML document in text into generic maps and
// slices. Mappings always come back as map[string]any. Blank input decodes
// to nil without error.
func Decode(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return normalize(doc), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = normalize(child)
		}
		return t
	default:
		return v
	}
}
