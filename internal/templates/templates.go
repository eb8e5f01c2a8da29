// Package templates serves starter manifests keyed by workload type.
package templates

import (
	"embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/manifest"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

//go:embed manifests/*.yaml
var manifestFS embed.FS

// Workload types with a starter manifest.
const (
	TypeDeployment  = "deployment"
	TypeStatefulSet = "statefulset"
	TypeDaemonSet   = "daemonset"
	TypeJob         = "job"
	TypeCronJob     = "cronjob"
	TypeService     = "service"
	TypeIngress     = "ingress"
	TypeConfigMap   = "configmap"
	TypeSecret      = "secret"
)

var descriptions = map[string]string{
	TypeDeployment:  "Stateless application with rolling updates",
	TypeStatefulSet: "Stateful application with stable identity and storage",
	TypeDaemonSet:   "Pod on every node",
	TypeJob:         "Run-to-completion batch task",
	TypeCronJob:     "Batch task on a schedule",
	TypeService:     "Stable network endpoint for pods",
	TypeIngress:     "HTTP routing into services",
	TypeConfigMap:   "Non-secret configuration data",
	TypeSecret:      "Sensitive configuration data",
}

// StarterForm is the form behind the deployment template.
func StarterForm() model.FormState {
	f := model.NewFormState()
	f.DeploymentName = "my-app"
	f.Labels = map[string]string{"app": "my-app"}
	f.Containers = []model.Container{{
		Name:            "app",
		Image:           "nginx:latest",
		ImagePullPolicy: model.PullIfNotPresent,
		Ports:           []model.ContainerPort{{ContainerPort: 80, Protocol: model.ProtocolTCP}},
	}}
	return f
}

var loadTable = sync.OnceValues(func() (map[string]model.Template, error) {
	table := make(map[string]model.Template, len(descriptions))
	for typ, desc := range descriptions {
		var (
			text string
			err  error
		)
		if typ == TypeDeployment {
			text, err = manifest.ToYAML(StarterForm())
		} else {
			var raw []byte
			raw, err = manifestFS.ReadFile("manifests/" + typ + ".yaml")
			text = string(raw)
		}
		if err != nil {
			return nil, fmt.Errorf("templates: load %s: %w", typ, err)
		}
		table[typ] = model.Template{Type: typ, Description: desc, YAML: text}
	}
	return table, nil
})

// Lookup returns the starter manifest for a workload type. The type is
// matched case-insensitively.
func Lookup(typ string) (model.Template, error) {
	table, err := loadTable()
	if err != nil {
		return model.Template{}, err
	}
	t, ok := table[strings.ToLower(strings.TrimSpace(typ))]
	if !ok {
		return model.Template{}, fmt.Errorf("templates: %q: %w", typ, consoleerrors.ErrNotFound)
	}
	return t, nil
}

// List returns every template sorted by type.
func List() ([]model.Template, error) {
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	out := make([]model.Template, 0, len(table))
	for _, t := range table {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.Template) int {
		return strings.Compare(a.Type, b.Type)
	})
	return out, nil
}
