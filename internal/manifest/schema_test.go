package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(f *model.FormState)
		wantPath string
	}{
		{
			name:   "valid",
			mutate: func(f *model.FormState) {},
		},
		{
			name:     "empty name",
			mutate:   func(f *model.FormState) { f.DeploymentName = "" },
			wantPath: "metadata.name",
		},
		{
			name:     "bad namespace",
			mutate:   func(f *model.FormState) { f.Namespace = "Prod_1" },
			wantPath: "metadata.namespace",
		},
		{
			name:     "selector does not match labels",
			mutate:   func(f *model.FormState) { f.Labels = map[string]string{"app": "other"} },
			wantPath: "spec.template.metadata.labels",
		},
		{
			name:     "invalid label value",
			mutate:   func(f *model.FormState) { f.Labels["tier"] = "front end" },
			wantPath: "spec.template.metadata.labels.tier",
		},
		{
			name: "invalid quantity",
			mutate: func(f *model.FormState) {
				f.Containers[0].Resources.Limits.Memory = "lots"
			},
			wantPath: "spec.template.spec.containers[0].resources.limits.memory",
		},
		{
			name:     "no containers",
			mutate:   func(f *model.FormState) { f.Containers = nil },
			wantPath: "spec.template.spec.containers",
		},
		{
			name:     "missing image",
			mutate:   func(f *model.FormState) { f.Containers[0].Image = " " },
			wantPath: "spec.template.spec.containers[0].image",
		},
		{
			name: "duplicate container",
			mutate: func(f *model.FormState) {
				f.Containers = append(f.Containers, model.Container{Name: "WEB", Image: "busybox"})
			},
			wantPath: "spec.template.spec.containers[1].name",
		},
		{
			name: "mount of unknown volume",
			mutate: func(f *model.FormState) {
				f.Containers[0].VolumeMounts = []model.VolumeMount{{Name: "data", MountPath: "/data"}}
			},
			wantPath: "spec.template.spec.containers[0].volumeMounts[0].name",
		},
		{
			name: "mount of declared volume",
			mutate: func(f *model.FormState) {
				f.Volumes = []model.Volume{{Name: "data", Kind: model.VolumeEmptyDir}}
				f.Containers[0].VolumeMounts = []model.VolumeMount{{Name: "data", MountPath: "/data"}}
			},
		},
		{
			name:     "port zero",
			mutate:   func(f *model.FormState) { f.Containers[0].Ports[0].ContainerPort = 0 },
			wantPath: "spec.template.spec.containers[0].ports[0].containerPort",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := webForm()
			tt.mutate(&f)

			fe := CheckSchema(f)
			if tt.wantPath == "" {
				assert.Nil(t, fe)
				return
			}
			require.NotNil(t, fe)
			assert.Equal(t, tt.wantPath, fe.Path)
			assert.NotEmpty(t, fe.Message)
			assert.Contains(t, fe.String(), tt.wantPath+": ")
		})
	}
}

func TestCheckSchema_ReportsOnlyFirstError(t *testing.T) {
	f := webForm()
	f.DeploymentName = ""
	f.Containers[0].Image = ""
	f.Labels = nil

	fe := CheckSchema(f)
	require.NotNil(t, fe)
	assert.Equal(t, "metadata.name", fe.Path)
}
