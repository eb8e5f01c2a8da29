package discovery

import (
	"fmt"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	clienttesting "k8s.io/client-go/testing"
)

// newFakeDiscovery creates a FakeDiscovery with the given API resource lists.
func newFakeDiscovery(resources []*metav1.APIResourceList) *fakediscovery.FakeDiscovery {
	fake := &clienttesting.Fake{}
	fake.Resources = resources
	return &fakediscovery.FakeDiscovery{Fake: fake}
}

func TestDetect(t *testing.T) {
	disco := newFakeDiscovery([]*metav1.APIResourceList{
		{GroupVersion: "v1"},
		{GroupVersion: "apps/v1"},
		{GroupVersion: "networking.k8s.io/v1"},
	})
	disco.FakedServerVersion = &version.Info{GitVersion: "v1.35.0", Platform: "linux/amd64"}

	caps, err := Detect(disco)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if caps.ServerVersion != "v1.35.0" {
		t.Errorf("ServerVersion = %q, want %q", caps.ServerVersion, "v1.35.0")
	}
	if caps.Platform != "linux/amd64" {
		t.Errorf("Platform = %q, want %q", caps.Platform, "linux/amd64")
	}
	for _, g := range []string{"", "apps", "networking.k8s.io"} {
		if !caps.APIGroups[g] {
			t.Errorf("APIGroups[%q] = false, want true", g)
		}
	}
	if caps.APIGroups["batch"] {
		t.Error("APIGroups[batch] = true, want false")
	}
}

func TestDetect_Unreachable(t *testing.T) {
	disco := newFakeDiscovery(nil)
	disco.PrependReactor("get", "version", func(action clienttesting.Action) (bool, runtime.Object, error) {
		return true, nil, fmt.Errorf("connection refused")
	})

	caps, err := Detect(disco)
	if err == nil {
		t.Fatal("Detect() should fail when the server version cannot be read")
	}
	if caps != nil {
		t.Errorf("caps = %+v, want nil", caps)
	}
}

func TestHasAPIGroup_Found(t *testing.T) {
	disco := newFakeDiscovery([]*metav1.APIResourceList{
		{GroupVersion: "networking.k8s.io/v1"},
	})

	found, err := HasAPIGroup(disco, "networking.k8s.io")
	if err != nil {
		t.Fatalf("HasAPIGroup() error = %v", err)
	}
	if !found {
		t.Error("expected networking.k8s.io to be found")
	}
}

func TestHasAPIGroup_NotFound(t *testing.T) {
	disco := newFakeDiscovery([]*metav1.APIResourceList{
		{GroupVersion: "apps/v1"},
	})

	found, err := HasAPIGroup(disco, "networking.k8s.io")
	if err != nil {
		t.Fatalf("HasAPIGroup() error = %v", err)
	}
	if found {
		t.Error("expected networking.k8s.io to not be found")
	}
}
