// Package cluster applies, deletes, and streams logs for console resources
// through the typed client-go clients.
package cluster

import (
	"fmt"
	"log/slog"
	"os"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// RESTConfig creates a Kubernetes REST config.
// It tries in-cluster config first, then falls back to a kubeconfig file:
// the explicit path if given, then $KUBECONFIG, then ~/.kube/config.
func RESTConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		cfg, err := rest.InClusterConfig()
		if err == nil {
			slog.Info("using in-cluster kubernetes config")
			return cfg, nil
		}
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		kubeconfig = clientcmd.RecommendedHomeFile
	}

	cfg, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("cluster: build config from %q: %w", kubeconfig, err)
	}
	slog.Info("using kubeconfig file", "path", kubeconfig)
	return cfg, nil
}
