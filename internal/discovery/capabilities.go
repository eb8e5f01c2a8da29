package discovery

import (
	"fmt"

	"k8s.io/client-go/discovery"
)

// Capabilities describes the cluster the console is connected to.
// Computed once at startup.
type Capabilities struct {
	ServerVersion string          `json:"server_version"`
	Platform      string          `json:"platform"`
	APIGroups     map[string]bool `json:"api_groups"`
}

// Detect queries the server version and the registered API groups. An error
// here means the API server is unreachable.
func Detect(discoveryClient discovery.DiscoveryInterface) (*Capabilities, error) {
	info, err := discoveryClient.ServerVersion()
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to get server version: %w", err)
	}

	groups, err := discoveryClient.ServerGroups()
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to list server groups: %w", err)
	}

	caps := &Capabilities{
		ServerVersion: info.GitVersion,
		Platform:      info.Platform,
		APIGroups:     make(map[string]bool, len(groups.Groups)),
	}
	for _, g := range groups.Groups {
		caps.APIGroups[g.Name] = true
	}
	return caps, nil
}

// HasAPIGroup checks whether a specific API group is registered with the cluster.
func HasAPIGroup(discoveryClient discovery.DiscoveryInterface, group string) (bool, error) {
	groups, err := discoveryClient.ServerGroups()
	if err != nil {
		return false, fmt.Errorf("discovery: failed to list server groups: %w", err)
	}

	for _, g := range groups.Groups {
		if g.Name == group {
			return true, nil
		}
	}
	return false, nil
}
