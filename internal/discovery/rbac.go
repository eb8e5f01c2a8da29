package discovery

import (
	"context"
	"fmt"

	authorizationv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes"
)

// Target names a store kind and the API resource that backs it.
type Target struct {
	Kind string
	GVR  schema.GroupVersionResource
}

// CheckResource performs a 3-phase conditional check for a Kubernetes resource:
//
//  1. API group exists via ServerGroups discovery (skipped for the core group)
//  2. Resource exists via ServerResourcesForGroupVersion
//  3. RBAC allows list+watch in namespace via SelfSubjectAccessReview
//
// If any phase fails or the resource is unavailable, it returns false with no error.
// Errors are only returned for unexpected failures (e.g., network issues).
func CheckResource(ctx context.Context, client kubernetes.Interface, discoveryClient discovery.DiscoveryInterface, namespace string, gvr schema.GroupVersionResource) (bool, error) {
	if gvr.Group != "" {
		groupExists, err := HasAPIGroup(discoveryClient, gvr.Group)
		if err != nil {
			return false, fmt.Errorf("discovery: phase 1 check API group %q: %w", gvr.Group, err)
		}
		if !groupExists {
			return false, nil
		}
	}

	resourceExists, err := hasResource(discoveryClient, gvr)
	if err != nil {
		return false, fmt.Errorf("discovery: phase 2 check resource %q in %s: %w", gvr.Resource, gvr.GroupVersion(), err)
	}
	if !resourceExists {
		return false, nil
	}

	canAccess, err := CanListWatch(ctx, client, namespace, gvr.Group, gvr.Resource)
	if err != nil {
		return false, fmt.Errorf("discovery: phase 3 RBAC check for %q: %w", gvr.Resource, err)
	}
	return canAccess, nil
}

// Partition runs CheckResource for every target and splits their kinds into
// permitted and denied, preserving input order. The first unexpected error
// aborts the check.
func Partition(ctx context.Context, client kubernetes.Interface, discoveryClient discovery.DiscoveryInterface, namespace string, targets []Target) (permitted, denied []string, err error) {
	for _, t := range targets {
		ok, err := CheckResource(ctx, client, discoveryClient, namespace, t.GVR)
		if err != nil {
			return nil, nil, fmt.Errorf("discovery: %s: %w", t.Kind, err)
		}
		if ok {
			permitted = append(permitted, t.Kind)
		} else {
			denied = append(denied, t.Kind)
		}
	}
	return permitted, denied, nil
}

// hasResource checks if a specific resource exists in a group/version.
func hasResource(discoveryClient discovery.DiscoveryInterface, gvr schema.GroupVersionResource) (bool, error) {
	resources, err := discoveryClient.ServerResourcesForGroupVersion(gvr.GroupVersion().String())
	if err != nil {
		// A missing group/version means the resource is missing, not a failure.
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	for _, r := range resources.APIResources {
		if r.Name == gvr.Resource {
			return true, nil
		}
	}
	return false, nil
}

// CanListWatch checks if the current identity has list and watch permissions
// for the given resource via SelfSubjectAccessReview. An empty namespace asks
// for cluster-wide access.
func CanListWatch(ctx context.Context, client kubernetes.Interface, namespace, group, resource string) (bool, error) {
	for _, verb := range []string{"list", "watch"} {
		allowed, err := checkAccess(ctx, client, namespace, group, resource, verb)
		if err != nil {
			return false, err
		}
		if !allowed {
			return false, nil
		}
	}
	return true, nil
}

// checkAccess creates a SelfSubjectAccessReview for a single verb.
func checkAccess(ctx context.Context, client kubernetes.Interface, namespace, group, resource, verb string) (bool, error) {
	review := &authorizationv1.SelfSubjectAccessReview{
		Spec: authorizationv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authorizationv1.ResourceAttributes{
				Namespace: namespace,
				Verb:      verb,
				Group:     group,
				Resource:  resource,
			},
		},
	}

	result, err := client.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, fmt.Errorf("SelfSubjectAccessReview for %s/%s verb=%s: %w", group, resource, verb, err)
	}

	return result.Status.Allowed, nil
}
