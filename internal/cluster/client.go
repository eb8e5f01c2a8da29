package cluster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

// DefaultNamespace is used when a manifest carries no metadata.namespace.
const DefaultNamespace = "default"

const component = "cluster"

// Apply result statuses recorded in the apply metric.
const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Client applies and deletes manifests and streams pod logs.
type Client struct {
	kube         kubernetes.Interface
	metrics      *observability.Metrics
	errCollector *consoleerrors.ErrorCollector
}

// NewClient creates a Client over the given clientset.
func NewClient(kube kubernetes.Interface, metrics *observability.Metrics, errCollector *consoleerrors.ErrorCollector) *Client {
	return &Client{kube: kube, metrics: metrics, errCollector: errCollector}
}

// objectClient is the subset of a typed client-go resource client that
// apply and delete need.
type objectClient[T metav1.Object] interface {
	Get(ctx context.Context, name string, opts metav1.GetOptions) (T, error)
	Create(ctx context.Context, obj T, opts metav1.CreateOptions) (T, error)
	Update(ctx context.Context, obj T, opts metav1.UpdateOptions) (T, error)
	Delete(ctx context.Context, name string, opts metav1.DeleteOptions) error
}

// header is the part of every manifest needed to route it.
type header struct {
	metav1.TypeMeta `json:",inline"`
	Metadata        struct {
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	} `json:"metadata"`
}

func decodeHeader(text string) (header, error) {
	var h header
	if err := yaml.Unmarshal([]byte(text), &h); err != nil {
		return h, fmt.Errorf("%w: %v", consoleerrors.ErrInvalidManifest, err)
	}
	if h.Kind == "" {
		return h, fmt.Errorf("%w: kind is required", consoleerrors.ErrInvalidManifest)
	}
	if strings.TrimSpace(h.Metadata.Name) == "" {
		return h, fmt.Errorf("%w: metadata.name is required", consoleerrors.ErrInvalidManifest)
	}
	if h.Metadata.Namespace == "" {
		h.Metadata.Namespace = DefaultNamespace
	}
	return h, nil
}

// decodeStrict decodes text into a typed object, rejecting unknown fields.
func decodeStrict[T metav1.Object](text string, obj T, namespace string) (T, error) {
	if err := yaml.UnmarshalStrict([]byte(text), obj); err != nil {
		return obj, fmt.Errorf("%w: %v", consoleerrors.ErrInvalidManifest, err)
	}
	obj.SetNamespace(namespace)
	return obj, nil
}

// Apply creates the object a manifest describes, or updates it when it
// already exists. Supported kinds: Deployment, StatefulSet, DaemonSet, Job,
// CronJob, Service, ConfigMap, Secret, Ingress.
func (c *Client) Apply(ctx context.Context, text string) (model.ApplyResult, error) {
	h, err := decodeHeader(text)
	if err != nil {
		return model.ApplyResult{}, err
	}
	ns := h.Metadata.Namespace

	var action string
	switch h.Kind {
	case "Deployment":
		var obj *appsv1.Deployment
		if obj, err = decodeStrict(text, &appsv1.Deployment{}, ns); err == nil {
			action, err = applyObject[*appsv1.Deployment](ctx, c.kube.AppsV1().Deployments(ns), obj, nil)
		}
	case "StatefulSet":
		var obj *appsv1.StatefulSet
		if obj, err = decodeStrict(text, &appsv1.StatefulSet{}, ns); err == nil {
			action, err = applyObject[*appsv1.StatefulSet](ctx, c.kube.AppsV1().StatefulSets(ns), obj, nil)
		}
	case "DaemonSet":
		var obj *appsv1.DaemonSet
		if obj, err = decodeStrict(text, &appsv1.DaemonSet{}, ns); err == nil {
			action, err = applyObject[*appsv1.DaemonSet](ctx, c.kube.AppsV1().DaemonSets(ns), obj, nil)
		}
	case "Job":
		var obj *batchv1.Job
		if obj, err = decodeStrict(text, &batchv1.Job{}, ns); err == nil {
			action, err = applyObject[*batchv1.Job](ctx, c.kube.BatchV1().Jobs(ns), obj, nil)
		}
	case "CronJob":
		var obj *batchv1.CronJob
		if obj, err = decodeStrict(text, &batchv1.CronJob{}, ns); err == nil {
			action, err = applyObject[*batchv1.CronJob](ctx, c.kube.BatchV1().CronJobs(ns), obj, nil)
		}
	case "Service":
		var obj *corev1.Service
		if obj, err = decodeStrict(text, &corev1.Service{}, ns); err == nil {
			action, err = applyObject[*corev1.Service](ctx, c.kube.CoreV1().Services(ns), obj, keepClusterIP)
		}
	case "ConfigMap":
		var obj *corev1.ConfigMap
		if obj, err = decodeStrict(text, &corev1.ConfigMap{}, ns); err == nil {
			action, err = applyObject[*corev1.ConfigMap](ctx, c.kube.CoreV1().ConfigMaps(ns), obj, nil)
		}
	case "Secret":
		var obj *corev1.Secret
		if obj, err = decodeStrict(text, &corev1.Secret{}, ns); err == nil {
			action, err = applyObject[*corev1.Secret](ctx, c.kube.CoreV1().Secrets(ns), obj, nil)
		}
	case "Ingress":
		var obj *networkingv1.Ingress
		if obj, err = decodeStrict(text, &networkingv1.Ingress{}, ns); err == nil {
			action, err = applyObject[*networkingv1.Ingress](ctx, c.kube.NetworkingV1().Ingresses(ns), obj, nil)
		}
	default:
		err = fmt.Errorf("cluster: apply %s: %w", h.Kind, consoleerrors.ErrUnsupportedKind)
	}

	if err != nil {
		c.metrics.ApplyTotal.WithLabelValues(h.Kind, statusFailure).Inc()
		c.errCollector.ReportError(consoleerrors.ErrApplyFailed, component, err)
		return model.ApplyResult{}, err
	}

	c.metrics.ApplyTotal.WithLabelValues(h.Kind, statusSuccess).Inc()
	slog.Info("manifest applied", "kind", h.Kind, "namespace", ns, "name", h.Metadata.Name, "action", action)
	return model.ApplyResult{Kind: h.Kind, Namespace: ns, Name: h.Metadata.Name, Action: action}, nil
}

// applyObject creates obj, falling back to an update carrying the live
// resourceVersion when it already exists. prepare, if set, copies
// server-assigned fields from the live object before the update.
func applyObject[T metav1.Object](ctx context.Context, client objectClient[T], obj T, prepare func(obj, live T)) (string, error) {
	_, err := client.Create(ctx, obj, metav1.CreateOptions{})
	if err == nil {
		return model.ActionCreated, nil
	}
	if !apierrors.IsAlreadyExists(err) {
		return "", fmt.Errorf("cluster: create %s: %w", obj.GetName(), err)
	}

	live, err := client.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		return "", fmt.Errorf("cluster: get %s: %w", obj.GetName(), err)
	}
	obj.SetResourceVersion(live.GetResourceVersion())
	if prepare != nil {
		prepare(obj, live)
	}
	if _, err := client.Update(ctx, obj, metav1.UpdateOptions{}); err != nil {
		return "", fmt.Errorf("cluster: update %s: %w", obj.GetName(), err)
	}
	return model.ActionUpdated, nil
}

// keepClusterIP carries the immutable cluster IPs over to an updated Service.
func keepClusterIP(obj, live *corev1.Service) {
	if obj.Spec.ClusterIP == "" {
		obj.Spec.ClusterIP = live.Spec.ClusterIP
		obj.Spec.ClusterIPs = live.Spec.ClusterIPs
	}
}

// Delete removes the object a manifest names. Objects that do not exist are
// reported as ErrNotFound.
func (c *Client) Delete(ctx context.Context, text string) (model.ApplyResult, error) {
	h, err := decodeHeader(text)
	if err != nil {
		return model.ApplyResult{}, err
	}
	ns, name := h.Metadata.Namespace, h.Metadata.Name

	// Jobs keep their pods unless propagation is requested.
	background := metav1.DeletePropagationBackground
	cascade := metav1.DeleteOptions{PropagationPolicy: &background}

	switch h.Kind {
	case "Deployment":
		err = c.kube.AppsV1().Deployments(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "StatefulSet":
		err = c.kube.AppsV1().StatefulSets(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "DaemonSet":
		err = c.kube.AppsV1().DaemonSets(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "Job":
		err = c.kube.BatchV1().Jobs(ns).Delete(ctx, name, cascade)
	case "CronJob":
		err = c.kube.BatchV1().CronJobs(ns).Delete(ctx, name, cascade)
	case "Service":
		err = c.kube.CoreV1().Services(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "ConfigMap":
		err = c.kube.CoreV1().ConfigMaps(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "Secret":
		err = c.kube.CoreV1().Secrets(ns).Delete(ctx, name, metav1.DeleteOptions{})
	case "Ingress":
		err = c.kube.NetworkingV1().Ingresses(ns).Delete(ctx, name, metav1.DeleteOptions{})
	default:
		return model.ApplyResult{}, fmt.Errorf("cluster: delete %s: %w", h.Kind, consoleerrors.ErrUnsupportedKind)
	}

	if apierrors.IsNotFound(err) {
		return model.ApplyResult{}, fmt.Errorf("cluster: delete %s %s/%s: %w", h.Kind, ns, name, consoleerrors.ErrNotFound)
	}
	if err != nil {
		err = fmt.Errorf("cluster: delete %s %s/%s: %w", h.Kind, ns, name, err)
		c.errCollector.ReportError(consoleerrors.ErrDeleteFailed, component, err)
		return model.ApplyResult{}, err
	}

	slog.Info("manifest deleted", "kind", h.Kind, "namespace", ns, "name", name)
	return model.ApplyResult{Kind: h.Kind, Namespace: ns, Name: name, Action: model.ActionDeleted}, nil
}

// Logs opens a container log stream. The caller closes the reader.
func (c *Client) Logs(ctx context.Context, opts model.LogOptions) (io.ReadCloser, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Pod == "" {
		return nil, fmt.Errorf("cluster: logs: pod is required: %w", consoleerrors.ErrInvalidManifest)
	}

	req := c.kube.CoreV1().Pods(opts.Namespace).GetLogs(opts.Pod, &corev1.PodLogOptions{
		Container: opts.Container,
		TailLines: opts.TailLines,
		Follow:    opts.Follow,
	})
	stream, err := req.Stream(ctx)
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("cluster: logs %s/%s: %w", opts.Namespace, opts.Pod, consoleerrors.ErrNotFound)
	}
	if err != nil {
		err = fmt.Errorf("cluster: logs %s/%s: %w", opts.Namespace, opts.Pod, err)
		c.errCollector.ReportError(consoleerrors.ErrLogsUnavailable, component, err)
		return nil, err
	}
	return stream, nil
}
