// Package resource holds the informer-backed collectors for every resource
// kind the console lists.
package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"

	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// informerCollector watches one object type O through a SharedInformer and
// mirrors its summary I into a typed store keyed by "namespace/name".
type informerCollector[O any, I any] struct {
	name         string
	client       kubernetes.Interface
	namespace    string
	resyncPeriod time.Duration
	informerFor  func(informers.SharedInformerFactory) cache.SharedIndexInformer
	convert      func(O) I
	target       *store.TypedStore[I]
	metrics      *observability.Metrics

	informer cache.SharedIndexInformer
	running  atomic.Bool
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newInformerCollector[O any, I any](
	name string,
	client kubernetes.Interface,
	target *store.TypedStore[I],
	m *observability.Metrics,
	opts Options,
	informerFor func(informers.SharedInformerFactory) cache.SharedIndexInformer,
	convert func(O) I,
) *informerCollector[O, I] {
	return &informerCollector[O, I]{
		name:         name,
		client:       client,
		namespace:    opts.Namespace,
		resyncPeriod: opts.ResyncPeriod,
		informerFor:  informerFor,
		convert:      convert,
		target:       target,
		metrics:      m,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Name returns the collector name.
func (c *informerCollector[O, I]) Name() string { return c.name }

// Start registers event handlers and begins the informer.
func (c *informerCollector[O, I]) Start(_ context.Context) error {
	var factoryOpts []informers.SharedInformerOption
	if c.namespace != "" {
		factoryOpts = append(factoryOpts, informers.WithNamespace(c.namespace))
	}
	factory := informers.NewSharedInformerFactoryWithOptions(c.client, c.resyncPeriod, factoryOpts...)
	c.informer = c.informerFor(factory)

	if _, err := c.informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			c.upsert(obj, "add")
		},
		UpdateFunc: func(_, newObj interface{}) {
			c.upsert(newObj, "update")
		},
		DeleteFunc: func(obj interface{}) {
			key, err := cache.DeletionHandlingMetaNamespaceKeyFunc(obj)
			if err != nil {
				slog.Debug("informer delete without key", "collector", c.name, "error", err)
				return
			}
			c.target.Delete(key)
			c.record("delete")
		},
	}); err != nil {
		return fmt.Errorf("%s: failed to add event handler: %w", c.name, err)
	}

	c.running.Store(true)
	go func() {
		defer close(c.done)
		c.informer.Run(c.stopCh)
	}()
	return nil
}

func (c *informerCollector[O, I]) upsert(obj interface{}, event string) {
	typed, ok := obj.(O)
	if !ok {
		return
	}
	key, err := cache.MetaNamespaceKeyFunc(obj)
	if err != nil {
		return
	}
	c.target.Set(key, c.convert(typed))
	c.record(event)
}

func (c *informerCollector[O, I]) record(event string) {
	c.metrics.InformerEventsTotal.WithLabelValues(c.name, event).Inc()
	c.metrics.StoreItems.WithLabelValues(c.name).Set(float64(c.target.Len()))
}

// WaitForSync blocks until the informer cache is synced or ctx is canceled.
func (c *informerCollector[O, I]) WaitForSync(ctx context.Context) error {
	if c.informer == nil {
		return fmt.Errorf("%s informer not started", c.name)
	}
	if !cache.WaitForCacheSync(ctx.Done(), c.informer.HasSynced) {
		return fmt.Errorf("%s informer cache sync failed: %w", c.name, ctx.Err())
	}
	return nil
}

// Stop signals the informer to stop and waits for it to exit.
func (c *informerCollector[O, I]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	if c.running.Load() {
		<-c.done
	}
}
