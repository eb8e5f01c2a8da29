// Package collector keeps the console's stores current. Informer-backed
// collectors live in resource, the metrics-server poller in stats. The
// Registry starts them together and gates readiness on their first sync.
package collector

import "context"

// Collector feeds one store from the cluster.
//
// Start must not block past setup. WaitForSync returns once the store holds
// a complete first view (informer cache synced, or first poll done) or ctx
// ends. Stop may be called more than once.
type Collector interface {
	// Name is the resource kind served ("pods", "secrets") or "stats".
	Name() string
	Start(ctx context.Context) error
	WaitForSync(ctx context.Context) error
	Stop()
}
