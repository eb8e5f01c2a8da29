// Package console runs the console lifecycle: collector start-up and sync,
// readiness, and periodic housekeeping of the store and editor sessions.
package console

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/kubeadapt/kubeadapt-console/internal/collector"
	"github.com/kubeadapt/kubeadapt-console/internal/config"
	"github.com/kubeadapt/kubeadapt-console/internal/editor"
	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
)

// DefaultHousekeepingInterval is how often store gauges are refreshed and
// idle sessions evicted.
const DefaultHousekeepingInterval = 30 * time.Second

// Console is the orchestrator that wires the collectors, store, and editor
// together and reports readiness.
type Console struct {
	config         *config.Config
	registry       *collector.Registry // nil when running without a cluster
	store          *store.Store
	editor         *editor.Editor
	stateMachine   *StateMachine
	errorCollector *consoleerrors.ErrorCollector
	metrics        *observability.Metrics

	// HousekeepingInterval overrides DefaultHousekeepingInterval when set.
	HousekeepingInterval time.Duration
}

// New creates a Console. A nil registry runs the console standalone.
func New(
	cfg *config.Config,
	registry *collector.Registry,
	st *store.Store,
	ed *editor.Editor,
	stateMachine *StateMachine,
	errCollector *consoleerrors.ErrorCollector,
	metrics *observability.Metrics,
) *Console {
	return &Console{
		config:         cfg,
		registry:       registry,
		store:          st,
		editor:         ed,
		stateMachine:   stateMachine,
		errorCollector: errCollector,
		metrics:        metrics,
	}
}

// IsReady reports whether the console is serving requests.
// Implements server.ReadinessChecker.
func (c *Console) IsReady() bool {
	return c.stateMachine.Serving()
}

// ClusterConnected reports whether cluster routes can be served.
func (c *Console) ClusterConnected() bool {
	return c.registry != nil && c.stateMachine.State() == StateReady
}

// State returns the state machine.
func (c *Console) State() *StateMachine {
	return c.stateMachine
}

// Run executes the console lifecycle: start collectors, wait for sync, then
// run housekeeping until the context is canceled.
func (c *Console) Run(ctx context.Context) error {
	if c.registry == nil {
		c.stateMachine.TransitionTo(StateStandalone, "cluster disabled")
		slog.Info("console is ready", "state", StateStandalone)
	} else {
		if err := c.startCollectors(ctx); err != nil {
			c.stateMachine.TransitionTo(StateStopped, err.Error())
			return err
		}
		defer c.registry.StopAll()
		c.publishStoreCounts()
		c.stateMachine.TransitionTo(StateReady, "informers synced")
		slog.Info("console is ready", "state", StateReady, "collectors", c.registry.Names())
	}

	interval := c.HousekeepingInterval
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.stateMachine.TransitionTo(StateStopped, "shutdown")
			return ctx.Err()
		case <-ticker.C:
			c.housekeep()
		}
	}
}

func (c *Console) startCollectors(ctx context.Context) error {
	c.stateMachine.TransitionTo(StateSyncing, "starting collectors")

	if err := c.registry.StartAll(ctx); err != nil {
		var partial *collector.PartialStartError
		if !stderrors.As(err, &partial) {
			c.errorCollector.ReportError(consoleerrors.ErrClusterUnreachable, "console", err)
			return fmt.Errorf("failed to start collectors: %w", err)
		}
		slog.Warn("some collectors failed to start, continuing with partial data",
			"failed", partial.Failed, "total", partial.Total)
	}

	syncTimeout := c.config.InformerSyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 2 * time.Minute
	}
	slog.Info("waiting for informer sync", "timeout", syncTimeout)

	syncCtx, syncCancel := context.WithTimeout(ctx, syncTimeout)
	defer syncCancel()
	syncStart := time.Now()
	if err := c.registry.WaitForSync(syncCtx); err != nil {
		code := consoleerrors.ErrInformerSyncFailed
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = consoleerrors.ErrInformerSyncTimeout
		}
		var syncErr *collector.SyncError
		unsynced := ""
		if stderrors.As(err, &syncErr) {
			unsynced = strings.Join(syncErr.Unsynced, ",")
		}
		c.errorCollector.Report(consoleerrors.ConsoleError{
			Code:      code,
			Message:   fmt.Sprintf("informer sync incomplete after %s: %v", syncTimeout, err),
			Component: "console",
			Timestamp: time.Now().UnixMilli(),
			Err:       err,
		})
		slog.Warn("informer sync incomplete, continuing with partial data",
			"error", err,
			"unsynced", unsynced,
			"elapsed", time.Since(syncStart).Round(time.Millisecond),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	} else {
		slog.Info("informer sync completed",
			"elapsed", time.Since(syncStart).Round(time.Millisecond),
		)
	}
	return nil
}

// housekeep refreshes store gauges and evicts idle editor sessions.
func (c *Console) housekeep() {
	c.publishStoreCounts()
	c.editor.EvictIdle(c.config.SessionIdleTimeout)
}

func (c *Console) publishStoreCounts() {
	counts := c.store.ItemCounts()
	args := make([]any, 0, 2*len(counts))
	for _, kind := range store.Kinds {
		c.metrics.StoreItems.WithLabelValues(kind).Set(float64(counts[kind]))
		args = append(args, kind, counts[kind])
	}
	slog.Debug("store counts", args...)
}

// RelieveMemoryPressure evicts sessions idle for a quarter of the idle
// timeout and forces a GC. Used as the MemoryPressureMonitor callback.
func (c *Console) RelieveMemoryPressure(ratio float64) {
	n := c.editor.EvictIdle(c.config.SessionIdleTimeout / 4)
	runtime.GC()
	slog.Warn("relieved memory pressure", "usage_ratio", ratio, "evicted_sessions", n)
}
