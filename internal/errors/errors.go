// Package errors defines the console's typed error codes and a collector
// that keeps recently reported errors visible for a while.
package errors

import (
	stderrors "errors"
	"sort"
	"sync"
	"time"
)

// Code represents a typed console error code.
type Code string

// Console error codes.
const (
	ErrYAMLParseFailed     Code = "YAML_PARSE_FAILED"
	ErrStructuralInvalid   Code = "STRUCTURAL_INVALID"
	ErrSchemaInvalid       Code = "SCHEMA_INVALID"
	ErrApplyFailed         Code = "APPLY_FAILED"
	ErrDeleteFailed        Code = "DELETE_FAILED"
	ErrInformerSyncFailed  Code = "INFORMER_SYNC_FAILED"
	ErrInformerSyncTimeout Code = "INFORMER_SYNC_TIMEOUT"
	ErrRBACDenied          Code = "RBAC_DENIED"
	ErrClusterUnreachable  Code = "CLUSTER_UNREACHABLE"
	ErrLogsUnavailable     Code = "LOGS_UNAVAILABLE"
	ErrStatsUnavailable    Code = "STATS_UNAVAILABLE"
)

// Sentinel errors shared across packages.
var (
	// ErrNotFound is returned when a session or cluster object does not exist.
	ErrNotFound = stderrors.New("not found")
	// ErrUnsupportedKind is returned for manifests of a kind the console cannot apply.
	ErrUnsupportedKind = stderrors.New("unsupported kind")
	// ErrInvalidManifest is returned when a manifest cannot be decoded or lacks a name.
	ErrInvalidManifest = stderrors.New("invalid manifest")
	// ErrUnavailable is returned by cluster operations when no cluster is connected.
	ErrUnavailable = stderrors.New("cluster unavailable")
)

// defaultTTL is the auto-expiry duration for errors not re-reported.
const defaultTTL = 5 * time.Minute

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// ConsoleError is a typed error with code, component, and optional wrapped error.
type ConsoleError struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Component string `json:"component"`
	Timestamp int64  `json:"timestamp"`
	Err       error  `json:"-"`
}

// Error implements the error interface.
func (e *ConsoleError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As compatibility.
func (e *ConsoleError) Unwrap() error {
	return e.Err
}

// entry wraps a ConsoleError with its last-reported time for expiry tracking.
type entry struct {
	err        ConsoleError
	lastReport time.Time
}

// ErrorCollector is a thread-safe store for active console errors.
// Errors are keyed by Code+Component and auto-expire after 5 minutes
// if not re-reported.
type ErrorCollector struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]entry // key = string(Code) + "|" + Component
}

// NewErrorCollector creates an ErrorCollector with the given clock.
func NewErrorCollector(clock Clock) *ErrorCollector {
	return &ErrorCollector{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

func key(code Code, component string) string {
	return string(code) + "|" + component
}

// Report stores or refreshes an error. A zero Timestamp is filled from the clock.
func (ec *ErrorCollector) Report(err ConsoleError) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	now := ec.clock.Now()
	if err.Timestamp == 0 {
		err.Timestamp = now.UnixMilli()
	}
	ec.entries[key(err.Code, err.Component)] = entry{
		err:        err,
		lastReport: now,
	}
}

// ReportError is shorthand for Report with the message taken from err.
func (ec *ErrorCollector) ReportError(code Code, component string, err error) {
	ec.Report(ConsoleError{Code: code, Component: component, Message: err.Error(), Err: err})
}

// GetActiveErrors returns all errors reported within the TTL window,
// ordered by code then component.
func (ec *ErrorCollector) GetActiveErrors() []ConsoleError {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	now := ec.clock.Now()
	result := make([]ConsoleError, 0, len(ec.entries))
	for k, e := range ec.entries {
		if now.Sub(e.lastReport) > defaultTTL {
			delete(ec.entries, k)
			continue
		}
		result = append(result, e.err)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Code != result[j].Code {
			return result[i].Code < result[j].Code
		}
		return result[i].Component < result[j].Component
	})
	return result
}

// GetActiveErrorCodes returns a deduplicated list of active error codes.
func (ec *ErrorCollector) GetActiveErrorCodes() []string {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	now := ec.clock.Now()
	seen := make(map[Code]struct{})
	codes := make([]string, 0)
	for k, e := range ec.entries {
		if now.Sub(e.lastReport) > defaultTTL {
			delete(ec.entries, k)
			continue
		}
		if _, ok := seen[e.err.Code]; !ok {
			seen[e.err.Code] = struct{}{}
			codes = append(codes, string(e.err.Code))
		}
	}
	sort.Strings(codes)
	return codes
}

// Clear removes all tracked errors.
func (ec *ErrorCollector) Clear() {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.entries = make(map[string]entry)
}
