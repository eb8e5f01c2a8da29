package console

import (
	"sync"
	"time"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
)

// State represents the current lifecycle state of the console.
type State string

// Console lifecycle states.
const (
	StateStarting   State = "starting"
	StateSyncing    State = "syncing"
	StateReady      State = "ready"
	StateStandalone State = "standalone"
	StateStopped    State = "stopped"
)

var allStates = []State{StateStarting, StateSyncing, StateReady, StateStandalone, StateStopped}

// StateMachine tracks the console's lifecycle state and mirrors it into the
// console_state gauge.
type StateMachine struct {
	mu          sync.RWMutex
	state       State
	stateReason string
	since       time.Time
	clock       consoleerrors.Clock
	metrics     *observability.Metrics
}

// NewStateMachine creates a StateMachine starting in StateStarting.
// metrics may be nil.
func NewStateMachine(clock consoleerrors.Clock, metrics *observability.Metrics) *StateMachine {
	sm := &StateMachine{
		state:   StateStarting,
		since:   clock.Now(),
		clock:   clock,
		metrics: metrics,
	}
	sm.publish()
	return sm
}

// State returns the current console state.
func (sm *StateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// StateReason returns the human-readable reason for the current state.
func (sm *StateMachine) StateReason() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateReason
}

// Since returns when the current state was entered.
func (sm *StateMachine) Since() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.since
}

// Serving reports whether the console answers API requests: ready with a
// cluster, or standalone without one.
func (sm *StateMachine) Serving() bool {
	s := sm.State()
	return s == StateReady || s == StateStandalone
}

// TransitionTo sets the console state with a reason. Re-entering the
// current state only updates the reason.
func (sm *StateMachine) TransitionTo(state State, reason string) {
	sm.mu.Lock()
	if sm.state != state {
		sm.since = sm.clock.Now()
	}
	sm.state = state
	sm.stateReason = reason
	sm.mu.Unlock()
	sm.publish()
}

func (sm *StateMachine) publish() {
	if sm.metrics == nil {
		return
	}
	current := sm.State()
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		sm.metrics.ConsoleState.WithLabelValues(string(s)).Set(v)
	}
}
