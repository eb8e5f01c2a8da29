// Package editor keeps form state and manifest text of an editing session in
// sync. YAML is always derived from the last accepted form state; edited
// YAML only replaces that state once it passes every check.
package editor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/internal/manifest"
	"github.com/kubeadapt/kubeadapt-console/internal/observability"
	"github.com/kubeadapt/kubeadapt-console/internal/store"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

const component = "editor"

// Sync results recorded in the editor_sync_total metric.
const (
	resultAccepted = "accepted"
)

type session struct {
	mu       sync.Mutex
	state    model.FormState
	lastUsed time.Time
}

// Editor owns the editing sessions.
type Editor struct {
	sessions     *store.TypedStore[*session]
	clock        consoleerrors.Clock
	errCollector *consoleerrors.ErrorCollector
	metrics      *observability.Metrics
	displayLimit int
}

// New creates an Editor. displayLimit bounds the number of structural
// errors folded into a sync message.
func New(clock consoleerrors.Clock, errCollector *consoleerrors.ErrorCollector, metrics *observability.Metrics, displayLimit int) *Editor {
	return &Editor{
		sessions:     store.NewTypedStore[*session](),
		clock:        clock,
		errCollector: errCollector,
		metrics:      metrics,
		displayLimit: displayLimit,
	}
}

// Create opens a session. A nil initial state starts from model.NewFormState.
func (e *Editor) Create(initial *model.FormState) (model.Session, error) {
	state := model.NewFormState()
	if initial != nil {
		state = *initial
	}
	text, err := e.render(state)
	if err != nil {
		return model.Session{}, err
	}

	id := uuid.NewString()
	e.sessions.Set(id, &session{state: state, lastUsed: e.clock.Now()})
	e.metrics.EditorSessions.Set(float64(e.sessions.Len()))

	slog.Debug("editor session created", "session", id)
	return model.Session{ID: id, State: state, YAML: text}, nil
}

// Get returns the session's current state and derived YAML.
func (e *Editor) Get(id string) (model.Session, error) {
	s, err := e.lookup(id)
	if err != nil {
		return model.Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = e.clock.Now()
	text, err := e.render(s.state)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{ID: id, State: s.state, YAML: text}, nil
}

// Delete closes a session.
func (e *Editor) Delete(id string) error {
	if !e.sessions.Delete(id) {
		return fmt.Errorf("editor: session %s: %w", id, consoleerrors.ErrNotFound)
	}
	e.metrics.EditorSessions.Set(float64(e.sessions.Len()))
	return nil
}

// Len returns the number of open sessions.
func (e *Editor) Len() int {
	return e.sessions.Len()
}

// UpdateForm replaces the session's state with a form edit and returns the
// newly derived YAML.
func (e *Editor) UpdateForm(id string, f model.FormState) (model.Session, error) {
	s, err := e.lookup(id)
	if err != nil {
		return model.Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := e.render(f)
	if err != nil {
		return model.Session{}, err
	}
	s.state = f
	s.lastUsed = e.clock.Now()
	return model.Session{ID: id, State: f, YAML: text}, nil
}

// ApplyYAML pushes edited manifest text into the session. The text is
// decoded, structurally validated, merged over the current state and
// schema-checked; the first failing stage rejects the edit and the previous
// state is kept. Only an unknown session yields an error.
func (e *Editor) ApplyYAML(id, text string) (model.SyncResult, error) {
	s, err := e.lookup(id)
	if err != nil {
		return model.SyncResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = e.clock.Now()

	res := Sync(s.state, text, e.displayLimit)
	if res.Accepted {
		s.state = res.State
		e.metrics.EditorSyncTotal.WithLabelValues(resultAccepted).Inc()
	} else {
		e.reject(id, res)
	}

	rendered, err := e.render(res.State)
	if err != nil {
		return model.SyncResult{}, err
	}
	res.YAML = rendered
	return res, nil
}

// Sync runs the YAML-to-form pipeline against prev without touching any
// session. On rejection the returned State is prev. YAML is left empty.
func Sync(prev model.FormState, text string, displayLimit int) model.SyncResult {
	doc, err := manifest.Decode(text)
	if err != nil {
		return model.SyncResult{Stage: model.StageParse, Message: err.Error(), State: prev}
	}

	if vr := manifest.Validate(doc); !vr.Valid {
		return model.SyncResult{
			Stage:   model.StageValidate,
			Message: manifest.Summarize(vr.Errors, displayLimit),
			Errors:  vr.Errors,
			State:   prev,
		}
	}

	next := prev.Apply(manifest.Extract(doc))
	if fe := manifest.CheckSchema(next); fe != nil {
		return model.SyncResult{
			Stage:   model.StageSchema,
			Message: fe.String(),
			Errors:  []model.FieldError{*fe},
			State:   prev,
		}
	}

	return model.SyncResult{Accepted: true, Stage: model.StageApplied, State: next}
}

// EvictIdle closes sessions unused for longer than maxIdle and returns how
// many were closed.
func (e *Editor) EvictIdle(maxIdle time.Duration) int {
	cutoff := e.clock.Now().Add(-maxIdle)
	evicted := 0
	for id, s := range e.sessions.Snapshot() {
		s.mu.Lock()
		idle := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if idle && e.sessions.Delete(id) {
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("evicted idle editor sessions", "count", evicted, "max_idle", maxIdle)
		e.metrics.EditorSessions.Set(float64(e.sessions.Len()))
	}
	return evicted
}

func (e *Editor) lookup(id string) (*session, error) {
	s, ok := e.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("editor: session %s: %w", id, consoleerrors.ErrNotFound)
	}
	return s, nil
}

func (e *Editor) render(f model.FormState) (string, error) {
	start := time.Now()
	text, err := manifest.ToYAML(f)
	e.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("editor: render manifest: %w", err)
	}
	return text, nil
}

var stageCodes = map[string]consoleerrors.Code{
	model.StageParse:    consoleerrors.ErrYAMLParseFailed,
	model.StageValidate: consoleerrors.ErrStructuralInvalid,
	model.StageSchema:   consoleerrors.ErrSchemaInvalid,
}

func (e *Editor) reject(id string, res model.SyncResult) {
	e.metrics.EditorSyncTotal.WithLabelValues(res.Stage).Inc()
	n := len(res.Errors)
	if n == 0 {
		n = 1
	}
	e.metrics.ValidationErrorsTotal.WithLabelValues(res.Stage).Add(float64(n))
	e.errCollector.Report(consoleerrors.ConsoleError{
		Code:      stageCodes[res.Stage],
		Message:   res.Message,
		Component: component,
	})
	slog.Debug("editor yaml rejected", "session", id, "stage", res.Stage, "message", res.Message)
}
